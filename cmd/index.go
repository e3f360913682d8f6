package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mossbase/moss/internal/knowledge"
)

var indexDelete bool

var indexCmd = &cobra.Command{
	Use:   "index [file|document-id]",
	Short: "Add a document to the knowledge base, or remove one",
	Long: `Index reads a text file, splits it into chunks and embeds each chunk
into the vector index. The file path (cleaned) becomes the document id,
so re-indexing a file replaces nothing but adds fresh chunks under new
ids; use --delete first for a clean re-index.

With --delete, the argument is a document id whose chunks are removed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := setupApp(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		if indexDelete {
			if err := a.Knowledge.Delete(ctx, args[0]); err != nil {
				return fmt.Errorf("deleting document: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted document %s\n", args[0])
			return nil
		}

		path := filepath.Clean(args[0])
		data, err := os.ReadFile(path) // #nosec G304 -- user-supplied path is the point of this command
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		chunks := knowledge.SplitChunks(string(data), knowledge.DefaultChunkSize)
		if len(chunks) == 0 {
			return fmt.Errorf("%s contains no indexable text", path)
		}

		for i, content := range chunks {
			doc := knowledge.Document{
				ID:         uuid.NewString(),
				DocumentID: path,
				ChunkIndex: i,
				Content:    content,
				Metadata:   map[string]string{"source": path},
			}
			if err := a.Knowledge.Add(ctx, doc); err != nil {
				return fmt.Errorf("indexing chunk %d: %w", i, err)
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "indexed %s (%d chunks)\n", path, len(chunks))
		return nil
	},
}

func init() {
	indexCmd.Flags().BoolVar(&indexDelete, "delete", false, "remove a document by id instead of indexing")
	rootCmd.AddCommand(indexCmd)
}
