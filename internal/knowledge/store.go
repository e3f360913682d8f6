// Package knowledge manages the moss vector index: embedding, storage, and
// top-K cosine-similarity retrieval of document chunks.
//
// The Store embeds text through a Genkit ai.Embedder and persists rows via a
// Querier, an interface defined here on the consumer side (in the manner of
// http.RoundTripper or sql.Driver) so the PostgreSQL implementation and test
// doubles are interchangeable.
package knowledge

import (
	"context"
	"errors"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/pgvector/pgvector-go"

	"github.com/mossbase/moss/internal/log"
)

// ErrEmptyEmbedding indicates the embedder returned no vector.
var ErrEmptyEmbedding = errors.New("empty embedding returned")

// Querier defines the database operations the Store needs.
type Querier interface {
	// UpsertDocument inserts or updates a document chunk.
	UpsertDocument(ctx context.Context, doc Document, embedding pgvector.Vector) error

	// SearchDocuments returns the top-limit rows by cosine similarity.
	SearchDocuments(ctx context.Context, embedding pgvector.Vector, limit int32) ([]Candidate, error)

	// ListChunks returns all chunk contents of a document in chunk order.
	ListChunks(ctx context.Context, documentID string) ([]string, error)

	// DeleteDocument removes all chunks of a document.
	DeleteDocument(ctx context.Context, documentID string) error
}

// Store provides semantic search over indexed documents.
// Safe for concurrent use: it holds no mutable state of its own.
type Store struct {
	queries  Querier
	embedder ai.Embedder
	logger   log.Logger
}

// New creates a Store. All dependencies are required.
func New(querier Querier, embedder ai.Embedder, logger log.Logger) (*Store, error) {
	if querier == nil {
		return nil, fmt.Errorf("querier is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Store{queries: querier, embedder: embedder, logger: logger}, nil
}

// Add embeds and persists one document chunk. Re-adding a chunk with the
// same ID replaces it.
func (s *Store) Add(ctx context.Context, doc Document) error {
	vec, err := s.embed(ctx, doc.Content)
	if err != nil {
		return fmt.Errorf("embedding document %q: %w", doc.ID, err)
	}

	if err := s.queries.UpsertDocument(ctx, doc, vec); err != nil {
		return fmt.Errorf("upserting document %q: %w", doc.ID, err)
	}

	s.logger.Debug("added document chunk",
		"id", doc.ID, "document_id", doc.DocumentID, "content_length", len(doc.Content))
	return nil
}

// Search embeds the query and returns the most similar chunks, ordered by
// descending similarity. A per-call timeout bounds slow vector scans.
func (s *Store) Search(ctx context.Context, query string, opts ...SearchOption) ([]Candidate, error) {
	cfg := buildSearchConfig(opts)

	queryCtx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	vec, err := s.embed(queryCtx, query)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("embedding query timed out: %w", err)
		}
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := s.queries.SearchDocuments(queryCtx, vec, cfg.topK)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("vector search timed out: %w", err)
		}
		return nil, fmt.Errorf("vector search: %w", err)
	}

	s.logger.Debug("vector search completed", "query_length", len(query), "results", len(results))
	return results, nil
}

// Chunks returns every chunk of a document in order, for summarization.
func (s *Store) Chunks(ctx context.Context, documentID string) ([]string, error) {
	if documentID == "" {
		return nil, fmt.Errorf("document ID is required")
	}
	chunks, err := s.queries.ListChunks(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("listing chunks for %q: %w", documentID, err)
	}
	return chunks, nil
}

// Delete removes a document and all of its chunks.
func (s *Store) Delete(ctx context.Context, documentID string) error {
	if err := s.queries.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("deleting document %q: %w", documentID, err)
	}
	s.logger.Debug("deleted document", "document_id", documentID)
	return nil
}

// embed runs one text through the embedder and validates the response.
func (s *Store) embed(ctx context.Context, text string) (pgvector.Vector, error) {
	resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{
			{Content: []*ai.Part{ai.NewTextPart(text)}},
		},
	})
	if err != nil {
		return pgvector.Vector{}, err
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return pgvector.Vector{}, ErrEmptyEmbedding
	}
	return pgvector.NewVector(resp.Embeddings[0].Embedding), nil
}
