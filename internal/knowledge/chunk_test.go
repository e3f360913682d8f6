package knowledge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitChunks(t *testing.T) {
	t.Run("short text stays whole", func(t *testing.T) {
		chunks := SplitChunks("a short note", 100)
		assert.Equal(t, []string{"a short note"}, chunks)
	})

	t.Run("paragraphs pack together until the limit", func(t *testing.T) {
		text := "first paragraph\n\nsecond paragraph\n\nthird paragraph"
		chunks := SplitChunks(text, 36)
		require.Len(t, chunks, 2)
		assert.Equal(t, "first paragraph\n\nsecond paragraph", chunks[0])
		assert.Equal(t, "third paragraph", chunks[1])
	})

	t.Run("oversized paragraph is split mid-text", func(t *testing.T) {
		text := strings.Repeat("x", 250)
		chunks := SplitChunks(text, 100)
		require.Len(t, chunks, 3)
		assert.Len(t, chunks[0], 100)
		assert.Len(t, chunks[1], 100)
		assert.Len(t, chunks[2], 50)
	})

	t.Run("empty paragraphs dropped", func(t *testing.T) {
		chunks := SplitChunks("one\n\n\n\n  \n\ntwo", 100)
		assert.Equal(t, []string{"one\n\ntwo"}, chunks)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, SplitChunks("", 100))
		assert.Empty(t, SplitChunks("   \n\n  ", 100))
	})

	t.Run("rune safety", func(t *testing.T) {
		text := strings.Repeat("許", 150)
		chunks := SplitChunks(text, 100)
		require.Len(t, chunks, 2)
		assert.Equal(t, 100, len([]rune(chunks[0])))
		assert.Equal(t, 50, len([]rune(chunks[1])))
	})
}
