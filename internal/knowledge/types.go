package knowledge

import "time"

// Candidate is a single vector-search hit: a stored passage with its cosine
// similarity to the query. Candidates live only for the duration of the
// search that produced them.
type Candidate struct {
	ID         string  `json:"id"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}

// Document is a chunk of indexed content. DocumentID groups the chunks of
// one source document; ChunkIndex orders them within it.
type Document struct {
	ID         string
	DocumentID string
	ChunkIndex int
	Content    string
	Metadata   map[string]string
	CreatedAt  time.Time
}
