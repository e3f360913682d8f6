package knowledge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PGQuerier implements Querier against PostgreSQL with the pgvector
// extension. Schema lives in db/migrations.
type PGQuerier struct {
	pool *pgxpool.Pool
}

// NewPGQuerier wraps a connection pool. The pool's lifecycle is owned by
// the caller.
func NewPGQuerier(pool *pgxpool.Pool) *PGQuerier {
	return &PGQuerier{pool: pool}
}

// UpsertDocument implements Querier.
func (q *PGQuerier) UpsertDocument(ctx context.Context, doc Document, embedding pgvector.Vector) error {
	metadata, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}

	_, err = q.pool.Exec(ctx, `
		INSERT INTO documents (id, document_id, chunk_index, content, embedding, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			document_id = EXCLUDED.document_id,
			chunk_index = EXCLUDED.chunk_index,
			content     = EXCLUDED.content,
			embedding   = EXCLUDED.embedding,
			metadata    = EXCLUDED.metadata`,
		doc.ID, doc.DocumentID, doc.ChunkIndex, doc.Content, embedding, metadata)
	if err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	return nil
}

// SearchDocuments implements Querier. Similarity is cosine: 1 - distance.
func (q *PGQuerier) SearchDocuments(ctx context.Context, embedding pgvector.Vector, limit int32) ([]Candidate, error) {
	rows, err := q.pool.Query(ctx, `
		SELECT id, content, 1 - (embedding <=> $1) AS similarity
		FROM documents
		ORDER BY embedding <=> $1
		LIMIT $2`,
		embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var results []Candidate
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.ID, &c.Content, &c.Similarity); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		results = append(results, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return results, nil
}

// ListChunks implements Querier.
func (q *PGQuerier) ListChunks(ctx context.Context, documentID string) ([]string, error) {
	rows, err := q.pool.Query(ctx, `
		SELECT content
		FROM documents
		WHERE document_id = $1
		ORDER BY chunk_index`,
		documentID)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var chunks []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		chunks = append(chunks, content)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return chunks, nil
}

// DeleteDocument implements Querier.
func (q *PGQuerier) DeleteDocument(ctx context.Context, documentID string) error {
	_, err := q.pool.Exec(ctx, `DELETE FROM documents WHERE document_id = $1`, documentID)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

var _ Querier = (*PGQuerier)(nil)
