package tasks

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGQuerier implements Querier against PostgreSQL.
type PGQuerier struct {
	pool *pgxpool.Pool
}

var _ Querier = (*PGQuerier)(nil)

func NewPGQuerier(pool *pgxpool.Pool) *PGQuerier {
	return &PGQuerier{pool: pool}
}

const insertTaskSQL = `
INSERT INTO tasks (id, workspace_id, title, description, priority, due_date, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (workspace_id, title) DO NOTHING`

func (q *PGQuerier) InsertTask(ctx context.Context, task Task) (bool, error) {
	tag, err := q.pool.Exec(ctx, insertTaskSQL,
		task.ID, task.WorkspaceID, task.Title, task.Description,
		task.Priority, task.DueDate, task.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("exec insert: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

const listTasksSQL = `
SELECT id, workspace_id, title, description, priority, due_date, created_at
FROM tasks
WHERE workspace_id = $1
ORDER BY created_at DESC`

func (q *PGQuerier) ListTasks(ctx context.Context, workspaceID string) ([]Task, error) {
	rows, err := q.pool.Query(ctx, listTasksSQL, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.WorkspaceID, &t.Title, &t.Description,
			&t.Priority, &t.DueDate, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}
