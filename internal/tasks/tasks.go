// Package tasks persists workspace tasks created by the agent.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mossbase/moss/internal/log"
)

var (
	ErrMissingWorkspace = errors.New("workspace id is required")
	ErrMissingTitle     = errors.New("title is required")
	ErrInvalidPriority  = errors.New("invalid priority")
)

// Task is a single actionable item scoped to a workspace.
type Task struct {
	ID          uuid.UUID
	WorkspaceID string
	Title       string
	Description string
	Priority    string
	DueDate     *time.Time
	CreatedAt   time.Time
}

var validPriorities = map[string]bool{
	"":       true,
	"low":    true,
	"medium": true,
	"high":   true,
}

// Querier is the persistence surface the store depends on.
type Querier interface {
	// InsertTask inserts the task unless one with the same workspace and
	// title already exists. Returns true when a row was inserted.
	InsertTask(ctx context.Context, task Task) (bool, error)
	ListTasks(ctx context.Context, workspaceID string) ([]Task, error)
}

// Store creates and lists tasks. Creation is idempotent by
// (workspace, title) so repeated tool calls from the agent loop do not
// pile up duplicates.
type Store struct {
	queries Querier
	logger  log.Logger
}

func New(queries Querier, logger log.Logger) (*Store, error) {
	if queries == nil {
		return nil, fmt.Errorf("querier is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Store{
		queries: queries,
		logger:  logger.With("component", "tasks"),
	}, nil
}

// Create inserts the task. Returns true when the task was inserted and
// false when a task with the same workspace and title already existed.
func (s *Store) Create(ctx context.Context, task Task) (bool, error) {
	if task.WorkspaceID == "" {
		return false, ErrMissingWorkspace
	}
	if task.Title == "" {
		return false, ErrMissingTitle
	}
	if !validPriorities[task.Priority] {
		return false, fmt.Errorf("%w: %q", ErrInvalidPriority, task.Priority)
	}
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}

	inserted, err := s.queries.InsertTask(ctx, task)
	if err != nil {
		return false, fmt.Errorf("insert task: %w", err)
	}
	if !inserted {
		s.logger.Debug("task already exists",
			"workspace", task.WorkspaceID, "title", task.Title)
	}
	return inserted, nil
}

// List returns all tasks in a workspace, newest first.
func (s *Store) List(ctx context.Context, workspaceID string) ([]Task, error) {
	if workspaceID == "" {
		return nil, ErrMissingWorkspace
	}
	ts, err := s.queries.ListTasks(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return ts, nil
}
