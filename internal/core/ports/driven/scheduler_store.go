package driven

import (
	"context"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
)

// SchedulerStore keeps maintenance task state across restarts so a sweep
// interval is honoured even when the process is short-lived.
type SchedulerStore interface {
	// GetTask returns nil, nil for an unknown task.
	GetTask(ctx context.Context, taskID string) (*domain.ScheduledTask, error)
	ListTasks(ctx context.Context) ([]domain.ScheduledTask, error)

	// SaveTask inserts or replaces by ID.
	SaveTask(ctx context.Context, task *domain.ScheduledTask) error
	DeleteTask(ctx context.Context, taskID string) error

	RecordResult(ctx context.Context, result *domain.TaskResult) error

	// GetTaskHistory returns up to limit results, newest first.
	GetTaskHistory(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error)

	// PruneHistory keeps the newest keep results per task.
	PruneHistory(ctx context.Context, keep int) error
}
