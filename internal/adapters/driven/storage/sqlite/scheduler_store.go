package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
	"github.com/custodia-labs/intellidocs/internal/core/ports/driven"
)

// schedulerStore implements driven.SchedulerStore over scheduled_tasks and
// task_results.
type schedulerStore struct {
	store *Store
}

var _ driven.SchedulerStore = (*schedulerStore)(nil)

// nullTime stores the zero time as NULL.
func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return formatTime(t)
}

// nullText stores the empty string as NULL.
func nullText(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// optTime scans a nullable time column.
type optTime struct{ t *time.Time }

func (o optTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*o.t = time.Time{}
	case string:
		*o.t = parseTime(v)
	case []byte:
		*o.t = parseTime(string(v))
	default:
		return fmt.Errorf("cannot scan %T into time", src)
	}
	return nil
}

// optString scans a nullable text column.
type optString struct{ s *string }

func (o optString) Scan(src any) error {
	var ns sql.NullString
	if err := ns.Scan(src); err != nil {
		return err
	}
	*o.s = ns.String
	return nil
}

// seconds scans a duration stored as whole seconds.
type seconds struct{ d *time.Duration }

func (s seconds) Scan(src any) error {
	var n sql.NullInt64
	if err := n.Scan(src); err != nil {
		return err
	}
	*s.d = time.Duration(n.Int64) * time.Second
	return nil
}

// taskFields binds a task's columns in selectTask order.
func taskFields(t *domain.ScheduledTask) []any {
	return []any{
		&t.ID, &t.Name, seconds{&t.Interval}, optTime{&t.LastRun}, optTime{&t.NextRun},
		optString{&t.LastError}, optTime{&t.LastSuccess}, &t.Enabled,
	}
}

const selectTask = `SELECT id, name, interval_seconds, last_run, next_run, last_error, last_success, enabled
	FROM scheduled_tasks`

// GetTask returns nil, nil when the task does not exist.
func (s *schedulerStore) GetTask(ctx context.Context, taskID string) (*domain.ScheduledTask, error) {
	var task domain.ScheduledTask
	err := s.store.db.QueryRowContext(ctx, selectTask+` WHERE id = ?`, taskID).Scan(taskFields(&task)...)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, storeErr("reading task", err)
	}
	return &task, nil
}

// ListTasks returns every task ordered by ID.
func (s *schedulerStore) ListTasks(ctx context.Context) ([]domain.ScheduledTask, error) {
	rows, err := s.store.db.QueryContext(ctx, selectTask+` ORDER BY id`)
	if err != nil {
		return nil, storeErr("listing tasks", err)
	}
	defer rows.Close()

	var tasks []domain.ScheduledTask
	for rows.Next() {
		var task domain.ScheduledTask
		if err := rows.Scan(taskFields(&task)...); err != nil {
			return nil, storeErr("reading task", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("listing tasks", err)
	}
	return tasks, nil
}

// SaveTask inserts the task or replaces the row with the same ID.
func (s *schedulerStore) SaveTask(ctx context.Context, task *domain.ScheduledTask) error {
	if task == nil || task.ID == "" {
		return domain.ErrValidation
	}
	args := []any{
		task.ID, task.Name, int64(task.Interval / time.Second), nullTime(task.LastRun), nullTime(task.NextRun),
		nullText(task.LastError), nullTime(task.LastSuccess), task.Enabled,
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO scheduled_tasks
			(id, name, interval_seconds, last_run, next_run, last_error, last_success, enabled)
		VALUES (`+placeholders(len(args))+`)`, args...)
	if err != nil {
		return storeErr("saving task", err)
	}
	return nil
}

// DeleteTask removes a task together with its results.
func (s *schedulerStore) DeleteTask(ctx context.Context, taskID string) error {
	return s.store.withTx(ctx, func(tx *sql.Tx) error {
		for _, q := range []string{
			"DELETE FROM task_results WHERE task_id = ?",
			"DELETE FROM scheduled_tasks WHERE id = ?",
		} {
			if _, err := tx.ExecContext(ctx, q, taskID); err != nil {
				return storeErr("deleting task", err)
			}
		}
		return nil
	})
}

// RecordResult appends one run outcome.
func (s *schedulerStore) RecordResult(ctx context.Context, r *domain.TaskResult) error {
	if r == nil {
		return domain.ErrValidation
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO task_results (task_id, started_at, ended_at, success, error, items_processed)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.TaskID, formatTime(r.StartedAt), formatTime(r.EndedAt), r.Success, nullText(r.Error), r.ItemsProcessed)
	if err != nil {
		return storeErr("recording task result", err)
	}
	return nil
}

// GetTaskHistory returns up to limit results, newest first. limit <= 0
// returns all of them.
func (s *schedulerStore) GetTaskHistory(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT task_id, started_at, ended_at, success, error, items_processed
		FROM task_results
		WHERE task_id = ?
		ORDER BY started_at DESC, id DESC
		LIMIT ?`, taskID, limit)
	if err != nil {
		return nil, storeErr("reading task history", err)
	}
	defer rows.Close()

	var results []domain.TaskResult
	for rows.Next() {
		var r domain.TaskResult
		if err := rows.Scan(&r.TaskID, optTime{&r.StartedAt}, optTime{&r.EndedAt},
			&r.Success, optString{&r.Error}, &r.ItemsProcessed); err != nil {
			return nil, storeErr("reading task result", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("reading task history", err)
	}
	return results, nil
}

// PruneHistory keeps the newest keep results of each task.
func (s *schedulerStore) PruneHistory(ctx context.Context, keep int) error {
	_, err := s.store.db.ExecContext(ctx, `
		DELETE FROM task_results
		WHERE id IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (PARTITION BY task_id ORDER BY started_at DESC, id DESC) AS rn
				FROM task_results
			) WHERE rn > ?
		)`, keep)
	if err != nil {
		return storeErr("pruning task history", err)
	}
	return nil
}
