package domain

import "time"

// Built-in maintenance tasks.
const (
	// TaskIDStalenessSweep fails documents whose ingestion task has gone away.
	TaskIDStalenessSweep = "staleness-sweep"

	// TaskIDHistoryPrune trims Q&A history to its configured cap.
	TaskIDHistoryPrune = "history-prune"
)

// ScheduledTask is a recurring maintenance task and its last outcome.
type ScheduledTask struct {
	ID       string
	Name     string
	Interval time.Duration
	Enabled  bool

	LastRun     time.Time
	NextRun     time.Time
	LastSuccess time.Time

	// LastError is empty after a successful run.
	LastError string
}

// IsDue reports whether an enabled task should run at now. A task that
// has never been scheduled is due immediately.
func (t *ScheduledTask) IsDue(now time.Time) bool {
	return t.Enabled && !t.NextRun.After(now)
}

// Record applies a finished run and schedules the next one an interval
// after it ended.
func (t *ScheduledTask) Record(r *TaskResult) {
	t.LastRun = r.StartedAt
	t.NextRun = r.EndedAt.Add(t.Interval)
	if r.Success {
		t.LastError = ""
		t.LastSuccess = r.EndedAt
		return
	}
	t.LastError = r.Error
}

// TaskResult is one execution of a task.
type TaskResult struct {
	TaskID    string
	StartedAt time.Time
	EndedAt   time.Time
	Success   bool
	Error     string

	// ItemsProcessed counts what the run touched, e.g. documents failed
	// by the staleness sweep.
	ItemsProcessed int
}

// Duration is how long the run took.
func (r TaskResult) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// TaskConfig enables a task and sets its interval.
type TaskConfig struct {
	Enabled  bool
	Interval time.Duration
}

// SchedulerConfig is the master switch plus per-task settings.
type SchedulerConfig struct {
	Enabled     bool
	TaskConfigs map[string]TaskConfig
}

// GetTaskConfig returns a task's settings, or the zero value (disabled)
// for tasks that are not configured.
func (c *SchedulerConfig) GetTaskConfig(taskID string) TaskConfig {
	return c.TaskConfigs[taskID]
}

// DefaultSchedulerConfig sweeps every minute and prunes history hourly.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled: true,
		TaskConfigs: map[string]TaskConfig{
			TaskIDStalenessSweep: {Enabled: true, Interval: time.Minute},
			TaskIDHistoryPrune:   {Enabled: true, Interval: time.Hour},
		},
	}
}
