package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
	"github.com/custodia-labs/intellidocs/internal/core/ports/driven"
	"github.com/custodia-labs/intellidocs/internal/core/ports/driving"
	"github.com/custodia-labs/intellidocs/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// resultsKept bounds the stored run history per task.
const resultsKept = 100

// StaleSweeper fails in-flight documents whose task has gone away.
type StaleSweeper interface {
	SweepStale(ctx context.Context) (int, error)
}

// job is a maintenance routine bound to a task ID. run reports how many
// items it touched.
type job struct {
	id   string
	name string
	cfg  domain.TaskConfig
	run  func(ctx context.Context) (int, error)
}

// Scheduler runs the maintenance jobs whose tasks are due, checking once
// per tick. Task state lives in the SchedulerStore so intervals carry over
// between short-lived processes.
type Scheduler struct {
	store driven.SchedulerStore
	jobs  map[string]job
	tick  time.Duration
	now   func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler builds the enabled jobs from config. A nil sweeper or
// history store leaves its job out.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	sweeper StaleSweeper,
	history driven.QAHistoryStore,
	historyMax int,
) *Scheduler {
	s := &Scheduler{
		store: store,
		jobs:  make(map[string]job),
		tick:  time.Minute,
		now:   time.Now,
	}
	if !config.Enabled {
		return s
	}

	if sweeper != nil {
		s.add(config, domain.TaskIDStalenessSweep, "Staleness Sweep", func(ctx context.Context) (int, error) {
			n, err := sweeper.SweepStale(ctx)
			if n > 0 {
				logger.Warn("staleness sweep failed %d orphaned document(s)", n)
			}
			return n, err
		})
	}
	if history != nil && historyMax > 0 {
		s.add(config, domain.TaskIDHistoryPrune, "Q&A History Prune", func(ctx context.Context) (int, error) {
			return 0, history.Prune(ctx, historyMax)
		})
	}
	return s
}

func (s *Scheduler) add(config domain.SchedulerConfig, id, name string, run func(context.Context) (int, error)) {
	cfg := config.GetTaskConfig(id)
	if !cfg.Enabled || cfg.Interval <= 0 {
		return
	}
	s.jobs[id] = job{id: id, name: name, cfg: cfg, run: run}
}

// Start registers the jobs and checks for due tasks until ctx is cancelled
// or Stop is called. A second concurrent Start returns nil at once.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stop := s.stopCh
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		if s.stopCh == stop {
			s.running = false
		}
		s.mu.Unlock()
	}()

	if err := s.register(ctx); err != nil {
		log.Printf("scheduler: failed to register tasks: %v", err)
	}
	s.runDue(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		case <-ticker.C:
			s.runDue(ctx)
		}
	}
}

// Stop ends the loop and waits for running jobs.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if s.running {
		s.running = false
		close(s.stopCh)
	}
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// register creates a stored task for every job. An existing task keeps
// its schedule unless the configured interval changed.
func (s *Scheduler) register(ctx context.Context) error {
	for _, j := range s.jobs {
		task, err := s.store.GetTask(ctx, j.id)
		if err != nil {
			return err
		}
		switch {
		case task == nil:
			task = &domain.ScheduledTask{ID: j.id, Interval: j.cfg.Interval, NextRun: s.now().Add(j.cfg.Interval)}
		case task.Interval != j.cfg.Interval:
			task.Interval = j.cfg.Interval
			task.NextRun = s.now().Add(j.cfg.Interval)
		}
		task.Name = j.name
		task.Enabled = true
		if err := s.store.SaveTask(ctx, task); err != nil {
			return err
		}
	}
	return nil
}

// runDue starts every due task that has a job. Stored tasks without one,
// e.g. from an older configuration, are left alone.
func (s *Scheduler) runDue(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		log.Printf("scheduler: failed to list tasks: %v", err)
		return
	}

	now := s.now()
	for i := range tasks {
		task := tasks[i]
		j, ok := s.jobs[task.ID]
		if !ok || !task.IsDue(now) {
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.execute(ctx, &task, j)
		}()
	}
}

// execute runs one job and persists the outcome.
func (s *Scheduler) execute(ctx context.Context, task *domain.ScheduledTask, j job) {
	result := &domain.TaskResult{TaskID: task.ID, StartedAt: s.now()}
	n, err := j.run(ctx)
	result.EndedAt = s.now()
	result.ItemsProcessed = n
	result.Success = err == nil
	if err != nil {
		result.Error = err.Error()
	}
	task.Record(result)
	logger.Debug("task %s finished in %s (%d items)", task.ID, result.Duration(), n)

	if err := s.store.SaveTask(ctx, task); err != nil {
		log.Printf("scheduler: failed to save task %s: %v", task.ID, err)
	}
	if err := s.store.RecordResult(ctx, result); err != nil {
		log.Printf("scheduler: failed to record result for %s: %v", task.ID, err)
	}
	if err := s.store.PruneHistory(ctx, resultsKept); err != nil {
		log.Printf("scheduler: failed to prune task history: %v", err)
	}
}
