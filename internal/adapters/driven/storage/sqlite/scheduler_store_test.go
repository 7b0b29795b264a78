package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
)

func TestSchedulerStore_SaveAndGetTask(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	schedulerStore := store.SchedulerStore()

	now := time.Now().UTC().Truncate(time.Second)
	task := &domain.ScheduledTask{
		ID:          domain.TaskIDStalenessSweep,
		Name:        "Staleness Sweep",
		Interval:    time.Minute,
		LastRun:     now.Add(-time.Minute),
		NextRun:     now,
		LastSuccess: now.Add(-time.Minute),
		Enabled:     true,
	}
	require.NoError(t, schedulerStore.SaveTask(ctx, task))

	got, err := schedulerStore.GetTask(ctx, domain.TaskIDStalenessSweep)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Staleness Sweep", got.Name)
	assert.Equal(t, time.Minute, got.Interval)
	assert.True(t, got.Enabled)
	assert.True(t, task.LastRun.Equal(got.LastRun))
	assert.True(t, task.NextRun.Equal(got.NextRun))
}

func TestSchedulerStore_GetTask_NotFound(t *testing.T) {
	store := setupTestStore(t)

	got, err := store.SchedulerStore().GetTask(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSchedulerStore_SaveTask_Update(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	schedulerStore := store.SchedulerStore()

	require.NoError(t, schedulerStore.SaveTask(ctx, &domain.ScheduledTask{ID: "t", Name: "Before", Enabled: true}))
	require.NoError(t, schedulerStore.SaveTask(ctx, &domain.ScheduledTask{
		ID: "t", Name: "After", Interval: 2 * time.Hour, LastError: "boom",
	}))

	got, err := schedulerStore.GetTask(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, "After", got.Name)
	assert.Equal(t, 2*time.Hour, got.Interval)
	assert.Equal(t, "boom", got.LastError)
	assert.False(t, got.Enabled)
	assert.True(t, got.LastRun.IsZero())
}

func TestSchedulerStore_NilInput(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, store.SchedulerStore().SaveTask(ctx, nil), domain.ErrValidation)
	assert.ErrorIs(t, store.SchedulerStore().RecordResult(ctx, nil), domain.ErrValidation)
}

func TestSchedulerStore_ListAndDelete(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	schedulerStore := store.SchedulerStore()

	tasks, err := schedulerStore.ListTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	for _, id := range []string{domain.TaskIDStalenessSweep, domain.TaskIDHistoryPrune} {
		require.NoError(t, schedulerStore.SaveTask(ctx, &domain.ScheduledTask{ID: id, Name: id}))
	}
	require.NoError(t, schedulerStore.RecordResult(ctx, &domain.TaskResult{TaskID: domain.TaskIDHistoryPrune}))

	tasks, err = schedulerStore.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, domain.TaskIDHistoryPrune, tasks[0].ID)

	require.NoError(t, schedulerStore.DeleteTask(ctx, domain.TaskIDHistoryPrune))

	tasks, err = schedulerStore.ListTasks(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
	history, err := schedulerStore.GetTaskHistory(ctx, domain.TaskIDHistoryPrune, 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSchedulerStore_HistoryAndPrune(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	schedulerStore := store.SchedulerStore()

	now := time.Now().UTC()
	for i := 0; i < 6; i++ {
		require.NoError(t, schedulerStore.RecordResult(ctx, &domain.TaskResult{
			TaskID:         domain.TaskIDStalenessSweep,
			StartedAt:      now.Add(time.Duration(i) * time.Minute),
			EndedAt:        now.Add(time.Duration(i)*time.Minute + time.Second),
			Success:        i%2 == 0,
			Error:          map[bool]string{true: "", false: "store unavailable"}[i%2 == 0],
			ItemsProcessed: i,
		}))
	}

	recent, err := schedulerStore.GetTaskHistory(ctx, domain.TaskIDStalenessSweep, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, 5, recent[0].ItemsProcessed)
	assert.False(t, recent[0].Success)
	assert.Equal(t, "store unavailable", recent[0].Error)
	assert.True(t, recent[1].Success)

	require.NoError(t, schedulerStore.PruneHistory(ctx, 3))

	all, err := schedulerStore.GetTaskHistory(ctx, domain.TaskIDStalenessSweep, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int{5, 4, 3}, []int{all[0].ItemsProcessed, all[1].ItemsProcessed, all[2].ItemsProcessed})
}

func TestNullableColumns(t *testing.T) {
	assert.Nil(t, nullTime(time.Time{}))
	assert.Nil(t, nullText(""))
	assert.Equal(t, "boom", nullText("boom"))

	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	var got time.Time
	require.NoError(t, optTime{&got}.Scan(nullTime(at)))
	assert.True(t, at.Equal(got))
	require.NoError(t, optTime{&got}.Scan(nil))
	assert.True(t, got.IsZero())
	assert.Error(t, optTime{&got}.Scan(42))

	var d time.Duration
	require.NoError(t, seconds{&d}.Scan(int64(90)))
	assert.Equal(t, 90*time.Second, d)
}
