package memory

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_Seeded(t *testing.T) {
	store := NewConfigStore(map[string]any{"qa.top_k": 4}, map[string]any{"llm.provider": "ollama"})

	assert.Equal(t, 4, store.GetInt("qa.top_k"))
	assert.Equal(t, "ollama", store.GetString("llm.provider"))
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Update(map[string]any{
		"qa.top_k":               int64(6),
		"vector.oversample":      "3.5",
		"scheduler.enabled":      "true",
		"pipeline.parse_timeout": "2m",
		"pipeline.stale_after":   30,
	}))

	assert.Equal(t, 6, store.GetInt("qa.top_k"))
	assert.InDelta(t, 3.5, store.GetFloat("vector.oversample"), 1e-9)
	assert.True(t, store.GetBool("scheduler.enabled"))
	assert.Equal(t, 2*time.Minute, store.GetDuration("pipeline.parse_timeout"))
	assert.Equal(t, 30*time.Second, store.GetDuration("pipeline.stale_after"))
}

func TestConfigStore_Missing(t *testing.T) {
	store := NewConfigStore()

	_, ok := store.Get("nope")
	assert.False(t, ok)
	assert.Empty(t, store.GetString("nope"))
	assert.Zero(t, store.GetInt("nope"))
	assert.False(t, store.GetBool("nope"))
	assert.Zero(t, store.GetDuration("nope"))
}

func TestConfigStore_SetOverwrites(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("llm.model", "a"))
	require.NoError(t, store.Set("llm.model", "b"))
	assert.Equal(t, "b", store.GetString("llm.model"))
}

func TestConfigStore_SeedIsCopied(t *testing.T) {
	seed := map[string]any{"qa.top_k": 1}
	store := NewConfigStore(seed)
	seed["qa.top_k"] = 2
	assert.Equal(t, 1, store.GetInt("qa.top_k"))
}

func TestConfigStore_Concurrent(t *testing.T) {
	store := NewConfigStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = store.Set(fmt.Sprintf("k.%d", n), n)
		}(i)
		go func(n int) {
			defer wg.Done()
			_ = store.GetInt(fmt.Sprintf("k.%d", n))
		}(i)
	}
	wg.Wait()

	for i := 0; i < 50; i++ {
		assert.Equal(t, i, store.GetInt(fmt.Sprintf("k.%d", i)))
	}
}
