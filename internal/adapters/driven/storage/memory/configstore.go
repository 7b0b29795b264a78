package memory

import (
	"sync"
	"time"

	"github.com/custodia-labs/intellidocs/internal/adapters/driven/config"
	"github.com/custodia-labs/intellidocs/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps configuration in memory. It backs tests and runs that
// must not touch the user's config file.
type ConfigStore struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewConfigStore creates an empty store, optionally seeded with values.
func NewConfigStore(seed ...map[string]any) *ConfigStore {
	s := &ConfigStore{values: make(map[string]any)}
	for _, m := range seed {
		for k, v := range m {
			s.values[k] = v
		}
	}
	return s
}

// Get returns a value and whether it is set.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *ConfigStore) value(key string) any {
	v, _ := s.Get(key)
	return v
}

func (s *ConfigStore) GetString(key string) string          { return config.String(s.value(key)) }
func (s *ConfigStore) GetInt(key string) int                { return config.Int(s.value(key)) }
func (s *ConfigStore) GetFloat(key string) float64          { return config.Float(s.value(key)) }
func (s *ConfigStore) GetBool(key string) bool              { return config.Bool(s.value(key)) }
func (s *ConfigStore) GetDuration(key string) time.Duration { return config.Duration(s.value(key)) }

// Set stores a value.
func (s *ConfigStore) Set(key string, value any) error {
	return s.Update(map[string]any{key: value})
}

// Update stores several values at once.
func (s *ConfigStore) Update(values map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range values {
		s.values[k] = v
	}
	return nil
}

// Path returns ":memory:".
func (s *ConfigStore) Path() string {
	return ":memory:"
}
