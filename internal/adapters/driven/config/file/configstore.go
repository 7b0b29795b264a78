package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/intellidocs/internal/adapters/driven/config"
	"github.com/custodia-labs/intellidocs/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigFile is the file name inside the configuration directory.
const ConfigFile = "config.toml"

// ConfigStore keeps settings in <dir>/config.toml. Keys are flattened on
// read and written back as TOML tables. Environment overrides are layered
// on top of the file and never written back to it.
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	data     map[string]any
	env      map[string]string
}

// DefaultDir returns ~/.intellidocs.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".intellidocs"), nil
}

// NewConfigStore opens <configDir>/config.toml, creating the directory if
// needed. An empty configDir selects DefaultDir. A missing file is an empty
// configuration.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		configDir = dir
	}
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	s := &ConfigStore{
		filePath: filepath.Join(configDir, ConfigFile),
		data:     make(map[string]any),
		env:      envOverrides(os.Environ()),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ConfigStore) load() error {
	raw, err := os.ReadFile(s.filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", s.filePath, err)
	}

	var tree map[string]any
	if err := toml.Unmarshal(raw, &tree); err != nil {
		return fmt.Errorf("parse %s: %w", s.filePath, err)
	}
	if tree != nil {
		s.data = config.Flatten(tree)
	}
	return nil
}

// Get returns a value. Environment overrides win over the file.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if v, ok := s.env[key]; ok {
		return v, true
	}
	v, ok := s.data[key]
	return v, ok
}

func (s *ConfigStore) value(key string) any {
	v, _ := s.Get(key)
	return v
}

// GetString returns a string value.
func (s *ConfigStore) GetString(key string) string { return config.String(s.value(key)) }

// GetInt returns an integer value.
func (s *ConfigStore) GetInt(key string) int { return config.Int(s.value(key)) }

// GetFloat returns a float value.
func (s *ConfigStore) GetFloat(key string) float64 { return config.Float(s.value(key)) }

// GetBool returns a boolean value.
func (s *ConfigStore) GetBool(key string) bool { return config.Bool(s.value(key)) }

// GetDuration returns a duration value.
func (s *ConfigStore) GetDuration(key string) time.Duration { return config.Duration(s.value(key)) }

// Set stores one value and rewrites the file.
func (s *ConfigStore) Set(key string, value any) error {
	return s.Update(map[string]any{key: value})
}

// Update stores values and rewrites the file once. On a write failure
// the in-memory state is rolled back.
func (s *ConfigStore) Update(values map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous := make(map[string]any, len(s.data))
	for k, v := range s.data {
		previous[k] = v
	}
	for k, v := range values {
		s.data[k] = v
	}
	if err := s.write(); err != nil {
		s.data = previous
		return err
	}
	return nil
}

// write persists the file contents. Caller holds the lock.
func (s *ConfigStore) write() error {
	raw, err := toml.Marshal(config.Nest(s.data))
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(s.filePath, raw, 0600); err != nil {
		return fmt.Errorf("write %s: %w", s.filePath, err)
	}
	return nil
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}
