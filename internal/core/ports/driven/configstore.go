package driven

import "time"

// ConfigStore holds flat, dot-separated configuration keys such as
// "qa.top_k". Typed getters return the zero value when a key is missing or
// cannot be converted.
type ConfigStore interface {
	// Get returns the raw value and whether the key is set.
	Get(key string) (any, bool)

	GetString(key string) string
	GetInt(key string) int
	GetFloat(key string) float64
	GetBool(key string) bool

	// GetDuration accepts Go duration strings ("45s") or whole seconds.
	GetDuration(key string) time.Duration

	// Set stores one value and persists it.
	Set(key string, value any) error

	// Update stores several values and persists them in one write.
	Update(values map[string]any) error

	// Path returns where the configuration is persisted.
	Path() string
}
