package driven

// ConfigStore is a flat key/value view of the settings file. Keys use dot
// notation ("sinks.email.host"). The typed getters return the zero value
// when a key is missing or holds another type.
type ConfigStore interface {
	// Get returns the raw value stored under key.
	Get(key string) (any, bool)

	GetString(key string) string

	// GetInt accepts any integer width the decoder produced.
	GetInt(key string) int

	// GetFloat also converts integers.
	GetFloat(key string) float64

	GetBool(key string) bool

	GetStringSlice(key string) []string

	// Keys lists every stored key, sorted.
	Keys() []string

	// Set stores value under key. File-backed stores persist it at once.
	Set(key string, value any) error

	// Save writes the current values.
	Save() error

	// Load replaces the in-memory values with the file contents.
	Load() error

	// Path names the backing file.
	Path() string
}
