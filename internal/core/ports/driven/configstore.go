package driven

// ConfigStore is a flat key/value view over persisted settings.
// Keys are dot-separated ("retrieval.top_k", "llm.model"). Typed getters
// return the zero value when a key is absent or holds an incompatible type;
// numeric getters accept any numeric representation.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	GetFloat(key string) float64
	GetBool(key string) bool

	// Set updates a value. File-backed stores persist it immediately.
	Set(key string, value any) error

	Save() error
	Load() error

	// Path identifies the backing storage, ":memory:" for the in-memory store.
	Path() string
}
