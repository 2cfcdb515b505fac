package types

// JSONMap is a free-form key/value document stored as jsonb.
type JSONMap map[string]string

// Get returns the value for key or "" when absent.
func (m JSONMap) Get(key string) string {
	if m == nil {
		return ""
	}
	return m[key]
}
