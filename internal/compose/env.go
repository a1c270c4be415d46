package compose

// EnvVars is an insertion-ordered set of generated variables and their
// default values. The zero value is not usable; use NewEnvVars.
type EnvVars struct {
	keys   []string
	values map[string]string
}

func NewEnvVars() *EnvVars {
	return &EnvVars{values: make(map[string]string)}
}

// Set adds or updates a variable. Updating keeps the original position.
func (e *EnvVars) Set(key, value string) {
	if _, ok := e.values[key]; !ok {
		e.keys = append(e.keys, key)
	}
	e.values[key] = value
}

func (e *EnvVars) Get(key string) (string, bool) {
	if e == nil {
		return "", false
	}
	v, ok := e.values[key]
	return v, ok
}

func (e *EnvVars) Len() int {
	if e == nil {
		return 0
	}
	return len(e.keys)
}

// Keys returns the variable names in insertion order.
func (e *EnvVars) Keys() []string {
	if e == nil {
		return nil
	}
	return append([]string(nil), e.keys...)
}

// Merge copies every variable of other into e; other wins on collisions.
func (e *EnvVars) Merge(other *EnvVars) {
	for _, k := range other.Keys() {
		e.Set(k, other.values[k])
	}
}

// Lines renders KEY=VALUE lines in insertion order.
func (e *EnvVars) Lines() []string {
	lines := make([]string, 0, e.Len())
	for _, k := range e.Keys() {
		lines = append(lines, k+"="+e.values[k])
	}
	return lines
}

// Map returns a copy of the variables as a plain map.
func (e *EnvVars) Map() map[string]string {
	m := make(map[string]string, e.Len())
	for _, k := range e.Keys() {
		m[k] = e.values[k]
	}
	return m
}
