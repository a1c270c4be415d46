package compose

import (
	"fmt"
	"strings"
)

// ConfigError reports an invalid transform option.
type ConfigError struct {
	Option string
	Value  string
	Valid  []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s option %q (valid: %s)", e.Option, e.Value, strings.Join(e.Valid, ", "))
}

// ParseError reports a compose file that is not YAML or not a mapping.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("parsing compose file: %v", e.Err)
	}
	return fmt.Sprintf("parsing compose file %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// DiscoveryError reports that a compose file pattern matched zero or several files.
type DiscoveryError struct {
	Pattern string
	Matches []string
}

func (e *DiscoveryError) Error() string {
	switch len(e.Matches) {
	case 0:
		return fmt.Sprintf("no files found matching pattern: %s", e.Pattern)
	default:
		return fmt.Sprintf("multiple files found matching pattern %s: %s", e.Pattern, strings.Join(e.Matches, ", "))
	}
}
