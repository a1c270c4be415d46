package compose

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultPattern matches the usual compose file names.
const DefaultPattern = "*compose*.y*ml"

// CanonicalNames are preferred, in order, when a pattern matches several files
// inside a workspace.
var CanonicalNames = []string{
	"docker-compose.yml",
	"docker-compose.yaml",
	"compose.yml",
	"compose.yaml",
	"docker-compose.test.yml",
}

// Discover resolves pattern to exactly one compose file. A pattern without
// glob characters must name an existing file. Previously generated
// *.safe.yml files never match.
func Discover(pattern string) (string, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if !hasMeta(pattern) {
		info, err := os.Stat(pattern)
		if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
			return "", &DiscoveryError{Pattern: pattern}
		}
		if err != nil {
			return "", fmt.Errorf("checking %s: %w", pattern, err)
		}
		return pattern, nil
	}

	matches, err := glob(pattern)
	if err != nil {
		return "", err
	}
	if len(matches) != 1 {
		return "", &DiscoveryError{Pattern: pattern, Matches: matches}
	}
	return matches[0], nil
}

// Find returns the compose files in dir matching pattern, sorted.
func Find(dir, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	return glob(filepath.Join(dir, pattern))
}

// Choose picks one of several matches, preferring CanonicalNames in order and
// falling back to the first match.
func Choose(matches []string) string {
	if len(matches) == 0 {
		return ""
	}
	for _, name := range CanonicalNames {
		for _, m := range matches {
			if filepath.Base(m) == name {
				return m
			}
		}
	}
	return matches[0]
}

func glob(pattern string) ([]string, error) {
	all, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	var out []string
	for _, m := range all {
		if strings.HasSuffix(m, SafeSuffix) {
			continue
		}
		if info, err := os.Stat(m); err != nil || info.IsDir() {
			continue
		}
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

func hasMeta(p string) bool {
	return strings.ContainsAny(p, `*?[\`)
}
