package compose

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/compose-spec/compose-go/v2/loader"
	"github.com/compose-spec/compose-go/v2/types"
)

// ProjectName normalizes s into a valid compose project name.
func ProjectName(s string) string {
	return loader.NormalizeProjectName(s)
}

// LoadProject loads path the way docker compose will, interpolating with env.
// Only the file's own structure is resolved; referenced env files and build
// contexts are not read.
func LoadProject(ctx context.Context, path, name string, env map[string]string) (*types.Project, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading compose file: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	details := types.ConfigDetails{
		WorkingDir:  filepath.Dir(abs),
		ConfigFiles: []types.ConfigFile{{Filename: abs, Content: content}},
		Environment: types.Mapping(env),
	}
	project, err := loader.LoadWithContext(ctx, details, func(o *loader.Options) {
		o.SetProjectName(name, true)
		o.SkipResolveEnvironment = true
	})
	if err != nil {
		return nil, fmt.Errorf("loading compose project %s: %w", name, err)
	}
	return project, nil
}

// UnknownServicesError reports requested services a project does not define.
type UnknownServicesError struct {
	Unknown []string
	Known   []string
}

func (e *UnknownServicesError) Error() string {
	return fmt.Sprintf("unknown service(s) %s (available: %s)",
		strings.Join(e.Unknown, ", "), strings.Join(e.Known, ", "))
}

// CheckServices verifies every requested service exists in p, including
// services disabled by profiles.
func CheckServices(p *types.Project, requested []string) error {
	var unknown []string
	for _, name := range requested {
		_, enabled := p.Services[name]
		_, disabled := p.DisabledServices[name]
		if !enabled && !disabled {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) == 0 {
		return nil
	}

	known := make([]string, 0, len(p.Services)+len(p.DisabledServices))
	for name := range p.Services {
		known = append(known, name)
	}
	for name := range p.DisabledServices {
		known = append(known, name)
	}
	sort.Strings(known)
	return &UnknownServicesError{Unknown: unknown, Known: known}
}
