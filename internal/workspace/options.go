package workspace

import (
	"fmt"
	"regexp"

	"github.com/zpdzap/spinoff/internal/agent"
	"github.com/zpdzap/spinoff/internal/compose"
)

// DefaultWorkspacesDir is used when no workspaces directory is configured.
const DefaultWorkspacesDir = "workspaces"

// SafeComposeFile is the rewritten compose file written into a workspace.
const SafeComposeFile = "docker-compose.safe.yml"

var featurePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Options configures one run.
type Options struct {
	Feature string
	// SourceDir is the repository to copy; empty means the git top level of
	// the working directory.
	SourceDir     string
	WorkspacesDir string
	Agent         string
	Prompt        string
	// Services limits the stack to these services; empty starts all of them.
	Services       []string
	SkipDocker     bool
	VolumeMode     compose.VolumeMode
	ComposePattern string
	// FailOnAgentError turns a non-zero agent exit into a failed run.
	FailOnAgentError bool
	// FreePorts publishes each port on a free host port instead of the
	// container port default.
	FreePorts bool
	// EnvFiles are resolved against the workspace root when relative.
	EnvFiles compose.EnvFiles
}

// OptionsError reports an unusable option.
type OptionsError struct {
	Field  string
	Value  string
	Reason string
}

func (e *OptionsError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (o Options) withDefaults() Options {
	if o.WorkspacesDir == "" {
		o.WorkspacesDir = DefaultWorkspacesDir
	}
	if o.Agent == "" {
		o.Agent = agent.DefaultCommand
	}
	if o.VolumeMode == "" {
		o.VolumeMode = compose.VolumesConvertToNamed
	}
	if o.ComposePattern == "" {
		o.ComposePattern = compose.DefaultPattern
	}
	if o.EnvFiles == (compose.EnvFiles{}) {
		o.EnvFiles = compose.DefaultEnvFiles()
	}
	return o
}

// Validate checks the options before anything is created on disk.
func (o Options) Validate() error {
	if !featurePattern.MatchString(o.Feature) {
		return &OptionsError{Field: "feature name", Value: o.Feature,
			Reason: "use letters, digits, '.', '_' or '-', starting with a letter or digit"}
	}
	if o.VolumeMode != "" && !o.VolumeMode.Valid() {
		_, err := compose.ParseVolumeMode(string(o.VolumeMode))
		return err
	}
	for _, s := range o.Services {
		if s == "" {
			return &OptionsError{Field: "docker service", Value: s, Reason: "empty service name"}
		}
	}
	if o.Agent == "" {
		return nil
	}
	if _, err := agent.Command(o.Agent, ""); err != nil {
		return &OptionsError{Field: "agent command", Value: o.Agent, Reason: err.Error()}
	}
	return nil
}
