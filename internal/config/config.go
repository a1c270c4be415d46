// Package config loads spinoff's project settings from .spinoff/config.yaml,
// the environment and command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/zpdzap/spinoff/internal/agent"
	"github.com/zpdzap/spinoff/internal/compose"
	"github.com/zpdzap/spinoff/internal/workspace"
)

const (
	Dir        = ".spinoff"
	ConfigFile = "config.yaml"
	// EnvWorkspacesDir overrides workspaces.dir.
	EnvWorkspacesDir = "WORKSPACES_DIR"
)

type Config struct {
	Version    string     `yaml:"version" mapstructure:"version"`
	Agent      Agent      `yaml:"agent" mapstructure:"agent"`
	Docker     Docker     `yaml:"docker" mapstructure:"docker"`
	Workspaces Workspaces `yaml:"workspaces" mapstructure:"workspaces"`
	Env        EnvFiles   `yaml:"env" mapstructure:"env"`
}

type Agent struct {
	Command     string `yaml:"command" mapstructure:"command"`
	Prompt      string `yaml:"prompt,omitempty" mapstructure:"prompt"`
	FailOnError bool   `yaml:"fail_on_error" mapstructure:"fail_on_error"`
}

type Docker struct {
	// Services lists the services to start; "all" or empty starts every
	// service and "none" skips Docker.
	Services       []string `yaml:"services" mapstructure:"services"`
	Volumes        string   `yaml:"volumes" mapstructure:"volumes"`
	ComposePattern string   `yaml:"compose_pattern" mapstructure:"compose_pattern"`
	FreePorts      bool     `yaml:"free_ports" mapstructure:"free_ports"`
}

type Workspaces struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// EnvFiles are relative to the workspace root unless absolute.
type EnvFiles struct {
	Shared   string `yaml:"shared" mapstructure:"shared"`
	Snapshot string `yaml:"snapshot" mapstructure:"snapshot"`
}

// flagKeys maps command-line flags onto config keys.
var flagKeys = map[string]string{
	"agent":               "agent.command",
	"prompt":              "agent.prompt",
	"fail-on-agent-error": "agent.fail_on_error",
	"docker-services":     "docker.services",
	"volumes":             "docker.volumes",
	"compose-pattern":     "docker.compose_pattern",
	"free-ports":          "docker.free_ports",
	"workspaces-dir":      "workspaces.dir",
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	files := compose.DefaultEnvFiles()
	return &Config{
		Version: "1",
		Agent:   Agent{Command: agent.DefaultCommand},
		Docker: Docker{
			Services:       []string{"all"},
			Volumes:        string(compose.VolumesConvertToNamed),
			ComposePattern: compose.DefaultPattern,
		},
		Workspaces: Workspaces{Dir: "./" + workspace.DefaultWorkspacesDir},
		Env:        EnvFiles{Shared: files.Shared, Snapshot: files.Snapshot},
	}
}

// Load layers defaults, .spinoff/config.yaml under projectDir (if present),
// WORKSPACES_DIR and any flags in flags that were set explicitly.
func Load(projectDir string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	def := Default()
	v.SetDefault("version", def.Version)
	v.SetDefault("agent.command", def.Agent.Command)
	v.SetDefault("agent.prompt", def.Agent.Prompt)
	v.SetDefault("agent.fail_on_error", def.Agent.FailOnError)
	v.SetDefault("docker.services", def.Docker.Services)
	v.SetDefault("docker.volumes", def.Docker.Volumes)
	v.SetDefault("docker.compose_pattern", def.Docker.ComposePattern)
	v.SetDefault("docker.free_ports", def.Docker.FreePorts)
	v.SetDefault("workspaces.dir", def.Workspaces.Dir)
	v.SetDefault("env.shared", def.Env.Shared)
	v.SetDefault("env.snapshot", def.Env.Snapshot)

	if Exists(projectDir) {
		v.SetConfigFile(filepath.Join(projectDir, Dir, ConfigFile))
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if err := v.BindEnv("workspaces.dir", EnvWorkspacesDir); err != nil {
		return nil, err
	}
	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes cfg to .spinoff/config.yaml relative to projectDir.
func Save(projectDir string, cfg *Config) error {
	dir := filepath.Join(projectDir, Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	path := filepath.Join(dir, ConfigFile)
	return os.WriteFile(path, data, 0o644)
}

// Exists returns true if .spinoff/config.yaml exists.
func Exists(projectDir string) bool {
	path := filepath.Join(projectDir, Dir, ConfigFile)
	_, err := os.Stat(path)
	return err == nil
}

// Options converts the settings for a run of feature.
func (c *Config) Options(feature, sourceDir string) (workspace.Options, error) {
	mode, err := compose.ParseVolumeMode(c.Docker.Volumes)
	if err != nil {
		return workspace.Options{}, err
	}
	opts := workspace.Options{
		Feature:          feature,
		SourceDir:        sourceDir,
		WorkspacesDir:    c.Workspaces.Dir,
		Agent:            c.Agent.Command,
		Prompt:           c.Agent.Prompt,
		VolumeMode:       mode,
		ComposePattern:   c.Docker.ComposePattern,
		FailOnAgentError: c.Agent.FailOnError,
		FreePorts:        c.Docker.FreePorts,
		EnvFiles:         compose.EnvFiles{Shared: c.Env.Shared, Snapshot: c.Env.Snapshot},
	}
	opts.Services, opts.SkipDocker = services(c.Docker.Services)
	return opts, nil
}

// services interprets the docker services setting.
func services(list []string) ([]string, bool) {
	var out []string
	for _, s := range list {
		switch s {
		case "", "all":
		case "none":
			return nil, true
		default:
			out = append(out, s)
		}
	}
	return out, false
}
