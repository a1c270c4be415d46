// Package docker drives an isolated docker compose stack through the
// docker CLI.
package docker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/zpdzap/spinoff/internal/compose"
	"github.com/zpdzap/spinoff/internal/execx"
)

// Error reports a failing compose operation.
type Error struct {
	Op      string
	Project string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("docker compose %s (project %s): %v", e.Op, e.Project, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ExitCode returns compose's exit status, or 1 when it did not run.
func (e *Error) ExitCode() int { return execx.ExitCode(e.Err, 1) }

// Stack is one compose project rooted at Dir.
type Stack struct {
	Runner  execx.Runner
	Dir     string
	File    string
	Project string
	// Env overrides variables the compose file interpolates.
	Env    *compose.EnvVars
	Stdout io.Writer
	Stderr io.Writer
}

func (s *Stack) run(ctx context.Context, op string, args ...string) error {
	cmd := execx.Cmd{
		Name:   "docker",
		Args:   append([]string{"compose", "-f", s.File, "-p", s.Project}, args...),
		Dir:    s.Dir,
		Env:    s.Env.Lines(),
		Stdout: s.Stdout,
		Stderr: s.Stderr,
	}
	if err := s.Runner.Run(ctx, cmd); err != nil {
		return &Error{Op: op, Project: s.Project, Err: err}
	}
	return nil
}

// Up builds and starts services (all when none are given) in the background.
func (s *Stack) Up(ctx context.Context, services []string) error {
	args := append([]string{"up", "--build", "--force-recreate", "-d"}, services...)
	return s.run(ctx, "up", args...)
}

// Ps prints the stack's containers.
func (s *Stack) Ps(ctx context.Context) error {
	return s.run(ctx, "ps", "ps")
}

// Down stops the stack and removes its containers, networks and volumes.
func (s *Stack) Down(ctx context.Context) error {
	return s.run(ctx, "down", "down", "-v")
}

// Validate loads the compose file with the variables compose would see and
// checks that every requested service exists.
func (s *Stack) Validate(ctx context.Context, services []string) error {
	env, err := s.environment()
	if err != nil {
		return &Error{Op: "config", Project: s.Project, Err: err}
	}
	project, err := compose.LoadProject(ctx, s.path(), s.Project, env)
	if err != nil {
		return &Error{Op: "config", Project: s.Project, Err: err}
	}
	if err := compose.CheckServices(project, services); err != nil {
		return &Error{Op: "config", Project: s.Project, Err: err}
	}
	return nil
}

func (s *Stack) path() string {
	if filepath.IsAbs(s.File) {
		return s.File
	}
	return filepath.Join(s.Dir, s.File)
}

// environment mirrors compose's interpolation sources: the process
// environment wins over the project's .env file, and Env wins over both.
func (s *Stack) environment() (map[string]string, error) {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}

	dotenv, err := godotenv.Read(filepath.Join(filepath.Dir(s.path()), ".env"))
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading .env: %w", err)
	default:
		for k, v := range dotenv {
			if _, set := env[k]; !set {
				env[k] = v
			}
		}
	}

	for k, v := range s.Env.Map() {
		env[k] = v
	}
	return env, nil
}
