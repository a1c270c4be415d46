// Package execx runs external commands (git, docker, the agent) behind a
// small interface so callers can be exercised without the real binaries.
package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"
)

// DefaultWaitDelay is how long a cancelled command gets to exit after it was
// sent an interrupt before it is killed.
const DefaultWaitDelay = 10 * time.Second

// Cmd describes a single subprocess invocation.
type Cmd struct {
	Name string
	Args []string
	// Dir is the working directory; empty means the current one.
	Dir string
	// Env is appended to the parent environment.
	Env    []string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// String returns the command line, used in errors and as the stub key in tests.
func (c Cmd) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Runner executes commands.
type Runner interface {
	// Run executes cmd, streaming to the writers set on it.
	Run(ctx context.Context, cmd Cmd) error
	// Output executes cmd and returns its stdout.
	Output(ctx context.Context, cmd Cmd) (string, error)
}

// ExitError reports a command that ran and exited non-zero.
type ExitError struct {
	Cmd    string
	Code   int
	Stderr string
	Err    error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s: exit status %d", e.Cmd, e.Code)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += "\nstderr: " + s
	}
	return msg
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode returns the child's exit status.
func (e *ExitError) ExitCode() int { return e.Code }

// OSRunner runs real processes via os/exec. When the context is cancelled the
// child gets an interrupt first and is killed after WaitDelay.
type OSRunner struct {
	WaitDelay time.Duration
}

func (r OSRunner) command(ctx context.Context, c Cmd) *exec.Cmd {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	cmd.Stdin = c.Stdin
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = r.WaitDelay
	if cmd.WaitDelay == 0 {
		cmd.WaitDelay = DefaultWaitDelay
	}
	return cmd
}

func (r OSRunner) Run(ctx context.Context, c Cmd) error {
	cmd := r.command(ctx, c)
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr
	return wrap(c, cmd.Run(), "")
}

func (r OSRunner) Output(ctx context.Context, c Cmd) (string, error) {
	cmd := r.command(ctx, c)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if c.Stderr != nil {
		cmd.Stderr = io.MultiWriter(&stderr, c.Stderr)
	}

	if err := cmd.Run(); err != nil {
		return "", wrap(c, err, stderr.String())
	}
	return stdout.String(), nil
}

func wrap(c Cmd, err error, stderr string) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Cmd: c.String(), Code: exitErr.ExitCode(), Stderr: stderr, Err: err}
	}
	return fmt.Errorf("%s: %w", c.String(), err)
}

// ExitCode extracts a process exit status from err, or returns fallback when
// err carries none.
func ExitCode(err error, fallback int) int {
	var coded interface{ ExitCode() int }
	if errors.As(err, &coded) {
		if code := coded.ExitCode(); code > 0 {
			return code
		}
	}
	return fallback
}
