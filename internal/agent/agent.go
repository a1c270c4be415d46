// Package agent launches the coding agent inside a workspace.
package agent

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/mattn/go-shellwords"

	"github.com/zpdzap/spinoff/internal/execx"
)

// DefaultCommand is the agent launched when none is configured.
const DefaultCommand = "claude-code"

// ExitError reports an agent that exited non-zero.
type ExitError struct {
	Command string
	Code    int
	Err     error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("agent %q exited with status %d", e.Command, e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

func (e *ExitError) ExitCode() int { return e.Code }

// Runner runs the agent attached to the given terminal streams.
type Runner struct {
	Exec   execx.Runner
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Command splits a shell-style agent command line and appends prompt as the
// final argument when it is not empty.
func Command(command, prompt string) ([]string, error) {
	args, err := shellwords.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parsing agent command %q: %w", command, err)
	}
	if len(args) == 0 {
		return nil, errors.New("agent command is empty")
	}
	if prompt != "" {
		args = append(args, prompt)
	}
	return args, nil
}

// Run starts the agent in dir and waits for it to exit. A non-zero exit is
// returned as *ExitError.
func (r *Runner) Run(ctx context.Context, dir, command, prompt string) error {
	args, err := Command(command, prompt)
	if err != nil {
		return err
	}

	err = r.Exec.Run(ctx, execx.Cmd{
		Name:   args[0],
		Args:   args[1:],
		Dir:    dir,
		Stdin:  r.Stdin,
		Stdout: r.Stdout,
		Stderr: r.Stderr,
	})
	if err == nil {
		return nil
	}
	var exitErr *execx.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		return &ExitError{Command: args[0], Code: exitErr.Code, Err: err}
	}
	return fmt.Errorf("running agent: %w", err)
}
