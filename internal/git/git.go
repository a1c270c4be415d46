// Package git wraps the git commands spinoff needs inside a workspace copy.
package git

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zpdzap/spinoff/internal/execx"
)

// BranchPrefix is prepended to feature names to form branch names.
const BranchPrefix = "feat/"

// BranchName returns the branch used for a feature.
func BranchName(feature string) string {
	return BranchPrefix + feature
}

// Error reports a failing git invocation.
type Error struct {
	Args []string
	Dir  string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("git %s (in %s): %v", strings.Join(e.Args, " "), e.Dir, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ExitCode returns git's exit status, or 1 when git did not run.
func (e *Error) ExitCode() int { return execx.ExitCode(e.Err, 1) }

// Client runs git through an execx.Runner.
type Client struct {
	runner execx.Runner
}

func NewClient(r execx.Runner) *Client {
	return &Client{runner: r}
}

func (c *Client) raw(ctx context.Context, dir string, args ...string) (string, error) {
	out, err := c.runner.Output(ctx, execx.Cmd{Name: "git", Args: args, Dir: dir})
	if err != nil {
		return "", &Error{Args: args, Dir: dir, Err: err}
	}
	return out, nil
}

func (c *Client) output(ctx context.Context, dir string, args ...string) (string, error) {
	out, err := c.raw(ctx, dir, args...)
	return strings.TrimSpace(out), err
}

// TopLevel returns the root of the repository containing dir.
func (c *Client) TopLevel(ctx context.Context, dir string) (string, error) {
	return c.output(ctx, dir, "rev-parse", "--show-toplevel")
}

// CurrentBranch returns the branch checked out in dir ("HEAD" when detached).
func (c *Client) CurrentBranch(ctx context.Context, dir string) (string, error) {
	return c.output(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
}

// BranchExists reports whether branch resolves to a commit in dir.
func (c *Client) BranchExists(ctx context.Context, dir, branch string) (bool, error) {
	_, err := c.output(ctx, dir, "rev-parse", "--verify", "--quiet", "refs/heads/"+branch)
	if err == nil {
		return true, nil
	}
	if ctx.Err() != nil {
		return false, err
	}
	// rev-parse --verify --quiet exits 1 for a missing ref
	var exitErr *execx.ExitError
	if errors.As(err, &exitErr) && exitErr.Code == 1 {
		return false, nil
	}
	return false, err
}

func (c *Client) Checkout(ctx context.Context, dir, branch string) error {
	_, err := c.output(ctx, dir, "checkout", branch)
	return err
}

// CreateBranch creates branch from base and checks it out.
func (c *Client) CreateBranch(ctx context.Context, dir, branch, base string) error {
	_, err := c.output(ctx, dir, "checkout", "-b", branch, base)
	return err
}

// CheckoutFeature checks out the feature branch, creating it from base when
// it does not exist yet. It reports whether the branch was created.
func (c *Client) CheckoutFeature(ctx context.Context, dir, branch, base string) (bool, error) {
	exists, err := c.BranchExists(ctx, dir, branch)
	if err != nil {
		return false, err
	}
	if exists {
		return false, c.Checkout(ctx, dir, branch)
	}
	return true, c.CreateBranch(ctx, dir, branch, base)
}
