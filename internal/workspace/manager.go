package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/zpdzap/spinoff/internal/agent"
	"github.com/zpdzap/spinoff/internal/compose"
	"github.com/zpdzap/spinoff/internal/docker"
	"github.com/zpdzap/spinoff/internal/execx"
	"github.com/zpdzap/spinoff/internal/git"
	"github.com/zpdzap/spinoff/internal/ui"
)

// Manager runs workspaces. Every subprocess goes through Exec.
type Manager struct {
	Exec     execx.Runner
	Git      *git.Client
	Resolver Resolver
	Agent    *agent.Runner
	Log      *ui.Logger
	// Out receives compose output and the final summary.
	Out io.Writer
	Now func() time.Time
	PID int
}

// NewManager wires a manager to r with the default git resolver and the
// process's own terminal for the agent.
func NewManager(r execx.Runner, log *ui.Logger) *Manager {
	g := git.NewClient(r)
	return &Manager{
		Exec:     r,
		Git:      g,
		Resolver: &GitResolver{Git: g, Log: log},
		Agent:    &agent.Runner{Exec: r, Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr},
		Log:      log,
		Out:      os.Stdout,
		Now:      time.Now,
		PID:      os.Getpid(),
	}
}

// Run executes the whole lifecycle for opts. Teardown always runs before Run
// returns, whatever happened; its failure is joined onto the returned error.
// When ctx was cancelled by a SignalHandler the error is an *InterruptedError.
func (m *Manager) Run(ctx context.Context, opts Options) (ws *Workspace, err error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	ws, err = m.plan(ctx, opts)
	if err != nil {
		return nil, m.interrupted(ctx, err)
	}

	defer func() {
		if terr := m.Teardown(context.WithoutCancel(ctx), ws); terr != nil {
			err = errors.Join(err, terr)
		}
	}()

	err = m.execute(ctx, ws, opts)
	if ie := interruption(ctx); ie != nil {
		return ws, &InterruptedError{Signal: ie.Signal, Err: err}
	}
	if err != nil {
		m.Log.Errorf("Stage %s failed: %v", ws.Stage, err)
		return ws, err
	}
	m.summary(ctx, ws)
	return ws, nil
}

func (m *Manager) interrupted(ctx context.Context, err error) error {
	if ie := interruption(ctx); ie != nil {
		return &InterruptedError{Signal: ie.Signal, Err: err}
	}
	return err
}

// plan resolves everything the run needs before anything is created.
func (m *Manager) plan(ctx context.Context, opts Options) (*Workspace, error) {
	root, err := m.Resolver.SourceRoot(ctx, opts.SourceDir)
	if err != nil {
		return nil, err
	}
	base, err := m.Git.CurrentBranch(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("resolving base branch: %w", err)
	}
	wsDir, err := filepath.Abs(opts.WorkspacesDir)
	if err != nil {
		return nil, err
	}

	now := m.Now()
	id := NewID(opts.Feature, now, m.PID)
	return &Workspace{
		ID:            id,
		Feature:       opts.Feature,
		Path:          filepath.Join(wsDir, id),
		WorkspacesDir: wsDir,
		SourceRoot:    root,
		Branch:        git.BranchName(opts.Feature),
		BaseBranch:    base,
		Project:       compose.ProjectName(id),
		Stage:         StageStart,
		PID:           m.PID,
		CreatedAt:     now,
	}, nil
}

func (m *Manager) execute(ctx context.Context, ws *Workspace, opts Options) error {
	m.Log.Stagef("Creating workspace %s", ws.ID)
	if err := os.MkdirAll(ws.WorkspacesDir, 0o755); err != nil {
		return fmt.Errorf("creating workspaces dir: %w", err)
	}
	m.advance(ws, StageStart)
	if err := os.Mkdir(ws.Path, 0o755); err != nil {
		ws.foreign = errors.Is(err, fs.ErrExist)
		return fmt.Errorf("creating workspace: %w", err)
	}
	if err := copyTree(ctx, ws.SourceRoot, ws.Path, ws.WorkspacesDir, ws.Path); err != nil {
		return fmt.Errorf("copying %s: %w", ws.SourceRoot, err)
	}
	m.Log.Stepf("Copied %s to %s", ws.SourceRoot, ws.Path)
	m.advance(ws, StageCopied)

	if err := ctx.Err(); err != nil {
		return err
	}
	created, err := m.Git.CheckoutFeature(ctx, ws.Path, ws.Branch, ws.BaseBranch)
	if err != nil {
		return err
	}
	if created {
		m.Log.Stepf("Created branch %s from %s", ws.Branch, ws.BaseBranch)
	} else {
		m.Log.Stepf("Checked out existing branch %s", ws.Branch)
	}
	m.advance(ws, StageBranched)

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.startDocker(ctx, ws, opts); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	m.Log.Stagef("Running %s", opts.Agent)
	m.advance(ws, StageAgentRunning)
	if err := m.Agent.Run(ctx, ws.Path, opts.Agent, opts.Prompt); err != nil {
		var exitErr *agent.ExitError
		if !errors.As(err, &exitErr) || opts.FailOnAgentError {
			return err
		}
		m.Log.Warnf("%v", err)
	}
	m.advance(ws, StageDone)
	return nil
}

func (m *Manager) startDocker(ctx context.Context, ws *Workspace, opts Options) error {
	if opts.SkipDocker {
		m.Log.Infof("Docker disabled, skipping stack")
		m.advance(ws, StageDockerSkipped)
		return nil
	}
	file, err := m.Resolver.ComposeFile(ctx, ws.Path, opts.ComposePattern)
	if err != nil {
		return err
	}
	if file == "" {
		m.Log.Warnf("No compose file matching %s, skipping Docker", opts.ComposePattern)
		m.advance(ws, StageDockerSkipped)
		return nil
	}

	m.Log.Stagef("Starting Docker stack %s", ws.Project)
	writer := &compose.Writer{Files: opts.EnvFiles.In(ws.Path), Log: m.Log}
	res, err := writer.Safeify(file, opts.VolumeMode, filepath.Join(ws.Path, SafeComposeFile))
	if err != nil {
		return err
	}
	ws.ComposeFile = res.Output

	env := res.Env
	if opts.FreePorts && res.Ports.Len() > 0 {
		ports, err := compose.AllocatePorts(res.Ports)
		if err != nil {
			return err
		}
		env = compose.NewEnvVars()
		env.Merge(res.Env)
		env.Merge(ports)
		if writer.Files.Snapshot != "" {
			if err := compose.WriteSnapshot(writer.Files.Snapshot, env); err != nil {
				return err
			}
		}
		m.Log.Stepf("Allocated free host ports: %v", ports.Lines())
	}

	stack := m.stack(ws, env)
	if err := stack.Validate(ctx, opts.Services); err != nil {
		return err
	}

	ws.DockerStarted = true
	m.persist(ws)
	if err := stack.Up(ctx, opts.Services); err != nil {
		return err
	}
	if err := stack.Ps(ctx); err != nil {
		m.Log.Warnf("Listing containers: %v", err)
	}
	m.advance(ws, StageDockerUp)
	return nil
}

func (m *Manager) stack(ws *Workspace, env *compose.EnvVars) *docker.Stack {
	return &docker.Stack{
		Runner:  m.Exec,
		Dir:     ws.Path,
		File:    SafeComposeFile,
		Project: ws.Project,
		Env:     env,
		Stdout:  m.Out,
		Stderr:  m.Out,
	}
}

func (m *Manager) advance(ws *Workspace, stage Stage) {
	ws.Stage = stage
	m.persist(ws)
}

// persist writes the workspace record; failures only warn.
func (m *Manager) persist(ws *Workspace) {
	if err := saveRecord(ws); err != nil {
		m.Log.Warnf("Failed to save workspace record: %v", err)
	}
}

func (m *Manager) summary(ctx context.Context, ws *Workspace) {
	var tree string
	if changes, err := m.Git.Changes(ctx, ws.Path, ws.BaseBranch); err == nil {
		tree = ui.RenderChanges(ws.Branch, changes)
	}
	ui.PrintSummary(m.Out, "Workspace complete", []ui.Field{
		{Label: "Branch", Value: ws.Branch},
		{Label: "Workspace", Value: ws.Path},
		{Label: "Base branch", Value: ws.BaseBranch},
		{Label: "Project", Value: ws.Project},
	}, tree)
}

// Teardown stops the stack (if it was started), removes the workspace tree
// and its record. It runs at most once per workspace. Stack failures are
// logged; a tree that cannot be removed is returned and keeps its record.
func (m *Manager) Teardown(ctx context.Context, ws *Workspace) error {
	ws.teardownOnce.Do(func() {
		ws.teardownErr = m.teardown(ctx, ws)
	})
	return ws.teardownErr
}

func (m *Manager) teardown(ctx context.Context, ws *Workspace) error {
	m.Log.Stagef("Cleaning up %s", ws.ID)
	if ws.DockerStarted {
		if err := m.stack(ws, nil).Down(ctx); err != nil {
			m.Log.Warnf("Stopping stack: %v", err)
		} else {
			m.Log.Stepf("Stopped stack %s", ws.Project)
		}
	}

	if !ws.foreign {
		if err := removeTree(ws.Path); err != nil {
			m.Log.Errorf("%v", err)
			return err
		}
		m.Log.Stepf("Removed %s", ws.Path)
	}
	ws.Stage = StageCleaned

	if err := removeRecord(ws); err != nil {
		m.Log.Warnf("Failed to remove workspace record: %v", err)
	}
	return nil
}
