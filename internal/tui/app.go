// Package tui is the interactive dashboard behind `spinoff ls`. It lists the
// workspaces recorded in a workspaces directory and lets the user inspect,
// open, stop and prune them.
package tui

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zpdzap/spinoff/internal/compose"
	"github.com/zpdzap/spinoff/internal/execx"
	"github.com/zpdzap/spinoff/internal/workspace"
)

// Run starts the dashboard loop. It alternates between the Bubble Tea view
// and a shell opened inside the selected workspace until the user quits.
func Run(ctx context.Context, mgr *workspace.Manager, workspacesDir string, files compose.EnvFiles) error {
	for {
		m := newModel(ctx, mgr, workspacesDir, files)
		p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
		result, err := p.Run()
		if err != nil {
			return fmt.Errorf("TUI error: %w", err)
		}

		final := result.(model)
		if final.quitting || final.openIn == nil {
			return nil
		}

		ws := final.openIn
		fmt.Printf("Opening a shell in %s (exit to return)\n", ws.Path)
		err = mgr.Exec.Run(ctx, execx.Cmd{
			Name:   shell(),
			Dir:    ws.Path,
			Env:    []string{"COMPOSE_PROJECT_NAME=" + ws.Project},
			Stdin:  os.Stdin,
			Stdout: os.Stdout,
			Stderr: os.Stderr,
		})
		if err != nil && ctx.Err() == nil {
			mgr.Log.Warnf("Shell exited: %v", err)
		}

		// Reset terminal so Bubble Tea starts clean
		fmt.Print("\033c")
	}
}

func shell() string {
	if s := os.Getenv("SHELL"); s != "" {
		return s
	}
	return "/bin/sh"
}
