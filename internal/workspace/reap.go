package workspace

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// pruneConcurrency bounds how many stale workspaces are torn down at once.
const pruneConcurrency = 4

// Alive reports whether the spinoff process that owns ws is still running.
func (ws *Workspace) Alive() bool {
	return ws.PID > 0 && processAlive(ws.PID)
}

// Prune tears down every recorded workspace whose owning process is gone and
// returns the ones it removed.
func (m *Manager) Prune(ctx context.Context, workspacesDir string) ([]*Workspace, error) {
	records, err := LoadRecords(workspacesDir)
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		removed []*Workspace
	)
	var g errgroup.Group
	g.SetLimit(pruneConcurrency)
	for _, ws := range records {
		if ws.Alive() {
			continue
		}
		g.Go(func() error {
			if err := m.Teardown(ctx, ws); err != nil {
				return fmt.Errorf("pruning %s: %w", ws.ID, err)
			}
			mu.Lock()
			removed = append(removed, ws)
			mu.Unlock()
			return nil
		})
	}
	err = g.Wait()
	return removed, err
}

// Stop ends a workspace. A running owner is asked to terminate and tears the
// workspace down itself; an orphaned workspace is torn down directly.
func (m *Manager) Stop(ctx context.Context, ws *Workspace) error {
	if ws.Alive() {
		if err := terminate(ws.PID); err != nil {
			return fmt.Errorf("signalling spinoff process %d: %w", ws.PID, err)
		}
		m.Log.Infof("Sent SIGTERM to %d for %s", ws.PID, ws.ID)
		return nil
	}
	return m.Teardown(ctx, ws)
}
