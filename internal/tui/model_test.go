package tui

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zpdzap/spinoff/internal/compose"
	"github.com/zpdzap/spinoff/internal/testutil"
	"github.com/zpdzap/spinoff/internal/ui"
	"github.com/zpdzap/spinoff/internal/workspace"
)

// orphanPID is never a live process, so records owned by it are stale.
const orphanPID = 99999999

func writeRecord(t *testing.T, dir string, ws *workspace.Workspace) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, workspace.RecordDir), 0o755))
	data, err := json.Marshal(ws)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, workspace.RecordDir, ws.ID+".json"), data, 0o644))
}

func newTestModel(t *testing.T, features ...string) model {
	t.Helper()
	dir := t.TempDir()
	for i, f := range features {
		id := workspace.NewID(f, time.Unix(int64(1700000000+i), 0), orphanPID)
		ws := &workspace.Workspace{
			ID:            id,
			Feature:       f,
			Path:          filepath.Join(dir, id),
			WorkspacesDir: dir,
			Branch:        "feat/" + f,
			Stage:         workspace.StageAgentRunning,
			PID:           orphanPID,
			CreatedAt:     time.Unix(int64(1700000000+i), 0),
		}
		require.NoError(t, os.Mkdir(ws.Path, 0o755))
		writeRecord(t, dir, ws)
	}
	mgr := workspace.NewManager(testutil.NewStubRunner(), ui.Discard())
	return newModel(context.Background(), mgr, dir, compose.DefaultEnvFiles())
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m model, keys ...string) (model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(key(k))
		m = next.(model)
	}
	return m, cmd
}

func TestNewModel_LoadsRecordsAndPorts(t *testing.T) {
	m := newTestModel(t, "login", "search")
	require.Len(t, m.records, 2)
	assert.Equal(t, "login", m.records[0].Feature)

	snapshot := filepath.Join(m.records[1].Path, compose.DefaultEnvFiles().Snapshot)
	require.NoError(t, os.WriteFile(snapshot, []byte("# Generated by safecompose\nWEB_PORT=8080\nDB_VOLUME=db-1234abcd\nDB_PORT=5432\n"), 0o644))
	m.refresh()

	assert.Empty(t, m.ports[m.records[0].ID])
	assert.Equal(t, []string{"DB_PORT=5432", "WEB_PORT=8080"}, m.ports[m.records[1].ID])
	assert.Contains(t, m.View(), m.records[0].ID)
}

func TestUpdate_Navigation(t *testing.T) {
	m := newTestModel(t, "a", "b", "c")

	m, _ = press(t, m, "j", "j", "j")
	assert.Equal(t, 2, m.cursor)
	m, _ = press(t, m, "k")
	assert.Equal(t, 1, m.cursor)
	m, _ = press(t, m, "k", "k")
	assert.Equal(t, 2, m.cursor, "k wraps to the last workspace")
}

func TestUpdate_StopNeedsConfirmation(t *testing.T) {
	m := newTestModel(t, "login")
	ws := m.records[0]

	m, _ = press(t, m, "x", "j")
	assert.False(t, m.confirmStop)
	assert.DirExists(t, ws.Path)

	m, cmd := press(t, m, "x", "x")
	require.NotNil(t, cmd)
	assert.True(t, m.stopping[ws.ID])

	msg := cmd()
	stopped, ok := msg.(workspaceStoppedMsg)
	require.True(t, ok)
	require.NoError(t, stopped.err)
	assert.NoDirExists(t, ws.Path)

	next, _ := m.Update(msg)
	m = next.(model)
	assert.Empty(t, m.records)
	assert.Equal(t, "Stopped workspace "+ws.ID, m.message)
	assert.False(t, m.isError)
}

func TestUpdate_Prune(t *testing.T) {
	m := newTestModel(t, "a", "b")

	m, cmd := press(t, m, "p")
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, prunedMsg{removed: 2}, msg)

	next, _ := m.Update(msg)
	m = next.(model)
	assert.Empty(t, m.records)
	assert.Equal(t, "Pruned 2 stale workspaces", m.message)
}

func TestUpdate_EnterOpensSelected(t *testing.T) {
	m := newTestModel(t, "a", "b")

	m, cmd := press(t, m, "j", "enter")

	require.NotNil(t, m.openIn)
	assert.Equal(t, "b", m.openIn.Feature)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestUpdate_Commands(t *testing.T) {
	tests := []struct {
		input   string
		message string
		isError bool
	}{
		{"/stop", "Usage: /stop <workspace|all>", true},
		{"/diff nope", `Workspace "nope" not found`, true},
		{"/bogus", "Unknown command: bogus", true},
		{"/stop login", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			m := newTestModel(t, "login")
			m, _ = press(t, m, "/")
			require.True(t, m.commanding)
			m.input.SetValue(tt.input)

			m, _ = press(t, m, "enter")

			assert.False(t, m.commanding)
			assert.Equal(t, tt.isError, m.isError)
			if tt.message != "" {
				assert.Equal(t, tt.message, m.message)
			} else {
				assert.Contains(t, m.message, "Stopping workspace login_")
			}
		})
	}
}

func TestUpdate_HelpToggle(t *testing.T) {
	m := newTestModel(t)

	m, _ = press(t, m, "?")
	assert.True(t, m.showHelp)
	assert.Contains(t, m.View(), "Navigation")
	m, _ = press(t, m, "x")
	assert.True(t, m.showHelp, "other keys are ignored while help is open")
	m, _ = press(t, m, "esc")
	assert.False(t, m.showHelp)
}

func TestAge(t *testing.T) {
	assert.Equal(t, "42s", age(42*time.Second))
	assert.Equal(t, "5m", age(5*time.Minute+3*time.Second))
	assert.Equal(t, "2h07m", age(2*time.Hour+7*time.Minute))
}

func TestView_WorkspaceRowAndStopPrompt(t *testing.T) {
	m := newTestModel(t, "login")
	id := m.records[0].ID

	view := m.View()
	assert.Contains(t, view, "▸ ○ "+id, "orphaned workspace is selected and marked gone")
	assert.Contains(t, view, "feat/login")
	assert.Contains(t, view, string(workspace.StageAgentRunning))
	assert.Contains(t, view, "[x] stop")

	m, _ = press(t, m, "x")
	assert.Contains(t, m.View(), "Stop "+id+"? Press x again to confirm")
}
