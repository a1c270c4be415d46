package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// workspaceStoppedMsg is sent when a stop request finishes.
type workspaceStoppedMsg struct {
	id  string
	err error
}

// prunedMsg is sent when a prune pass finishes.
type prunedMsg struct {
	removed int
	err     error
}

// changesMsg carries the rendered change tree of one workspace.
type changesMsg struct {
	id   string
	tree string
	err  error
}

type confirmStopExpiredMsg struct{}

// statusTickMsg triggers a record refresh.
type statusTickMsg time.Time

// tickCmd returns a command that sends a tick every 2 seconds.
func tickCmd() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return statusTickMsg(t)
	})
}
