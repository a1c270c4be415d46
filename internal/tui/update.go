package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zpdzap/spinoff/internal/ui"
	"github.com/zpdzap/spinoff/internal/workspace"
)

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = msg.Width - 6 // account for "  > /" prefix
		return m, nil

	case statusTickMsg:
		m.refresh()
		return m, tickCmd()

	case workspaceStoppedMsg:
		delete(m.stopping, msg.id)
		if msg.err != nil {
			m.message = fmt.Sprintf("Stop %s failed: %v", msg.id, msg.err)
			m.isError = true
		} else {
			m.message = fmt.Sprintf("Stopped workspace %s", msg.id)
			m.isError = false
			delete(m.previews, msg.id)
		}
		m.refresh()
		return m, tea.ClearScreen

	case prunedMsg:
		if msg.err != nil {
			m.message = fmt.Sprintf("Prune failed: %v", msg.err)
			m.isError = true
		} else {
			m.message = fmt.Sprintf("Pruned %d stale workspace%s", msg.removed, ui.Plural(msg.removed))
			m.isError = false
		}
		m.refresh()
		return m, tea.ClearScreen

	case changesMsg:
		if msg.err != nil {
			m.message = fmt.Sprintf("diff error: %v", msg.err)
			m.isError = true
			return m, nil
		}
		m.previews[msg.id] = msg.tree
		return m, nil

	case confirmStopExpiredMsg:
		m.confirmStop = false
		m.confirmStopID = ""
		return m, nil

	case tea.KeyMsg:
		if m.commanding {
			return m.handleCommandMode(msg)
		}
		return m.handleNormalMode(msg)
	}

	// Forward to input if in command mode
	if m.commanding {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleNormalMode handles keys when navigating the workspace list.
func (m model) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		switch msg.String() {
		case "?", "esc":
			m.showHelp = false
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	// If confirming a stop, second x confirms, anything else cancels
	if m.confirmStop {
		m.confirmStop = false
		id := m.confirmStopID
		m.confirmStopID = ""
		if msg.String() == "x" {
			if ws := m.find(id); ws != nil {
				return m.stop(ws)
			}
		}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit

	case "/":
		m.commanding = true
		m.input.Focus()
		m.input.SetValue("/")
		m.input.SetCursor(1)
		return m, textinput.Blink

	case "x":
		if ws := m.selected(); ws != nil {
			m.confirmStop = true
			m.confirmStopID = ws.ID
			return m, tea.Tick(2*time.Second, func(time.Time) tea.Msg {
				return confirmStopExpiredMsg{}
			})
		}
		return m, nil

	case "d":
		if ws := m.selected(); ws != nil {
			return m, m.changes(ws)
		}
		return m, nil

	case "p":
		return m.prune()

	case "?":
		m.showHelp = true
		return m, nil

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		} else if len(m.records) > 0 {
			m.cursor = len(m.records) - 1
		}
		return m, nil

	case "down", "j":
		if m.cursor < len(m.records)-1 {
			m.cursor++
		}
		return m, nil

	case "enter":
		if ws := m.selected(); ws != nil {
			m.openIn = ws
			return m, tea.Quit
		}
		return m, nil
	}

	return m, nil
}

// handleCommandMode handles keys when the command input is active.
func (m model) handleCommandMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "esc":
		m.commanding = false
		m.input.Blur()
		m.input.SetValue("")
		return m, nil

	case "enter":
		m.commanding = false
		m.input.Blur()
		input := m.input.Value()
		m.input.SetValue("")
		return m.execute(ParseCommand(input))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) execute(c *Command) (tea.Model, tea.Cmd) {
	if c == nil {
		return m, nil
	}

	switch c.Name {
	case "stop":
		if c.Arg(0) == "" {
			return m.usage("/stop <workspace|all>")
		}
		if c.Arg(0) == "all" {
			return m.stopAll()
		}
		ws, ok := m.lookup(c.Arg(0))
		if !ok {
			return m, nil
		}
		return m.stop(ws)

	case "diff":
		if c.Arg(0) == "" {
			return m.usage("/diff <workspace>")
		}
		ws, ok := m.lookup(c.Arg(0))
		if !ok {
			return m, nil
		}
		return m, m.changes(ws)

	case "open":
		if c.Arg(0) == "" {
			return m.usage("/open <workspace>")
		}
		ws, ok := m.lookup(c.Arg(0))
		if !ok {
			return m, nil
		}
		m.openIn = ws
		return m, tea.Quit

	case "prune":
		return m.prune()

	case "quit":
		m.quitting = true
		return m, tea.Quit

	default:
		m.message = fmt.Sprintf("Unknown command: %s", c.Name)
		m.isError = true
		return m, nil
	}
}

func (m *model) lookup(name string) (*workspace.Workspace, bool) {
	ws := m.find(name)
	if ws == nil {
		m.message = fmt.Sprintf("Workspace %q not found", name)
		m.isError = true
		return nil, false
	}
	return ws, true
}

func (m model) usage(text string) (tea.Model, tea.Cmd) {
	m.message = "Usage: " + text
	m.isError = true
	return m, nil
}

func (m model) stop(ws *workspace.Workspace) (tea.Model, tea.Cmd) {
	m.stopping[ws.ID] = true
	m.message = fmt.Sprintf("Stopping workspace %s...", ws.ID)
	m.isError = false
	mgr, ctx := m.manager, m.ctx
	return m, func() tea.Msg {
		return workspaceStoppedMsg{id: ws.ID, err: mgr.Stop(ctx, ws)}
	}
}

func (m model) stopAll() (tea.Model, tea.Cmd) {
	if len(m.records) == 0 {
		m.message = "No workspaces to stop"
		m.isError = false
		return m, nil
	}
	cmds := make([]tea.Cmd, 0, len(m.records))
	for _, ws := range m.records {
		var cmd tea.Cmd
		_, cmd = m.stop(ws)
		cmds = append(cmds, cmd)
	}
	m.message = fmt.Sprintf("Stopping %d workspace%s...", len(m.records), ui.Plural(len(m.records)))
	m.isError = false
	return m, tea.Batch(cmds...)
}

func (m model) prune() (tea.Model, tea.Cmd) {
	m.message = "Pruning stale workspaces..."
	m.isError = false
	mgr, ctx, dir := m.manager, m.ctx, m.dir
	return m, func() tea.Msg {
		removed, err := mgr.Prune(ctx, dir)
		return prunedMsg{removed: len(removed), err: err}
	}
}

// changes renders the change tree of ws against its base branch.
func (m model) changes(ws *workspace.Workspace) tea.Cmd {
	mgr, ctx := m.manager, m.ctx
	return func() tea.Msg {
		c, err := mgr.Git.Changes(ctx, ws.Path, ws.BaseBranch)
		if err != nil {
			return changesMsg{id: ws.ID, err: err}
		}
		return changesMsg{id: ws.ID, tree: ui.RenderChanges(ws.Branch, c)}
	}
}
