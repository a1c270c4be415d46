package tui

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"golang.org/x/term"

	"github.com/zpdzap/spinoff/internal/compose"
	"github.com/zpdzap/spinoff/internal/workspace"
)

// model is the Bubble Tea model for the workspace dashboard.
type model struct {
	ctx        context.Context
	manager    *workspace.Manager
	dir        string
	files      compose.EnvFiles
	records    []*workspace.Workspace
	ports      map[string][]string // KEY=port lines per workspace ID
	input      textinput.Model
	cursor     int
	message    string
	isError    bool
	commanding bool // true when in command mode (/ pressed)
	quitting   bool
	openIn     *workspace.Workspace // workspace to open a shell in after tea quits
	width      int
	height     int

	// Change tree per workspace ID, filled on demand
	previews map[string]string
	stopping map[string]bool

	showHelp bool

	// Double-press stop confirmation
	confirmStop   bool
	confirmStopID string
}

func newModel(ctx context.Context, mgr *workspace.Manager, dir string, files compose.EnvFiles) model {
	ti := textinput.New()
	ti.Placeholder = "stop, diff, open <workspace> | prune | quit"
	ti.CharLimit = 256
	ti.Width = 80
	ti.Blur()

	// Get initial terminal size so the first render isn't at width=0
	w, h, _ := term.GetSize(int(os.Stdout.Fd()))
	if w == 0 {
		w = 80
	}
	if h == 0 {
		h = 24
	}

	m := model{
		ctx:      ctx,
		manager:  mgr,
		dir:      dir,
		files:    files,
		input:    ti,
		width:    w,
		height:   h,
		previews: make(map[string]string),
		stopping: make(map[string]bool),
	}
	m.refresh()
	return m
}

func (m model) Init() tea.Cmd {
	return tickCmd()
}

// refresh reloads the records and the published ports of each workspace.
func (m *model) refresh() {
	records, err := workspace.LoadRecords(m.dir)
	if err != nil {
		m.message = err.Error()
		m.isError = true
		return
	}
	m.records = records
	m.ports = make(map[string][]string, len(records))
	for _, ws := range records {
		m.ports[ws.ID] = publishedPorts(m.files.In(ws.Path).Snapshot)
	}
	if m.cursor >= len(m.records) {
		m.cursor = max(0, len(m.records)-1)
	}
}

// publishedPorts reads the port variables from a workspace's env snapshot.
func publishedPorts(snapshot string) []string {
	if !filepath.IsAbs(snapshot) {
		return nil
	}
	vars, err := godotenv.Read(snapshot)
	if err != nil {
		return nil
	}
	var out []string
	for k, v := range vars {
		if strings.Contains(k, "_PORT") {
			out = append(out, k+"="+v)
		}
	}
	sort.Strings(out)
	return out
}

func (m model) selected() *workspace.Workspace {
	if m.cursor < len(m.records) {
		return m.records[m.cursor]
	}
	return nil
}

// find matches a workspace by ID, then by feature name.
func (m model) find(name string) *workspace.Workspace {
	for _, ws := range m.records {
		if ws.ID == name {
			return ws
		}
	}
	for _, ws := range m.records {
		if ws.Feature == name {
			return ws
		}
	}
	return nil
}
