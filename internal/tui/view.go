package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/zpdzap/spinoff/internal/ui"
	"github.com/zpdzap/spinoff/internal/workspace"
)

func (m model) View() string {
	if m.quitting {
		return ""
	}

	title := "spinoff"
	stats := titleStatsStyle.Render(fmt.Sprintf("%d workspace%s  %s", len(m.records), ui.Plural(len(m.records)), m.dir))
	gap := max(1, m.width-lipgloss.Width(title)-lipgloss.Width(stats)-4)
	header := titleBarStyle.Width(m.width).Render(title + strings.Repeat(" ", gap) + stats)

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")

	if len(m.records) == 0 {
		b.WriteString(ruleStyle.Render(strings.Repeat("─", m.width)))
		b.WriteString("\n")
		b.WriteString(noWorkspacesStyle.Render("No workspaces running. Start one with `spinoff <feature>`."))
		b.WriteString("\n\n")
	} else {
		for i, ws := range m.records {
			b.WriteString(m.renderWorkspace(i, ws))
			b.WriteString("\n")
		}
		b.WriteString(ruleStyle.Render(strings.Repeat("─", m.width)))
		b.WriteString("\n")

		footerLines := 4
		if m.commanding {
			footerLines++
		}
		previewHeight := max(3, m.height-1-len(m.records)-1-1-footerLines)
		b.WriteString(m.renderPreview(previewHeight))
	}

	b.WriteString(ruleStyle.Render(strings.Repeat("─", m.width)))
	b.WriteString("\n")

	switch {
	case m.commanding:
		b.WriteString(keysStyle.Render("[enter] execute  [esc] cancel"))
	case m.confirmStop:
		b.WriteString(confirmStopStyle.Render(fmt.Sprintf("Stop %s? Press x again to confirm, any other key to cancel", m.confirmStopID)))
	case len(m.records) == 0:
		b.WriteString(keysStyle.Render("[p]rune  [?] help  [q] quit"))
	default:
		b.WriteString(keysStyle.Render("[↑↓] select  [enter] shell  [x] stop  [d]iff  [p]rune  [?] help"))
	}
	b.WriteString("\n")

	m.renderStatusAndInput(&b)

	if m.showHelp {
		return m.renderHelpOverlay(b.String())
	}
	return b.String()
}

func (m model) renderWorkspace(index int, ws *workspace.Workspace) string {
	cursor := "  "
	nStyle := workspaceIDStyle
	if index == m.cursor {
		cursor = "▸ "
		nStyle = selectedIDStyle
	}

	icon, iStyle := m.stageIcon(ws)
	parts := []string{
		fmt.Sprintf("  %s%s %s", cursor, iStyle.Render(icon), nStyle.Render(ws.ID)),
		branchStyle.Render(ws.Branch),
		stageStyle.Render(string(ws.Stage)),
	}
	if !ws.CreatedAt.IsZero() {
		parts = append(parts, ageStyle.Render(age(time.Since(ws.CreatedAt))))
	}
	for _, p := range m.ports[ws.ID] {
		parts = append(parts, portStyle.Render(p))
	}
	return strings.Join(parts, "  ")
}

// stageIcon reflects whether the owning process is alive and how far the
// workspace got.
func (m model) stageIcon(ws *workspace.Workspace) (string, lipgloss.Style) {
	switch {
	case m.stopping[ws.ID]:
		return "◍", pendingStyle
	case !ws.Alive():
		return "○", ownerGoneStyle
	case ws.Stage == workspace.StageAgentRunning:
		return "●", agentRunningStyle
	case ws.Stage == workspace.StageDone:
		return "✓", agentDoneStyle
	default:
		return "◌", pendingStyle
	}
}

func (m model) renderPreview(height int) string {
	var b strings.Builder
	pad := func(from int) {
		for i := from; i < height; i++ {
			b.WriteString("\n")
		}
	}

	ws := m.selected()
	if ws == nil {
		b.WriteString(changesHintStyle.Render("No workspace selected"))
		b.WriteString("\n")
		pad(1)
		return b.String()
	}

	preview, ok := m.previews[ws.ID]
	if !ok {
		b.WriteString(changesHintStyle.Render(fmt.Sprintf("%s  (press d for changes)", ws.Path)))
		b.WriteString("\n")
		pad(1)
		return b.String()
	}

	lines := strings.Split(strings.TrimRight(preview, "\n"), "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for _, line := range lines {
		b.WriteString(changesStyle.Render(line))
		b.WriteString("\n")
	}
	pad(len(lines))
	return b.String()
}

func (m model) renderStatusAndInput(b *strings.Builder) {
	if m.message != "" {
		if m.isError {
			b.WriteString(failureStyle.Render(m.message))
		} else {
			b.WriteString(noticeStyle.Render(m.message))
		}
		b.WriteString("\n")
	}
	if m.commanding {
		b.WriteString("  ")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
}

func (m model) renderHelpOverlay(base string) string {
	help := strings.Join([]string{
		helpSectionStyle.Render("Navigation"),
		helpKeyStyle.Render("  ↑/k  ↓/j") + helpTextStyle.Render("   Select workspace"),
		helpKeyStyle.Render("  Enter") + helpTextStyle.Render("       Open a shell in it"),
		"",
		helpSectionStyle.Render("Actions"),
		helpKeyStyle.Render("  x") + helpTextStyle.Render("           Stop selected workspace"),
		helpKeyStyle.Render("  d") + helpTextStyle.Render("           Show changes against base"),
		helpKeyStyle.Render("  p") + helpTextStyle.Render("           Prune orphaned workspaces"),
		"",
		helpSectionStyle.Render("Commands"),
		helpKeyStyle.Render("  /") + helpTextStyle.Render("           Open command bar"),
		helpTextStyle.Render("  /stop <workspace|all>"),
		helpTextStyle.Render("  /diff <workspace>"),
		helpTextStyle.Render("  /open <workspace>"),
		helpTextStyle.Render("  /prune"),
		"",
		helpKeyStyle.Render("  q") + helpTextStyle.Render("  quit") + "     " + helpKeyStyle.Render("?") + helpTextStyle.Render("  close this help"),
	}, "\n")

	modal := helpBoxStyle.Render(help)
	modalWidth := lipgloss.Width(modal)
	modalHeight := lipgloss.Height(modal)

	baseLines := strings.Split(base, "\n")
	xOffset := max(0, (m.width-modalWidth)/2)
	yOffset := max(0, (m.height-modalHeight)/2)

	for i, mLine := range strings.Split(modal, "\n") {
		row := yOffset + i
		if row < len(baseLines) {
			padding := strings.Repeat(" ", xOffset)
			baseLines[row] = padding + mLine + strings.Repeat(" ", max(0, m.width-xOffset-lipgloss.Width(mLine)))
		}
	}
	return strings.Join(baseLines, "\n")
}

func age(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
