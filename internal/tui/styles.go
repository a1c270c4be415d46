package tui

import "github.com/charmbracelet/lipgloss"

// Dashboard palette.
const (
	gold     = lipgloss.Color("#FFD700")
	ink      = lipgloss.Color("#1a1a2e")
	white    = lipgloss.Color("#FFFFFF")
	grey     = lipgloss.Color("#888888")
	dimGrey  = lipgloss.Color("#555555")
	rule     = lipgloss.Color("#333333")
	blue     = lipgloss.Color("#5599FF")
	violet   = lipgloss.Color("#AA88FF")
	green    = lipgloss.Color("#00CC00")
	amber    = lipgloss.Color("#FFAA00")
	red      = lipgloss.Color("#FF4444")
	softGrey = lipgloss.Color("#AAAAAA")
)

var (
	// Title bar and separators
	titleBarStyle   = lipgloss.NewStyle().Bold(true).Foreground(gold).Background(ink).Padding(0, 2)
	titleStatsStyle = lipgloss.NewStyle().Foreground(grey).Background(ink)
	ruleStyle       = lipgloss.NewStyle().Foreground(rule)

	noWorkspacesStyle = lipgloss.NewStyle().Foreground(dimGrey).Padding(1, 2)

	// Workspace rows
	workspaceIDStyle = lipgloss.NewStyle().Foreground(white)
	selectedIDStyle  = lipgloss.NewStyle().Foreground(gold).Bold(true)
	branchStyle      = lipgloss.NewStyle().Foreground(violet)
	stageStyle       = lipgloss.NewStyle().Foreground(grey)
	ageStyle         = lipgloss.NewStyle().Foreground(dimGrey)
	portStyle        = lipgloss.NewStyle().Foreground(blue)

	// Row icons: agent running, agent finished, owner process gone, other stages
	agentRunningStyle = lipgloss.NewStyle().Foreground(green)
	agentDoneStyle    = lipgloss.NewStyle().Foreground(grey)
	ownerGoneStyle    = lipgloss.NewStyle().Foreground(red)
	pendingStyle      = lipgloss.NewStyle().Foreground(amber)

	// Change tree pane
	changesStyle     = lipgloss.NewStyle().Padding(0, 2)
	changesHintStyle = lipgloss.NewStyle().Foreground(dimGrey).Padding(0, 2)

	// Footer
	keysStyle        = lipgloss.NewStyle().Foreground(dimGrey).Padding(0, 2)
	noticeStyle      = lipgloss.NewStyle().Foreground(gold).Padding(0, 2)
	failureStyle     = lipgloss.NewStyle().Foreground(red).Padding(0, 2)
	confirmStopStyle = lipgloss.NewStyle().Foreground(amber).Padding(0, 2)

	// Help modal
	helpBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(gold).
			Padding(1, 2).
			Foreground(white)
	helpSectionStyle = lipgloss.NewStyle().Foreground(gold).Bold(true)
	helpKeyStyle     = lipgloss.NewStyle().Foreground(blue)
	helpTextStyle    = lipgloss.NewStyle().Foreground(softGrey)
)
