package ui

import "github.com/charmbracelet/lipgloss"

var (
	infoTag  = lipgloss.NewStyle().Foreground(lipgloss.Color("#5599FF"))
	warnTag  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAA00")).Bold(true)
	errorTag = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4444")).Bold(true)
	stepTag  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00CC00"))

	stageStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFD700"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Width(14)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	// Change tree
	diffAddStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#00CC00"))
	diffDelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4444"))
	diffFileStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	diffDirStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#5599FF")).Bold(true)
	diffNewStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#00CC00")).Bold(true)
	diffDelFileStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4444")).Bold(true)
	diffTreeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#555555"))
	diffWarnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAA00")).Bold(true)
	diffHeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFD700"))
	diffDimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)
