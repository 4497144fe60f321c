// Package tui implements the interactive progress dashboard and summary
// screen that wrap an Executor run when vanguard is invoked without
// -no-tui. Grounded on internal/tui/{styles,dashboard,summary,util}.go,
// rebuilt against this repo's model.Progress/model.Report shapes rather
// than the teacher's own Report/Result types.
package tui

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor = lipgloss.Color("#00FFFF")
	accentColor  = lipgloss.Color("#00FF88")
	orangeColor  = lipgloss.Color("#FFA500")
	purpleColor  = lipgloss.Color("#C792EA")

	successText = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF88"))
	warnText    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700"))
	errText     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4444"))

	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	boldStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	dividerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	headerStyle   = lipgloss.NewStyle().Foreground(primaryColor).Bold(true)
	targetStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Bold(true)
	dashBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
)

const asciiLogo = "⚡ VANGUARD"

// spinnerFrame returns the animation frame for tick i, grounded on
// internal/tui/dashboard.go's GetSpinnerFrame.
func spinnerFrame(i int) string {
	return spinnerFrames[i%len(spinnerFrames)]
}
