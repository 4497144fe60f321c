package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanguard-load/vanguard/pkg/model"
)

// progressMsg carries one sample from the Executor's progress callback
// (spec.md §4.6 step 5, sampled at 2-10 Hz) into the bubbletea loop.
type progressMsg model.Progress

// progressDoneMsg signals the progress channel was closed: the run
// finished and the Executor stopped sampling.
type progressDoneMsg struct{}

type tickMsg time.Time

// DashModel renders a live view of an in-flight run. Grounded on
// internal/tui/dashboard.go's DashModel, reshaped around this repo's
// model.Progress callback sampling instead of the teacher's per-result
// channel plus its own monitor.
type DashModel struct {
	target      string
	method      string
	concurrency int
	duration    time.Duration

	start     time.Time
	bar       progress.Model
	latest    model.Progress
	rpsWindow []int64
	tick      int

	ch <-chan model.Progress
}

// NewDashModel builds a dashboard that reads progress samples off ch until
// it is closed.
func NewDashModel(target, method string, concurrency int, duration time.Duration, ch <-chan model.Progress) *DashModel {
	return &DashModel{
		target:      target,
		method:      method,
		concurrency: concurrency,
		duration:    duration,
		start:       time.Now(),
		bar:         progress.New(progress.WithScaledGradient("#00FFFF", "#FF6B9D"), progress.WithoutPercentage()),
		ch:          ch,
	}
}

func (m *DashModel) Init() tea.Cmd {
	return tea.Batch(waitForProgress(m.ch), tickCmd())
}

func waitForProgress(ch <-chan model.Progress) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-ch
		if !ok {
			return progressDoneMsg{}
		}
		return progressMsg(p)
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(150*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *DashModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		m.latest = model.Progress(msg)
		m.rpsWindow = append(m.rpsWindow, int64(m.latest.CurrentRPS))
		if len(m.rpsWindow) > 20 {
			m.rpsWindow = m.rpsWindow[len(m.rpsWindow)-20:]
		}
		return m, waitForProgress(m.ch)
	case tickMsg:
		m.tick++
		return m, tickCmd()
	case progressDoneMsg:
		return m, nil
	}
	return m, nil
}

func (m *DashModel) View() string {
	var s strings.Builder

	s.WriteString(headerStyle.Render(asciiLogo))
	s.WriteString("  ")
	s.WriteString(dimStyle.Render("container-native HTTP load testing"))
	s.WriteString("\n\n")

	s.WriteString(fmt.Sprintf("🎯 %s  %s\n\n",
		targetStyle.Render(m.target),
		dimStyle.Render(fmt.Sprintf("│ %s │ %d workers", m.method, m.concurrency))))

	elapsed := time.Since(m.start)
	pct := 0.0
	if m.duration > 0 {
		pct = float64(elapsed) / float64(m.duration)
	}
	if pct > 1 {
		pct = 1
	}
	remaining := m.duration - elapsed
	if remaining < 0 {
		remaining = 0
	}

	s.WriteString(dividerStyle.Render(strings.Repeat("━", 78)))
	s.WriteString("\n")
	s.WriteString(fmt.Sprintf("%s %s  %s / %s  (remaining: %s)\n",
		m.bar.ViewAs(pct),
		lipgloss.NewStyle().Foreground(accentColor).Render(spinnerFrame(m.tick)),
		boldStyle.Render(elapsed.Round(time.Second).String()),
		m.duration.String(),
		lipgloss.NewStyle().Foreground(orangeColor).Render(remaining.Round(time.Second).String())))
	s.WriteString(dividerStyle.Render(strings.Repeat("━", 78)))
	s.WriteString("\n\n")

	perfBox := dashBoxStyle.BorderForeground(purpleColor).Width(26).Render(fmt.Sprintf(
		"%s\n%s %s\n%s %s\n%s",
		lipgloss.NewStyle().Foreground(purpleColor).Bold(true).Render("📈 Throughput"),
		dimStyle.Render("RPS:"), boldStyle.Render(fmt.Sprintf("%.1f", m.latest.CurrentRPS)),
		dimStyle.Render("Total:"), boldStyle.Render(fmt.Sprintf("%d", m.latest.TotalRequests)),
		lipgloss.NewStyle().Foreground(accentColor).Render(renderSparkline(m.rpsWindow)),
	))

	latBox := dashBoxStyle.BorderForeground(orangeColor).Width(22).Render(fmt.Sprintf(
		"%s\n%s %s\n%s %s",
		lipgloss.NewStyle().Foreground(orangeColor).Bold(true).Render("⏱  Latency"),
		dimStyle.Render("p50:"), boldStyle.Render(fmtDuration(m.latest.P50)),
		dimStyle.Render("p95:"), boldStyle.Render(fmtDuration(m.latest.P95)),
	))

	errColor := successText
	if m.latest.ErrorRate > 0 {
		errColor = warnText
	}
	if m.latest.ErrorRate > 0.05 {
		errColor = errText
	}
	errBox := dashBoxStyle.BorderForeground(accentColor).Width(22).Render(fmt.Sprintf(
		"%s\n%s %s",
		lipgloss.NewStyle().Foreground(accentColor).Bold(true).Render("✅ Errors"),
		dimStyle.Render("rate:"), errColor.Bold(true).Render(fmt.Sprintf("%.2f%%", m.latest.ErrorRate*100)),
	))

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, perfBox, latBox, errBox))
	s.WriteString("\n\n")
	s.WriteString(dimStyle.Render("ctrl+c to cancel early — the run still reports everything completed so far"))
	s.WriteString("\n")

	return s.String()
}
