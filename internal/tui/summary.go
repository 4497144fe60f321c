package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanguard-load/vanguard/pkg/model"
)

// SummaryModel renders the final report once a run ends. Grounded on
// internal/tui/summary.go, reshaped around model.Report's Summary fields
// (which already carry ms-scale percentiles rather than time.Duration).
type SummaryModel struct {
	report model.Report
}

func NewSummaryModel(report model.Report) *SummaryModel {
	return &SummaryModel{report: report}
}

func (m *SummaryModel) Init() tea.Cmd { return nil }

func (m *SummaryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) { return m, nil }

var (
	sumHeaderStyle = lipgloss.NewStyle().Foreground(primaryColor).Bold(true)
	sumStatStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	sumValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
)

func (m *SummaryModel) View() string {
	var s strings.Builder
	sum := m.report.Summary

	s.WriteString(headerStyle.Render(asciiLogo))
	s.WriteString("\n\n")
	s.WriteString(sumHeaderStyle.Render("📊 Run Summary"))
	s.WriteString("\n\n")

	s.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).Render("🚀 Traffic & Throughput"))
	s.WriteString("\n")
	rows := [][2]string{
		{"Target", fmt.Sprintf("%s %s", m.report.Method, m.report.TargetURL)},
		{"Total Requests", fmt.Sprintf("%d", sum.TotalRequests)},
		{"Error Rate", fmt.Sprintf("%.2f%%", sum.ErrorRate*100)},
		{"Throughput", fmt.Sprintf("%.1f req/s", sum.ThroughputRPS)},
		{"Duration", m.report.Duration.Round(time.Millisecond).String()},
		{"Concurrency", fmt.Sprintf("%d workers", m.report.Concurrency)},
	}
	for _, r := range rows {
		s.WriteString(fmt.Sprintf("  %s %s\n", sumStatStyle.Render(fmt.Sprintf("%-16s", r[0]+":")), sumValueStyle.Render(r[1])))
	}
	s.WriteString("\n")

	s.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true).Render("Latency Distribution (ms)"))
	s.WriteString("\n")
	lat := [][2]string{
		{"Min", fmt.Sprintf("%.2f", sum.MinMs)}, {"P50", fmt.Sprintf("%.2f", sum.P50Ms)},
		{"P90", fmt.Sprintf("%.2f", sum.P90Ms)}, {"P95", fmt.Sprintf("%.2f", sum.P95Ms)},
		{"P99", fmt.Sprintf("%.2f", sum.P99Ms)}, {"Max", fmt.Sprintf("%.2f", sum.MaxMs)},
	}
	for i := 0; i < len(lat); i += 2 {
		s.WriteString(fmt.Sprintf("  %s %s", sumStatStyle.Render(fmt.Sprintf("%-5s", lat[i][0]+":")), sumValueStyle.Render(fmt.Sprintf("%-12s", lat[i][1]))))
		if i+1 < len(lat) {
			s.WriteString(fmt.Sprintf("  %s %s", sumStatStyle.Render(fmt.Sprintf("%-5s", lat[i+1][0]+":")), sumValueStyle.Render(lat[i+1][1])))
		}
		s.WriteString("\n")
	}
	s.WriteString("\n")

	if len(sum.StatusCodeCounts) > 0 {
		s.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).Render("📊 Status Codes"))
		s.WriteString("\n")
		codes := make([]int, 0, len(sum.StatusCodeCounts))
		for c := range sum.StatusCodeCounts {
			codes = append(codes, c)
		}
		sort.Ints(codes)
		var max int64
		for _, c := range codes {
			if sum.StatusCodeCounts[c] > max {
				max = sum.StatusCodeCounts[c]
			}
		}
		for _, c := range codes {
			count := sum.StatusCodeCounts[c]
			style := successText
			if c >= 400 || c == 0 {
				style = errText
			} else if c >= 300 {
				style = warnText
			}
			label := fmt.Sprintf("%d", c)
			if c == 0 {
				label = "no status"
			}
			s.WriteString(fmt.Sprintf("  %s %s %6d\n",
				sumStatStyle.Render(fmt.Sprintf("%-12s", label)),
				style.Render(bar(count, max, 20)), count))
		}
		s.WriteString("\n")
	}

	if sum.AssertionFailures > 0 {
		s.WriteString(errText.Render(fmt.Sprintf("❌ %d assertion failures", sum.AssertionFailures)))
		s.WriteString("\n\n")
	}

	s.WriteString(sumStatStyle.Render("ctrl+c to exit and write the JSON and HTML reports"))
	s.WriteString("\n")
	return s.String()
}
