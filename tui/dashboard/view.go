package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kilianp07/robofleet/core/model"
	"github.com/kilianp07/robofleet/core/view"
)

const batteryBarWidth = 10

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Robot Fleet"))
	b.WriteString("  ")
	b.WriteString(mutedStyle.Render(summaryLine(m.view.Summary)))
	b.WriteString("\n\n")
	b.WriteString(m.filterBar())
	b.WriteString("\n\n")
	b.WriteString(m.table())
	b.WriteString("\n")
	if m.status != "" {
		if m.statusErr {
			b.WriteString(errorStyle.Render(m.status))
		} else {
			b.WriteString(infoStyle.Render(m.status))
		}
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func summaryLine(s view.Summary) string {
	if s.Robots == 0 {
		return "no robots"
	}
	return fmt.Sprintf("%d robots · battery avg %.0f%% (min %d, max %d) · %d low · %d critical",
		s.Robots, s.MeanBattery, s.MinBattery, s.MaxBattery, s.Low, s.Critical)
}

// filterBar renders either the status tabs with their counts or the search
// box, depending on the active mode.
func (m *Model) filterBar() string {
	sel := m.view.Selection
	if sel.Mode == view.ModeName {
		return m.search.View()
	}
	tabs := make([]string, 0, len(view.FilterOptions()))
	for _, f := range view.FilterOptions() {
		label := fmt.Sprintf("%s (%d)", f, m.view.Counts.Of(f))
		if f == sel.Status {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m *Model) table() string {
	if len(m.view.Robots) == 0 {
		return boxStyle.Render(mutedStyle.Render("No robots match the current filter."))
	}
	rows := make([]string, 0, len(m.view.Robots)+1)
	rows = append(rows, headerStyle.Render(fmt.Sprintf("  %-8s %-10s %-5s %-13s %-16s %-20s %s",
		"ID", "NAME", "MODEL", "STATUS", "BATTERY", "LOCATION", "ORDER")))
	for i, r := range m.view.Robots {
		line := row(r)
		if i == m.cursor {
			line = selectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		rows = append(rows, line)
	}
	return boxStyle.Render(strings.Join(rows, "\n"))
}

func row(r model.Robot) string {
	order := "-"
	if r.IsDelivering() {
		order = r.CurrentOrder.OrderID
	}
	status := statusBadge(r.Status) + strings.Repeat(" ", max(0, 13-len(r.Status.String())))
	return fmt.Sprintf("%-8s %-10s %-5s %s %s %-20s %s",
		r.ID, r.Name, r.Model, status, batteryBar(r.BatteryLevel),
		fmt.Sprintf("%.4f, %.4f", r.Location.Latitude, r.Location.Longitude), order)
}

func batteryBar(level int) string {
	filled := level * batteryBarWidth / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", batteryBarWidth-filled)
	return batteryStyle(level).Render(fmt.Sprintf("%s %3d%%", bar, level)) + " "
}
