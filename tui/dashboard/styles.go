package dashboard

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/kilianp07/robofleet/core/model"
	"github.com/kilianp07/robofleet/core/view"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))

	tabStyle       = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("245"))
	activeTabStyle = tabStyle.Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#7D56F4"))

	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("250"))
	selectedStyle = lipgloss.NewStyle().Background(lipgloss.Color("236"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
	infoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("62")).Padding(0, 1)
)

var statusColors = map[model.Status]lipgloss.Color{
	model.StatusOnDelivery: lipgloss.Color("#5FAFFF"),
	model.StatusIdle:       lipgloss.Color("250"),
	model.StatusCharging:   lipgloss.Color("#FFD75F"),
	model.StatusReturning:  lipgloss.Color("#AF87FF"),
	model.StatusError:      lipgloss.Color("#FF5F87"),
}

var bandColors = map[view.Band]lipgloss.Color{
	view.BandHigh:   lipgloss.Color("#04B575"),
	view.BandMedium: lipgloss.Color("#FFD75F"),
	view.BandLow:    lipgloss.Color("#FF5F87"),
}

func statusBadge(s model.Status) string {
	return lipgloss.NewStyle().Bold(true).Foreground(statusColors[s]).Render(s.String())
}

func batteryStyle(level int) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(bandColors[view.BatteryBand(level)])
}
