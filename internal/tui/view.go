package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/runnerr0/greentab/internal/dashboard"
)

const (
	defaultWidth = 60
	maxBarWidth  = 30
	chartFloor   = 0.01
)

func (m Model) View() string {
	if m.err != nil && !m.loaded {
		return statusStyle.Render("error: "+m.err.Error()) + "\n" + helpStyle.Render("r retry • q quit") + "\n"
	}
	if !m.loaded {
		return "Loading…\n"
	}

	var b strings.Builder
	b.WriteString(Render(m.snap, m.width))
	if m.err != nil {
		b.WriteString(statusStyle.Render("refresh failed: "+m.err.Error()) + "\n")
	}
	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status) + "\n")
	}
	b.WriteString(helpStyle.Render("e export CSV • r refresh • q quit"))
	b.WriteString("\n")
	return b.String()
}

// Render draws a snapshot as plain terminal text.
func Render(snap dashboard.Snapshot, width int) string {
	if width <= 0 {
		width = defaultWidth
	}
	sum := snap.Summary()

	var b strings.Builder
	b.WriteString(titleStyle.Render("greentab") + "\n\n")

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Today", sum.TodayCarbon+" · "+sum.TodayEnergy)
	row("1-year forecast", sum.Forecast+" "+sum.Trees)
	row("Top used site", sum.TopUsed)
	row("Most energy", sum.MostEnergy)
	row("Avg screen time", sum.AvgScreenTime)
	b.WriteString("\n")

	b.WriteString(renderBars(snap, width))
	b.WriteString("\n")

	tipWidth := width - 4
	if tipWidth < 20 {
		tipWidth = 20
	}
	b.WriteString(tipStyle.Width(tipWidth).Render(sum.Tip) + "\n")
	return b.String()
}

// renderBars draws one CO2 and one energy bar per charted day, sharing the
// chart's scale.
func renderBars(snap dashboard.Snapshot, width int) string {
	if len(snap.Window) == 0 {
		return helpStyle.Render("No data yet") + "\n"
	}

	maxVal := chartFloor
	for _, d := range snap.Window {
		maxVal = max(maxVal, d.CarbonKg, d.EnergyKWh)
	}
	barWidth := min(maxBarWidth, width-30)
	if barWidth < 5 {
		barWidth = 5
	}
	bar := func(v float64) string {
		n := int(v / maxVal * float64(barWidth))
		return strings.Repeat("█", n)
	}

	var b strings.Builder
	for _, d := range snap.Window {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			labelStyle.Width(8).Render(d.Label),
			carbonBarStyle.Render(bar(d.CarbonKg)),
			fmt.Sprintf(" %.3f kg", d.CarbonKg),
		) + "\n")
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			labelStyle.Width(8).Render(""),
			energyBarStyle.Render(bar(d.EnergyKWh)),
			fmt.Sprintf(" %.3f kWh", d.EnergyKWh),
		) + "\n")
	}
	return b.String()
}
