package commands

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/klabast/wb-services/attendance/internal/attendance"
)

var (
	colorPresent = lipgloss.Color("#8BC34A")
	colorAbsent  = lipgloss.Color("#e53935")
	colorMuted   = lipgloss.Color("#6b7280")

	titleStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	presentStyle = lipgloss.NewStyle().Foreground(colorPresent).Bold(true)
	absentStyle  = lipgloss.NewStyle().Foreground(colorAbsent).Bold(true)
	todayStyle   = lipgloss.NewStyle().Underline(true)
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1)
)

var weekdays = []string{"Su", "Mo", "Tu", "We", "Th", "Fr", "Sa"}

// renderMonth draws a Sunday-first grid. Present days are marked P, absent
// days A; today is underlined.
func renderMonth(g attendance.MonthGrid, today string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(g.Title))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(strings.Join(padAll(weekdays), " ")))

	for _, week := range g.Weeks() {
		b.WriteString("\n")
		cells := make([]string, len(week))
		for i, cell := range week {
			cells[i] = renderCell(cell, today)
		}
		b.WriteString(strings.Join(cells, " "))
	}

	b.WriteString("\n\n")
	b.WriteString(presentStyle.Render("P") + " present  " + absentStyle.Render("A") + " absent")
	return boxStyle.Render(b.String())
}

func renderCell(cell *attendance.DayCell, today string) string {
	if cell == nil {
		return "   "
	}
	day := fmt.Sprintf("%2d", cell.Day)
	if cell.Date == today {
		day = todayStyle.Render(day)
	}
	switch cell.Status {
	case attendance.StatusPresent:
		return day + presentStyle.Render("P")
	case attendance.StatusAbsent:
		return day + absentStyle.Render("A")
	}
	return day + " "
}

func padAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = fmt.Sprintf("%-3s", n)
	}
	return out
}

// renderStats is "present/total  pct%" with the percentage coloured by
// threshold.
func renderStats(s attendance.Stats, threshold int) string {
	pct := fmt.Sprintf("%3d%%", s.Percentage)
	if s.Meets(threshold) {
		pct = presentStyle.Render(pct)
	} else {
		pct = absentStyle.Render(pct)
	}
	return fmt.Sprintf("%d/%d  %s", s.Present, s.Total, pct)
}

// renderSubjects lists subjects with aligned names.
func renderSubjects(list []attendance.SubjectSummary, threshold int) string {
	if len(list) == 0 {
		return mutedStyle.Render("No subjects yet. Add one with: attendance subject add <name>")
	}
	width := 0
	for _, s := range list {
		width = max(width, lipgloss.Width(s.Name))
	}

	rows := make([]string, 0, len(list))
	for _, s := range list {
		name := lipgloss.NewStyle().Width(width).Render(s.Name)
		row := fmt.Sprintf("%s  %s", name, renderStats(s.Stats, threshold))
		if !s.Meets(threshold) && s.Total > 0 {
			row += "  " + mutedStyle.Render(fmt.Sprintf("below %d%%", threshold))
		}
		rows = append(rows, row)
	}
	return strings.Join(rows, "\n")
}

func renderOverview(o attendance.Overview, threshold int) string {
	return boxStyle.Render(strings.Join([]string{
		titleStyle.Render("Overview"),
		"Classes attended  " + renderStats(o.Stats, threshold),
		fmt.Sprintf("Days marked       %d", o.DailyMarked),
	}, "\n"))
}
