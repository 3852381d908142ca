package ui

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/logjam/internal/chart"
	"github.com/five82/logjam/internal/state"
)

// renderResults renders the charts, the empty state or the running query.
func (m Model) renderResults() string {
	styles := m.theme.Styles()
	pad := lipgloss.NewStyle().Padding(1, 1, 0, 1)

	switch {
	case m.snapshot.Submitting():
		return pad.Render(m.spinner.View() + " " + styles.MutedText.Render("Looking for occurrences of "+
			strconv.Quote(truncate(firstLine(m.snapshot.LogText), 40))+"…"))
	case m.pieErr != nil:
		return pad.Render(styles.DangerText.Render("Could not draw charts: " + m.pieErr.Error()))
	case m.snapshot.Outcome == state.OutcomeNoResults:
		return pad.Render(styles.WarningText.Bold(true).Render("No occurrences found"))
	case len(m.pies) == 0:
		return ""
	}

	opts := chart.RenderOptions{
		Radius: chartRadiusFor(m.width),
		Title:  styles.ChartTitle,
		Text:   styles.Text,
		Muted:  styles.FaintText,
	}
	blocks := make([]string, len(m.pies))
	for i, p := range m.pies {
		blocks[i] = chart.Render(p, opts)
	}
	return pad.Render(packRows(blocks, maxInt(m.width-2, 1), chartGap))
}

// packRows lays blocks out left to right, wrapping when the next block would
// exceed width. A block wider than width gets a row of its own.
func packRows(blocks []string, width, gap int) string {
	var rows []string
	var row []string
	used := 0
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	flush := func() {
		if len(row) > 0 {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
		}
		row, used = nil, 0
	}

	for _, b := range blocks {
		w := lipgloss.Width(b)
		need := w
		if len(row) > 0 {
			need += gap
		}
		if len(row) > 0 && used+need > width {
			flush()
			need = w
		}
		if len(row) > 0 {
			row = append(row, spacer)
		}
		row = append(row, b)
		used += need
	}
	flush()
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
