package ui

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/logjam/internal/logjam"
)

// renderForm renders the log text field, validation errors and selectors.
func (m Model) renderForm() string {
	styles := m.theme.Styles()

	field := styles.Field
	if m.focus == focusLogText {
		field = styles.FieldFocus
	}
	rows := []string{
		styles.Label.Render("Log text"),
		field.Render(m.logText.View()),
	}
	for _, e := range m.snapshot.Errors {
		rows = append(rows, styles.DangerText.Render("✗ "+e))
	}

	platform := m.renderSelector("Platform", m.snapshot.Platform(), m.snapshot.PlatformIndex, len(m.snapshot.Platforms), m.focus == focusPlatform)
	version := m.renderSelector("Version", m.snapshot.Version(), m.snapshot.VersionIndex, len(m.snapshot.Versions), m.focus == focusVersion)
	if m.width < LayoutCompactWidth {
		rows = append(rows, platform, version)
	} else {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, platform, "    ", version))
	}
	return lipgloss.NewStyle().Padding(1, 1, 0, 1).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// renderSelector renders "Label ‹ text › i/n".
func (m Model) renderSelector(label string, opt logjam.Option, index, count int, focused bool) string {
	styles := m.theme.Styles()
	value := styles.Selector
	if focused {
		value = styles.SelectorFocus
	}
	text := opt.Text
	if text == "" {
		text = "-"
	}
	pos := ""
	if count > 1 {
		pos = styles.FaintText.Render(" " + strconv.Itoa(index+1) + "/" + strconv.Itoa(count))
	}
	return styles.Label.Render(label+" ") + value.Render("‹ "+truncate(text, 32)+" ›") + pos
}
