package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/five82/logjam/internal/state"
)

// renderHeader renders the top status bar.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < LayoutCompactWidth

	parts := []string{bg.Render("logjam", styles.Logo)}

	if m.apiURL != "" {
		limit := 48
		if compact {
			limit = 24
		}
		parts = append(parts, bg.Render(truncateMiddle(m.apiURL, limit), styles.MutedText))
	}

	if m.snapshot.OptionsLoading {
		parts = append(parts, bg.Render(m.spinner.View(), styles.AccentText)+bg.Space()+
			bg.Render("loading options", styles.InfoText))
	} else {
		platforms := len(m.snapshot.Platforms) - 1
		versions := len(m.snapshot.Versions) - 1
		if platforms > 0 || versions > 0 {
			parts = append(parts, bg.Render(
				humanize.Comma(int64(platforms))+" platforms · "+humanize.Comma(int64(versions))+" versions",
				styles.FaintText))
		}
	}

	switch {
	case m.snapshot.Submitting():
		parts = append(parts, bg.Render(m.spinner.View(), styles.AccentText)+bg.Space()+
			bg.Render("querying", styles.WarningText.Bold(true)))
	case m.snapshot.Outcome == state.OutcomeSuccess && !compact:
		parts = append(parts, bg.Render(outcomeSummary(m.snapshot), styles.SuccessText))
	}

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Padding(0, 1).
		Width(m.width).
		Render(bg.Join(parts, 2))
}

// outcomeSummary describes the last successful query.
func outcomeSummary(snap state.Snapshot) string {
	var b strings.Builder
	b.WriteString(humanize.Comma(int64(len(snap.Charts))))
	if len(snap.Charts) == 1 {
		b.WriteString(" chart")
	} else {
		b.WriteString(" charts")
	}
	if snap.LastDuration > 0 {
		b.WriteString(" in ")
		b.WriteString(snap.LastDuration.Round(10 * time.Millisecond).String())
	}
	return b.String()
}

// renderBanners renders the status banners, newest last.
func (m Model) renderBanners() string {
	if len(m.snapshot.Banners) == 0 {
		return ""
	}
	styles := m.theme.Styles()
	width := maxInt(m.width-2, 10)

	lines := make([]string, 0, len(m.snapshot.Banners))
	for _, b := range m.snapshot.Banners {
		icon := "!"
		if b.Level == state.LevelError {
			icon = "✗"
		}
		text := truncate(icon+" "+b.Text, width-6)
		lines = append(lines, styles.BannerStyle(b.Level).Width(width).Render(text))
	}
	hint := styles.FaintText.Render("  esc/ctrl+x dismiss")
	lines = append(lines, hint)
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// renderFooter renders the key help line and any transient notice.
func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	line := m.help.View(m.keys)
	if m.notice != "" {
		style := styles.InfoText
		if m.noticeIsErr {
			style = styles.DangerText
		}
		line = lipgloss.JoinVertical(lipgloss.Left,
			style.Render(truncate(m.notice, maxInt(m.width-2, 10))),
			line,
		)
	}
	return styles.Footer.Width(m.width).Render(line)
}
