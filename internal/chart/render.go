package chart

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

const (
	defaultRadius = 5
	fillRune      = "█"
	emptyRune     = "░"
	legendRune    = "■"
)

// RenderOptions style a terminal pie.
type RenderOptions struct {
	Radius int // rows above and below the center; cells are scaled 2:1
	Title  lipgloss.Style
	Text   lipgloss.Style
	Muted  lipgloss.Style
}

// Render draws the pie as a titled disc with a legend below it.
func Render(p Pie, opts RenderOptions) string {
	radius := opts.Radius
	if radius <= 0 {
		radius = defaultRadius
	}
	disc := renderDisc(p, radius, opts.Muted)
	width := lipgloss.Width(disc)

	title := opts.Title.Width(width).Align(lipgloss.Center).Render(p.Title())

	parts := []string{title, disc, ""}
	parts = append(parts, legend(p, opts)...)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// Width returns the rendered disc width for radius.
func Width(radius int) int {
	if radius <= 0 {
		radius = defaultRadius
	}
	return 4*radius + 1
}

func renderDisc(p Pie, radius int, muted lipgloss.Style) string {
	cells := discCells(p, radius)
	lines := make([]string, len(cells))
	for y, row := range cells {
		var b strings.Builder
		// group runs of the same owner so each run is styled once
		start := 0
		for x := 1; x <= len(row); x++ {
			if x < len(row) && row[x] == row[start] {
				continue
			}
			b.WriteString(renderRun(p, row[start], x-start, muted))
			start = x
		}
		lines[y] = b.String()
	}
	return strings.Join(lines, "\n")
}

func renderRun(p Pie, owner, n int, muted lipgloss.Style) string {
	switch {
	case owner == outside:
		return strings.Repeat(" ", n)
	case owner == unowned:
		return muted.Render(strings.Repeat(emptyRune, n))
	default:
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(p.slices[owner].Color))
		return style.Render(strings.Repeat(fillRune, n))
	}
}

const (
	outside = -2
	unowned = -1
)

// discCells maps every cell of the disc grid to the slice drawn there.
// Angles run clockwise from twelve o'clock.
func discCells(p Pie, radius int) [][]int {
	rows := 2*radius + 1
	cols := Width(radius)
	limit := (float64(radius) + 0.5) * (float64(radius) + 0.5)

	grid := make([][]int, rows)
	for r := 0; r < rows; r++ {
		grid[r] = make([]int, cols)
		dy := float64(r - radius)
		for c := 0; c < cols; c++ {
			dx := float64(c-2*radius) / 2
			if dx*dx+dy*dy > limit {
				grid[r][c] = outside
				continue
			}
			theta := math.Atan2(dx, -dy)
			if theta < 0 {
				theta += 2 * math.Pi
			}
			grid[r][c] = p.sliceAt(theta / (2 * math.Pi))
		}
	}
	return grid
}

func legend(p Pie, opts RenderOptions) []string {
	if p.Empty() {
		return []string{opts.Muted.Render("no data")}
	}
	slices := p.Slices()
	lines := make([]string, 0, len(slices)+1)
	for _, s := range slices {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(s.Color)).Render(legendRune)
		value := opts.Muted.Render(fmt.Sprintf("%s (%s)", humanize.Commaf(s.Value), formatPercent(s.Fraction)))
		lines = append(lines, swatch+" "+opts.Text.Render(s.Label)+"  "+value)
	}
	return append(lines, opts.Muted.Render("total "+humanize.Commaf(p.Total())))
}

func formatPercent(frac float64) string {
	return fmt.Sprintf("%.1f%%", frac*100)
}
