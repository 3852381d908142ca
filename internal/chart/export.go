package chart

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Format selects the export encoding.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

const (
	defaultExportSize = 512
)

// Export writes the pie as an image. Zero-valued slices are left out.
func Export(w io.Writer, p Pie, format Format, width, height int) error {
	if width <= 0 {
		width = defaultExportSize
	}
	if height <= 0 {
		height = defaultExportSize
	}

	slices := p.Slices()
	values := make([]gochart.Value, 0, len(slices))
	for _, s := range slices {
		if s.Value <= 0 {
			continue
		}
		color := drawing.ColorFromHex(strings.TrimPrefix(s.Color, "#"))
		values = append(values, gochart.Value{
			Value: s.Value,
			Label: fmt.Sprintf("%s (%s)", s.Label, formatPercent(s.Fraction)),
			Style: gochart.Style{
				FillColor:   color,
				StrokeColor: drawing.ColorWhite,
				StrokeWidth: 1,
			},
		})
	}
	if len(values) == 0 {
		return fmt.Errorf("export %q: %w", p.Title(), ErrNoData)
	}

	pie := gochart.PieChart{
		Title:  p.Title(),
		Width:  width,
		Height: height,
		Values: values,
		TitleStyle: gochart.Style{
			FontSize: 14,
		},
	}

	provider := gochart.PNG
	if format == FormatSVG {
		provider = gochart.SVG
	}
	if err := pie.Render(provider, w); err != nil {
		return fmt.Errorf("render %q: %w", p.Title(), err)
	}
	return nil
}

// ExportAll writes every non-empty pie into dir and returns the paths
// written. Files are named from the chart title plus tag.
func ExportAll(dir string, pies []Pie, format Format, tag string) ([]string, error) {
	if format == "" {
		format = FormatPNG
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}

	var written []string
	for i, p := range pies {
		if p.Empty() {
			continue
		}
		name := fmt.Sprintf("%02d-%s", i+1, slug(p.Title()))
		if tag != "" {
			name += "-" + tag
		}
		path := filepath.Join(dir, name+"."+string(format))
		if err := writeFile(path, p, format); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	if len(written) == 0 {
		return nil, ErrNoData
	}
	return written, nil
}

func writeFile(path string, p Pie, format Format) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Export(file, p, format, 0, 0); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func slug(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "chart"
	}
	return out
}
