package chart

import (
	"errors"
	"fmt"
	"math"

	"github.com/five82/logjam/internal/logjam"
	"github.com/five82/logjam/internal/palette"
)

var (
	// ErrMismatch reports labels and values of different lengths.
	ErrMismatch = errors.New("labels and values differ in length")
	// ErrNoData reports a chart without any positive slice to draw.
	ErrNoData = errors.New("chart has no data to draw")
)

// Slice is one labelled wedge of a pie.
type Slice struct {
	Label    string
	Value    float64
	Fraction float64
	Color    string
}

// Pie is a chart bound to its colors. Colors are drawn from the source once,
// when the pie is built; rendering never draws again.
type Pie struct {
	title  string
	slices []Slice
	total  float64
}

// New builds a pie from a descriptor, one slice per label in order.
func New(desc logjam.ChartDescriptor, colors palette.Source) (Pie, error) {
	if len(desc.Labels) != len(desc.Values) {
		return Pie{}, fmt.Errorf("chart %q: %w (%d labels, %d values)", desc.Title, ErrMismatch, len(desc.Labels), len(desc.Values))
	}
	var total float64
	for i, v := range desc.Values {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return Pie{}, fmt.Errorf("chart %q: invalid value %v for %q", desc.Title, v, desc.Labels[i])
		}
		total += v
	}

	if colors == nil {
		colors = palette.NewAllocator(nil)
	}
	assigned := colors.Colors(len(desc.Values))

	slices := make([]Slice, len(desc.Values))
	for i, v := range desc.Values {
		frac := 0.0
		if total > 0 {
			frac = v / total
		}
		slices[i] = Slice{
			Label:    desc.Labels[i],
			Value:    v,
			Fraction: frac,
			Color:    assigned[i],
		}
	}
	return Pie{title: desc.Title, slices: slices, total: total}, nil
}

// BuildAll builds one pie per descriptor from a shared color source.
func BuildAll(descs []logjam.ChartDescriptor, colors palette.Source) ([]Pie, error) {
	pies := make([]Pie, 0, len(descs))
	for _, d := range descs {
		p, err := New(d, colors)
		if err != nil {
			return nil, err
		}
		pies = append(pies, p)
	}
	return pies, nil
}

// Title returns the chart heading.
func (p Pie) Title() string { return p.title }

// Total returns the sum of all slice values.
func (p Pie) Total() float64 { return p.total }

// Slices returns a copy of the slices in label order.
func (p Pie) Slices() []Slice {
	return append([]Slice(nil), p.slices...)
}

// Empty reports whether the pie has nothing to draw.
func (p Pie) Empty() bool { return p.total <= 0 }

// sliceAt returns the slice owning position pos, a fraction of a full turn
// in [0, 1). Zero-valued slices never own a position.
func (p Pie) sliceAt(pos float64) int {
	if p.Empty() {
		return -1
	}
	cum := 0.0
	last := -1
	for i, s := range p.slices {
		if s.Fraction <= 0 {
			continue
		}
		cum += s.Fraction
		last = i
		if pos < cum {
			return i
		}
	}
	return last
}
