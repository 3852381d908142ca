// Package palette assigns colors from a fixed palette to chart slices.
package palette

import (
	"math/rand/v2"
	"strings"
	"sync"
)

// Default is the slice palette used by every chart.
var Default = []string{
	"#36a2eb",
	"#ff6384",
	"#cc65fe",
	"#ffce56",
	"#30c589",
	"#0053b5",
}

// Source hands out colors for one chart's slices.
type Source interface {
	Colors(n int) []string
}

// Mode names a color selection policy.
type Mode string

const (
	ModeCycle   Mode = "cycle"
	ModeShuffle Mode = "shuffle"
)

// ParseMode normalizes a policy name, defaulting to ModeCycle.
func ParseMode(name string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(name))) {
	case ModeShuffle:
		return ModeShuffle
	default:
		return ModeCycle
	}
}

// Next returns the other policy.
func (m Mode) Next() Mode {
	if m == ModeShuffle {
		return ModeCycle
	}
	return ModeShuffle
}

// NewSource builds the Source for mode over colors. A nil colors uses Default.
func NewSource(mode Mode, colors []string) Source {
	if mode == ModeShuffle {
		return NewShuffler(colors, nil)
	}
	return NewAllocator(colors)
}

// Allocator cycles through the palette with a counter shared by every chart
// it serves, so consecutive charts start on different colors.
type Allocator struct {
	mu     sync.Mutex
	colors []string
	next   int
}

// NewAllocator returns a cycling allocator over colors.
func NewAllocator(colors []string) *Allocator {
	return &Allocator{colors: normalize(colors)}
}

// Colors returns the next n colors and advances the shared counter.
func (a *Allocator) Colors(n int) []string {
	if n <= 0 {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]string, n)
	for i := range out {
		out[i] = a.colors[(a.next+i)%len(a.colors)]
	}
	a.next = (a.next + n) % len(a.colors)
	return out
}

// Reset rewinds the counter to the first palette entry.
func (a *Allocator) Reset() {
	a.mu.Lock()
	a.next = 0
	a.mu.Unlock()
}

// Shuffler draws a fresh uniform permutation of the palette per chart.
type Shuffler struct {
	mu     sync.Mutex
	colors []string
	rng    *rand.Rand
}

// NewShuffler returns a shuffler over colors. A nil rng is seeded randomly.
func NewShuffler(colors []string, rng *rand.Rand) *Shuffler {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Shuffler{colors: normalize(colors), rng: rng}
}

// Colors returns n colors taken cyclically from a new permutation.
func (s *Shuffler) Colors(n int) []string {
	if n <= 0 {
		return nil
	}
	s.mu.Lock()
	perm := s.rng.Perm(len(s.colors))
	s.mu.Unlock()

	out := make([]string, n)
	for i := range out {
		out[i] = s.colors[perm[i%len(perm)]]
	}
	return out
}

func normalize(colors []string) []string {
	if len(colors) == 0 {
		colors = Default
	}
	return append([]string(nil), colors...)
}
