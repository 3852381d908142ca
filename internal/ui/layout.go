package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100

	// LayoutWideWidth is the threshold above which charts get a larger disc.
	LayoutWideWidth = 160
)

// Chart sizing.
const (
	chartRadiusCompact = 4
	chartRadius        = 6
	chartRadiusWide    = 8
	chartGap           = 4
)

// Form sizing.
const (
	logTextHeight   = 4
	logTextMinWidth = 20
)

// Timing constants.
const (
	// DefaultUIInterval is the default snapshot refresh interval.
	DefaultUIInterval = 500 * time.Millisecond
)

// chartRadiusFor picks a disc radius for the terminal width.
func chartRadiusFor(width int) int {
	switch {
	case width < LayoutCompactWidth:
		return chartRadiusCompact
	case width >= LayoutWideWidth:
		return chartRadiusWide
	default:
		return chartRadius
	}
}
