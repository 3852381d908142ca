// Package ui provides the terminal interface for logjam.
//
// # Architecture
//
// The interface is a single Bubble Tea model. It never holds request state of
// its own: every change goes through the state.Store, and the model renders
// from a snapshot that is refreshed on a timer and after each action.
//
// The screen is stacked top to bottom:
//
//   - Header: API address, option counts and query status
//   - Banners: warnings and submit errors, newest last
//   - Form: the log text area and the platform and version selectors
//   - Results: one terminal pie per chart, packed into rows
//   - Footer: key help and transient notices
//
// # Focus
//
// Tab and shift+tab move between the log text, platform and version. While
// the text area has focus printable keys are typed, so "?" and the arrow keys
// edit text; F1 always opens help. Left and right cycle a focused selector
// and enter submits from it. Ctrl+s submits from anywhere.
//
// # Charts and Colors
//
// Pies are built when the store's result generation changes, never on
// render. The color source is shared by every pie of a result set, so slice
// colors continue across charts, and it is reset before the next set is
// built. Ctrl+p switches between cycling and shuffled colors and rebuilds the
// current pies.
//
// # Commands
//
// Queries and exports run as tea.Cmd functions. A query completion carries
// its ticket back to the store, which drops it if a newer submit has
// replaced it.
package ui
