package ui

import (
	"fmt"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/logjam/internal/chart"
	"github.com/five82/logjam/internal/logjam"
	"github.com/five82/logjam/internal/state"
)

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type optionsLoadedMsg struct{}

type submitDoneMsg struct {
	ticket state.Ticket
	charts []logjam.ChartDescriptor
	err    error
}

type exportDoneMsg struct {
	paths []string
	err   error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

func waitLoaderCmd(done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-done
		return optionsLoadedMsg{}
	}
}

// submitCmd runs the query on the ticket's context; the store decides on
// completion whether the result is still wanted.
func submitCmd(matcher logjam.Matcher, ticket state.Ticket) tea.Cmd {
	return func() tea.Msg {
		charts, err := matcher.MatchData(ticket.Ctx, ticket.Request)
		return submitDoneMsg{ticket: ticket, charts: charts, err: err}
	}
}

func exportCmd(dir string, pies []chart.Pie, format chart.Format, tag string) tea.Cmd {
	return func() tea.Msg {
		paths, err := chart.ExportAll(dir, pies, format, tag)
		return exportDoneMsg{paths: paths, err: err}
	}
}

func exportNotice(paths []string) string {
	switch len(paths) {
	case 0:
		return "nothing exported"
	case 1:
		return "exported " + paths[0]
	default:
		return fmt.Sprintf("exported %d charts to %s", len(paths), filepath.Dir(paths[0]))
	}
}

// shortID returns the first block of a request ID for file names.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
