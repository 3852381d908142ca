package ui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/five82/logjam/internal/chart"
	"github.com/five82/logjam/internal/logjam"
	"github.com/five82/logjam/internal/palette"
	"github.com/five82/logjam/internal/prefs"
	"github.com/five82/logjam/internal/state"
)

// focusArea is the form control receiving keys.
type focusArea int

const (
	focusLogText focusArea = iota
	focusPlatform
	focusVersion
	focusCount
)

const abridgedNotice = "log text shown abridged; it is sent as loaded until edited"

// Options configures the UI.
type Options struct {
	Context     context.Context
	Store       *state.Store
	Matcher     logjam.Matcher
	Logger      *zap.Logger
	APIURL      string
	ExportDir   string
	Tick        time.Duration
	ThemeName   string
	PaletteMode palette.Mode
	PrefsPath   string
	// LoaderDone closes when the startup option fetch has finished.
	LoaderDone <-chan struct{}
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx        context.Context
	store      *state.Store
	matcher    logjam.Matcher
	logger     *zap.Logger
	apiURL     string
	exportDir  string
	prefsPath  string
	tick       time.Duration
	loaderDone <-chan struct{}

	// UI state
	theme    Theme
	keys     keyMap
	width    int
	height   int
	ready    bool
	focus    focusArea
	showHelp bool

	// Widgets
	logText textarea.Model
	spinner spinner.Model
	help    help.Model

	// Data state
	snapshot state.Snapshot

	// Charts are built once per result set so colors are drawn once.
	paletteMode palette.Mode
	colors      palette.Source
	pies        []chart.Pie
	pieGen      uint64
	pieErr      error

	// Transient footer notice (export results)
	notice      string
	noticeIsErr bool
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	store := opts.Store
	if store == nil {
		store = state.NewStore(0, opts.Logger)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	tick := opts.Tick
	if tick <= 0 {
		tick = DefaultUIInterval
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	mode := opts.PaletteMode
	if mode == "" {
		mode = palette.ModeCycle
	}

	snap := store.Snapshot()

	ta := textarea.New()
	ta.Placeholder = "Paste a log line…"
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(logTextHeight)
	ta.SetValue(snap.LogText)
	ta.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	m := Model{
		ctx:         ctx,
		store:       store,
		matcher:     opts.Matcher,
		logger:      logger,
		apiURL:      opts.APIURL,
		exportDir:   opts.ExportDir,
		prefsPath:   prefsPath,
		tick:        tick,
		loaderDone:  opts.LoaderDone,
		theme:       GetTheme(opts.ThemeName),
		keys:        DefaultKeyMap(),
		logText:     ta,
		spinner:     sp,
		help:        help.New(),
		snapshot:    snap,
		paletteMode: mode,
		colors:      palette.NewSource(mode, palette.Default),
	}
	// The widget caps line count and rewrites tabs. The store keeps the text
	// as given and only takes the widget's value after an edit.
	if ta.Value() != snap.LogText {
		m.setNotice(abridgedNotice, false)
	}
	m.applyTheme()
	m.syncPies()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		textarea.Blink,
		tickCmd(m.tick),
		fetchSnapshotCmd(m.store),
	}
	if m.loaderDone != nil {
		cmds = append(cmds, waitLoaderCmd(m.loaderDone))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		return m, nil

	case tickMsg:
		return m, tea.Batch(tickCmd(m.tick), fetchSnapshotCmd(m.store))

	case snapshotMsg:
		m.setSnapshot(state.Snapshot(msg))
		return m, nil

	case optionsLoadedMsg:
		return m, fetchSnapshotCmd(m.store)

	case submitDoneMsg:
		outcome := m.store.FinishSubmit(msg.ticket, msg.charts, msg.err)
		if outcome == state.OutcomeSuperseded {
			return m, nil
		}
		m.setSnapshot(m.store.Snapshot())
		return m, nil

	case exportDoneMsg:
		m.handleExportDone(msg)
		return m, nil

	case spinner.TickMsg:
		if !m.snapshot.Submitting() && !m.snapshot.OptionsLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	// Cursor blink and other widget messages.
	if m.focus == focusLogText {
		var cmd tea.Cmd
		m.logText, cmd = m.logText.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	sections := []string{m.renderHeader()}
	if banners := m.renderBanners(); banners != "" {
		sections = append(sections, banners)
	}
	sections = append(sections, m.renderForm(), m.renderResults())

	body := lipgloss.JoinVertical(lipgloss.Left, sections...)
	footer := m.renderFooter()

	// Pin the footer to the bottom row when there is room.
	if gap := m.height - lipgloss.Height(body) - lipgloss.Height(footer); gap > 0 {
		body = lipgloss.JoinVertical(lipgloss.Left, body, lipgloss.NewStyle().Height(gap).Render(""))
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, footer)
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.store.CancelSubmit()
		return m, tea.Quit

	case msg.String() == "f1" || (msg.String() == "?" && m.focus != focusLogText):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.Tab):
		return m, m.setFocus((m.focus + 1) % focusCount)

	case key.Matches(msg, m.keys.ShiftTab):
		return m, m.setFocus((m.focus + focusCount - 1) % focusCount)

	case key.Matches(msg, m.keys.DismissBanner):
		m.dismissNewestBanner()
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		return m.handleEscape()

	case key.Matches(msg, m.keys.Export):
		return m.export()

	case key.Matches(msg, m.keys.Reset):
		m.store.Reset()
		m.store.DismissBanners()
		m.logText.Reset()
		m.notice = ""
		m.setSnapshot(m.store.Snapshot())
		return m, m.setFocus(focusLogText)

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.applyTheme()
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.CyclePalette):
		m.paletteMode = m.paletteMode.Next()
		m.colors = palette.NewSource(m.paletteMode, palette.Default)
		m.rebuildPies()
		m.savePrefs()
		m.setNotice("colors: "+string(m.paletteMode), false)
		return m, nil
	}

	switch m.focus {
	case focusPlatform, focusVersion:
		return m.handleSelectorKey(msg)
	}

	before := m.logText.Value()
	var cmd tea.Cmd
	m.logText, cmd = m.logText.Update(msg)
	if after := m.logText.Value(); after != before {
		m.store.SetLogText(after)
		m.snapshot.LogText = after
	}
	return m, cmd
}

func (m Model) handleEscape() (tea.Model, tea.Cmd) {
	if m.snapshot.Submitting() {
		m.store.CancelSubmit()
		m.setSnapshot(m.store.Snapshot())
		m.setNotice("query cancelled", false)
		return m, nil
	}
	if m.focus == focusLogText {
		return m, m.setFocus(focusPlatform)
	}
	m.dismissNewestBanner()
	return m, nil
}

// dismissNewestBanner removes the newest banner on screen, not one that
// arrived after the last snapshot.
func (m *Model) dismissNewestBanner() {
	if n := len(m.snapshot.Banners); n > 0 {
		m.store.DismissBanner(m.snapshot.Banners[n-1].ID)
	}
	m.setSnapshot(m.store.Snapshot())
}

func (m Model) handleSelectorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	delta := 0
	switch {
	case key.Matches(msg, m.keys.Prev):
		delta = -1
	case key.Matches(msg, m.keys.Next):
		delta = 1
	case key.Matches(msg, m.keys.Enter):
		return m.submit()
	case key.Matches(msg, m.keys.Clear):
		if m.focus == focusPlatform {
			m.store.SelectPlatform(0)
		} else {
			m.store.SelectVersion(0)
		}
		m.setSnapshot(m.store.Snapshot())
		return m, nil
	default:
		return m, nil
	}
	if m.focus == focusPlatform {
		m.store.CyclePlatform(delta)
	} else {
		m.store.CycleVersion(delta)
	}
	m.setSnapshot(m.store.Snapshot())
	return m, nil
}

// submit validates and, when valid, starts the query. Invalid forms show
// their errors and never reach the network.
func (m Model) submit() (tea.Model, tea.Cmd) {
	ticket, ok := m.store.BeginSubmit(m.ctx)
	m.setSnapshot(m.store.Snapshot())
	if !ok {
		return m, m.setFocus(focusLogText)
	}
	m.notice = ""
	if m.matcher == nil {
		return m, func() tea.Msg {
			return submitDoneMsg{ticket: ticket, err: errors.New("no backend configured")}
		}
	}
	return m, tea.Batch(submitCmd(m.matcher, ticket), m.spinner.Tick)
}

func (m Model) export() (tea.Model, tea.Cmd) {
	if len(m.pies) == 0 {
		m.setNotice("nothing to export", true)
		return m, nil
	}
	if m.exportDir == "" {
		m.setNotice("no export directory configured", true)
		return m, nil
	}
	tag := shortID(m.snapshot.RequestID)
	return m, exportCmd(m.exportDir, m.pies, chart.FormatPNG, tag)
}

func (m *Model) handleExportDone(msg exportDoneMsg) {
	if msg.err != nil {
		m.logger.Error("export failed", zap.String("dir", m.exportDir), zap.Error(msg.err))
		m.setNotice("export failed: "+msg.err.Error(), true)
		return
	}
	m.logger.Info("charts exported", zap.Strings("paths", msg.paths))
	m.setNotice(exportNotice(msg.paths), false)
}

// setFocus moves focus and returns the textarea focus command if needed.
func (m *Model) setFocus(f focusArea) tea.Cmd {
	m.focus = f
	if f == focusLogText {
		return m.logText.Focus()
	}
	m.logText.Blur()
	return nil
}

// setSnapshot stores a snapshot and rebuilds pies for a new result set.
func (m *Model) setSnapshot(snap state.Snapshot) {
	m.snapshot = snap
	m.syncPies()
}

func (m *Model) syncPies() {
	if m.snapshot.Generation == m.pieGen {
		return
	}
	m.pieGen = m.snapshot.Generation
	if a, ok := m.colors.(*palette.Allocator); ok {
		a.Reset()
	}
	m.rebuildPies()
}

func (m *Model) rebuildPies() {
	m.pies, m.pieErr = nil, nil
	if len(m.snapshot.Charts) == 0 {
		return
	}
	pies, err := chart.BuildAll(m.snapshot.Charts, m.colors)
	if err != nil {
		m.logger.Warn("chart build failed", zap.Error(err))
		m.pieErr = err
		return
	}
	m.pies = pies
}

func (m *Model) applyTheme() {
	styles := m.theme.Styles()
	focused, blurred := textarea.DefaultStyles()
	focused.Base = lipgloss.NewStyle()
	focused.Text = styles.Text
	focused.Placeholder = styles.FaintText
	focused.CursorLine = styles.Text
	blurred.Base = lipgloss.NewStyle()
	blurred.Text = styles.MutedText
	blurred.Placeholder = styles.FaintText
	m.logText.FocusedStyle = focused
	m.logText.BlurredStyle = blurred

	m.spinner.Style = styles.AccentText

	m.help.Styles.ShortKey = styles.AccentText
	m.help.Styles.ShortDesc = styles.MutedText
	m.help.Styles.ShortSeparator = styles.FaintText
	m.help.Styles.FullKey = styles.AccentText
	m.help.Styles.FullDesc = styles.MutedText
}

func (m *Model) resize() {
	// Field border (2) plus padding (2).
	m.logText.SetWidth(maxInt(m.width-4, logTextMinWidth))
	m.help.Width = m.width
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	p := prefs.Prefs{Theme: m.theme.Name, Palette: string(m.paletteMode)}
	if err := prefs.Save(m.prefsPath, p); err != nil {
		m.logger.Warn("save prefs failed", zap.Error(err))
	}
}

func (m *Model) setNotice(text string, isErr bool) {
	m.notice = text
	m.noticeIsErr = isErr
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(opts Options) error {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
