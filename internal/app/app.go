package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/five82/logjam/internal/chart"
	"github.com/five82/logjam/internal/config"
	"github.com/five82/logjam/internal/logging"
	"github.com/five82/logjam/internal/logjam"
	"github.com/five82/logjam/internal/logtail"
	"github.com/five82/logjam/internal/palette"
	"github.com/five82/logjam/internal/prefs"
	"github.com/five82/logjam/internal/state"
	"github.com/five82/logjam/internal/ui"
)

// Options configure a logjam run.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/logjam/prefs.toml

	// Initial form contents. LogFile wins over LogText; "-" reads stdin.
	LogText  string
	LogFile  string
	Tail     int // keep the last Tail lines of LogFile; zero keeps all
	Platform string
	Version  string

	// Once runs a single query without the TUI and prints the charts.
	Once      bool
	ExportDir string // overrides the configured export directory

	Debug  bool // log at debug level even when the config does not ask for it
	Stdout io.Writer
}

// Run starts logjam and blocks until the TUI exits or the headless query
// completes.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	userPrefs, _ := prefs.Load(opts.PrefsPath)
	mode := palette.ParseMode(cfg.Palette)
	if userPrefs.Palette != "" {
		mode = palette.ParseMode(userPrefs.Palette)
	}

	logger, err := logging.New(cfg.LogPath, cfg.Debug || opts.Debug)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	client, err := logjam.NewClient(cfg.APIURL, cfg.RequestTimeout)
	if err != nil {
		return fmt.Errorf("init logjam client: %w", err)
	}

	store := state.NewStore(cfg.SubmitTimeout, logger)

	text := opts.LogText
	if opts.LogFile != "" {
		text, err = logtail.ReadText(opts.LogFile, opts.Tail)
		if err != nil {
			return err
		}
	}
	store.SetLogText(text)
	store.Prefer(opts.Platform, opts.Version)

	// The TUI exports to the configured directory; headless runs only
	// export when -export is given.
	exportDir := cfg.ExportDir
	if opts.Once {
		exportDir = ""
	}
	if opts.ExportDir != "" {
		exportDir, err = config.ExpandPath(opts.ExportDir)
		if err != nil {
			return fmt.Errorf("export dir: %w", err)
		}
	}

	logger.Info("logjam starting",
		zap.String("api_url", client.BaseURL()),
		zap.Bool("once", opts.Once),
		zap.String("palette", string(mode)),
	)

	if opts.Once {
		h := headless{
			store:     store,
			fetcher:   client,
			matcher:   client,
			logger:    logger,
			out:       opts.Stdout,
			mode:      mode,
			exportDir: exportDir,
			platform:  opts.Platform,
			version:   opts.Version,
		}
		return h.run(ctx)
	}

	done := StartLoader(ctx, store, client, logger)

	return ui.Run(ui.Options{
		Context:     ctx,
		Store:       store,
		Matcher:     client,
		Logger:      logger,
		APIURL:      client.BaseURL(),
		ExportDir:   exportDir,
		ThemeName:   userPrefs.Theme,
		PaletteMode: mode,
		PrefsPath:   opts.PrefsPath,
		LoaderDone:  done,
	})
}

// headless runs one query and prints the charts.
type headless struct {
	store     *state.Store
	fetcher   logjam.OptionFetcher
	matcher   logjam.Matcher
	logger    *zap.Logger
	out       io.Writer
	mode      palette.Mode
	exportDir string
	platform  string
	version   string
}

func (h headless) run(ctx context.Context) error {
	out := h.out
	if out == nil {
		out = os.Stdout
	}

	// Filters are matched against the loaded lists, so load them first.
	loadErr := newLoader(h.store, h.fetcher, h.logger).load(ctx)
	snap := h.store.Snapshot()
	if err := checkFilter("platform", h.platform, state.AllPlatforms, snap.PlatformIndex, loadErr); err != nil {
		return err
	}
	if err := checkFilter("version", h.version, state.AllVersions, snap.VersionIndex, loadErr); err != nil {
		return err
	}

	outcome, err := h.store.Submit(ctx, h.matcher)
	snap = h.store.Snapshot()
	switch outcome {
	case state.OutcomeRejected:
		return errors.New(strings.Join(snap.Errors, "; "))
	case state.OutcomeFailed:
		return errors.New(state.SubmitErrorText(err))
	case state.OutcomeNoResults:
		_, werr := fmt.Fprintln(out, "No occurrences found")
		return werr
	case state.OutcomeSuccess:
	default:
		return fmt.Errorf("query ended with outcome %s", outcome)
	}

	pies, err := chart.BuildAll(snap.Charts, palette.NewSource(h.mode, palette.Default))
	if err != nil {
		return fmt.Errorf("build charts: %w", err)
	}

	opts := chart.RenderOptions{
		Title: lipgloss.NewStyle().Bold(true),
		Text:  lipgloss.NewStyle(),
		Muted: lipgloss.NewStyle().Faint(true),
	}
	for i, p := range pies {
		if i > 0 {
			if _, err := fmt.Fprintln(out); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(out, chart.Render(p, opts)); err != nil {
			return err
		}
	}

	if h.exportDir == "" {
		return nil
	}
	tag := snap.RequestID
	if len(tag) > 8 {
		tag = tag[:8]
	}
	paths, err := chart.ExportAll(h.exportDir, pies, chart.FormatPNG, tag)
	if err != nil {
		return fmt.Errorf("export charts: %w", err)
	}
	h.logger.Info("charts exported", zap.Strings("paths", paths))
	for _, p := range paths {
		if _, err := fmt.Fprintln(out, "exported", p); err != nil {
			return err
		}
	}
	return nil
}

// checkFilter reports a requested filter that did not match any option.
// Asking for the placeholder by name means no filter.
func checkFilter(name, want, placeholder string, index int, loadErr error) error {
	want = strings.TrimSpace(want)
	if want == "" || index > 0 || strings.EqualFold(want, placeholder) {
		return nil
	}
	if loadErr != nil {
		return fmt.Errorf("%s %q: options unavailable: %w", name, want, loadErr)
	}
	return fmt.Errorf("%s %q not found", name, want)
}
