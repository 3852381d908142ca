package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/five82/logjam/internal/logjam"
	"github.com/five82/logjam/internal/state"
)

const (
	defaultBackoff = 500 * time.Millisecond
	maxBackoff     = 30 * time.Second
	fetchAttempts  = 3
)

// calculateBackoff returns the wait before retry number failures+1: base
// doubled per failure, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures < 0 {
		failures = 0
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

// loader fills the store's option lists from the backend.
type loader struct {
	store    *state.Store
	fetcher  logjam.OptionFetcher
	logger   *zap.Logger
	attempts int
	backoff  time.Duration
}

func newLoader(store *state.Store, fetcher logjam.OptionFetcher, logger *zap.Logger) *loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &loader{
		store:    store,
		fetcher:  fetcher,
		logger:   logger,
		attempts: fetchAttempts,
		backoff:  defaultBackoff,
	}
}

// StartLoader fetches platforms and versions in the background. The
// returned channel closes when both fetches have finished.
func StartLoader(ctx context.Context, store *state.Store, fetcher logjam.OptionFetcher, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	l := newLoader(store, fetcher, logger)
	go func() {
		defer close(done)
		_ = l.load(ctx)
	}()
	return done
}

// load runs both fetches independently; one failing never cancels the
// other. Any final failure records a single warning banner.
func (l *loader) load(ctx context.Context) error {
	l.store.SetOptionsLoading(true)
	defer l.store.SetOptionsLoading(false)

	var g errgroup.Group
	g.Go(func() error {
		opts, err := l.fetch(ctx, "platforms", l.fetcher.FetchPlatforms)
		if err != nil {
			return err
		}
		l.store.AppendPlatforms(opts)
		return nil
	})
	g.Go(func() error {
		opts, err := l.fetch(ctx, "versions", l.fetcher.FetchVersions)
		if err != nil {
			return err
		}
		l.store.AppendVersions(opts)
		return nil
	})

	if err := g.Wait(); err != nil {
		if ctx.Err() == nil {
			l.store.RecordOptionsFailure(err)
		}
		return err
	}
	return nil
}

func (l *loader) fetch(ctx context.Context, name string, fn func(context.Context) ([]logjam.Option, error)) ([]logjam.Option, error) {
	var lastErr error
	for attempt := 0; attempt < l.attempts; attempt++ {
		opts, err := fn(ctx)
		if err == nil {
			l.logger.Debug("options loaded", zap.String("list", name), zap.Int("count", len(opts)))
			return opts, nil
		}
		lastErr = err
		if attempt == l.attempts-1 {
			break
		}

		wait := calculateBackoff(attempt, l.backoff)
		l.logger.Warn("option fetch failed, retrying",
			zap.String("list", name),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, fmt.Errorf("fetch %s: %w", name, lastErr)
}
