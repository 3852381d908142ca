package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/five82/logjam/internal/logjam"
)

// Placeholder labels for the "no filter" option at index 0.
const (
	AllPlatforms = "All Platforms"
	AllVersions  = "All Versions"
)

// Messages surfaced to the user.
const (
	ErrLogTextRequired = "Log text is required"
	OptionsWarning     = "could not load filter options, showing defaults"
	submitErrorPrefix  = "Error getting occurrences: "
)

const defaultSubmitTimeout = 30 * time.Second

// Phase is the position of the store in the submission state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseValidating
	PhaseSubmitting
)

func (p Phase) String() string {
	switch p {
	case PhaseValidating:
		return "validating"
	case PhaseSubmitting:
		return "submitting"
	default:
		return "idle"
	}
}

// Outcome records how the last submission ended.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeSuccess
	OutcomeNoResults
	OutcomeFailed
	OutcomeRejected
	// OutcomeSuperseded is returned for completions of stale tickets; it is
	// never stored.
	OutcomeSuperseded
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeNoResults:
		return "no_results"
	case OutcomeFailed:
		return "failed"
	case OutcomeRejected:
		return "rejected"
	case OutcomeSuperseded:
		return "superseded"
	default:
		return "none"
	}
}

// Level classifies a banner.
type Level int

const (
	LevelWarning Level = iota
	LevelError
)

// Banner is a dismissable status message.
type Banner struct {
	ID    int
	Level Level
	Text  string
}

// Ticket identifies one issued submission. Ctx carries the submit timeout
// and the request ID and is cancelled when the ticket is finished or
// superseded.
type Ticket struct {
	ID        uint64
	Ctx       context.Context
	Request   logjam.MatchRequest
	RequestID string
	Started   time.Time

	cancel context.CancelFunc
}

// Snapshot is a deep copy of the store used as the view model.
type Snapshot struct {
	LogText       string
	Platforms     []logjam.Option
	Versions      []logjam.Option
	PlatformIndex int
	VersionIndex  int
	Errors        []string

	Charts []logjam.ChartDescriptor
	// Generation changes whenever Charts is replaced or cleared.
	Generation uint64

	Phase          Phase
	Outcome        Outcome
	Banners        []Banner
	OptionsLoading bool
	RequestID      string
	LastDuration   time.Duration
}

// Platform returns the selected platform option.
func (s Snapshot) Platform() logjam.Option {
	return optionAt(s.Platforms, s.PlatformIndex)
}

// Version returns the selected version option.
func (s Snapshot) Version() logjam.Option {
	return optionAt(s.Versions, s.VersionIndex)
}

// Submitting reports whether a submission is in flight.
func (s Snapshot) Submitting() bool { return s.Phase == PhaseSubmitting }

// HasResults reports whether charts should be shown.
func (s Snapshot) HasResults() bool {
	return s.Outcome == OutcomeSuccess && len(s.Charts) > 0
}

// Store is the session state holder: form fields, option lists, charts,
// the submission state machine and banners.
type Store struct {
	mu            sync.RWMutex
	logger        *zap.Logger
	submitTimeout time.Duration
	now           func() time.Time
	newID         func() string

	logText       string
	platforms     []logjam.Option
	versions      []logjam.Option
	platformIndex int
	versionIndex  int
	errors        []string

	charts     []logjam.ChartDescriptor
	generation uint64

	phase        Phase
	outcome      Outcome
	seq          uint64
	active       *Ticket
	requestID    string
	lastDuration time.Duration

	banners        []Banner
	bannerSeq      int
	optionsLoading bool
	optionsWarned  bool

	preferPlatform string
	preferVersion  string
}

// NewStore returns a store with placeholder option lists. A non-positive
// submitTimeout uses 30s; a nil logger discards output.
func NewStore(submitTimeout time.Duration, logger *zap.Logger) *Store {
	if submitTimeout <= 0 {
		submitTimeout = defaultSubmitTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		logger:        logger,
		submitTimeout: submitTimeout,
		now:           time.Now,
		newID:         uuid.NewString,
		platforms:     []logjam.Option{logjam.Placeholder(AllPlatforms)},
		versions:      []logjam.Option{logjam.Placeholder(AllVersions)},
	}
}

// SetLogText replaces the log text. Errors are only recomputed on submit.
func (s *Store) SetLogText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logText = text
}

// SelectPlatform selects the platform at index i.
func (s *Store) SelectPlatform(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.platforms) {
		return false
	}
	s.platformIndex = i
	s.preferPlatform = ""
	return true
}

// SelectVersion selects the version at index i.
func (s *Store) SelectVersion(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.versions) {
		return false
	}
	s.versionIndex = i
	s.preferVersion = ""
	return true
}

// CyclePlatform moves the platform selection by delta, wrapping around.
func (s *Store) CyclePlatform(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.platformIndex = wrap(s.platformIndex+delta, len(s.platforms))
	s.preferPlatform = ""
}

// CycleVersion moves the version selection by delta, wrapping around.
func (s *Store) CycleVersion(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.versionIndex = wrap(s.versionIndex+delta, len(s.versions))
	s.preferVersion = ""
}

// Prefer records filters requested by name (value or text, case-insensitive).
// Each is applied to its own list once it appears there, then forgotten. A
// selection made by hand first also drops the pending preference. The
// placeholder names ask for no filter.
func (s *Store) Prefer(platform, version string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preferPlatform = preferenceName(platform, AllPlatforms)
	s.preferVersion = preferenceName(version, AllVersions)
	s.applyPlatformPreference()
	s.applyVersionPreference()
}


// SetOptionsLoading toggles the options-loading indicator.
func (s *Store) SetOptionsLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.optionsLoading = loading
}

// AppendPlatforms extends the platform list. Entries are never replaced or
// de-duplicated.
func (s *Store) AppendPlatforms(opts []logjam.Option) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.platforms = appendOptions(s.platforms, opts)
	s.applyPlatformPreference()
}

// AppendVersions extends the version list.
func (s *Store) AppendVersions(opts []logjam.Option) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.versions = appendOptions(s.versions, opts)
	s.applyVersionPreference()
}

// RecordOptionsFailure adds the options warning banner once per session.
func (s *Store) RecordOptionsFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger.Warn("filter options unavailable", zap.Error(err))
	if s.optionsWarned {
		return
	}
	s.optionsWarned = true
	s.addBanner(LevelWarning, OptionsWarning)
}

// Validate recomputes the error list and reports whether the form is valid.
func (s *Store) Validate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validate()
}

func (s *Store) validate() bool {
	s.errors = nil
	if strings.TrimSpace(s.logText) == "" {
		s.errors = []string{ErrLogTextRequired}
	}
	return len(s.errors) == 0
}

// BeginSubmit validates the form and, when valid, issues a ticket for a new
// submission. Any in-flight submission is cancelled and the previous charts
// are cleared. It returns false when validation rejected the submit.
func (s *Store) BeginSubmit(ctx context.Context) (Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.phase = PhaseValidating
	if !s.validate() {
		s.phase = PhaseIdle
		s.outcome = OutcomeRejected
		s.logger.Debug("submit rejected", zap.Strings("errors", s.errors))
		return Ticket{}, false
	}

	if s.active != nil {
		s.logger.Info("submit superseded", zap.String("request_id", s.active.RequestID))
		s.active.cancel()
		s.active = nil
	}
	if s.charts != nil {
		s.charts = nil
		s.generation++
	}

	s.seq++
	requestID := s.newID()
	child, cancel := context.WithTimeout(ctx, s.submitTimeout)
	ticket := Ticket{
		ID:        s.seq,
		Ctx:       logjam.WithRequestID(child, requestID),
		RequestID: requestID,
		Started:   s.now(),
		Request: logjam.MatchRequest{
			LogText:   s.logText,
			SGVersion: optionAt(s.versions, s.versionIndex).Clone().Value,
			Platform:  optionAt(s.platforms, s.platformIndex).Clone().Value,
		},
		cancel: cancel,
	}
	s.active = &ticket
	s.requestID = requestID
	s.phase = PhaseSubmitting
	s.outcome = OutcomeNone

	s.logger.Info("submit started",
		zap.String("request_id", requestID),
		zap.Stringp("platform", ticket.Request.Platform),
		zap.Stringp("sg_version", ticket.Request.SGVersion),
		zap.Int("log_text_len", len(ticket.Request.LogText)),
	)
	return ticket, true
}

// FinishSubmit records the result of a ticket. Completions of tickets that
// are no longer active are dropped and report OutcomeSuperseded.
func (s *Store) FinishSubmit(t Ticket, charts []logjam.ChartDescriptor, err error) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.cancel != nil {
		defer t.cancel()
	}
	if s.active == nil || s.active.ID != t.ID {
		s.logger.Debug("stale submit dropped", zap.String("request_id", t.RequestID))
		return OutcomeSuperseded
	}

	s.active = nil
	s.phase = PhaseIdle
	s.lastDuration = s.now().Sub(t.Started)

	switch {
	case err != nil:
		s.outcome = OutcomeFailed
		s.addBanner(LevelError, SubmitErrorText(err))
	case noResults(charts):
		s.outcome = OutcomeNoResults
	default:
		s.charts = cloneCharts(charts)
		s.generation++
		s.outcome = OutcomeSuccess
	}

	fields := []zap.Field{
		zap.String("request_id", t.RequestID),
		zap.String("outcome", s.outcome.String()),
		zap.Int("charts", len(charts)),
		zap.Duration("duration", s.lastDuration),
	}
	if err != nil {
		s.logger.Error("submit failed", append(fields, zap.Error(err))...)
	} else {
		s.logger.Info("submit finished", fields...)
	}
	return s.outcome
}

// Submit runs validation, the request and the completion synchronously.
func (s *Store) Submit(ctx context.Context, matcher logjam.Matcher) (Outcome, error) {
	ticket, ok := s.BeginSubmit(ctx)
	if !ok {
		return OutcomeRejected, nil
	}
	charts, err := matcher.MatchData(ticket.Ctx, ticket.Request)
	return s.FinishSubmit(ticket, charts, err), err
}

// CancelSubmit abandons the in-flight submission, if any.
func (s *Store) CancelSubmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return false
	}
	s.logger.Info("submit cancelled", zap.String("request_id", s.active.RequestID))
	s.active.cancel()
	s.active = nil
	s.phase = PhaseIdle
	s.outcome = OutcomeNone
	return true
}

// Reset clears the form, results and pending preferences but keeps the
// option lists.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		s.active.cancel()
		s.active = nil
	}
	s.logText = ""
	s.platformIndex = 0
	s.versionIndex = 0
	s.preferPlatform = ""
	s.preferVersion = ""
	s.errors = nil
	if s.charts != nil {
		s.charts = nil
		s.generation++
	}
	s.phase = PhaseIdle
	s.outcome = OutcomeNone
}

// DismissBanner removes the banner with the given ID.
func (s *Store) DismissBanner(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, b := range s.banners {
		if b.ID == id {
			s.banners = append(s.banners[:i], s.banners[i+1:]...)
			return true
		}
	}
	return false
}

// DismissBanners removes every banner.
func (s *Store) DismissBanners() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.banners = nil
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		LogText:        s.logText,
		Platforms:      cloneOptions(s.platforms),
		Versions:       cloneOptions(s.versions),
		PlatformIndex:  s.platformIndex,
		VersionIndex:   s.versionIndex,
		Charts:         cloneCharts(s.charts),
		Generation:     s.generation,
		Phase:          s.phase,
		Outcome:        s.outcome,
		OptionsLoading: s.optionsLoading,
		RequestID:      s.requestID,
		LastDuration:   s.lastDuration,
	}
	if len(s.errors) > 0 {
		snap.Errors = append([]string(nil), s.errors...)
	}
	if len(s.banners) > 0 {
		snap.Banners = append([]Banner(nil), s.banners...)
	}
	return snap
}

// SubmitErrorText formats a submission failure for the error banner.
func SubmitErrorText(err error) string {
	var apiErr *logjam.APIError
	switch {
	case errors.As(err, &apiErr):
		return fmt.Sprintf("%s%d %s", submitErrorPrefix, apiErr.StatusCode, apiErr.StatusText)
	case errors.Is(err, context.DeadlineExceeded):
		return submitErrorPrefix + "request timed out"
	case errors.Is(err, context.Canceled):
		return submitErrorPrefix + "request cancelled"
	default:
		return submitErrorPrefix + err.Error()
	}
}

func (s *Store) addBanner(level Level, text string) {
	s.bannerSeq++
	s.banners = append(s.banners, Banner{ID: s.bannerSeq, Level: level, Text: text})
}

func (s *Store) applyPlatformPreference() {
	if s.preferPlatform == "" {
		return
	}
	if i := findOption(s.platforms, s.preferPlatform); i >= 0 {
		s.platformIndex = i
		s.preferPlatform = ""
	}
}

func (s *Store) applyVersionPreference() {
	if s.preferVersion == "" {
		return
	}
	if i := findOption(s.versions, s.preferVersion); i >= 0 {
		s.versionIndex = i
		s.preferVersion = ""
	}
}

func preferenceName(name, placeholder string) string {
	name = strings.TrimSpace(name)
	if strings.EqualFold(name, placeholder) {
		return ""
	}
	return name
}

// noResults applies the backend's convention: the second value of the first
// chart is the match count.
func noResults(charts []logjam.ChartDescriptor) bool {
	if len(charts) == 0 {
		return true
	}
	values := charts[0].Values
	return len(values) > 1 && values[1] == 0
}

func findOption(opts []logjam.Option, name string) int {
	for i, opt := range opts {
		if opt.IsPlaceholder() {
			continue
		}
		if strings.EqualFold(opt.ValueString(), name) || strings.EqualFold(opt.Text, name) {
			return i
		}
	}
	return -1
}

func optionAt(opts []logjam.Option, i int) logjam.Option {
	if i < 0 || i >= len(opts) {
		return logjam.Option{}
	}
	return opts[i]
}

func wrap(i, n int) int {
	if n <= 0 {
		return 0
	}
	return ((i % n) + n) % n
}

func appendOptions(dst, src []logjam.Option) []logjam.Option {
	for _, opt := range src {
		dst = append(dst, opt.Clone())
	}
	return dst
}

func cloneOptions(opts []logjam.Option) []logjam.Option {
	if len(opts) == 0 {
		return nil
	}
	out := make([]logjam.Option, len(opts))
	for i, opt := range opts {
		out[i] = opt.Clone()
	}
	return out
}

func cloneCharts(charts []logjam.ChartDescriptor) []logjam.ChartDescriptor {
	if len(charts) == 0 {
		return nil
	}
	out := make([]logjam.ChartDescriptor, len(charts))
	for i, c := range charts {
		out[i] = c.Clone()
	}
	return out
}
