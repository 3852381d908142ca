package state

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/five82/logjam/internal/logjam"
)

type matcherFunc func(ctx context.Context, req logjam.MatchRequest) ([]logjam.ChartDescriptor, error)

func (f matcherFunc) MatchData(ctx context.Context, req logjam.MatchRequest) ([]logjam.ChartDescriptor, error) {
	return f(ctx, req)
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(time.Second, zap.NewNop())
	n := 0
	s.newID = func() string {
		n++
		return "req-" + strconv.Itoa(n)
	}
	return s
}

func sampleCharts() []logjam.ChartDescriptor {
	return []logjam.ChartDescriptor{
		{Title: "Occurances", Labels: []string{"Other", "Matches"}, Values: []float64{77, 33}},
		{Title: "Occurances by Platform", Labels: []string{"vSphere", "Container"}, Values: []float64{20, 13}},
	}
}

func TestNewStore_Placeholders(t *testing.T) {
	snap := NewStore(0, nil).Snapshot()

	if len(snap.Platforms) != 1 || snap.Platforms[0].Text != AllPlatforms || !snap.Platforms[0].IsPlaceholder() {
		t.Fatalf("Platforms = %#v, want single placeholder", snap.Platforms)
	}
	if len(snap.Versions) != 1 || snap.Versions[0].Text != AllVersions || !snap.Versions[0].IsPlaceholder() {
		t.Fatalf("Versions = %#v, want single placeholder", snap.Versions)
	}
	if snap.Phase != PhaseIdle || snap.Outcome != OutcomeNone {
		t.Fatalf("phase/outcome = %v/%v, want idle/none", snap.Phase, snap.Outcome)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{name: "empty", text: "", want: false},
		{name: "whitespace", text: " \t\n ", want: false},
		{name: "text", text: "LUM|ERROR|disk full", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			s.SetLogText(tt.text)

			// Run twice: errors are recomputed, never accumulated.
			s.Validate()
			got := s.Validate()
			if got != tt.want {
				t.Fatalf("Validate() = %v, want %v", got, tt.want)
			}
			errs := s.Snapshot().Errors
			if tt.want && len(errs) != 0 {
				t.Fatalf("Errors = %v, want none", errs)
			}
			if !tt.want && (len(errs) != 1 || errs[0] != ErrLogTextRequired) {
				t.Fatalf("Errors = %v, want exactly [%q]", errs, ErrLogTextRequired)
			}
		})
	}
}

func TestSubmit_InvalidMakesNoNetworkCall(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client, err := logjam.NewClient(srv.URL, time.Second)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	s := newTestStore(t)
	s.SetLogText("   ")
	outcome, err := s.Submit(context.Background(), client)
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if outcome != OutcomeRejected {
		t.Fatalf("outcome = %v, want rejected", outcome)
	}
	if hits.Load() != 0 {
		t.Fatalf("server hits = %d, want 0", hits.Load())
	}
	snap := s.Snapshot()
	if snap.Phase != PhaseIdle || len(snap.Errors) != 1 {
		t.Fatalf("snapshot = %+v, want idle with one error", snap)
	}
}

func TestSubmit_RejectedKeepsExistingCharts(t *testing.T) {
	s := newTestStore(t)
	s.SetLogText("x")
	if _, err := s.Submit(context.Background(), matcherFunc(func(context.Context, logjam.MatchRequest) ([]logjam.ChartDescriptor, error) {
		return sampleCharts(), nil
	})); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	s.SetLogText("")
	if outcome, _ := s.Submit(context.Background(), nil); outcome != OutcomeRejected {
		t.Fatalf("outcome = %v, want rejected", outcome)
	}
	if got := len(s.Snapshot().Charts); got != 2 {
		t.Fatalf("charts = %d, want previous 2 kept", got)
	}
}

func TestSubmit_PostsPayloadAndStoresCharts(t *testing.T) {
	var body map[string]any
	var gotID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/matchData" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		gotID = r.Header.Get(logjam.RequestIDHeader)
		_ = json.NewDecoder(r.Body).Decode(&body)
		_ = json.NewEncoder(w).Encode(sampleCharts())
	}))
	defer srv.Close()

	client, err := logjam.NewClient(srv.URL, time.Second)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	s := newTestStore(t)
	s.AppendVersions([]logjam.Option{logjam.NewOption("11.4")})
	s.SelectVersion(1)
	s.SetLogText("LUM|ERROR")

	outcome, err := s.Submit(context.Background(), client)
	if err != nil || outcome != OutcomeSuccess {
		t.Fatalf("Submit = %v, %v; want success", outcome, err)
	}

	if body["logText"] != "LUM|ERROR" || body["sgVersion"] != "11.4" {
		t.Fatalf("body = %v", body)
	}
	if v, ok := body["platform"]; !ok || v != nil {
		t.Fatalf("platform = %v (present %v), want explicit null", v, ok)
	}
	if gotID != "req-1" {
		t.Fatalf("X-Request-ID = %q, want req-1", gotID)
	}

	snap := s.Snapshot()
	if !snap.HasResults() || len(snap.Charts) != 2 || snap.Charts[0].Values[0] != 77 {
		t.Fatalf("charts = %#v", snap.Charts)
	}
	if snap.RequestID != "req-1" || snap.Phase != PhaseIdle {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestSubmit_ZeroSecondValueIsNoResults(t *testing.T) {
	s := newTestStore(t)
	s.SetLogText("nothing matches")

	outcome, err := s.Submit(context.Background(), matcherFunc(func(context.Context, logjam.MatchRequest) ([]logjam.ChartDescriptor, error) {
		return []logjam.ChartDescriptor{{Title: "Occurances", Labels: []string{"Other", "Matches"}, Values: []float64{0, 0}}}, nil
	}))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if outcome != OutcomeNoResults {
		t.Fatalf("outcome = %v, want no results", outcome)
	}
	snap := s.Snapshot()
	if snap.HasResults() || len(snap.Charts) != 0 {
		t.Fatalf("charts = %#v, want none", snap.Charts)
	}
}

func TestSubmit_EmptyResponseIsNoResults(t *testing.T) {
	s := newTestStore(t)
	s.SetLogText("x")
	outcome, _ := s.Submit(context.Background(), matcherFunc(func(context.Context, logjam.MatchRequest) ([]logjam.ChartDescriptor, error) {
		return nil, nil
	}))
	if outcome != OutcomeNoResults {
		t.Fatalf("outcome = %v, want no results", outcome)
	}
}

func TestSubmit_APIErrorBanner(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	client, err := logjam.NewClient(srv.URL, time.Second)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	s := newTestStore(t)
	s.SetLogText("x")
	outcome, err := s.Submit(context.Background(), client)
	if err == nil || outcome != OutcomeFailed {
		t.Fatalf("Submit = %v, %v; want failed with error", outcome, err)
	}

	snap := s.Snapshot()
	if len(snap.Banners) != 1 {
		t.Fatalf("banners = %#v, want one", snap.Banners)
	}
	b := snap.Banners[0]
	if b.Level != LevelError || b.Text != "Error getting occurrences: 500 Internal Server Error" {
		t.Fatalf("banner = %#v", b)
	}

	if !s.DismissBanner(b.ID) || len(s.Snapshot().Banners) != 0 {
		t.Fatalf("DismissBanner did not remove banner")
	}
	if s.DismissBanner(b.ID) {
		t.Fatalf("DismissBanner succeeded twice")
	}
}

func TestSubmit_TimeoutBanner(t *testing.T) {
	s := NewStore(20*time.Millisecond, zap.NewNop())
	s.SetLogText("slow")

	outcome, err := s.Submit(context.Background(), matcherFunc(func(ctx context.Context, _ logjam.MatchRequest) ([]logjam.ChartDescriptor, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}))
	if !errors.Is(err, context.DeadlineExceeded) || outcome != OutcomeFailed {
		t.Fatalf("Submit = %v, %v; want deadline failure", outcome, err)
	}
	banners := s.Snapshot().Banners
	if len(banners) != 1 || banners[0].Text != "Error getting occurrences: request timed out" {
		t.Fatalf("banners = %#v", banners)
	}
}

func TestBeginSubmit_SupersedesInFlight(t *testing.T) {
	s := newTestStore(t)
	s.SetLogText("first")

	first, ok := s.BeginSubmit(context.Background())
	if !ok {
		t.Fatalf("BeginSubmit rejected valid form")
	}
	second, ok := s.BeginSubmit(context.Background())
	if !ok {
		t.Fatalf("BeginSubmit rejected valid form")
	}

	select {
	case <-first.Ctx.Done():
	default:
		t.Fatalf("first ticket context not cancelled")
	}
	if second.ID == first.ID || second.RequestID == first.RequestID {
		t.Fatalf("tickets not distinct: %+v %+v", first, second)
	}

	// Second completes first, then the stale first response arrives.
	if got := s.FinishSubmit(second, sampleCharts()[:1], nil); got != OutcomeSuccess {
		t.Fatalf("FinishSubmit(second) = %v, want success", got)
	}
	if got := s.FinishSubmit(first, sampleCharts(), nil); got != OutcomeSuperseded {
		t.Fatalf("FinishSubmit(first) = %v, want superseded", got)
	}
	if got := len(s.Snapshot().Charts); got != 1 {
		t.Fatalf("charts = %d, want 1 from the newest submit", got)
	}
}

func TestBeginSubmit_ClearsPreviousCharts(t *testing.T) {
	s := newTestStore(t)
	s.SetLogText("x")
	ticket, _ := s.BeginSubmit(context.Background())
	s.FinishSubmit(ticket, sampleCharts(), nil)
	gen := s.Snapshot().Generation

	if _, ok := s.BeginSubmit(context.Background()); !ok {
		t.Fatalf("BeginSubmit rejected valid form")
	}
	snap := s.Snapshot()
	if len(snap.Charts) != 0 || !snap.Submitting() {
		t.Fatalf("snapshot = %+v, want cleared charts while submitting", snap)
	}
	if snap.Generation == gen {
		t.Fatalf("Generation unchanged after clearing charts")
	}
}

func TestCancelSubmit(t *testing.T) {
	s := newTestStore(t)
	s.SetLogText("x")
	ticket, _ := s.BeginSubmit(context.Background())

	if !s.CancelSubmit() {
		t.Fatalf("CancelSubmit = false, want true")
	}
	if s.CancelSubmit() {
		t.Fatalf("CancelSubmit twice = true")
	}
	if ticket.Ctx.Err() == nil {
		t.Fatalf("ticket context not cancelled")
	}
	if got := s.FinishSubmit(ticket, nil, ticket.Ctx.Err()); got != OutcomeSuperseded {
		t.Fatalf("FinishSubmit after cancel = %v, want superseded", got)
	}
	if len(s.Snapshot().Banners) != 0 {
		t.Fatalf("cancelled submit produced a banner")
	}
}

func TestStartupFetch_AppendsPlatforms(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/platforms" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`["A","B","C"]`))
	}))
	defer srv.Close()
	client, err := logjam.NewClient(srv.URL, time.Second)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	opts, err := client.FetchPlatforms(context.Background())
	if err != nil {
		t.Fatalf("FetchPlatforms: %v", err)
	}
	s := newTestStore(t)
	s.AppendPlatforms(opts)

	got := s.Snapshot().Platforms
	want := []string{AllPlatforms, "A", "B", "C"}
	if len(got) != len(want) {
		t.Fatalf("platforms = %#v, want %v", got, want)
	}
	for i, text := range want {
		if got[i].Text != text {
			t.Fatalf("platforms[%d] = %q, want %q", i, got[i].Text, text)
		}
	}
	if !got[0].IsPlaceholder() || got[1].ValueString() != "A" {
		t.Fatalf("platform values wrong: %#v", got)
	}
}

func TestAppendOptions_NeverDeduplicates(t *testing.T) {
	s := newTestStore(t)
	s.AppendVersions([]logjam.Option{logjam.NewOption("11.4")})
	s.AppendVersions([]logjam.Option{logjam.NewOption("11.4")})
	if got := len(s.Snapshot().Versions); got != 3 {
		t.Fatalf("versions = %d, want 3", got)
	}
}

func TestRecordOptionsFailure_SingleBanner(t *testing.T) {
	s := newTestStore(t)
	s.RecordOptionsFailure(errors.New("platforms down"))
	s.RecordOptionsFailure(errors.New("versions down"))

	banners := s.Snapshot().Banners
	if len(banners) != 1 || banners[0].Level != LevelWarning || banners[0].Text != OptionsWarning {
		t.Fatalf("banners = %#v, want one options warning", banners)
	}
}

func TestCycleAndSelect(t *testing.T) {
	s := newTestStore(t)
	s.AppendPlatforms([]logjam.Option{logjam.NewOption("vSphere"), logjam.NewOption("Container")})

	s.CyclePlatform(-1)
	if got := s.Snapshot().Platform().Text; got != "Container" {
		t.Fatalf("after cycle -1 platform = %q, want Container", got)
	}
	s.CyclePlatform(1)
	if got := s.Snapshot().Platform().Text; got != AllPlatforms {
		t.Fatalf("after wrap platform = %q, want placeholder", got)
	}
	if s.SelectPlatform(3) {
		t.Fatalf("SelectPlatform(3) succeeded out of range")
	}
	s.CycleVersion(5)
	if got := s.Snapshot().VersionIndex; got != 0 {
		t.Fatalf("VersionIndex = %d, want 0 with only the placeholder", got)
	}
}

func TestPrefer_AppliesWhenOptionsArrive(t *testing.T) {
	s := newTestStore(t)
	s.Prefer("container", "11.4")
	if s.Snapshot().PlatformIndex != 0 {
		t.Fatalf("preference applied before options existed")
	}

	s.AppendPlatforms([]logjam.Option{logjam.NewOption("vSphere"), logjam.NewOption("Container")})
	s.AppendVersions([]logjam.Option{{Text: "StorageGRID 11.4", Value: ptr("11.4")}})

	snap := s.Snapshot()
	if snap.Platform().Text != "Container" || snap.Version().ValueString() != "11.4" {
		t.Fatalf("selection = %q/%q", snap.Platform().Text, snap.Version().ValueString())
	}
}

func TestPrefer_VersionsArrivingKeepManualPlatform(t *testing.T) {
	s := newTestStore(t)
	s.Prefer("A", "")
	s.AppendPlatforms([]logjam.Option{logjam.NewOption("A"), logjam.NewOption("B")})
	if got := s.Snapshot().Platform().Text; got != "A" {
		t.Fatalf("platform = %q, want preferred A", got)
	}

	if !s.SelectPlatform(2) {
		t.Fatalf("SelectPlatform(2) failed")
	}
	s.AppendVersions([]logjam.Option{logjam.NewOption("1.0")})

	if got := s.Snapshot().Platform().Text; got != "B" {
		t.Fatalf("platform after versions arrived = %q, want B", got)
	}
}

func TestPrefer_ManualChoiceBeforeArrivalWins(t *testing.T) {
	s := newTestStore(t)
	s.AppendPlatforms([]logjam.Option{logjam.NewOption("vSphere")})
	s.Prefer("", "11.4")

	s.CycleVersion(1)
	s.AppendVersions([]logjam.Option{logjam.NewOption("11.3"), logjam.NewOption("11.4")})
	if got := s.Snapshot().VersionIndex; got != 0 {
		t.Fatalf("VersionIndex = %d, want 0 after cycling by hand", got)
	}

	s.Prefer("vsphere", "")
	s.SelectPlatform(0)
	s.AppendPlatforms([]logjam.Option{logjam.NewOption("vSphere")})
	if got := s.Snapshot().PlatformIndex; got != 0 {
		t.Fatalf("PlatformIndex = %d, want 0 after selecting by hand", got)
	}
}

func TestPrefer_AppliedOnce(t *testing.T) {
	s := newTestStore(t)
	s.Prefer("container", "")
	s.AppendPlatforms([]logjam.Option{logjam.NewOption("Container")})
	s.SelectPlatform(0)
	s.AppendPlatforms([]logjam.Option{logjam.NewOption("Container")})

	if got := s.Snapshot().PlatformIndex; got != 0 {
		t.Fatalf("PlatformIndex = %d, want 0 once the preference was used", got)
	}
}

func TestPrefer_PlaceholderNamesMeanNoFilter(t *testing.T) {
	s := newTestStore(t)
	s.Prefer(" all platforms ", "ALL VERSIONS")
	s.AppendPlatforms([]logjam.Option{logjam.NewOption("vSphere")})
	s.AppendVersions([]logjam.Option{logjam.NewOption("11.4")})

	snap := s.Snapshot()
	if snap.PlatformIndex != 0 || snap.VersionIndex != 0 {
		t.Fatalf("selection = %d/%d, want placeholders", snap.PlatformIndex, snap.VersionIndex)
	}
}

func TestReset_DropsPendingPreferences(t *testing.T) {
	s := newTestStore(t)
	s.Prefer("container", "")
	s.Reset()
	s.AppendPlatforms([]logjam.Option{logjam.NewOption("Container")})

	if got := s.Snapshot().PlatformIndex; got != 0 {
		t.Fatalf("PlatformIndex = %d, want 0 after reset", got)
	}
}

func TestDismissBanners(t *testing.T) {
	s := newTestStore(t)
	s.RecordOptionsFailure(errors.New("down"))
	s.SetLogText("x")
	ticket, _ := s.BeginSubmit(context.Background())
	s.FinishSubmit(ticket, nil, errors.New("boom"))
	if got := len(s.Snapshot().Banners); got != 2 {
		t.Fatalf("banners = %d, want 2", got)
	}

	s.DismissBanners()
	if got := len(s.Snapshot().Banners); got != 0 {
		t.Fatalf("banners after DismissBanners = %d, want 0", got)
	}
}

func TestReset_KeepsOptionLists(t *testing.T) {
	s := newTestStore(t)
	s.AppendPlatforms([]logjam.Option{logjam.NewOption("vSphere")})
	s.SelectPlatform(1)
	s.SetLogText("x")
	ticket, _ := s.BeginSubmit(context.Background())
	s.FinishSubmit(ticket, sampleCharts(), nil)
	s.SetLogText("")
	s.Validate()

	s.Reset()
	snap := s.Snapshot()
	if snap.LogText != "" || snap.PlatformIndex != 0 || len(snap.Errors) != 0 || len(snap.Charts) != 0 {
		t.Fatalf("snapshot after reset = %+v", snap)
	}
	if len(snap.Platforms) != 2 {
		t.Fatalf("platforms = %d, want option list kept", len(snap.Platforms))
	}
}

func TestSnapshot_IsDeepCopy(t *testing.T) {
	s := newTestStore(t)
	s.SetLogText("x")
	ticket, _ := s.BeginSubmit(context.Background())
	s.FinishSubmit(ticket, sampleCharts(), nil)
	s.AppendPlatforms([]logjam.Option{logjam.NewOption("vSphere")})

	snap := s.Snapshot()
	snap.Charts[0].Values[0] = 999
	snap.Charts[0].Labels[0] = "mutated"
	*snap.Platforms[1].Value = "mutated"

	again := s.Snapshot()
	if again.Charts[0].Values[0] != 77 || again.Charts[0].Labels[0] != "Other" {
		t.Fatalf("Snapshot shares chart data: %#v", again.Charts[0])
	}
	if again.Platforms[1].ValueString() != "vSphere" {
		t.Fatalf("Snapshot shares option values")
	}
}

func TestSubmitErrorText(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "api", err: &logjam.APIError{Path: "/matchData", StatusCode: 502, StatusText: "Bad Gateway"}, want: "Error getting occurrences: 502 Bad Gateway"},
		{name: "timeout", err: context.DeadlineExceeded, want: "Error getting occurrences: request timed out"},
		{name: "cancel", err: context.Canceled, want: "Error getting occurrences: request cancelled"},
		{name: "other", err: errors.New("execute request: dial tcp: refused"), want: "Error getting occurrences: execute request: dial tcp: refused"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SubmitErrorText(tt.err); got != tt.want {
				t.Fatalf("SubmitErrorText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func ptr(s string) *string { return &s }
