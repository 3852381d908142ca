package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/five82/logjam/internal/logjam"
)

type backend struct {
	charts  []logjam.ChartDescriptor
	matches atomic.Int32
	last    logjam.MatchRequest
}

func (b *backend) start(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/platforms", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode([]string{"vSphere", "Container"})
	})
	mux.HandleFunc("/versions", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode([]string{"11.3", "11.4"})
	})
	mux.HandleFunc("/matchData", func(w http.ResponseWriter, r *http.Request) {
		b.matches.Add(1)
		if err := json.NewDecoder(r.Body).Decode(&b.last); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(b.charts)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, apiURL string) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("LOGJAM_API_URL", "")
	t.Setenv("LOGJAM_LOG_PATH", "")
	t.Setenv("LOGJAM_PALETTE", "")
	t.Setenv("LOGJAM_DEBUG", "")

	path := filepath.Join(home, "config.toml")
	data := "api_url = \"" + apiURL + "\"\nlog_path = \"\"\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func onceOptions(t *testing.T, configPath string, out *bytes.Buffer) Options {
	t.Helper()
	return Options{
		ConfigPath: configPath,
		PrefsPath:  filepath.Join(t.TempDir(), "prefs.toml"),
		Once:       true,
		Stdout:     out,
	}
}

func TestRunOnce_PrintsCharts(t *testing.T) {
	b := &backend{charts: []logjam.ChartDescriptor{
		{Title: "Occurances", Labels: []string{"Other", "Matches"}, Values: []float64{77, 33}},
	}}
	srv := b.start(t)

	var out bytes.Buffer
	opts := onceOptions(t, writeConfig(t, srv.URL), &out)
	opts.LogText = "LUM|ERROR"
	opts.Platform = "container"

	if err := Run(context.Background(), opts); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if b.last.LogText != "LUM|ERROR" || b.last.Platform == nil || *b.last.Platform != "Container" || b.last.SGVersion != nil {
		t.Fatalf("request = %+v", b.last)
	}
	got := out.String()
	for _, want := range []string{"Occurances", "Other", "77 (70.0%)", "Matches", "33 (30.0%)"} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRunOnce_NoResults(t *testing.T) {
	b := &backend{charts: []logjam.ChartDescriptor{
		{Title: "Occurances", Labels: []string{"Other", "Matches"}, Values: []float64{0, 0}},
	}}
	srv := b.start(t)

	var out bytes.Buffer
	opts := onceOptions(t, writeConfig(t, srv.URL), &out)
	opts.LogText = "nothing like this"

	if err := Run(context.Background(), opts); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.TrimSpace(out.String()) != "No occurrences found" {
		t.Fatalf("output = %q", out.String())
	}
}

func TestRunOnce_RejectsEmptyLogText(t *testing.T) {
	b := &backend{}
	srv := b.start(t)

	var out bytes.Buffer
	err := Run(context.Background(), onceOptions(t, writeConfig(t, srv.URL), &out))
	if err == nil || err.Error() != "Log text is required" {
		t.Fatalf("err = %v, want Log text is required", err)
	}
	if b.matches.Load() != 0 {
		t.Fatalf("matchData called %d times, want 0", b.matches.Load())
	}
}

func TestRunOnce_UnknownFilter(t *testing.T) {
	b := &backend{}
	srv := b.start(t)

	var out bytes.Buffer
	opts := onceOptions(t, writeConfig(t, srv.URL), &out)
	opts.LogText = "x"
	opts.Version = "99.0"

	err := Run(context.Background(), opts)
	if err == nil || !strings.Contains(err.Error(), `version "99.0" not found`) {
		t.Fatalf("err = %v, want version not found", err)
	}
	if b.matches.Load() != 0 {
		t.Fatalf("matchData called with unknown filter")
	}
}

func TestRunOnce_PlaceholderFilterMeansAll(t *testing.T) {
	b := &backend{charts: []logjam.ChartDescriptor{
		{Title: "Occurances", Labels: []string{"Other", "Matches"}, Values: []float64{1, 1}},
	}}
	srv := b.start(t)

	var out bytes.Buffer
	opts := onceOptions(t, writeConfig(t, srv.URL), &out)
	opts.LogText = "x"
	opts.Platform = "All Platforms"
	opts.Version = "all versions"

	if err := Run(context.Background(), opts); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if b.matches.Load() != 1 || b.last.Platform != nil || b.last.SGVersion != nil {
		t.Fatalf("request = %+v, want unfiltered query", b.last)
	}
}

func TestRunOnce_PlaceholderNamesAreListSpecific(t *testing.T) {
	b := &backend{}
	srv := b.start(t)

	var out bytes.Buffer
	opts := onceOptions(t, writeConfig(t, srv.URL), &out)
	opts.LogText = "x"
	opts.Version = "All Platforms"

	err := Run(context.Background(), opts)
	if err == nil || !strings.Contains(err.Error(), `version "All Platforms" not found`) {
		t.Fatalf("err = %v, want version not found", err)
	}
}

func TestRunOnce_DebugWritesDebugEntries(t *testing.T) {
	b := &backend{charts: []logjam.ChartDescriptor{
		{Title: "Occurances", Labels: []string{"Other", "Matches"}, Values: []float64{1, 1}},
	}}
	srv := b.start(t)
	configPath := writeConfig(t, srv.URL)
	logPath := filepath.Join(t.TempDir(), "logjam.log")

	for _, tc := range []struct {
		name   string
		config string
		flag   bool
		want   bool
	}{
		{name: "off", want: false},
		{name: "config", config: "debug = true\n", want: true},
		{name: "flag", flag: true, want: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_ = os.Remove(logPath)
			data := "api_url = \"" + srv.URL + "\"\nlog_path = \"" + logPath + "\"\n" + tc.config
			if err := os.WriteFile(configPath, []byte(data), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}

			var out bytes.Buffer
			opts := onceOptions(t, configPath, &out)
			opts.LogText = "x"
			opts.Debug = tc.flag
			if err := Run(context.Background(), opts); err != nil {
				t.Fatalf("Run: %v", err)
			}

			logged, err := os.ReadFile(logPath)
			if err != nil {
				t.Fatalf("read log: %v", err)
			}
			if got := strings.Contains(string(logged), `"level":"debug"`); got != tc.want {
				t.Fatalf("debug entries present = %v, want %v:\n%s", got, tc.want, logged)
			}
		})
	}
}

func TestRunOnce_LogFileAndExport(t *testing.T) {
	b := &backend{charts: []logjam.ChartDescriptor{
		{Title: "Occurances", Labels: []string{"Other", "Matches"}, Values: []float64{5, 5}},
		{Title: "Occurances by Version", Labels: []string{"11.3"}, Values: []float64{5}},
	}}
	srv := b.start(t)
	configPath := writeConfig(t, srv.URL)

	logFile := filepath.Join(t.TempDir(), "sg.log")
	if err := os.WriteFile(logFile, []byte("first\nsecond\nthird\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	exportDir := filepath.Join(t.TempDir(), "charts")

	var out bytes.Buffer
	opts := onceOptions(t, configPath, &out)
	opts.LogFile = logFile
	opts.Tail = 2
	opts.ExportDir = exportDir

	if err := Run(context.Background(), opts); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if b.last.LogText != "second\nthird" {
		t.Fatalf("log text = %q, want last two lines", b.last.LogText)
	}

	entries, err := os.ReadDir(exportDir)
	if err != nil {
		t.Fatalf("read export dir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("exported %d files, want 2", len(entries))
	}
	if strings.Count(out.String(), "exported ") != 2 {
		t.Fatalf("output does not list exports:\n%s", out.String())
	}
}

func TestRun_MissingLogFile(t *testing.T) {
	b := &backend{}
	srv := b.start(t)

	var out bytes.Buffer
	opts := onceOptions(t, writeConfig(t, srv.URL), &out)
	opts.LogFile = filepath.Join(t.TempDir(), "missing.log")

	if err := Run(context.Background(), opts); err == nil {
		t.Fatal("expected error for missing log file")
	}
}

func TestRun_BadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("api_url = ["), 0o644); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	err := Run(context.Background(), onceOptions(t, path, &out))
	if err == nil || !strings.Contains(err.Error(), "load config") {
		t.Fatalf("err = %v, want load config error", err)
	}
}
