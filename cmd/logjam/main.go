package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/logjam/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override config path (optional)")
	logText := flag.String("log", "", "log text to search for")
	logFile := flag.String("log-file", "", "read log text from a file, - for stdin")
	tail := flag.Int("tail", 0, "keep only the last n lines of -log-file")
	platform := flag.String("platform", "", "preselect a platform by name")
	version := flag.String("version", "", "preselect a version by name")
	once := flag.Bool("once", false, "run one query without the TUI and print the charts")
	exportDir := flag.String("export", "", "export directory for chart images")
	debug := flag.Bool("debug", false, "write debug entries to the log file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		LogText:    *logText,
		LogFile:    *logFile,
		Tail:       *tail,
		Platform:   *platform,
		Version:    *version,
		Once:       *once,
		ExportDir:  *exportDir,
		Debug:      *debug,
		Stdout:     os.Stdout,
	}

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "logjam: %v\n", err)
		return 1
	}
	return 0
}
