// Package app wires logjam together and runs it.
//
// # Overview
//
// Run is the composition root: it loads configuration and preferences,
// opens the file logger, builds the HTTP client and the shared state.Store,
// and then either starts the TUI or runs a single headless query.
//
//	Run()
//	 ├─> config.Load()       config.toml, .env, environment
//	 ├─> prefs.Load()        theme and color policy
//	 ├─> logging.New()       JSON lines to log_path
//	 ├─> logjam.NewClient()  backend client
//	 ├─> state.NewStore()    form, options and results
//	 ├─> logtail.ReadText()  optional -log-file
//	 └─> StartLoader() + ui.Run()   or   headless.run()
//
// # Option Loading
//
// StartLoader fetches /platforms and /versions on independent goroutines.
// Each fetch is retried with exponential backoff (500ms doubling, capped at
// 30s, three attempts). Results are appended after the placeholder entry in
// arrival order. Any final failure adds one warning banner; the form stays
// usable with the placeholders alone.
//
// # Headless Mode
//
// With -once the options are loaded synchronously so -platform and -version
// can be matched by name; an unknown name is an error. The charts are printed
// to stdout as terminal pies and exported when -export is set.
//
// # Error Handling
//
// Configuration, logger and client errors are fatal and returned from Run.
// Option fetch failures only produce a banner. In headless mode a rejected
// form or failed query is returned as an error carrying the message the TUI
// would show.
package app
