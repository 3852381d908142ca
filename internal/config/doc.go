// Package config loads logjam's client configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/logjam/config.toml (default)
//  3. If the config file doesn't exist, fall back to hardcoded defaults
//  4. If the file exists but fields are missing/empty, use defaults
//  5. Apply overrides from a .env file in the working directory
//  6. Apply overrides from the process environment (wins over .env)
//
// # Default Values
//
//   - API URL: http://127.0.0.1:5000
//   - Request timeout: 5s (option fetches)
//   - Submit timeout: 30s (one /matchData query)
//   - Log file: ~/.local/share/logjam/logjam.log
//   - Export directory: ~/logjam-charts
//   - Palette policy: cycle
//
// # Example config.toml
//
//	api_url = "http://logjam.internal:5000"
//	submit_timeout = "45s"
//	palette = "shuffle"
//	log_path = ""        # disable file logging
//
// # Environment
//
//   - LOGJAM_API_URL: backend URL or host:port
//   - LOGJAM_LOG_PATH: log file; empty disables logging
//   - LOGJAM_PALETTE: cycle or shuffle
//
// # Error Handling
//
// A missing file is not an error. Unreadable files, malformed TOML and
// invalid or non-positive durations are returned as errors; parse problems
// are prefixed with "parse config". Path expansion failures fall back to the
// unexpanded path.
package config
