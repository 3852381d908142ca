package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config captures the settings logjam needs to reach its backend.
type Config struct {
	APIURL         string
	RequestTimeout time.Duration
	SubmitTimeout  time.Duration
	LogPath        string
	ExportDir      string
	Palette        string
	Debug          bool // log at debug level
}

const (
	defaultConfigPath     = "~/.config/logjam/config.toml"
	defaultAPIURL         = "http://127.0.0.1:5000"
	defaultRequestTimeout = 5 * time.Second
	defaultSubmitTimeout  = 30 * time.Second
	defaultLogPath        = "~/.local/share/logjam/logjam.log"
	defaultExportDir      = "~/logjam-charts"
	defaultPalette        = "cycle"
	defaultEnvFile        = ".env"
)

// Environment overrides.
const (
	EnvAPIURL  = "LOGJAM_API_URL"
	EnvLogPath = "LOGJAM_LOG_PATH"
	EnvPalette = "LOGJAM_PALETTE"
	EnvDebug   = "LOGJAM_DEBUG"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIURL:         defaultAPIURL,
		RequestTimeout: defaultRequestTimeout,
		SubmitTimeout:  defaultSubmitTimeout,
		LogPath:        mustExpand(defaultLogPath),
		ExportDir:      mustExpand(defaultExportDir),
		Palette:        defaultPalette,
	}
}

// Load locates and parses the config file, falling back to defaults when
// missing, then applies .env and environment overrides.
func Load(path string) (Config, error) {
	cfg, err := loadFile(path)
	if err != nil {
		return Config{}, err
	}
	env, err := readEnvFile(defaultEnvFile)
	if err != nil {
		return Config{}, err
	}
	err = applyEnv(&cfg, func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := env[key]
		return v, ok
	})
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIURL         string  `toml:"api_url"`
		RequestTimeout string  `toml:"request_timeout"`
		SubmitTimeout  string  `toml:"submit_timeout"`
		LogPath        *string `toml:"log_path"`
		ExportDir      string  `toml:"export_dir"`
		Palette        string  `toml:"palette"`
		Debug          bool    `toml:"debug"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIURL); v != "" {
		cfg.APIURL = v
	}
	if cfg.RequestTimeout, err = parseDuration("request_timeout", raw.RequestTimeout, defaultRequestTimeout); err != nil {
		return Config{}, err
	}
	if cfg.SubmitTimeout, err = parseDuration("submit_timeout", raw.SubmitTimeout, defaultSubmitTimeout); err != nil {
		return Config{}, err
	}
	// An explicit empty log_path disables file logging.
	if raw.LogPath != nil {
		cfg.LogPath = ""
		if v := strings.TrimSpace(*raw.LogPath); v != "" {
			cfg.LogPath = mustExpand(v)
		}
	}
	if v := strings.TrimSpace(raw.ExportDir); v != "" {
		cfg.ExportDir = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.Palette); v != "" {
		cfg.Palette = strings.ToLower(v)
	}
	cfg.Debug = raw.Debug

	return cfg, nil
}

func readEnvFile(path string) (map[string]string, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return env, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvAPIURL); ok && strings.TrimSpace(v) != "" {
		cfg.APIURL = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvLogPath); ok {
		cfg.LogPath = ""
		if v = strings.TrimSpace(v); v != "" {
			cfg.LogPath = mustExpand(v)
		}
	}
	if v, ok := lookup(EnvPalette); ok && strings.TrimSpace(v) != "" {
		cfg.Palette = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := lookup(EnvDebug); ok && strings.TrimSpace(v) != "" {
		debug, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvDebug, err)
		}
		cfg.Debug = debug
	}
	return nil
}

func parseDuration(field, value string, fallback time.Duration) (time.Duration, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(trimmed)
	if err != nil {
		return 0, fmt.Errorf("parse config: %s: %w", field, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("parse config: %s must be positive, got %s", field, trimmed)
	}
	return d, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
