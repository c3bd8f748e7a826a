package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-vaultshot/internal/config"
)

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string        // VAULTSHOT_CONFIG: config file name or path
	Vault      string        // VAULTSHOT_VAULT: vault root directory
	Backend    string        // VAULTSHOT_BACKEND: fs or sqlite
	Directory  string        // VAULTSHOT_DIR: vault folder for snapshots
	Theme      string        // VAULTSHOT_THEME: theme name or .css path
	Timeout    time.Duration // VAULTSHOT_TIMEOUT: per-capture timeout
	Workers    int           // VAULTSHOT_WORKERS: parallel browsers
	OutDir     string        // VAULTSHOT_OUT_DIR: published document directory
	Addr       string        // VAULTSHOT_ADDR: serve listen address
	LogLevel   string        // VAULTSHOT_LOG_LEVEL: debug, info, warn, error
}

// knownEnvVars lists valid VAULTSHOT_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"VAULTSHOT_CONFIG":    true,
	"VAULTSHOT_VAULT":     true,
	"VAULTSHOT_BACKEND":   true,
	"VAULTSHOT_DIR":       true,
	"VAULTSHOT_THEME":     true,
	"VAULTSHOT_TIMEOUT":   true,
	"VAULTSHOT_WORKERS":   true,
	"VAULTSHOT_OUT_DIR":   true,
	"VAULTSHOT_ADDR":      true,
	"VAULTSHOT_LOG_LEVEL": true,
	"VAULTSHOT_CONTAINER": true, // read by doctor
}

// loadEnvConfig reads configuration from environment variables.
// Unparseable durations and counts are ignored rather than reported.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath: os.Getenv("VAULTSHOT_CONFIG"),
		Vault:      os.Getenv("VAULTSHOT_VAULT"),
		Backend:    os.Getenv("VAULTSHOT_BACKEND"),
		Directory:  os.Getenv("VAULTSHOT_DIR"),
		Theme:      os.Getenv("VAULTSHOT_THEME"),
		OutDir:     os.Getenv("VAULTSHOT_OUT_DIR"),
		Addr:       os.Getenv("VAULTSHOT_ADDR"),
		LogLevel:   os.Getenv("VAULTSHOT_LOG_LEVEL"),
	}

	if timeout := os.Getenv("VAULTSHOT_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	if workers := os.Getenv("VAULTSHOT_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars writes a warning for each unrecognized VAULTSHOT_*
// variable, e.g. VAULTSHOT_VALUT.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, "VAULTSHOT_") {
			continue
		}
		name, _, _ := strings.Cut(env, "=")
		if !knownEnvVars[name] {
			fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
		}
	}
}

// applyEnvConfig copies set environment values over cfg.
// Precedence: CLI flags > env vars > config file > defaults
// (CLI flags are applied later via mergeFlags).
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.Vault != "" {
		cfg.Vault.Path = env.Vault
	}
	if env.Backend != "" {
		cfg.Vault.Backend = env.Backend
	}
	if env.Directory != "" {
		cfg.Capture.Directory = env.Directory
	}
	if env.Theme != "" {
		cfg.Capture.Theme = env.Theme
	}
	if env.Timeout > 0 {
		cfg.Capture.Timeout = env.Timeout.String()
	}
	if env.OutDir != "" {
		cfg.Publish.OutDir = env.OutDir
		cfg.Publish.Enabled = true
	}
	if env.Addr != "" {
		cfg.Server.Addr = env.Addr
	}
	if env.LogLevel != "" {
		cfg.Log.Level = env.LogLevel
	}
}
