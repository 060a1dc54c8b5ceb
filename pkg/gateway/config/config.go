// Package config loads gateway configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr string

	// GeminiAPIKey authenticates generation, TTS and report calls.
	GeminiAPIKey string
	// GeminiBaseURL overrides the API endpoint (proxy support).
	GeminiBaseURL string
	// TextModel, TTSModel and ReportModel override the model choices.
	TextModel   string
	TTSModel    string
	ReportModel string

	// DBPath is the sqlite file holding rosters, settings and saved
	// reports.
	DBPath string
	// RecordingDir receives finalized session recordings.
	RecordingDir string

	// CORSAllowedOrigins gates browser access; empty disables CORS.
	CORSAllowedOrigins map[string]struct{}

	// Engine cadence. Overridable for integration tests.
	TickInterval   time.Duration
	ReportInterval time.Duration

	// WebSocket feed.
	WSPingInterval time.Duration
	WSWriteTimeout time.Duration

	// Operational defaults.
	MaxBodyBytes        int64
	ReadHeaderTimeout   time.Duration
	ReadTimeout         time.Duration
	ShutdownGracePeriod time.Duration

	LogLevel string
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		Addr:                envOr("ROUNDTABLE_ADDR", ":8080"),
		GeminiAPIKey:        strings.TrimSpace(os.Getenv("ROUNDTABLE_GEMINI_API_KEY")),
		GeminiBaseURL:       envOr("ROUNDTABLE_GEMINI_BASE_URL", ""),
		TextModel:           envOr("ROUNDTABLE_TEXT_MODEL", ""),
		TTSModel:            envOr("ROUNDTABLE_TTS_MODEL", ""),
		ReportModel:         envOr("ROUNDTABLE_REPORT_MODEL", ""),
		DBPath:              envOr("ROUNDTABLE_DB_PATH", "roundtable.db"),
		RecordingDir:        envOr("ROUNDTABLE_RECORDING_DIR", os.TempDir()),
		CORSAllowedOrigins:  make(map[string]struct{}),
		TickInterval:        envDurationOr("ROUNDTABLE_TICK_INTERVAL", time.Second),
		ReportInterval:      envDurationOr("ROUNDTABLE_REPORT_INTERVAL", 120*time.Second),
		WSPingInterval:      envDurationOr("ROUNDTABLE_WS_PING_INTERVAL", 20*time.Second),
		WSWriteTimeout:      envDurationOr("ROUNDTABLE_WS_WRITE_TIMEOUT", 5*time.Second),
		MaxBodyBytes:        envInt64Or("ROUNDTABLE_MAX_BODY_BYTES", 1<<20), // 1 MiB
		ReadHeaderTimeout:   envDurationOr("ROUNDTABLE_READ_HEADER_TIMEOUT", 10*time.Second),
		ReadTimeout:         envDurationOr("ROUNDTABLE_READ_TIMEOUT", 30*time.Second),
		ShutdownGracePeriod: envDurationOr("ROUNDTABLE_SHUTDOWN_GRACE_PERIOD", 15*time.Second),
		LogLevel:            envOr("ROUNDTABLE_LOG_LEVEL", "info"),
	}

	for _, origin := range splitCSV(os.Getenv("ROUNDTABLE_CORS_ORIGINS")) {
		cfg.CORSAllowedOrigins[origin] = struct{}{}
	}

	if cfg.GeminiAPIKey == "" {
		return Config{}, fmt.Errorf("ROUNDTABLE_GEMINI_API_KEY must be set")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return Config{}, fmt.Errorf("ROUNDTABLE_DB_PATH must not be empty")
	}
	if strings.TrimSpace(cfg.RecordingDir) == "" {
		return Config{}, fmt.Errorf("ROUNDTABLE_RECORDING_DIR must not be empty")
	}
	if cfg.TickInterval <= 0 {
		return Config{}, fmt.Errorf("ROUNDTABLE_TICK_INTERVAL must be > 0")
	}
	if cfg.ReportInterval <= 0 {
		return Config{}, fmt.Errorf("ROUNDTABLE_REPORT_INTERVAL must be > 0")
	}
	if cfg.WSPingInterval <= 0 {
		return Config{}, fmt.Errorf("ROUNDTABLE_WS_PING_INTERVAL must be > 0")
	}
	if cfg.WSWriteTimeout <= 0 {
		return Config{}, fmt.Errorf("ROUNDTABLE_WS_WRITE_TIMEOUT must be > 0")
	}
	if cfg.MaxBodyBytes <= 0 {
		return Config{}, fmt.Errorf("ROUNDTABLE_MAX_BODY_BYTES must be > 0")
	}
	if cfg.ReadHeaderTimeout <= 0 {
		return Config{}, fmt.Errorf("ROUNDTABLE_READ_HEADER_TIMEOUT must be > 0")
	}
	if cfg.ReadTimeout <= 0 {
		return Config{}, fmt.Errorf("ROUNDTABLE_READ_TIMEOUT must be > 0")
	}
	if cfg.ShutdownGracePeriod <= 0 {
		return Config{}, fmt.Errorf("ROUNDTABLE_SHUTDOWN_GRACE_PERIOD must be > 0")
	}
	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return Config{}, fmt.Errorf("ROUNDTABLE_LOG_LEVEL must be one of debug|info|warn|error")
	}

	return cfg, nil
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt64Or(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envDurationOr(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

func splitCSV(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
