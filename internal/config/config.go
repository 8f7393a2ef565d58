package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	_ "github.com/joho/godotenv/autoload"
)

const (
	DefaultAPIURL          = "http://localhost:8000/api"
	DefaultPort            = 8080
	DefaultStubPort        = 8000
	DefaultProbeTimeout    = 5 * time.Second
	DefaultMonitorInterval = 30 * time.Second
)

// Config keeps runtime settings shared by the web UI, the terminal UI and the stub API.
type Config struct {
	APIURL          string
	Port            int
	StubPort        int
	SessionSecret   string
	AllowedOrigins  []string
	ProbeTimeout    time.Duration
	MonitorInterval time.Duration
	LogLevel        zerolog.Level
	TUILogFile      string
}

// Load reads configuration from the environment (and .env, via godotenv) with defaults.
func Load() (Config, error) {
	cfg := Config{
		APIURL:          strings.TrimRight(strings.TrimSpace(os.Getenv("API_URL")), "/"),
		Port:            DefaultPort,
		StubPort:        DefaultStubPort,
		SessionSecret:   strings.TrimSpace(os.Getenv("SESSION_SECRET")),
		AllowedOrigins:  splitList(os.Getenv("ALLOWED_ORIGINS")),
		ProbeTimeout:    DefaultProbeTimeout,
		MonitorInterval: DefaultMonitorInterval,
		LogLevel:        zerolog.InfoLevel,
		TUILogFile:      strings.TrimSpace(os.Getenv("TUI_LOG_FILE")),
	}

	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}

	var err error
	if cfg.Port, err = parsePort("PORT", cfg.Port); err != nil {
		return cfg, err
	}
	if cfg.StubPort, err = parsePort("STUB_PORT", cfg.StubPort); err != nil {
		return cfg, err
	}
	if cfg.ProbeTimeout, err = parseDuration("PROBE_TIMEOUT", cfg.ProbeTimeout); err != nil {
		return cfg, err
	}
	if cfg.ProbeTimeout <= 0 {
		return cfg, fmt.Errorf("PROBE_TIMEOUT must be positive")
	}
	if cfg.MonitorInterval, err = parseDuration("MONITOR_INTERVAL", cfg.MonitorInterval); err != nil {
		return cfg, err
	}

	if raw := strings.TrimSpace(os.Getenv("LOG_LEVEL")); raw != "" {
		level, err := zerolog.ParseLevel(strings.ToLower(raw))
		if err != nil {
			return cfg, fmt.Errorf("invalid LOG_LEVEL %q: %w", raw, err)
		}
		cfg.LogLevel = level
	}

	return cfg, nil
}

func parsePort(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	port, err := strconv.Atoi(raw)
	if err != nil || port <= 0 || port > 65535 {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return port, nil
}

// parseDuration accepts Go durations ("30s") and bare seconds ("30"). "0" is allowed.
func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	if seconds, err := strconv.Atoi(raw); err == nil {
		if seconds < 0 {
			return 0, fmt.Errorf("invalid %s %q", key, raw)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
