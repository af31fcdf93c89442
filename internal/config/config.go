package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr          string
	SessionSecret string
	SessionTTL    time.Duration
	// SweepInterval is how often idle documents are evicted.
	SweepInterval time.Duration
	HistoryLimit  int
	CORSOrigin    string
	// Redis is optional; sessions stay in memory when RedisURL is empty.
	RedisURL string
	// Logging
	LogVerbosity int
	LogFile      string
	// Export
	ChromeTimeout time.Duration
	PandocPath    string
	// InitialSource seeds new sessions created without content.
	InitialSource string
	Debug         bool
}

func Load() Config {
	return Config{
		Addr:          getenv("API_ADDR", ":8787"),
		SessionSecret: getenv("HTMLEDITOR_SESSION_SECRET", "htmleditor-dev-secret"),
		SessionTTL:    time.Duration(getenvInt("HTMLEDITOR_SESSION_TTL_SECONDS", 86400)) * time.Second,
		SweepInterval: time.Duration(getenvInt("HTMLEDITOR_SWEEP_INTERVAL_SECONDS", 60)) * time.Second,
		HistoryLimit:  getenvInt("HTMLEDITOR_HISTORY_LIMIT", 200),
		CORSOrigin:    getenv("HTMLEDITOR_CORS_ORIGIN", "*"),
		RedisURL:      getenv("REDIS_URL", ""),
		LogVerbosity:  getenvInt("HTMLEDITOR_LOG_VERBOSITY", 1),
		LogFile:       getenv("HTMLEDITOR_LOG_FILE", ""),
		ChromeTimeout: time.Duration(getenvInt("HTMLEDITOR_CHROME_TIMEOUT_SECONDS", 30)) * time.Second,
		PandocPath:    getenv("HTMLEDITOR_PANDOC_PATH", "pandoc"),
		InitialSource: getenv("HTMLEDITOR_INITIAL_SOURCE", ""),
		Debug:         getenvBool("HTMLEDITOR_DEBUG", false),
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return fallback
}
