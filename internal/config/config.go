package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	// ESI
	CorporationID     int64
	ESIBaseURL        string
	ESITokenURL       string
	ESIClientID       string
	ESIClientSecret   string
	ESIRefreshToken   string
	ESITimeoutSeconds int

	// Classification thresholds, in days of fuel left
	DangerDays  float64
	WarningDays float64

	// Optional allow-list of solar system names; empty = no filter
	AllowedSystems []string

	// Slack
	SlackWebhookURL string

	// Redis (state store)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Postgres (fuel transition history, optional)
	HistoryEnabled bool
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
}

func Load() (*Config, error) {
	corpID, err := getEnvInt64Required("CORPORATION_ID")
	if err != nil {
		return nil, err
	}

	dangerDays, err := getEnvFloat("DANGER_DAYS_THRESHOLD", 3)
	if err != nil {
		return nil, err
	}
	warningDays, err := getEnvFloat("WARNING_DAYS_THRESHOLD", 7)
	if err != nil {
		return nil, err
	}
	if dangerDays < 0 || warningDays < 0 {
		return nil, fmt.Errorf("thresholds must be non-negative (danger=%v warning=%v)", dangerDays, warningDays)
	}
	if dangerDays > warningDays {
		return nil, fmt.Errorf("DANGER_DAYS_THRESHOLD (%v) must not exceed WARNING_DAYS_THRESHOLD (%v)", dangerDays, warningDays)
	}

	refreshToken := os.Getenv("ESI_REFRESH_TOKEN")
	if refreshToken == "" {
		return nil, fmt.Errorf("ESI_REFRESH_TOKEN is required")
	}
	webhookURL := os.Getenv("SLACK_WEBHOOK_URL")
	if webhookURL == "" {
		return nil, fmt.Errorf("SLACK_WEBHOOK_URL is required")
	}

	timeoutSeconds, err := getEnvInt("ESI_TIMEOUT_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	return &Config{
		CorporationID:     corpID,
		ESIBaseURL:        getEnv("ESI_BASE_URL", "https://esi.evetech.net/latest"),
		ESITokenURL:       getEnv("ESI_TOKEN_URL", "https://login.eveonline.com/v2/oauth/token"),
		ESIClientID:       os.Getenv("ESI_CLIENT_ID"),
		ESIClientSecret:   os.Getenv("ESI_CLIENT_SECRET"),
		ESIRefreshToken:   refreshToken,
		ESITimeoutSeconds: timeoutSeconds,
		DangerDays:        dangerDays,
		WarningDays:       warningDays,
		AllowedSystems:    splitList(os.Getenv("ALLOWED_SYSTEMS")),
		SlackWebhookURL:   webhookURL,
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           redisDB,
		HistoryEnabled:    getEnv("HISTORY_ENABLED", "false") == "true",
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "5432"),
		DBUser:            getEnv("DB_USER", "fuel_monitor"),
		DBPassword:        getEnv("DB_PASSWORD", "fuel_monitor"),
		DBName:            getEnv("DB_NAME", "fuel_monitor"),
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvFloat uses the fallback only when the variable is absent; a
// malformed value is an error, never a silent default.
func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid value %q: %w", key, v, err)
	}
	return f, nil
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid value %q: %w", key, v, err)
	}
	return n, nil
}

func getEnvInt64Required(key string) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid value %q: %w", key, v, err)
	}
	return n, nil
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
