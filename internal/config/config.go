package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Environment string
	Account     string

	Portfolio struct {
		InitialEquity float64
		InitialCash   float64
		StateDir      string
	}

	Policy struct {
		File string
	}

	Breaker struct {
		DailyDrawdownPct     float64
		TotalDrawdownPct     float64
		MaxConsecutiveLosses int
		RapidLossPct         float64
		RapidLossWindow      time.Duration
		Cooldown             time.Duration
	}

	Monitoring struct {
		PrometheusPort int
		HealthPort     int
		StatusInterval time.Duration
	}

	Notifications struct {
		TelegramToken  string
		TelegramChatID string
	}

	Reporting struct {
		Dir    string
		Format string
	}
}

func Load() *Config {
	cfg := &Config{
		Environment: getEnv("ENV", "development"),
		Account:     getEnv("ACCOUNT", "main"),
	}

	cfg.Portfolio.InitialEquity = getEnvFloat("INITIAL_EQUITY", 10000.0)
	cfg.Portfolio.InitialCash = getEnvFloat("INITIAL_CASH", 10000.0)
	cfg.Portfolio.StateDir = getEnv("STATE_DIR", "state")

	cfg.Policy.File = getEnv("POLICY_FILE", "")

	cfg.Breaker.DailyDrawdownPct = getEnvFloat("BREAKER_DAILY_DRAWDOWN_PCT", 0.05)
	cfg.Breaker.TotalDrawdownPct = getEnvFloat("BREAKER_TOTAL_DRAWDOWN_PCT", 0.15)
	cfg.Breaker.MaxConsecutiveLosses = getEnvInt("BREAKER_MAX_CONSECUTIVE_LOSSES", 5)
	cfg.Breaker.RapidLossPct = getEnvFloat("BREAKER_RAPID_LOSS_PCT", 0.04)
	cfg.Breaker.RapidLossWindow = getEnvDuration("BREAKER_RAPID_LOSS_WINDOW", 30*time.Minute)
	cfg.Breaker.Cooldown = getEnvDuration("BREAKER_COOLDOWN", 4*time.Hour)

	cfg.Monitoring.PrometheusPort = getEnvInt("PROMETHEUS_PORT", 8080)
	cfg.Monitoring.HealthPort = getEnvInt("HEALTH_PORT", 8081)
	cfg.Monitoring.StatusInterval = getEnvDuration("STATUS_INTERVAL", time.Minute)

	cfg.Notifications.TelegramToken = getEnv("TELEGRAM_TOKEN", "")
	cfg.Notifications.TelegramChatID = getEnv("TELEGRAM_CHAT_ID", "")

	cfg.Reporting.Dir = getEnv("REPORT_DIR", "reports")
	cfg.Reporting.Format = getEnv("REPORT_FORMAT", "console")

	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
