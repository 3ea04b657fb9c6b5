package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	ServerPort         string
	LogLevel           string
	IPOCacheTTLHours   string
	GMPCacheTTLMinutes string
	SweepIntervalMins  string
	ScrapeTimeoutSecs  string
	BrowserMaxAgeMins  string
	ChittorgarhBaseURL string
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		logrus.Warn("Error loading .env file, using system environment variables")
	}

	return &Config{
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		IPOCacheTTLHours:   getEnv("IPO_CACHE_TTL_HOURS", "5"),
		GMPCacheTTLMinutes: getEnv("GMP_CACHE_TTL_MINUTES", "30"),
		SweepIntervalMins:  getEnv("CACHE_SWEEP_INTERVAL_MINUTES", "10"),
		ScrapeTimeoutSecs:  getEnv("SCRAPE_TIMEOUT_SECONDS", "30"),
		BrowserMaxAgeMins:  getEnv("BROWSER_MAX_AGE_MINUTES", "30"),
		ChittorgarhBaseURL: getEnv("CHITTORGARH_BASE_URL", "https://www.chittorgarh.com"),
	}
}

// GetIPOCacheTTL returns the listing cache TTL from environment or the 5 hour default.
func (c *Config) GetIPOCacheTTL() time.Duration {
	return parseDuration(c.IPOCacheTTLHours, time.Hour, 5*time.Hour, "IPO_CACHE_TTL_HOURS")
}

// GetGMPCacheTTL returns the GMP quote cache TTL from environment or the 30 minute default.
func (c *Config) GetGMPCacheTTL() time.Duration {
	return parseDuration(c.GMPCacheTTLMinutes, time.Minute, 30*time.Minute, "GMP_CACHE_TTL_MINUTES")
}

// GetSweepInterval returns the background cache sweep interval.
func (c *Config) GetSweepInterval() time.Duration {
	return parseDuration(c.SweepIntervalMins, time.Minute, 10*time.Minute, "CACHE_SWEEP_INTERVAL_MINUTES")
}

// GetScrapeTimeout returns the per-fetch timeout for upstream pages.
func (c *Config) GetScrapeTimeout() time.Duration {
	return parseDuration(c.ScrapeTimeoutSecs, time.Second, 30*time.Second, "SCRAPE_TIMEOUT_SECONDS")
}

// GetBrowserMaxAge returns the maximum age of the shared headless browser
// instance before it is restarted.
func (c *Config) GetBrowserMaxAge() time.Duration {
	return parseDuration(c.BrowserMaxAgeMins, time.Minute, 30*time.Minute, "BROWSER_MAX_AGE_MINUTES")
}

func parseDuration(raw string, unit, fallback time.Duration, key string) time.Duration {
	if raw == "" {
		return fallback
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		logrus.Warnf("Invalid %s value: %s, using default %v", key, raw, fallback)
		return fallback
	}

	return time.Duration(n) * unit
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
