package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"bizmetrics/internal/engine"

	"github.com/joho/godotenv"
)

type Config struct {
	// HTTP Server
	Port       string
	RateLimit  float64
	CacheItems int

	// Data
	DataPath           string
	GCSCredentialsFile string

	// Analysis defaults
	SegmentColumns []string
	TopN           int
	GrowthPeriod   string

	// Output
	OutputDir string
	LogLevel  string
}

// Load reads the environment, after merging a .env file when one exists.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:       getEnv("PORT", "8080"),
		RateLimit:  getEnvFloat("RATE_LIMIT", 20),
		CacheItems: getEnvInt("CACHE_ENTRIES", 128),

		DataPath:           getEnv("DATA_PATH", "data/sample/sales_data.csv"),
		GCSCredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),

		SegmentColumns: getEnvList("SEGMENT_COLUMNS", []string{"product_category", "region"}),
		TopN:           getEnvInt("TOP_N", 10),
		GrowthPeriod:   getEnv("GROWTH_PERIOD", string(engine.PeriodMonth)),

		OutputDir: getEnv("OUTPUT_DIR", "outputs"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
	}
}

// Validate validates the configuration and returns every problem at once
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RateLimit <= 0 {
		problems = append(problems, fmt.Sprintf("invalid rate limit %v: must be positive", c.RateLimit))
	}
	if c.CacheItems < 0 {
		problems = append(problems, fmt.Sprintf("invalid cache size %d: must not be negative", c.CacheItems))
	}

	if c.DataPath == "" {
		problems = append(problems, "data path cannot be empty")
	} else if _, err := engine.DetectFormat(c.DataPath); err != nil {
		problems = append(problems, err.Error())
	}

	if c.TopN < 0 {
		problems = append(problems, fmt.Sprintf("invalid top N %d: must not be negative", c.TopN))
	}
	if _, err := engine.ParsePeriod(c.GrowthPeriod); err != nil {
		problems = append(problems, err.Error())
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if len(problems) > 0 {
		return errors.New("configuration validation failed:\n  - " + strings.Join(problems, "\n  - "))
	}
	return nil
}

// DashboardOptions derives the precompute options for the API.
func (c *Config) DashboardOptions() engine.DashboardOptions {
	opts := engine.DefaultDashboardOptions()
	opts.SegmentColumns = c.SegmentColumns
	opts.TopN = c.TopN
	if p, err := engine.ParsePeriod(c.GrowthPeriod); err == nil {
		opts.Period = p
	}
	return opts
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
