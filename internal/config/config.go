package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	TwilioAuthToken string

	CalAPIKey       string
	CalBaseURL      string
	CalEventTypeID  int
	BookingDuration time.Duration
	BookingTimeout  time.Duration
	BookingTimezone string

	DefaultLanguage string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		TwilioAuthToken: getEnv("TWILIO_AUTH_TOKEN", ""),

		CalAPIKey:       strings.TrimSpace(getEnv("CAL_API_KEY", "")),
		CalBaseURL:      getEnv("CAL_BASE_URL", "https://api.cal.com/v2"),
		CalEventTypeID:  getEnvAsInt("CAL_EVENT_TYPE_ID", 0),
		BookingDuration: getEnvAsDuration("BOOKING_DURATION", 30*time.Minute),
		BookingTimeout:  getEnvAsDuration("BOOKING_TIMEOUT", 10*time.Second),
		BookingTimezone: getEnv("BOOKING_TZ", "America/New_York"),

		DefaultLanguage: getEnv("DEFAULT_LANGUAGE", "en"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
	}
}

// Validate checks that the configuration required at startup is present.
// Missing booking credentials are fatal; messaging secrets are optional
// because signature checks are skipped when unset.
func (c *Config) Validate() error {
	if c.CalAPIKey == "" {
		return errors.New("config: CAL_API_KEY is required")
	}
	if c.CalEventTypeID == 0 {
		return errors.New("config: CAL_EVENT_TYPE_ID is required")
	}
	if _, err := time.LoadLocation(c.BookingTimezone); err != nil {
		return errors.New("config: BOOKING_TZ is not a valid IANA timezone: " + c.BookingTimezone)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
