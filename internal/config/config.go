/**
 * @description
 * This package handles the configuration management for the service. It uses
 * the Viper library to read configuration from environment variables, with an
 * optional .env file for local development.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the access-control backend.
// Both the API and scheduler binaries load the same struct.
type Config struct {
	ServerPort                string `mapstructure:"SERVER_PORT"`
	DatabaseURL               string `mapstructure:"DATABASE_URL"`
	RedisURL                  string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix      string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	RabbitMQURL               string `mapstructure:"RABBITMQ_URL"`
	AuthJWKSURL               string `mapstructure:"AUTH_JWKS_URL"`
	FacilityTimezone          string `mapstructure:"FACILITY_TIMEZONE"`
	ScanRateLimitPerMinute    int    `mapstructure:"SCAN_RATE_LIMIT_PER_MINUTE"`
	CertSweepSchedule         string `mapstructure:"CERT_SWEEP_SCHEDULE"`
	SubscriptionSweepSchedule string `mapstructure:"SUBSCRIPTION_SWEEP_SCHEDULE"`
	ExpiryAlertSchedule       string `mapstructure:"EXPIRY_ALERT_SCHEDULE"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("FACILITY_TIMEZONE", "UTC")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "pileta:rate_limit")
	viper.SetDefault("SCAN_RATE_LIMIT_PER_MINUTE", 60)
	viper.SetDefault("CERT_SWEEP_SCHEDULE", "0 3 * * *")          // At 03:00 every day.
	viper.SetDefault("SUBSCRIPTION_SWEEP_SCHEDULE", "15 3 * * *") // At 03:15 every day.
	viper.SetDefault("EXPIRY_ALERT_SCHEDULE", "0 9 * * *")        // At 09:00 every day.

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("AUTH_JWKS_URL")
	_ = viper.BindEnv("FACILITY_TIMEZONE")
	_ = viper.BindEnv("SCAN_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("CERT_SWEEP_SCHEDULE")
	_ = viper.BindEnv("SUBSCRIPTION_SWEEP_SCHEDULE")
	_ = viper.BindEnv("EXPIRY_ALERT_SCHEDULE")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		// If the config file is not found, we can ignore the error.
		// For other errors, we should return them.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	// Platform-provided PORT wins over SERVER_PORT.
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	config.FacilityTimezone = strings.TrimSpace(config.FacilityTimezone)
	if config.FacilityTimezone == "" {
		config.FacilityTimezone = "UTC"
	}
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisRateLimitPrefix = strings.TrimSpace(config.RedisRateLimitPrefix)
	if config.RedisRateLimitPrefix == "" {
		config.RedisRateLimitPrefix = "pileta:rate_limit"
	}
	if config.ScanRateLimitPerMinute < 0 {
		log.Printf("level=warn component=config msg=\"negative scan rate limit configured; disabling limiter\" limit=%d", config.ScanRateLimitPerMinute)
		config.ScanRateLimitPerMinute = 0
	}

	return
}
