/**
 * @description
 * This package handles the configuration management for the service. It uses the
 * Viper library to read configuration from environment variables, providing a
 * centralized and straightforward way to manage application settings.
 *
 * @notes
 * - AUTH_TIMEOUT_SECONDS and MAX_RETRY_ATTEMPTS only seed the engine's global
 *   config on first boot; afterwards the owner mutates them through the admin
 *   endpoints and the stored values win.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the biopay-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort                    string `mapstructure:"SERVER_PORT"`
	DatabaseURL                   string `mapstructure:"DATABASE_URL"`
	RedisURL                      string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix          string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	RabbitMQURL                   string `mapstructure:"RABBITMQ_URL"`
	LedgerAPIBaseURL              string `mapstructure:"LEDGER_API_BASE_URL"`
	LedgerAPIKey                  string `mapstructure:"LEDGER_API_KEY"`
	IDPJWKSURL                    string `mapstructure:"IDP_JWKS_URL"`
	OwnerAccountID                string `mapstructure:"OWNER_ACCOUNT_ID"`
	AuthTimeoutSeconds            int64  `mapstructure:"AUTH_TIMEOUT_SECONDS"`
	MaxRetryAttempts              int    `mapstructure:"MAX_RETRY_ATTEMPTS"`
	DefaultSpendingLimitKobo      int64  `mapstructure:"DEFAULT_SPENDING_LIMIT_KOBO"`
	MerchantAutoVerify            bool   `mapstructure:"MERCHANT_AUTO_VERIFY"`
	AuthAttemptRateLimitPerMinute int    `mapstructure:"AUTH_ATTEMPT_RATE_LIMIT_PER_MINUTE"`
	DailyResetSchedule            string `mapstructure:"DAILY_RESET_SCHEDULE"`
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
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "biopay:rate_limit")
	viper.SetDefault("AUTH_TIMEOUT_SECONDS", 300)
	viper.SetDefault("MAX_RETRY_ATTEMPTS", 3)
	viper.SetDefault("DEFAULT_SPENDING_LIMIT_KOBO", 10_000_000)
	viper.SetDefault("MERCHANT_AUTO_VERIFY", true)
	viper.SetDefault("AUTH_ATTEMPT_RATE_LIMIT_PER_MINUTE", 30)
	viper.SetDefault("DAILY_RESET_SCHEDULE", "5 0 * * *")

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("LEDGER_API_BASE_URL")
	_ = viper.BindEnv("LEDGER_API_KEY")
	_ = viper.BindEnv("IDP_JWKS_URL")
	_ = viper.BindEnv("OWNER_ACCOUNT_ID")
	_ = viper.BindEnv("AUTH_TIMEOUT_SECONDS")
	_ = viper.BindEnv("MAX_RETRY_ATTEMPTS")
	_ = viper.BindEnv("DEFAULT_SPENDING_LIMIT_KOBO")
	_ = viper.BindEnv("MERCHANT_AUTO_VERIFY")
	_ = viper.BindEnv("AUTH_ATTEMPT_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("DAILY_RESET_SCHEDULE")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	if config.AuthTimeoutSeconds <= 0 {
		log.Printf("level=warn component=config msg=\"non-positive auth timeout configured; using default\" value=%d", config.AuthTimeoutSeconds)
		config.AuthTimeoutSeconds = 300
	}
	if config.MaxRetryAttempts <= 0 {
		log.Printf("level=warn component=config msg=\"non-positive retry threshold configured; using default\" value=%d", config.MaxRetryAttempts)
		config.MaxRetryAttempts = 3
	}
	if config.DefaultSpendingLimitKobo <= 0 {
		log.Printf("level=warn component=config msg=\"non-positive default spending limit configured; using default\" value=%d", config.DefaultSpendingLimitKobo)
		config.DefaultSpendingLimitKobo = 10_000_000
	}
	if config.AuthAttemptRateLimitPerMinute < 0 {
		config.AuthAttemptRateLimitPerMinute = 0
	}
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisRateLimitPrefix = strings.TrimSpace(config.RedisRateLimitPrefix)
	if config.RedisRateLimitPrefix == "" {
		config.RedisRateLimitPrefix = "biopay:rate_limit"
	}
	if strings.TrimSpace(config.DailyResetSchedule) == "" {
		config.DailyResetSchedule = "5 0 * * *"
	}

	return
}
