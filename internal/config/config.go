package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server     Server     `mapstructure:"server"`
	Database   Database   `mapstructure:"database"`
	Logger     Logger     `mapstructure:"logger"`
	MarketData MarketData `mapstructure:"marketdata"`
	AI         AI         `mapstructure:"ai"`
	Challenge  Challenge  `mapstructure:"challenge"`
}

// Server holds the configuration for the HTTP server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Database holds the configuration for the database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MarketData holds the configuration for the Alpha Vantage client.
type MarketData struct {
	ApiKey         string  `mapstructure:"apiKey"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// AI holds the configuration for the OpenAI-backed CSV interpreter and quiz generator.
type AI struct {
	ApiKey string `mapstructure:"apiKey"`
	Model  string `mapstructure:"model"`
}

// Challenge holds the configuration for the daily quiz quota.
type Challenge struct {
	DailyQuota int `mapstructure:"daily_quota"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")    // or yaml, json

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("database.dsn", "journal.db?_foreign_keys=on")
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")
	viper.SetDefault("marketdata.rate_limit", 5) // Alpha Vantage free tier allowance
	viper.SetDefault("marketdata.rate_limit_burst", 1)
	viper.SetDefault("ai.model", "gpt-4o-mini")
	viper.SetDefault("challenge.daily_quota", 10)

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
