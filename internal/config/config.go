package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/jwalitptl/hms-api/internal/email"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Redis    RedisConfig
	Email    email.Config
	Outbox   OutboxConfig
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeoutSeconds"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpiryHours int    `mapstructure:"expiry_hours"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type OutboxConfig struct {
	BatchSize           int `mapstructure:"batch_size"`
	PollIntervalSeconds int `mapstructure:"poll_interval_seconds"`
	RetryAttempts       int `mapstructure:"retry_attempts"`
	RetryDelaySeconds   int `mapstructure:"retry_delay_seconds"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.timeoutSeconds", 30)
	viper.SetDefault("jwt.expiry_hours", 24)
	viper.SetDefault("outbox.batch_size", 100)
	viper.SetDefault("outbox.poll_interval_seconds", 5)
	viper.SetDefault("outbox.retry_attempts", 3)
	viper.SetDefault("outbox.retry_delay_seconds", 5)

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}
