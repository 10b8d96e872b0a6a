package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Paymob   PaymobConfig   `yaml:"paymob"`
	Booking  BookingConfig  `yaml:"booking"`
	Worker   WorkerConfig   `yaml:"worker"`
	Email    EmailConfig    `yaml:"email"`
}

type HTTPConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingTopic       string   `yaml:"booking_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type PaymobConfig struct {
	BaseURL       string `yaml:"base_url"`
	APIKey        string `yaml:"api_key"`
	IntegrationID string `yaml:"integration_id"`
	IframeID      string `yaml:"iframe_id"`
	HMACSecret    string `yaml:"hmac_secret"`
	Currency      string `yaml:"currency"`
}

type BookingConfig struct {
	MaxGroupSize         int   `yaml:"max_group_size"`
	PendingTTLMinutes    int   `yaml:"pending_ttl_minutes"`
	AvailabilityCacheTTL int   `yaml:"availability_cache_ttl_seconds"`
	AdultPriceCents      int64 `yaml:"adult_price_cents"`
	ChildPriceCents      int64 `yaml:"child_price_cents"`
}

type WorkerConfig struct {
	ExpirationSweepMinutes int `yaml:"expiration_sweep_minutes"`
}

type EmailConfig struct {
	APIURL    string `yaml:"api_url"`
	APIToken  string `yaml:"api_token"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Booking.MaxGroupSize <= 0 {
		cfg.Booking.MaxGroupSize = 15
	}
	if cfg.Booking.PendingTTLMinutes <= 0 {
		cfg.Booking.PendingTTLMinutes = 30
	}
	if cfg.Booking.AvailabilityCacheTTL <= 0 {
		cfg.Booking.AvailabilityCacheTTL = 60
	}
	if cfg.Worker.ExpirationSweepMinutes <= 0 {
		cfg.Worker.ExpirationSweepMinutes = 5
	}

	return &cfg, nil
}
