package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/storesync/reconciliation-backend/internal/domain/reconciliation"
)

type Config struct {
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
	LogLevel    string `koanf:"log_level"`

	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Redis    RedisConfig    `koanf:"redis"`

	WooCommerce WooCommerceConfig `koanf:"woocommerce"`
	Zoho        ZohoConfig        `koanf:"zoho"`
	SMTP        SMTPConfig        `koanf:"smtp"`

	Reconciliation reconciliation.Settings `koanf:"reconciliation"`

	// StaleRunThreshold is how long a running report may exist before the
	// sweep force-fails it
	StaleRunThreshold time.Duration `koanf:"stale_run_threshold"`
}

type ServerConfig struct {
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MinIdleConns    int           `koanf:"min_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

type RedisConfig struct {
	URL          string        `koanf:"url"`
	Password     string        `koanf:"password"`
	DB           int           `koanf:"db"`
	DialTimeout  time.Duration `koanf:"dial_timeout"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

type WooCommerceConfig struct {
	BaseURL        string        `koanf:"base_url"`
	ConsumerKey    string        `koanf:"consumer_key"`
	ConsumerSecret string        `koanf:"consumer_secret"`
	PageSize       int           `koanf:"page_size"`
	Timeout        time.Duration `koanf:"timeout"`
	RequestsPerSec float64       `koanf:"requests_per_sec"`
}

type ZohoConfig struct {
	BaseURL        string        `koanf:"base_url"`
	AccessToken    string        `koanf:"access_token"`
	OrganizationID string        `koanf:"organization_id"`
	PageSize       int           `koanf:"page_size"`
	Timeout        time.Duration `koanf:"timeout"`
	RequestsPerSec float64       `koanf:"requests_per_sec"`
}

type SMTPConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	From     string `koanf:"from"`
	UseTLS   bool   `koanf:"use_tls"`
}

func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	// Load defaults
	defaults := &Config{
		Version:     "dev",
		Environment: "development",
		LogLevel:    "info",
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    25,
			MinIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			DB:           0,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		WooCommerce: WooCommerceConfig{
			PageSize:       100,
			Timeout:        30 * time.Second,
			RequestsPerSec: 5,
		},
		Zoho: ZohoConfig{
			PageSize:       200,
			Timeout:        30 * time.Second,
			RequestsPerSec: 2,
		},
		SMTP: SMTPConfig{
			Port: 587,
		},
		Reconciliation:    reconciliation.DefaultSettings(),
		StaleRunThreshold: 60 * time.Minute,
	}

	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	// Load from config file if present; the file is optional
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	// Missing file is fine; defaults plus env cover it
	_ = k.Load(file.Provider(configPath), yaml.Parser())

	// Override with environment variables
	if err := k.Load(env.Provider("RECON_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "RECON_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Reconciliation.Normalize()
	if err := cfg.Reconciliation.Validate(); err != nil {
		return nil, fmt.Errorf("invalid reconciliation settings: %w", err)
	}

	return &cfg, nil
}
