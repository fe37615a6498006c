package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AppCfg struct {
	Env          string `mapstructure:"env"`
	Port         int    `mapstructure:"port"`
	Origin       string `mapstructure:"origin"`
	ReadTimeout  int    `mapstructure:"read_timeout_seconds"`
	WriteTimeout int    `mapstructure:"write_timeout_seconds"`
	IdleTimeout  int    `mapstructure:"idle_timeout_seconds"`
}

type MongoCfg struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type RedisCfg struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTCfg struct {
	ActivationSecret string `mapstructure:"activation_secret"`
	AccessSecret     string `mapstructure:"access_secret"`
	RefreshSecret    string `mapstructure:"refresh_secret"`
	AccessTTLMinutes int    `mapstructure:"access_ttl_minutes"`
	RefreshTTLHours  int    `mapstructure:"refresh_ttl_hours"`
}

type AuthCfg struct {
	SessionTTLDays      int  `mapstructure:"session_ttl_days"`
	RevalidateOnRefresh bool `mapstructure:"revalidate_on_refresh"`
	PasswordHashCost    int  `mapstructure:"password_hash_cost"`
	RateLimitPerMinute  int  `mapstructure:"rate_limit_per_minute"`
}

type BrevoCfg struct {
	APIKey    string `mapstructure:"api_key"`
	FromEmail string `mapstructure:"from_email"`
	FromName  string `mapstructure:"from_name"`
}

type KafkaCfg struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

type Config struct {
	App   AppCfg   `mapstructure:"app"`
	Mongo MongoCfg `mapstructure:"mongo"`
	Redis RedisCfg `mapstructure:"redis"`
	JWT   JWTCfg   `mapstructure:"jwt"`
	Auth  AuthCfg  `mapstructure:"auth"`
	Brevo BrevoCfg `mapstructure:"brevo"`
	Kafka KafkaCfg `mapstructure:"kafka"`

	// Derived once at load time so no request handler recomputes them.
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	SessionTTL time.Duration
	Cookies    CookieCfg
}

// CookieCfg holds the options applied to the access_token and refresh_token
// cookies. Built once from the environment instead of mutated per request.
type CookieCfg struct {
	Secure        bool
	SameSite      string
	AccessMaxAge  time.Duration
	RefreshMaxAge time.Duration
}

// Load reads config.yaml, applies environment overrides and fills the
// derived fields. A missing .env file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	if cfg.App.ReadTimeout == 0 {
		cfg.App.ReadTimeout = 15
	}
	if cfg.App.WriteTimeout == 0 {
		cfg.App.WriteTimeout = 15
	}
	if cfg.App.IdleTimeout == 0 {
		cfg.App.IdleTimeout = 60
	}
	if cfg.JWT.AccessTTLMinutes == 0 {
		cfg.JWT.AccessTTLMinutes = 5
	}
	if cfg.JWT.RefreshTTLHours == 0 {
		cfg.JWT.RefreshTTLHours = 72
	}
	if cfg.Auth.SessionTTLDays == 0 {
		cfg.Auth.SessionTTLDays = 7
	}
	if cfg.Auth.PasswordHashCost == 0 {
		cfg.Auth.PasswordHashCost = 10
	}
	if cfg.Auth.RateLimitPerMinute == 0 {
		cfg.Auth.RateLimitPerMinute = 30
	}

	if cfg.Mongo.URI == "" {
		return nil, errors.New("mongo.uri is required")
	}
	if cfg.Redis.Addr == "" {
		return nil, errors.New("redis.addr is required")
	}
	if cfg.JWT.ActivationSecret == "" || cfg.JWT.AccessSecret == "" || cfg.JWT.RefreshSecret == "" {
		return nil, errors.New("jwt.activation_secret, jwt.access_secret and jwt.refresh_secret are required")
	}

	cfg.AccessTTL = time.Duration(cfg.JWT.AccessTTLMinutes) * time.Minute
	cfg.RefreshTTL = time.Duration(cfg.JWT.RefreshTTLHours) * time.Hour
	cfg.SessionTTL = time.Duration(cfg.Auth.SessionTTLDays) * 24 * time.Hour
	cfg.Cookies = CookieCfg{
		Secure:        cfg.App.Env == "production",
		SameSite:      "Lax",
		AccessMaxAge:  cfg.AccessTTL,
		RefreshMaxAge: cfg.RefreshTTL,
	}

	return cfg, nil
}
