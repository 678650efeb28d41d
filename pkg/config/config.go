package config

import (
	"net/url"
	"time"
)

// DefaultWebhookPath is appended to a webhook URL that has no path.
const DefaultWebhookPath = "/telegram/webhook"

// Config holds runtime configuration for the coinpulse bot.
type Config struct {
	AppEnv    string          `mapstructure:"app_env"`
	Bot       BotConfig       `mapstructure:"bot"`
	Server    ServerConfig    `mapstructure:"server"`
	Market    MarketConfig    `mapstructure:"market"`
	Chart     ChartConfig     `mapstructure:"chart"`
	Schedule  ScheduleConfig  `mapstructure:"schedule"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	Log       LogConfig       `mapstructure:"log"`
}

// BotConfig configures the Telegram transport. A non-empty WebhookURL selects
// webhook delivery; otherwise updates are long-polled.
type BotConfig struct {
	Token       string        `mapstructure:"token" validate:"required"`
	WebhookURL  string        `mapstructure:"webhook_url" validate:"omitempty,url"`
	PollTimeout time.Duration `mapstructure:"poll_timeout" validate:"gt=0"`
	Language    string        `mapstructure:"language" validate:"oneof=uk en"`
}

// UsesWebhook reports whether updates are pushed to the HTTP server.
func (c BotConfig) UsesWebhook() bool {
	return c.WebhookURL != ""
}

// PublicWebhookURL is the URL registered with Telegram. A bare host gets
// DefaultWebhookPath so updates land on a dedicated route.
func (c BotConfig) PublicWebhookURL() string {
	if c.WebhookURL == "" {
		return ""
	}

	u, err := url.Parse(c.WebhookURL)
	if err != nil {
		return c.WebhookURL
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = DefaultWebhookPath
	}
	return u.String()
}

type ServerConfig struct {
	Port            string        `mapstructure:"port" validate:"required,numeric"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// Addr returns the listen address for the HTTP server.
func (c ServerConfig) Addr() string {
	return ":" + c.Port
}

type MarketConfig struct {
	BaseURL           string        `mapstructure:"base_url" validate:"required,url"`
	APIKey            string        `mapstructure:"api_key"`
	Currency          string        `mapstructure:"currency" validate:"required"`
	TopLimit          int           `mapstructure:"top_limit" validate:"gt=0,lte=250"`
	TopTTL            time.Duration `mapstructure:"top_ttl" validate:"gt=0"`
	AllTTL            time.Duration `mapstructure:"all_ttl" validate:"gt=0"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute" validate:"gt=0"`
	Timeout           time.Duration `mapstructure:"timeout" validate:"gt=0"`
	SearchLimit       int           `mapstructure:"search_limit" validate:"gt=0"`
	PageSize          int           `mapstructure:"page_size" validate:"gt=0,lte=20"`
}

type ChartConfig struct {
	Width    int `mapstructure:"width" validate:"gt=0"`
	Height   int `mapstructure:"height" validate:"gt=0"`
	MaxTicks int `mapstructure:"max_ticks" validate:"gt=1"`
}

type ScheduleConfig struct {
	Timezone string `mapstructure:"timezone" validate:"required"`
}

type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr" validate:"required_if=Enabled true"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	PoolTimeout  time.Duration `mapstructure:"pool_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`
}

type RateLimitRule struct {
	Limit  int    `mapstructure:"limit"`
	Window string `mapstructure:"window"`
}

type RateLimitConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	PerUser   RateLimitRule `mapstructure:"per_user"`
	Whitelist []int64       `mapstructure:"whitelist"`
}

type SentryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn" validate:"required_if=Enabled true"`
}

type LogConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=debug info warn error"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}
