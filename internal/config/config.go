package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	LogFormat         string        `mapstructure:"log_format" yaml:"log_format"`

	SessionSecret string        `mapstructure:"session_secret" yaml:"session_secret"`
	SessionIssuer string        `mapstructure:"session_issuer" yaml:"session_issuer"`
	SessionTTL    time.Duration `mapstructure:"session_ttl" yaml:"session_ttl"`
	ReplyDelay    time.Duration `mapstructure:"reply_delay" yaml:"reply_delay"`

	AllowedOrigins  []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	MaxMessageBytes int64    `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	WSRateLimit     int      `mapstructure:"ws_rate_limit" yaml:"ws_rate_limit"`

	PrayerTimes PrayerTimesConfig `mapstructure:"prayer_times" yaml:"prayer_times"`
	Redis       RedisConfig       `mapstructure:"redis" yaml:"redis"`
}

// PrayerTimesConfig describes the upstream prayer-times API request.
type PrayerTimesConfig struct {
	BaseURL  string        `mapstructure:"base_url" yaml:"base_url"`
	City     string        `mapstructure:"city" yaml:"city"`
	Country  string        `mapstructure:"country" yaml:"country"`
	Method   int           `mapstructure:"method" yaml:"method"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
}

// RedisConfig enables the shared prayer-times cache when Addr is set.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		LogFormat:         "console",
		SessionSecret:     "change-me",
		SessionIssuer:     "ramadan-assistant",
		SessionTTL:        24 * time.Hour,
		ReplyDelay:        500 * time.Millisecond,
		AllowedOrigins:    []string{"*"},
		MaxMessageBytes:   1 << 16,
		WSRateLimit:       120,
		PrayerTimes: PrayerTimesConfig{
			BaseURL:  "https://api.aladhan.com",
			City:     "Kuala Lumpur",
			Country:  "Malaysia",
			Method:   3,
			Timeout:  10 * time.Second,
			CacheTTL: 6 * time.Hour,
		},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if other.SessionSecret != "" {
		c.SessionSecret = other.SessionSecret
	}
	if other.SessionTTL != 0 {
		c.SessionTTL = other.SessionTTL
	}
	if other.ReplyDelay != 0 {
		c.ReplyDelay = other.ReplyDelay
	}
	if other.PrayerTimes.BaseURL != "" {
		c.PrayerTimes.BaseURL = other.PrayerTimes.BaseURL
	}
	if other.PrayerTimes.City != "" {
		c.PrayerTimes.City = other.PrayerTimes.City
	}
	if other.PrayerTimes.Country != "" {
		c.PrayerTimes.Country = other.PrayerTimes.Country
	}
	if other.PrayerTimes.Method != 0 {
		c.PrayerTimes.Method = other.PrayerTimes.Method
	}
	if other.Redis.Addr != "" {
		c.Redis.Addr = other.Redis.Addr
	}
}
