package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	LogLevel   string        `mapstructure:"log_level"`
	Secret     string        `mapstructure:"secret"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	SendBuffer int           `mapstructure:"send_buffer"`

	// CookieSecure marks the login cookie Secure. Only set it behind TLS.
	CookieSecure bool `mapstructure:"cookie_secure"`

	RoomCodeLength int           `mapstructure:"room_code_length"`
	Retention      time.Duration `mapstructure:"retention"`
	SweepInterval  time.Duration `mapstructure:"sweep_interval"`

	AdminToken   string `mapstructure:"admin_token"`
	AdminConsole string `mapstructure:"admin_console"`

	PublishRateLimit    int           `mapstructure:"publish_rate_limit"`
	PublishRateInterval time.Duration `mapstructure:"publish_rate_interval"`
	PruneOnDisconnect   bool          `mapstructure:"prune_on_disconnect"`
	Backpressure        string        `mapstructure:"backpressure"`
}

const devSecret = "relay-dev-secret"

var defaults = map[string]any{
	"mode":                  "release",
	"port":                  5000,
	"log_level":             "info",
	"secret":                devSecret,
	"cookie_secure":         false,
	"read_limit":            32768,
	"ping_period":           "54s",
	"send_buffer":           32,
	"room_code_length":      6,
	"retention":             "600s",
	"sweep_interval":        "60s",
	"admin_token":           "",
	"admin_console":         "auto",
	"publish_rate_limit":    20,
	"publish_rate_interval": "10s",
	"prune_on_disconnect":   false,
	"backpressure":          "drop",
}

// Load reads .env, then config/config.<CONFIG_ENV>.yaml, then the process
// environment. A missing file is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Str("module", "config").Msg("read .env")
	}

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Bool("admin_http", cfg.AdminToken != "").Msg("config ready")
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.Mode == "release" && (c.Secret == "" || c.Secret == devSecret) {
		errs = append(errs, errors.New("secret must be set to a private value in release mode"))
	}
	if c.RoomCodeLength < 4 {
		errs = append(errs, fmt.Errorf("room_code_length must be at least 4, got %d", c.RoomCodeLength))
	}
	for name, d := range map[string]time.Duration{
		"ping_period":           c.PingPeriod,
		"retention":             c.Retention,
		"sweep_interval":        c.SweepInterval,
		"publish_rate_interval": c.PublishRateInterval,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}
	if c.SendBuffer <= 0 {
		errs = append(errs, fmt.Errorf("send_buffer must be positive, got %d", c.SendBuffer))
	}
	if c.PublishRateLimit < 0 {
		errs = append(errs, fmt.Errorf("publish_rate_limit must not be negative, got %d", c.PublishRateLimit))
	}
	switch c.AdminConsole {
	case "auto", "on", "off":
	default:
		errs = append(errs, fmt.Errorf("admin_console must be auto, on or off, got %q", c.AdminConsole))
	}
	switch c.Backpressure {
	case "drop", "disconnect":
	default:
		errs = append(errs, fmt.Errorf("backpressure must be drop or disconnect, got %q", c.Backpressure))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
