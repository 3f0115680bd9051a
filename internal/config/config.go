// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token         string `yaml:"token"`
	Mode          string `yaml:"mode"`    // polling | webhook (future)
	Workers       int    `yaml:"workers"` // concurrent update handlers
	Language      string `yaml:"language"`
	UpdateTimeout int    `yaml:"update_timeout"` // long-poll seconds
	DryRun        bool   `yaml:"dry_run"`        // log outbound messages instead of sending
}

// RelayConfig is the routing configuration: which channel gates moderator
// status, where diagnostics go and who receives forwards.
type RelayConfig struct {
	ChannelID       string   `yaml:"channel_id"`
	OperatorChatID  string   `yaml:"operator_chat_id"`
	Recipients      []string `yaml:"recipients"`
	CacheRecipients bool     `yaml:"cache_recipients"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	Port int `yaml:"port"` // 0 disables the admin HTTP server
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type Config struct {
	Bot   BotConfig   `yaml:"bot"`
	Relay RelayConfig `yaml:"relay"`
	Log   LogConfig   `yaml:"log"`
	Admin AdminConfig `yaml:"admin"`
	Redis RedisConfig `yaml:"redis"`

	Runtime RuntimeConfig `yaml:"-"`
}

// envOverrides mirrors the environment variables the bot has always been
// deployed with. Set variables win over the YAML file.
type envOverrides struct {
	Token          string   `env:"TOKEN"`
	ChannelID      string   `env:"CHANNEL_ID"`
	OperatorChatID string   `env:"DEVELOPER_CHAT_ID"`
	Recipients     []string `env:"NOTIFY_CHAT_IDS" envSeparator:":"`
	LogLevel       string   `env:"LOG_LEVEL"`
	RedisURL       string   `env:"REDIS_URL"`
	AdminPort      int      `env:"ADMIN_PORT"`
}

// LoadConfig reads the YAML file at path (a missing file is not an error),
// applies environment overrides and defaults, then validates required options.
func LoadConfig(path string, dev bool) (*Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		// environment-only deployment
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	var ov envOverrides
	if err := env.Parse(&ov); err != nil {
		return err
	}
	if ov.Token != "" {
		cfg.Bot.Token = ov.Token
	}
	if ov.ChannelID != "" {
		cfg.Relay.ChannelID = ov.ChannelID
	}
	if ov.OperatorChatID != "" {
		cfg.Relay.OperatorChatID = ov.OperatorChatID
	}
	if len(ov.Recipients) > 0 {
		cfg.Relay.Recipients = ov.Recipients
	}
	if ov.LogLevel != "" {
		cfg.Log.Level = ov.LogLevel
	}
	if ov.RedisURL != "" {
		cfg.Redis.URL = ov.RedisURL
	}
	if ov.AdminPort != 0 {
		cfg.Admin.Port = ov.AdminPort
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Bot.Mode == "" {
		cfg.Bot.Mode = "polling"
	}
	if cfg.Bot.Language == "" {
		cfg.Bot.Language = "ru"
	}
	if cfg.Bot.UpdateTimeout <= 0 {
		cfg.Bot.UpdateTimeout = 60
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)

	recipients := cfg.Relay.Recipients[:0]
	for _, r := range cfg.Relay.Recipients {
		if r = strings.TrimSpace(r); r != "" {
			recipients = append(recipients, r)
		}
	}
	cfg.Relay.Recipients = recipients
	cfg.Relay.ChannelID = strings.TrimSpace(cfg.Relay.ChannelID)
	cfg.Relay.OperatorChatID = strings.TrimSpace(cfg.Relay.OperatorChatID)
}

// Validate reports every missing required option at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Bot.Token == "" {
		errs = append(errs, errors.New("bot.token (TOKEN) is required"))
	}
	if c.Relay.ChannelID == "" {
		errs = append(errs, errors.New("relay.channel_id (CHANNEL_ID) is required"))
	}
	if c.Relay.OperatorChatID == "" {
		errs = append(errs, errors.New("relay.operator_chat_id (DEVELOPER_CHAT_ID) is required"))
	}
	if len(c.Relay.Recipients) == 0 {
		errs = append(errs, errors.New("relay.recipients (NOTIFY_CHAT_IDS) is required"))
	}
	if c.Relay.CacheRecipients && c.Redis.URL == "" {
		errs = append(errs, errors.New("relay.cache_recipients requires redis.url"))
	}
	return errors.Join(errs...)
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
