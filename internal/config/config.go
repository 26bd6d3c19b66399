// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/keshon/inhibitor/pkg/cooldown"
)

// Prefix is prepended to every variable name.
const Prefix = "INHIBITOR_"

type Config struct {
	DiscordToken  string `env:"DISCORD_TOKEN,required"`
	CommandPrefix string `env:"COMMAND_PREFIX" envDefault:"!"`

	Owners         []string `env:"OWNERS" envSeparator:","`
	IgnoreCooldown []string `env:"IGNORE_COOLDOWN" envSeparator:","`
	GuildOnly      bool     `env:"GUILD_ONLY"`
	DMOnly         bool     `env:"DM_ONLY"`

	// Zero uses means no default cooldown.
	DefaultCooldownUses   int           `env:"DEFAULT_COOLDOWN_USES"`
	DefaultCooldownWindow time.Duration `env:"DEFAULT_COOLDOWN_WINDOW" envDefault:"5s"`
	SweepInterval         time.Duration `env:"SWEEP_INTERVAL" envDefault:"30s"`

	// Memory store only: cooldowns are saved here on shutdown and reloaded.
	SnapshotPath string `env:"SNAPSHOT_PATH"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB"`
	RedisPrefix   string `env:"REDIS_PREFIX" envDefault:"inhibitor:cooldown"`

	// Denial replies per second per channel, and burst.
	ReplyRate  float64 `env:"REPLY_RATE" envDefault:"0.5"`
	ReplyBurst int     `env:"REPLY_BURST" envDefault:"2"`

	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile       string `env:"LOG_FILE"`
	LogMaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"20"`
	LogMaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"3"`
}

// Load reads an optional .env file and then the environment. A missing .env
// file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return Parse(env.Options{})
}

// Parse reads the environment only. opts.Prefix is always set to Prefix;
// opts.Environment may be set by tests.
func Parse(opts env.Options) (*Config, error) {
	opts.Prefix = Prefix

	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects contradictory settings.
func (c *Config) Validate() error {
	var errs []error
	if c.GuildOnly && c.DMOnly {
		errs = append(errs, errors.New("GUILD_ONLY and DM_ONLY cannot both be set"))
	}
	if c.SweepInterval <= 0 {
		errs = append(errs, errors.New("SWEEP_INTERVAL must be positive"))
	}
	if c.DefaultCooldownUses > 0 && c.DefaultCooldownWindow <= 0 {
		errs = append(errs, errors.New("DEFAULT_COOLDOWN_WINDOW must be positive when a default cooldown is set"))
	}
	if c.ReplyBurst < 1 {
		errs = append(errs, errors.New("REPLY_BURST must be at least 1"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// DefaultCooldown returns the bot-wide cooldown, or nil when none is set.
func (c *Config) DefaultCooldown() *cooldown.Limit {
	if c.DefaultCooldownUses <= 0 {
		return nil
	}
	return &cooldown.Limit{AllowedUses: c.DefaultCooldownUses, Window: c.DefaultCooldownWindow}
}
