// Package config loads the bot configuration from .env, a YAML file and the environment
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultStoryDir         = "adventureDB"
	DefaultSettingsFile     = "bot_settings.json"
	DefaultUserAgent        = "PiBot (pibot, v1.0.0)"
	DefaultImageTimeout     = 30 * time.Second
	DefaultPresenceInterval = 8 * time.Second
	DefaultWaifuBaseURL     = "https://api.waifu.pics"
	DefaultNekosBaseURL     = "https://nekos.best/api/v2"

	DefaultLogLevel      = "info"
	DefaultLogMaxSize    = 100 // MB
	DefaultLogMaxBackups = 5
	DefaultLogMaxAge     = 30 // days

	TokenEnv = "DISCORD_BOT_TOKEN"
)

// Image source names accepted in images.sources
const (
	SourceWaifu = "waifu.pics"
	SourceNekos = "nekos.best"
)

// DefaultActivities rotate in the bot presence when none are configured
var DefaultActivities = []string{
	"Être ou ne pas être ?",
	"La secte du ban !",
	"3.1415926535",
	"Connaissez-vous Axarathe ?",
	"bot en cours de dev",
	"l'infinité de l'espace",
}

// Config is the whole bot configuration
type Config struct {
	Discord   DiscordConfig   `yaml:"discord"`
	Adventure AdventureConfig `yaml:"adventure"`
	Presence  PresenceConfig  `yaml:"presence"`
	Images    ImagesConfig    `yaml:"images"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type DiscordConfig struct {
	Token string `yaml:"token"`
	// GuildID registers commands on one guild instead of globally
	GuildID          string `yaml:"guild_id"`
	UnregisterOnExit bool   `yaml:"unregister_on_exit"`
}

type AdventureConfig struct {
	StoryDir string `yaml:"story_dir"`
}

type PresenceConfig struct {
	Interval   time.Duration `yaml:"interval"`
	Activities []string      `yaml:"activities"`
}

type ImagesConfig struct {
	UserAgent    string        `yaml:"user_agent"`
	Timeout      time.Duration `yaml:"timeout"`
	Sources      []string      `yaml:"sources"`
	WaifuBaseURL string        `yaml:"waifu_base_url"`
	NekosBaseURL string        `yaml:"nekos_base_url"`
}

type StorageConfig struct {
	File string `yaml:"file"`
}

// MetricsConfig enables the Prometheus endpoint when Listen is set (e.g. ":9091")
type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

type LoggingConfig struct {
	Level        string `yaml:"level"`
	File         string `yaml:"file"`
	MaxSize      int    `yaml:"max_size"`
	MaxBackups   int    `yaml:"max_backups"`
	MaxAge       int    `yaml:"max_age"`
	Compress     bool   `yaml:"compress"`
	EnableStdout *bool  `yaml:"enable_stdout"`
}

// StdoutEnabled reports whether logs go to stdout, defaulting to true
func (l LoggingConfig) StdoutEnabled() bool {
	return l.EnableStdout == nil || *l.EnableStdout
}

// LoadDotEnv loads a .env file into the environment if one exists
func LoadDotEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// Load reads the YAML file at path, expanding ${VAR} references. A missing
// file yields the defaults with the token read from DISCORD_BOT_TOKEN.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		expanded, err := expandEnv(string(data))
		if err != nil {
			return nil, fmt.Errorf("failed to expand environment variables: %w", err)
		}
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if cfg.Discord.Token == "" {
		cfg.Discord.Token = os.Getenv(TokenEnv)
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// expandEnv replaces ${VAR} with the environment value and fails on unset variables
func expandEnv(input string) (string, error) {
	var missing []string
	out := os.Expand(input, func(key string) string {
		if val, ok := os.LookupEnv(key); ok {
			return val
		}
		missing = append(missing, key)
		return ""
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return out, nil
}

func (c *Config) applyDefaults() error {
	if c.Adventure.StoryDir == "" {
		c.Adventure.StoryDir = DefaultStoryDir
	}

	if c.Presence.Interval == 0 {
		c.Presence.Interval = DefaultPresenceInterval
	}
	if c.Presence.Interval < time.Second {
		return fmt.Errorf("presence.interval must be at least 1s, got %v", c.Presence.Interval)
	}
	if c.Presence.Activities == nil {
		c.Presence.Activities = append([]string(nil), DefaultActivities...)
	}

	if c.Images.UserAgent == "" {
		c.Images.UserAgent = DefaultUserAgent
	}
	if c.Images.Timeout == 0 {
		c.Images.Timeout = DefaultImageTimeout
	}
	if c.Images.Timeout < 0 {
		return fmt.Errorf("images.timeout must be positive, got %v", c.Images.Timeout)
	}
	if len(c.Images.Sources) == 0 {
		c.Images.Sources = []string{SourceWaifu, SourceNekos}
	}
	for _, src := range c.Images.Sources {
		if src != SourceWaifu && src != SourceNekos {
			return fmt.Errorf("unknown image source %q (valid: %s, %s)", src, SourceWaifu, SourceNekos)
		}
	}
	if c.Images.WaifuBaseURL == "" {
		c.Images.WaifuBaseURL = DefaultWaifuBaseURL
	}
	if c.Images.NekosBaseURL == "" {
		c.Images.NekosBaseURL = DefaultNekosBaseURL
	}

	if c.Storage.File == "" {
		c.Storage.File = DefaultSettingsFile
	}

	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.MaxSize == 0 {
		c.Logging.MaxSize = DefaultLogMaxSize
	}
	if c.Logging.MaxBackups == 0 {
		c.Logging.MaxBackups = DefaultLogMaxBackups
	}
	if c.Logging.MaxAge == 0 {
		c.Logging.MaxAge = DefaultLogMaxAge
	}
	return nil
}

// Validate checks what is needed to connect to Discord
func (c *Config) Validate() error {
	if c.Discord.Token == "" {
		return fmt.Errorf("discord token is not set (use discord.token or %s)", TokenEnv)
	}
	return nil
}
