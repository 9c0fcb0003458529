package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	AppName     = "telegram-room-bot"
	EnvFileName = "config.env"
)

// Config holds the runtime settings of the bot. Every field can come from
// the YAML file named by CONFIG_FILE and be overridden by the environment.
type Config struct {
	BotToken      string `yaml:"bot_token" env:"BOT_TOKEN"`
	TelegramDebug bool   `yaml:"telegram_debug" env:"TELEGRAM_DEBUG"`

	DBDriver string `yaml:"db_driver" env:"DB_DRIVER"`
	DBDSN    string `yaml:"db_dsn" env:"DB_DSN"`

	AlbumQuietPeriod  time.Duration `yaml:"album_quiet_period" env:"ALBUM_QUIET_PERIOD"`
	RecentDraftsLimit int           `yaml:"recent_drafts_limit" env:"RECENT_DRAFTS_LIMIT"`

	SendRate  float64 `yaml:"send_rate" env:"SEND_RATE"`
	SendBurst int     `yaml:"send_burst" env:"SEND_BURST"`

	MetricsAddr   string `yaml:"metrics_addr" env:"METRICS_ADDR"`
	LogLevel      string `yaml:"log_level" env:"LOG_LEVEL"`
	LogFile       string `yaml:"log_file" env:"LOG_FILE"`
	TranscriptDir string `yaml:"transcript_dir" env:"TRANSCRIPT_DIR"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() Config {
	return Config{
		DBDriver:          "sqlite",
		DBDSN:             "roombot.db",
		AlbumQuietPeriod:  1500 * time.Millisecond,
		RecentDraftsLimit: 5,
		SendRate:          25,
		SendBurst:         5,
		LogLevel:          "info",
		LogFile:           "roombot.log",
	}
}

// LoadEnvFile loads environment variables from the config file in the user's
// config directory and from .env in the working directory. Errors are
// ignored since the files may not exist.
func LoadEnvFile() {
	if configBase, err := os.UserConfigDir(); err == nil {
		_ = godotenv.Load(filepath.Join(configBase, AppName, EnvFileName))
	}
	_ = godotenv.Load()
}

// Load builds the configuration from defaults, the optional YAML file named
// by CONFIG_FILE and the process environment.
func Load() (*Config, error) {
	return load(os.Getenv("CONFIG_FILE"), env.Options{})
}

func load(path string, opts env.Options) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Support ${ENV_VAR} placeholders in YAML config.
		data = []byte(os.ExpandEnv(string(data)))
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	return &cfg, nil
}

// Validate reports every missing or invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if c.BotToken == "" {
		errs = append(errs, errors.New("BOT_TOKEN is required"))
	}
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", c.DBDriver))
	}
	if c.DBDSN == "" {
		errs = append(errs, errors.New("DB_DSN is required"))
	}
	if c.AlbumQuietPeriod <= 0 {
		errs = append(errs, errors.New("ALBUM_QUIET_PERIOD must be positive"))
	}
	if c.RecentDraftsLimit <= 0 {
		errs = append(errs, errors.New("RECENT_DRAFTS_LIMIT must be positive"))
	}
	if c.SendRate < 0 {
		errs = append(errs, errors.New("SEND_RATE must not be negative"))
	}
	if c.SendBurst <= 0 {
		errs = append(errs, errors.New("SEND_BURST must be positive"))
	}
	return errors.Join(errs...)
}
