package config

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dmitrijs2005/forttask/internal/configx"
	"github.com/dmitrijs2005/forttask/internal/errors"
	"github.com/dmitrijs2005/forttask/internal/flagx"
	"github.com/dmitrijs2005/forttask/internal/logging"
)

// FORTTASK_LOG_LEVEL maps to log.level
const envPrefix = "FORTTASK_"

var sections = []string{"log"}

// Config holds runtime settings for the forttask CLI.
//
// Fields:
//   - ServerURL: scheme://host:port of the household backend.
//   - DatabasePath: SQLite file holding the vault and cached user data.
//   - RequestTimeout: per-request HTTP timeout; 0 keeps the transport default.
//   - OnlineCheckInterval: how often the client probes server reachability;
//     0 turns checking off.
type Config struct {
	ServerURL           string        `koanf:"server_url" validate:"required,url"`
	DatabasePath        string        `koanf:"database_path" validate:"required"`
	RequestTimeout      time.Duration `koanf:"request_timeout" validate:"gte=0"`
	OnlineCheckInterval time.Duration `koanf:"online_check_interval" validate:"gte=0"`
	Log                 Log           `koanf:"log"`
}

type Log struct {
	Level   string `koanf:"level" validate:"oneof=debug info warn warning error"`
	Format  string `koanf:"format" validate:"oneof=text json"`
	Backend string `koanf:"backend" validate:"oneof=slog zap"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:3000"
	c.DatabasePath = "forttask.db"
	c.RequestTimeout = 15 * time.Second
	c.OnlineCheckInterval = 10 * time.Second
	c.Log = Log{Level: "info", Format: "text", Backend: "slog"}
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	return nil
}

// LoggingOptions maps the log section onto logging.Options.
func (c *Config) LoggingOptions() logging.Options {
	return logging.Options{
		Backend: c.Log.Backend,
		Format:  c.Log.Format,
		Level:   c.Log.Level,
	}
}

// LoadConfig constructs a Config from args (without the program name):
// defaults, then the YAML file named by -c/-config, then FORTTASK_*
// environment variables, then flags. Later sources take precedence.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	src := configx.Source{File: flagx.ConfigFileFlag(args), EnvPrefix: envPrefix, Sections: sections}
	if err := configx.Load(cfg, src); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
