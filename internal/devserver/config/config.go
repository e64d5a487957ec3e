// Package config handles configuration for the development backend,
// including defaults, a YAML overlay, environment variables and flags.
package config

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dmitrijs2005/forttask/internal/configx"
	"github.com/dmitrijs2005/forttask/internal/errors"
	"github.com/dmitrijs2005/forttask/internal/flagx"
	"github.com/dmitrijs2005/forttask/internal/logging"
)

const envPrefix = "FORTTASK_DEV_"

// Config holds runtime settings for the development backend.
//
// Fields:
//   - Addr: bind address of the HTTP and websocket endpoint.
//   - SecretKey: HMAC secret for signing session tokens (HS256) and csrf
//     cookies. Do not reuse the default outside local development.
//   - SessionTTL: lifetime of the session token.
//   - SeedPassword: password of every seeded user.
//   - PingInterval / PingTimeout: Engine.IO heartbeat announced to sockets.
type Config struct {
	Addr         string        `koanf:"addr" validate:"required,hostname_port"`
	SecretKey    string        `koanf:"secret_key" validate:"required,min=8"`
	SessionTTL   time.Duration `koanf:"session_ttl" validate:"gt=0"`
	SeedPassword string        `koanf:"seed_password" validate:"required"`
	PingInterval time.Duration `koanf:"ping_interval" validate:"gt=0"`
	PingTimeout  time.Duration `koanf:"ping_timeout" validate:"gt=0"`
	Log          Log           `koanf:"log"`
}

type Log struct {
	Level   string `koanf:"level" validate:"oneof=debug info warn warning error"`
	Format  string `koanf:"format" validate:"oneof=text json"`
	Backend string `koanf:"backend" validate:"oneof=slog zap"`
}

// LoadDefaults populates c with development defaults.
func (c *Config) LoadDefaults() {
	c.Addr = "127.0.0.1:3000"
	c.SecretKey = "forttask-dev-secret"
	c.SessionTTL = 24 * time.Hour
	c.SeedPassword = "forttask"
	c.PingInterval = 25 * time.Second
	c.PingTimeout = 20 * time.Second
	c.Log = Log{Level: "info", Format: "text", Backend: "slog"}
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	return nil
}

func (c *Config) LoggingOptions() logging.Options {
	return logging.Options{
		Backend: c.Log.Backend,
		Format:  c.Log.Format,
		Level:   c.Log.Level,
	}
}

// LoadConfig builds a Config from defaults, the YAML file named by
// -c/-config, FORTTASK_DEV_* environment variables and flags, in that order.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	src := configx.Source{File: flagx.ConfigFileFlag(args), EnvPrefix: envPrefix, Sections: []string{"log"}}
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
