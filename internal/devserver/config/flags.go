package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/forttask/internal/errors"
	"github.com/dmitrijs2005/forttask/internal/flagx"
)

// parseFlags overlays selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   bind address (e.g., "127.0.0.1:3000")
//	-s string   session token secret key
//	-t int      session validity, minutes
//	-p string   password of the seeded users
//	-l string   log level
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-s", "-t", "-p", "-l"})

	fs := flag.NewFlagSet("devserver", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.Addr, "a", cfg.Addr, "address and port to run server")
	fs.StringVar(&cfg.SecretKey, "s", cfg.SecretKey, "secret key")
	fs.StringVar(&cfg.SeedPassword, "p", cfg.SeedPassword, "seed user password")
	fs.StringVar(&cfg.Log.Level, "l", cfg.Log.Level, "log level")
	ttl := fs.Int("t", int(cfg.SessionTTL.Minutes()), "session validity (in minutes)")

	if err := fs.Parse(args); err != nil {
		return errors.Wrap(err, "parse flags")
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			cfg.SessionTTL = time.Duration(*ttl) * time.Minute
		}
	})
	return nil
}
