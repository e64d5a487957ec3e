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
//	-a string   backend url, e.g. http://10.0.0.2:3000
//	-d string   path of the local SQLite database
//	-i int      online check interval in seconds, 0 disables checking
//	-l string   log level
//
// Other flags in args are ignored (see flagx.FilterArgs).
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-i", "-l"})

	fs := flag.NewFlagSet("forttask", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "backend url")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "local database path")
	fs.StringVar(&cfg.Log.Level, "l", cfg.Log.Level, "log level")
	interval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		return errors.Wrap(err, "parse flags")
	}

	// only an explicit -i overrides; file and env values may be sub-second
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "i" {
			cfg.OnlineCheckInterval = time.Duration(*interval) * time.Second
		}
	})
	return nil
}
