package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dmitrijs2005/forttask/internal/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	BackendSlog = "slog"
	BackendZap  = "zap"

	FormatText = "text"
	FormatJSON = "json"
)

// Options selects the logging backend, output format and minimum level.
type Options struct {
	Backend string
	Format  string
	Level   string
	Output  io.Writer
}

// New builds a Logger from opts. Empty fields fall back to slog, text,
// info and stderr.
func New(opts Options) (Logger, error) {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}

	level, err := parseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(opts.Backend) {
	case "", BackendSlog:
		hopts := &slog.HandlerOptions{Level: level}
		var h slog.Handler
		if strings.EqualFold(opts.Format, FormatJSON) {
			h = slog.NewJSONHandler(opts.Output, hopts)
		} else {
			h = slog.NewTextHandler(opts.Output, hopts)
		}
		return NewSlogLogger(slog.New(h)), nil

	case BackendZap:
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		var enc zapcore.Encoder
		if strings.EqualFold(opts.Format, FormatJSON) {
			enc = zapcore.NewJSONEncoder(encCfg)
		} else {
			enc = zapcore.NewConsoleEncoder(encCfg)
		}
		core := zapcore.NewCore(enc, zapcore.AddSync(opts.Output), zapLevel(level))
		return NewZapLogger(zap.New(core)), nil
	}

	return nil, errors.Errorf("unknown log backend: %s", opts.Backend)
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, errors.Errorf("unknown log level: %s", level)
	}
}

func zapLevel(l slog.Level) zapcore.Level {
	switch {
	case l <= slog.LevelDebug:
		return zapcore.DebugLevel
	case l <= slog.LevelInfo:
		return zapcore.InfoLevel
	case l <= slog.LevelWarn:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}
