// Package logger builds the process-wide *slog.Logger. Every backend is a
// slog.Handler, so the rest of the code only ever sees log/slog.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	slogzap "github.com/samber/slog-zap/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Options struct {
	Format    string // text|json|zap
	Level     string // debug|info|warn|error
	AddSource bool
	Output    io.Writer // defaults to os.Stdout
}

// New returns a logger and a flush function to call before exit.
func New(opts Options) (*slog.Logger, func(), error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	hopts := &slog.HandlerOptions{Level: level, AddSource: opts.AddSource}

	switch opts.Format {
	case "", "text":
		return slog.New(slog.NewTextHandler(out, hopts)), func() {}, nil
	case "json":
		return slog.New(slog.NewJSONHandler(out, hopts)), func() {}, nil
	case "zap":
		z := newZap(out, level, opts.AddSource)
		h := slogzap.Option{Level: level, Logger: z, AddSource: opts.AddSource}.NewZapHandler()
		return slog.New(h), func() { _ = z.Sync() }, nil
	default:
		return nil, nil, fmt.Errorf("logger: unknown format %q", opts.Format)
	}
}

func newZap(out io.Writer, level slog.Level, addSource bool) *zap.Logger {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "ts"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.AddSync(out), toZapLevel(level))
	if addSource {
		return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	}
	return zap.New(core)
}

func toZapLevel(l slog.Level) zapcore.Level {
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

// ParseLevel maps a level name to slog.Level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("logger: unknown level %q", s)
	}
}
