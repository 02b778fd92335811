// Package logging builds the leveled console logger used by vmctl.
//
// Messages go to standard error with a severity marker in place of the
// level name. Markers are coloured only when the destination is a terminal.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// Markers printed in front of each message.
const (
	MarkerDebug = "·"
	MarkerInfo  = "ℹ"
	MarkerWarn  = "⚠"
	MarkerError = "✖"
)

// Options configures a logger.
type Options struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string
	// Output defaults to os.Stderr.
	Output io.Writer
	// Color forces coloured markers on or off. Nil means detect a terminal.
	Color *bool
}

// ParseLevel converts a level name to a zap level.
func ParseLevel(name string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, errors.Newf("unknown log level %q (valid: debug, info, warn, error)", name)
	}
}

// New builds a console logger.
func New(opts Options) (*zap.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	color := isTerminal(out)
	if opts.Color != nil {
		color = *opts.Color
	}

	encCfg := zapcore.EncoderConfig{
		MessageKey:       "msg",
		LevelKey:         "level",
		NameKey:          "logger",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      markerEncoder(color),
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(out),
		zap.NewAtomicLevelAt(level),
	)
	return zap.New(core), nil
}

// Marker returns the plain severity marker for a level.
func Marker(level zapcore.Level) string {
	switch level {
	case zapcore.DebugLevel:
		return MarkerDebug
	case zapcore.InfoLevel:
		return MarkerInfo
	case zapcore.WarnLevel:
		return MarkerWarn
	default:
		return MarkerError
	}
}

func markerEncoder(color bool) zapcore.LevelEncoder {
	return func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		marker := Marker(level)
		if color {
			marker = colored(level, marker)
		}
		enc.AppendString(marker)
	}
}

func colored(level zapcore.Level, s string) string {
	switch level {
	case zapcore.DebugLevel:
		return "\033[90m" + s + "\033[0m"
	case zapcore.InfoLevel:
		return "\033[32m" + s + "\033[0m"
	case zapcore.WarnLevel:
		return "\033[33m" + s + "\033[0m"
	default:
		return "\033[31m" + s + "\033[0m"
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
