// Package logging adapts zap to the joalistay Logger interface.
package logging

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger satisfies joalistay.Logger. Every call is a message followed by
// key/value pairs, logged as structured fields.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger wraps logger. A nil logger discards everything.
func NewZapLogger(logger *zap.Logger) *ZapLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapLogger{sugar: logger.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

// New builds a console logger at level ("debug", "info", "warn", "error").
func New(level string, development bool) (*ZapLogger, error) {
	lvl, err := zapcore.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "invalid log level").
			WithMetadata(map[string]any{"level": level})
	}

	logger, err := configure(lvl, development).Build()
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "build logger")
	}
	return NewZapLogger(logger), nil
}

func configure(level zapcore.Level, development bool) zap.Config {
	encoder := zap.NewProductionEncoderConfig()
	encoder.TimeKey = "timestamp"
	encoder.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder.EncodeLevel = zapcore.CapitalLevelEncoder
	encoder.EncodeCaller = zapcore.ShortCallerEncoder
	encoder.EncodeDuration = zapcore.StringDurationEncoder

	return zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      development,
		Encoding:         "console",
		EncoderConfig:    encoder,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
}

// Zap returns the underlying logger.
func (l *ZapLogger) Zap() *zap.Logger {
	return l.sugar.Desugar()
}

// Named returns a child logger scoped to name.
func (l *ZapLogger) Named(name string) *ZapLogger {
	return &ZapLogger{sugar: l.sugar.Named(name)}
}

func (l *ZapLogger) Sync() error {
	return l.sugar.Sync()
}

func (l *ZapLogger) Debug(msg string, keysAndValues ...any) {
	l.sugar.Logw(zapcore.DebugLevel, msg, pairs(keysAndValues)...)
}

func (l *ZapLogger) Info(msg string, keysAndValues ...any) {
	l.sugar.Logw(zapcore.InfoLevel, msg, pairs(keysAndValues)...)
}

func (l *ZapLogger) Warn(msg string, keysAndValues ...any) {
	l.sugar.Logw(zapcore.WarnLevel, msg, pairs(keysAndValues)...)
}

func (l *ZapLogger) Error(msg string, keysAndValues ...any) {
	l.sugar.Logw(zapcore.ErrorLevel, msg, pairs(keysAndValues)...)
}

// pairs stringifies keys so odd or non string keys do not trip zap's
// sugared logger into DPanic.
func pairs(args []any) []any {
	out := make([]any, 0, len(args)+1)
	for i := 0; i < len(args); i += 2 {
		key := fmt.Sprint(args[i])
		if i+1 >= len(args) {
			out = append(out, "extra", args[i])
			break
		}
		if err, ok := args[i+1].(error); ok {
			out = append(out, key, err.Error())
			continue
		}
		out = append(out, key, args[i+1])
	}
	return out
}
