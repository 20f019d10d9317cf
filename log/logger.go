package log

import (
	"io"

	ipfslog "github.com/ipfs/go-log/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logging interface used across the project. Keys in
// keyVals must be strings.
type Logger interface {
	// Debug logs at DEBUG level.
	Debug(msg string, keyVals ...any)
	// Info logs at INFO level.
	Info(msg string, keyVals ...any)
	// Warn logs at WARN level.
	Warn(msg string, keyVals ...any)
	// Error logs at ERROR level.
	Error(msg string, keyVals ...any)
	// With returns a logger with additional persistent context.
	With(keyVals ...any) Logger
}

type zapLogger struct {
	sugar *zap.SugaredLogger
}

// NewLogger creates a logger writing to dst. When json is true, entries are
// emitted as JSON; otherwise a console encoder is used.
func NewLogger(dst io.Writer, level zapcore.Level, json bool) Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if json {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		enc = zapcore.NewConsoleEncoder(encCfg)
	}
	core := zapcore.NewCore(enc, zapcore.AddSync(dst), level)
	return &zapLogger{sugar: zap.New(core).Sugar()}
}

// NewNamed creates a logger backed by the process-wide go-log subsystem
// registry, so its level can be adjusted with GOLOG_LOG_LEVEL.
func NewNamed(subsystem string) Logger {
	return &zapLogger{sugar: &ipfslog.Logger(subsystem).SugaredLogger}
}

// NewNopLogger creates a logger that discards everything.
func NewNopLogger() Logger {
	return &zapLogger{sugar: zap.New(zapcore.NewNopCore()).Sugar()}
}

func (l *zapLogger) Debug(msg string, keyVals ...any) { l.sugar.Debugw(msg, keyVals...) }
func (l *zapLogger) Info(msg string, keyVals ...any)  { l.sugar.Infow(msg, keyVals...) }
func (l *zapLogger) Warn(msg string, keyVals ...any)  { l.sugar.Warnw(msg, keyVals...) }
func (l *zapLogger) Error(msg string, keyVals ...any) { l.sugar.Errorw(msg, keyVals...) }

func (l *zapLogger) With(keyVals ...any) Logger {
	return &zapLogger{sugar: l.sugar.With(keyVals...)}
}
