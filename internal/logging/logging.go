package logging

import (
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	disabled atomic.Bool
	sugar    *zap.SugaredLogger
)

func init() {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	logger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		logger = zap.NewNop()
	}
	sugar = logger.Sugar()
}

// Disable turns off all logging. Used in desktop mode to keep the
// terminal quiet when launched from a shell.
func Disable() {
	disabled.Store(true)
}

// Enable turns logging back on.
func Enable() {
	disabled.Store(false)
}

// Info logs an info message.
func Info(v ...any) {
	if !disabled.Load() {
		sugar.Info(v...)
	}
}

// Infof logs a formatted info message.
func Infof(format string, v ...any) {
	if !disabled.Load() {
		sugar.Infof(format, v...)
	}
}

// Warn logs a warning message.
func Warn(v ...any) {
	if !disabled.Load() {
		sugar.Warn(v...)
	}
}

// Warnf logs a formatted warning message.
func Warnf(format string, v ...any) {
	if !disabled.Load() {
		sugar.Warnf(format, v...)
	}
}

// Error logs an error message.
func Error(v ...any) {
	if !disabled.Load() {
		sugar.Error(v...)
	}
}

// Errorf logs a formatted error message.
func Errorf(format string, v ...any) {
	if !disabled.Load() {
		sugar.Errorf(format, v...)
	}
}

// Debug logs a debug message.
func Debug(v ...any) {
	if !disabled.Load() {
		sugar.Debug(v...)
	}
}

// Debugf logs a formatted debug message.
func Debugf(format string, v ...any) {
	if !disabled.Load() {
		sugar.Debugf(format, v...)
	}
}
