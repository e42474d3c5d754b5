// Package obslog provides the package-level structured logging surface used
// throughout this module, mirroring the call shape of the teacher's
// tv-shared-go/logger package (Info/Warn/Error/Debug/Fatal taking
// zap.Field arguments) since that package's source isn't available to
// depend on directly.
package obslog

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu  sync.RWMutex
	log *zap.Logger
)

func init() {
	l, err := zap.NewProduction()
	if err != nil {
		l = zap.NewNop()
	}
	log = l
}

// Configure replaces the package logger, optionally tee-ing to an
// additional zapcore.Core (used by the GCP Cloud Logging sink in gcp.go).
func Configure(extra zapcore.Core) {
	mu.Lock()
	defer mu.Unlock()

	base, err := zap.NewProductionConfig().Build()
	if err != nil {
		base = zap.NewNop()
	}
	if extra == nil {
		log = base
		return
	}
	log = zap.New(zapcore.NewTee(base.Core(), extra))
}

func current() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

func Info(msg string, fields ...zap.Field)  { current().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { current().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { current().Error(msg, fields...) }
func Debug(msg string, fields ...zap.Field) { current().Debug(msg, fields...) }

// Fatal logs at error level and exits the process, matching the teacher's
// use of logger.Fatal at startup for unrecoverable configuration errors.
func Fatal(msg string, fields ...zap.Field) {
	current().Error(msg, fields...)
	os.Exit(1)
}

// Sync flushes any buffered log entries; callers should defer it from main.
func Sync() error {
	return current().Sync()
}
