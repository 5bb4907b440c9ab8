// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package log

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger adapts a zap.SugaredLogger to Logger.
type ZapLogger struct {
	Logger *zap.SugaredLogger
}

// Compile-time interface satisfaction check.
var _ Logger = (*ZapLogger)(nil)

// InitializeLogger builds the process logger from ENV_NAME and LOG_LEVEL.
// Production environments log JSON, everything else uses the console encoder.
func InitializeLogger() Logger {
	var cfg zap.Config

	if strings.EqualFold(os.Getenv("ENV_NAME"), "production") {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if lvl, err := zapcore.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	cfg.DisableStacktrace = true

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic("failed to build zap logger: " + err.Error())
	}

	return &ZapLogger{Logger: l.Sugar()}
}

func (l *ZapLogger) Info(args ...any) { l.Logger.Info(args...) }
func (l *ZapLogger) Infof(format string, args ...any) { l.Logger.Infof(format, args...) }
func (l *ZapLogger) Warn(args ...any) { l.Logger.Warn(args...) }
func (l *ZapLogger) Warnf(format string, args ...any) { l.Logger.Warnf(format, args...) }
func (l *ZapLogger) Error(args ...any) { l.Logger.Error(args...) }
func (l *ZapLogger) Errorf(format string, args ...any) { l.Logger.Errorf(format, args...) }
func (l *ZapLogger) Debug(args ...any) { l.Logger.Debug(args...) }
func (l *ZapLogger) Debugf(format string, args ...any) { l.Logger.Debugf(format, args...) }

// WithFields returns a child logger with structured context attached.
func (l *ZapLogger) WithFields(fields ...any) Logger {
	return &ZapLogger{Logger: l.Logger.With(fields...)}
}

// Sync flushes buffered entries.
func (l *ZapLogger) Sync() error {
	return l.Logger.Sync()
}
