// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

// Package log defines the logging contract shared by every component.
package log

// Logger is the common logging interface used across the manager, the worker and the client.
type Logger interface {
	Info(args ...any)
	Infof(format string, args ...any)
	Warn(args ...any)
	Warnf(format string, args ...any)
	Error(args ...any)
	Errorf(format string, args ...any)
	Debug(args ...any)
	Debugf(format string, args ...any)

	// WithFields returns a child logger carrying the given key/value pairs.
	WithFields(fields ...any) Logger

	Sync() error
}

// NoneLogger discards everything. Used when no logger was placed in the context.
type NoneLogger struct{}

func (l *NoneLogger) Info(_ ...any) {}
func (l *NoneLogger) Infof(_ string, _ ...any) {}
func (l *NoneLogger) Warn(_ ...any) {}
func (l *NoneLogger) Warnf(_ string, _ ...any) {}
func (l *NoneLogger) Error(_ ...any) {}
func (l *NoneLogger) Errorf(_ string, _ ...any) {}
func (l *NoneLogger) Debug(_ ...any) {}
func (l *NoneLogger) Debugf(_ string, _ ...any) {}
func (l *NoneLogger) WithFields(_ ...any) Logger { return l }
func (l *NoneLogger) Sync() error { return nil }
