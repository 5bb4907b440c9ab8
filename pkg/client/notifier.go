// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package client

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/navimedi/reporter/pkg"
)

//go:generate mockgen --destination=notifier.mock.go --package=client . Notifier

// Level classifies a notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is a user visible message raised by the client.
type Notification struct {
	Level    Level
	Title    string
	Message  string
	ReportID string
}

// Notifier surfaces notifications to the user. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NopNotifier drops every notification.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(context.Context, Notification) {}

// LogNotifier writes notifications to the logger carried by the context.
type LogNotifier struct{}

// Notify implements Notifier.
func (LogNotifier) Notify(ctx context.Context, n Notification) {
	logger := pkg.NewLoggerFromContext(ctx)

	switch n.Level {
	case LevelError:
		logger.Errorf("%s: %s (report %s)", n.Title, n.Message, n.ReportID)
	default:
		logger.Infof("%s: %s (report %s)", n.Title, n.Message, n.ReportID)
	}
}

// WriterNotifier prints one line per notification.
type WriterNotifier struct {
	mu sync.Mutex
	W  io.Writer
}

// Notify implements Notifier.
func (w *WriterNotifier) Notify(_ context.Context, n Notification) {
	w.mu.Lock()
	defer w.mu.Unlock()

	_, _ = fmt.Fprintf(w.W, "[%s] %s: %s\n", n.Level, n.Title, n.Message)
}
