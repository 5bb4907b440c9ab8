// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package bootstrap

import (
	"time"

	"github.com/navimedi/reporter/pkg"
	"github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/log"
)

// tickerFactory creates a channel that receives ticks and a stop function.
// Overridable in tests for deterministic behavior.
var tickerFactory = newRealTicker

// newRealTicker returns a channel that ticks at ConnectionMonitorInterval and a stop func.
func newRealTicker() (<-chan time.Time, func()) {
	t := time.NewTicker(constant.ConnectionMonitorInterval)
	return t.C, t.Stop
}

// monitoredConnection is the part of the RabbitMQ connection the monitor drives.
type monitoredConnection interface {
	HealthCheck() bool
	EnsureChannel() error
}

// RabbitMQMonitor periodically checks the RabbitMQ connection and reconnects it when it died.
// Without it /ready would stay at 503 until the next report submission triggered a reconnect.
type RabbitMQMonitor struct {
	conn   monitoredConnection
	logger log.Logger
	stop   chan struct{}
	done   chan struct{}
}

// NewRabbitMQMonitor creates a new monitor for the given RabbitMQ connection.
func NewRabbitMQMonitor(conn monitoredConnection, logger log.Logger) *RabbitMQMonitor {
	return &RabbitMQMonitor{
		conn:   conn,
		logger: logger,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start launches the background monitor goroutine.
func (m *RabbitMQMonitor) Start() {
	pkg.GoNamed(m.logger, "rabbitmq-monitor", m.monitorLoop)
}

// Stop signals the monitor to shut down and waits for it to finish.
func (m *RabbitMQMonitor) Stop() {
	close(m.stop)
	<-m.done
}

func (m *RabbitMQMonitor) monitorLoop() {
	defer close(m.done)

	tickCh, stopTicker := tickerFactory()
	defer stopTicker()

	for {
		select {
		case <-m.stop:
			m.logger.Info("RabbitMQ connection monitor stopped")

			return
		case <-tickCh:
			m.checkAndReconnect()
		}
	}
}

// checkAndReconnect calls EnsureChannel when the connection is not healthy.
func (m *RabbitMQMonitor) checkAndReconnect() {
	if m.conn == nil || m.conn.HealthCheck() {
		return
	}

	m.logger.Warn("RabbitMQ connection is dead, attempting reconnection via EnsureChannel...")

	if err := m.conn.EnsureChannel(); err != nil {
		m.logger.Errorf("RabbitMQ reconnection failed: %v (will retry in %v)", err, constant.ConnectionMonitorInterval)

		return
	}

	m.logger.Info("RabbitMQ connection restored by background monitor")
}
