// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

// Package rabbitmq holds the broker connection, topology and retry helpers shared by the manager and the worker.
package rabbitmq

import (
	"context"
	"errors"
	"sync"

	"github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/log"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrChannelUnavailable is returned when no open channel could be obtained.
var ErrChannelUnavailable = errors.New("rabbitmq channel unavailable")

// Channel is the subset of *amqp.Channel used to publish and consume.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// ChannelProvider hands out an open channel, reconnecting when the previous one dropped.
type ChannelProvider interface {
	EnsureChannel() error
	GetChannel() Channel
}

// TopologyDeclarer is the subset of *amqp.Channel used to declare exchanges and queues.
type TopologyDeclarer interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
}

// RabbitMQConnection owns the AMQP connection and its single channel.
type RabbitMQConnection struct {
	ConnectionStringSource string
	Logger                 log.Logger

	mu         sync.Mutex
	connection *amqp.Connection
	channel    *amqp.Channel
}

// Compile-time interface satisfaction check.
var _ ChannelProvider = (*RabbitMQConnection)(nil)

// GetNewConnect dials the broker, opens a channel and declares the report topology.
func (rc *RabbitMQConnection) GetNewConnect() (*amqp.Channel, error) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if err := rc.connectLocked(); err != nil {
		return nil, err
	}

	return rc.channel, nil
}

func (rc *RabbitMQConnection) connectLocked() error {
	if rc.connection != nil && !rc.connection.IsClosed() && rc.channel != nil && !rc.channel.IsClosed() {
		return nil
	}

	if rc.connection == nil || rc.connection.IsClosed() {
		conn, err := amqp.Dial(rc.ConnectionStringSource)
		if err != nil {
			rc.logger().Errorf("Failed to connect to rabbitmq: %v", err)
			return err
		}

		rc.connection = conn
	}

	ch, err := rc.connection.Channel()
	if err != nil {
		rc.logger().Errorf("Failed to open rabbitmq channel: %v", err)
		return err
	}

	if err := DeclareTopology(ch); err != nil {
		_ = ch.Close()

		rc.logger().Errorf("Failed to declare rabbitmq topology: %v", err)

		return err
	}

	rc.channel = ch

	rc.logger().Infof("Connected to rabbitmq")

	return nil
}

// EnsureChannel reconnects when the connection or channel was closed.
func (rc *RabbitMQConnection) EnsureChannel() error {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	return rc.connectLocked()
}

// GetChannel returns the current channel. Call EnsureChannel first.
func (rc *RabbitMQConnection) GetChannel() Channel {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.channel == nil {
		return nil
	}

	return rc.channel
}

// HealthCheck reports whether the connection and channel are open.
func (rc *RabbitMQConnection) HealthCheck() bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	return rc.connection != nil && !rc.connection.IsClosed() && rc.channel != nil && !rc.channel.IsClosed()
}

// Close closes the channel and the connection.
func (rc *RabbitMQConnection) Close() error {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	var errs []error

	if rc.channel != nil {
		if err := rc.channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}

		rc.channel = nil
	}

	if rc.connection != nil {
		if err := rc.connection.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}

		rc.connection = nil
	}

	return errors.Join(errs...)
}

func (rc *RabbitMQConnection) logger() log.Logger {
	if rc.Logger == nil {
		return &log.NoneLogger{}
	}

	return rc.Logger
}

// DeclareTopology declares the generate-report exchange and queue, dead-lettering rejected jobs to the DLQ.
func DeclareTopology(ch TopologyDeclarer) error {
	if err := ch.ExchangeDeclare(constant.DeadLetterExchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		return err
	}

	if _, err := ch.QueueDeclare(constant.DeadLetterQueue, true, false, false, false, nil); err != nil {
		return err
	}

	if err := ch.QueueBind(constant.DeadLetterQueue, "", constant.DeadLetterExchange, false, nil); err != nil {
		return err
	}

	if err := ch.ExchangeDeclare(constant.GenerateReportExchange, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
		return err
	}

	args := amqp.Table{"x-dead-letter-exchange": constant.DeadLetterExchange}

	if _, err := ch.QueueDeclare(constant.GenerateReportQueue, true, false, false, false, args); err != nil {
		return err
	}

	return ch.QueueBind(constant.GenerateReportQueue, constant.GenerateReportRoutingKey, constant.GenerateReportExchange, false, nil)
}
