// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package rabbitmq

import (
	"context"
	"encoding/json"
	"time"

	"github.com/navimedi/reporter/pkg"
	"github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/model"
	"github.com/navimedi/reporter/pkg/opentelemetry"
	pkgRabbitmq "github.com/navimedi/reporter/pkg/rabbitmq"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel/attribute"
)

// sleepFunc is the function used for sleeping between retries.
// Overridable in tests for deterministic behavior.
var sleepFunc = func(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// ProducerRabbitMQRepository is a rabbitmq implementation of the producer
type ProducerRabbitMQRepository struct {
	conn pkgRabbitmq.ChannelProvider
}

// Compile-time interface satisfaction check.
var _ pkgRabbitmq.ProducerRepository = (*ProducerRabbitMQRepository)(nil)

// NewProducerRabbitMQ returns a new instance of ProducerRabbitMQRepository using the given rabbitmq connection.
// A failed first connect is logged and retried on the first publish.
func NewProducerRabbitMQ(c *pkgRabbitmq.RabbitMQConnection) *ProducerRabbitMQRepository {
	prmq := &ProducerRabbitMQRepository{
		conn: c,
	}

	if _, err := c.GetNewConnect(); err != nil {
		c.Logger.Errorf("Failed to connect to RabbitMQ during initialization: %v", err)
		c.Logger.Warn("RabbitMQ connection will be retried on first message publish")
	} else {
		c.Logger.Info("RabbitMQ producer connected successfully")
	}

	return prmq
}

// newProducer builds a producer over any channel provider.
func newProducer(conn pkgRabbitmq.ChannelProvider) *ProducerRabbitMQRepository {
	return &ProducerRabbitMQRepository{conn: conn}
}

// ProducerDefault publishes a persistent JSON message. Every attempt first restores the channel,
// and failures are retried up to ProducerMaxRetries times with jittered exponential backoff.
func (prmq *ProducerRabbitMQRepository) ProducerDefault(ctx context.Context, exchange, key string, queueMessage model.ReportMessage) (*string, error) {
	logger, tracer, reqID := pkg.NewTrackingFromContext(ctx)

	logger.Infof("Init sent message")

	ctx, spanProducer := tracer.Start(ctx, "repository.rabbitmq.publish_message")
	defer spanProducer.End()

	spanProducer.SetAttributes(
		attribute.String("app.request.request_id", reqID),
		attribute.String("app.request.exchange", exchange),
		attribute.String("app.request.key", key),
		attribute.String("app.request.report_id", queueMessage.ReportID.String()),
	)

	message, err := json.Marshal(queueMessage)
	if err != nil {
		opentelemetry.HandleSpanError(&spanProducer, "Failed to marshal queue message struct", err)

		logger.Errorf("Failed to marshal queue message struct")

		return nil, err
	}

	headers := amqp.Table{
		constant.HeaderRequestID:  reqID,
		constant.RetryCountHeader: int32(0),
	}

	pkgRabbitmq.InjectTraceHeaders(ctx, headers)

	var publishErr error

	for attempt := 0; attempt <= constant.ProducerMaxRetries; attempt++ {
		publishErr = prmq.publish(ctx, exchange, key, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    queueMessage.ReportID.String(),
			Timestamp:    time.Now().UTC(),
			Headers:      headers,
			Body:         message,
		})
		if publishErr == nil {
			logger.Infof("Message for report %s sent successfully", queueMessage.ReportID)

			return nil, nil
		}

		logger.Errorf("Publish failed (attempt %d/%d): %v", attempt+1, constant.ProducerMaxRetries+1, publishErr)

		spanProducer.SetAttributes(
			attribute.Int("app.request.rabbitmq.retry_attempt", attempt),
		)

		if attempt == constant.ProducerMaxRetries || ctx.Err() != nil {
			break
		}

		sleepDuration := pkg.PublishBackoff.Wait(attempt)

		logger.Infof("Retrying publish in %v (attempt %d/%d)", sleepDuration, attempt+1, constant.ProducerMaxRetries+1)

		sleepFunc(ctx, sleepDuration)
	}

	opentelemetry.HandleSpanError(&spanProducer, "Failed to publish message after all retries", publishErr)

	return nil, publishErr
}

func (prmq *ProducerRabbitMQRepository) publish(ctx context.Context, exchange, key string, msg amqp.Publishing) error {
	if err := prmq.conn.EnsureChannel(); err != nil {
		return err
	}

	ch := prmq.conn.GetChannel()
	if ch == nil {
		return pkgRabbitmq.ErrChannelUnavailable
	}

	return ch.PublishWithContext(ctx, exchange, key, false, false, msg)
}
