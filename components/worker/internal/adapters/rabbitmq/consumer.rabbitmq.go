// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package rabbitmq

import (
	"context"
	"errors"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/navimedi/reporter/pkg"
	"github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/log"
	"github.com/navimedi/reporter/pkg/metrics"
	"github.com/navimedi/reporter/pkg/opentelemetry"
	pkgRabbitmq "github.com/navimedi/reporter/pkg/rabbitmq"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Delivery outcomes recorded per processed message.
const (
	outcomeAck        = "ack"
	outcomeRetry      = "retry"
	outcomeRequeue    = "requeue"
	outcomeDeadLetter = "dead_letter"
)

// ConsumerRoutes runs a pool of workers per registered queue.
type ConsumerRoutes struct {
	conn        pkgRabbitmq.ChannelProvider
	routes      map[string]pkgRabbitmq.QueueHandlerFunc
	deadLetters map[string]pkgRabbitmq.DeadLetterFunc
	numWorkers  int
	prefetch    int
	metrics     *metrics.Metrics
	tracer      trace.Tracer
	log.Logger

	// sleep waits d or until ctx ends, reporting whether the full delay elapsed.
	sleep func(ctx context.Context, d time.Duration) bool
}

// Compile-time interface satisfaction check.
var _ pkgRabbitmq.ConsumerRepository = (*ConsumerRoutes)(nil)

// NewConsumerRoutes creates a new instance of ConsumerRoutes. Zero workers or prefetch fall back to the defaults.
func NewConsumerRoutes(conn pkgRabbitmq.ChannelProvider, numWorkers, prefetch int, logger log.Logger, tracer trace.Tracer, m *metrics.Metrics) (*ConsumerRoutes, error) {
	if conn == nil {
		return nil, pkgRabbitmq.ErrChannelUnavailable
	}

	if numWorkers <= 0 {
		numWorkers = constant.DefaultWorkerCount
	}

	if prefetch <= 0 {
		prefetch = constant.DefaultPrefetch
	}

	if logger == nil {
		logger = &log.NoneLogger{}
	}

	if tracer == nil {
		tracer = otel.Tracer(constant.ApplicationName)
	}

	if m == nil {
		m = metrics.NoopMetrics()
	}

	if err := conn.EnsureChannel(); err != nil {
		return nil, err
	}

	return &ConsumerRoutes{
		conn:        conn,
		routes:      make(map[string]pkgRabbitmq.QueueHandlerFunc),
		deadLetters: make(map[string]pkgRabbitmq.DeadLetterFunc),
		numWorkers:  numWorkers,
		prefetch:    prefetch,
		metrics:     m,
		tracer:      tracer,
		Logger:      logger,
		sleep:       sleepContext,
	}, nil
}

// Register add a new queue to handler.
func (cr *ConsumerRoutes) Register(queueName string, handler pkgRabbitmq.QueueHandlerFunc) {
	cr.routes[queueName] = handler
}

// OnDeadLetter sets the callback run after a delivery of queueName is dead-lettered.
func (cr *ConsumerRoutes) OnDeadLetter(queueName string, fn pkgRabbitmq.DeadLetterFunc) {
	cr.deadLetters[queueName] = fn
}

// RunConsumers subscribes to every registered queue and starts its workers.
// Each queue resubscribes on its own when the broker channel drops, until ctx ends.
func (cr *ConsumerRoutes) RunConsumers(ctx context.Context, wg *sync.WaitGroup) error {
	for queueName, handler := range cr.routes {
		cr.Info("Starting consumer for queue " + queueName)

		messages, err := cr.subscribe(queueName)
		if err != nil {
			return err
		}

		wg.Add(1)

		pkg.GoNamed(cr.Logger, "queue-supervisor:"+queueName, func() {
			cr.superviseQueue(ctx, wg, queueName, handler, messages)
		})
	}

	return nil
}

// subscribe sets QoS and opens a manual-ack consumer on queueName.
func (cr *ConsumerRoutes) subscribe(queueName string) (<-chan amqp.Delivery, error) {
	if err := cr.conn.EnsureChannel(); err != nil {
		return nil, err
	}

	ch := cr.conn.GetChannel()
	if ch == nil {
		return nil, pkgRabbitmq.ErrChannelUnavailable
	}

	if err := ch.Qos(cr.prefetch, 0, false); err != nil {
		return nil, err
	}

	return ch.Consume(queueName, "", false, false, false, false, nil)
}

func (cr *ConsumerRoutes) superviseQueue(ctx context.Context, wg *sync.WaitGroup, queue string, handler pkgRabbitmq.QueueHandlerFunc, messages <-chan amqp.Delivery) {
	defer wg.Done()

	for {
		var workers sync.WaitGroup

		cr.startWorkers(ctx, &workers, messages, queue, handler)
		workers.Wait()

		if ctx.Err() != nil {
			return
		}

		cr.Warnf("Delivery channel of queue %s closed, resubscribing", queue)

		var err error

		for attempt := 0; ; attempt++ {
			if attempt > constant.MaxMessageRetries {
				attempt = constant.MaxMessageRetries
			}

			if !cr.sleep(ctx, pkgRabbitmq.CalculateBackoff(attempt)) {
				return
			}

			messages, err = cr.subscribe(queue)
			if err == nil {
				cr.Infof("Resubscribed to queue %s", queue)
				break
			}

			cr.Errorf("Failed to resubscribe to queue %s: %v", queue, err)
		}
	}
}

func (cr *ConsumerRoutes) startWorkers(ctx context.Context, wg *sync.WaitGroup, messages <-chan amqp.Delivery, queueName string, handler pkgRabbitmq.QueueHandlerFunc) {
	for i := 0; i < cr.numWorkers; i++ {
		wg.Add(1)

		workerID := i

		pkg.GoNamed(cr.Logger, pkg.WorkerName("report-worker", queueName, workerID), func() {
			defer wg.Done()

			cr.metrics.ConsumersActive.Add(ctx, 1)
			defer cr.metrics.ConsumersActive.Add(context.WithoutCancel(ctx), -1)

			for {
				select {
				case <-ctx.Done():
					cr.Infof("Worker %d: Shutting down gracefully", workerID)
					return
				case message, ok := <-messages:
					if !ok {
						cr.Infof("Worker %d: Message channel closed", workerID)
						return
					}

					cr.processMessage(workerID, queueName, handler, message)
				}
			}
		})
	}
}

// processMessage runs handlerFunc on one delivery and settles it.
// In-flight work is not bound to the consumer context so shutdown lets it finish.
func (cr *ConsumerRoutes) processMessage(workerID int, queue string, handlerFunc pkgRabbitmq.QueueHandlerFunc, message amqp.Delivery) {
	requestID := pkgRabbitmq.RequestID(message.Headers)
	if requestID == "" {
		requestID = newRequestID()
	}

	logger := cr.Logger.WithFields(constant.HeaderRequestID, requestID)

	ctx := pkg.ContextWithLogger(context.Background(), logger)
	ctx = pkg.ContextWithTracer(ctx, cr.tracer)
	ctx = pkg.ContextWithRequestID(ctx, requestID)
	ctx = pkgRabbitmq.ExtractTraceContext(ctx, message.Headers)

	ctx, span := cr.tracer.Start(ctx, "repository.rabbitmq.process_message")
	defer span.End()

	retryCount := pkgRabbitmq.GetRetryCount(message.Headers)

	span.SetAttributes(
		attribute.String("app.request.rabbitmq.consumer.request_id", requestID),
		attribute.String("app.request.rabbitmq.consumer.queue", queue),
		attribute.Int("app.request.rabbitmq.consumer.retry_count", retryCount),
	)

	logger.Infof("Worker %d: Starting processing for queue %s (attempt %d)", workerID, queue, retryCount+1)

	err := cr.runHandler(ctx, handlerFunc, message.Body)
	if err != nil {
		logger.Errorf("Worker %d: Error processing message from queue %s: %v", workerID, queue, err)
		opentelemetry.HandleSpanError(&span, "Error processing message", err)

		cr.handleFailedMessage(ctx, workerID, queue, message, err, retryCount, &span)

		return
	}

	_ = message.Ack(false)

	cr.metrics.RecordDelivery(ctx, queue, outcomeAck)

	logger.Infof("Worker %d: Successfully processed message from queue %s", workerID, queue)
}

// runHandler turns a handler panic into an error so the delivery is still settled.
func (cr *ConsumerRoutes) runHandler(ctx context.Context, handlerFunc pkgRabbitmq.QueueHandlerFunc, body []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			cr.Errorf("Panic recovered in queue handler: %v\nStack: %s", r, string(debug.Stack()))
			err = errHandlerPanic
		}
	}()

	return handlerFunc(ctx, body)
}

var errHandlerPanic = errors.New("queue handler panicked")

// handleFailedMessage dead-letters non-retryable errors and exhausted deliveries.
// Retryable errors are republished with an incremented x-retry-count after a jittered backoff.
func (cr *ConsumerRoutes) handleFailedMessage(ctx context.Context, workerID int, queue string, message amqp.Delivery, err error, retryCount int, span *trace.Span) {
	logger := pkg.NewLoggerFromContext(ctx)

	if !isRetryable(err) {
		logger.Infof("Worker %d: Non-retryable error for queue %s, sending to DLQ: %v", workerID, queue, err)
		opentelemetry.HandleSpanBusinessErrorEvent(span, "Non-retryable business error, routing to DLQ", err)

		cr.deadLetter(ctx, queue, message, err)

		return
	}

	if retryCount >= constant.MaxMessageRetries {
		logger.Errorf("Worker %d: Max retries (%d) exceeded for queue %s, sending to DLQ: %v",
			workerID, constant.MaxMessageRetries, queue, err)
		opentelemetry.HandleSpanError(span, "Max retries exceeded, routing to DLQ", err)

		cr.deadLetter(ctx, queue, message, err)

		return
	}

	backoff := pkgRabbitmq.CalculateBackoff(retryCount)

	logger.Infof("Worker %d: Retryable error for queue %s (attempt %d/%d), backoff %v before requeue: %v",
		workerID, queue, retryCount+1, constant.MaxMessageRetries, backoff, err)

	cr.sleep(ctx, backoff)

	if pubErr := cr.republish(ctx, queue, message, retryCount, err); pubErr != nil {
		logger.Errorf("Worker %d: Failed to republish message for retry, requeueing: %v", workerID, pubErr)

		_ = message.Nack(false, true)

		cr.metrics.RecordDelivery(ctx, queue, outcomeRequeue)

		return
	}

	_ = message.Ack(false)

	cr.metrics.RecordDelivery(ctx, queue, outcomeRetry)
}

// republish sends a copy of message straight to queue through the default exchange, carrying the retry headers.
func (cr *ConsumerRoutes) republish(ctx context.Context, queue string, message amqp.Delivery, retryCount int, cause error) error {
	if err := cr.conn.EnsureChannel(); err != nil {
		return err
	}

	ch := cr.conn.GetChannel()
	if ch == nil {
		return pkgRabbitmq.ErrChannelUnavailable
	}

	headers := pkgRabbitmq.RetryHeaders(message.Headers, retryCount, cause.Error())
	pkgRabbitmq.InjectTraceHeaders(ctx, headers)

	return ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  message.ContentType,
		DeliveryMode: amqp.Persistent,
		MessageId:    message.MessageId,
		Headers:      headers,
		Body:         message.Body,
	})
}

// deadLetter rejects message without requeue, routing it to the DLX, then runs the queue callback.
func (cr *ConsumerRoutes) deadLetter(ctx context.Context, queue string, message amqp.Delivery, cause error) {
	_ = message.Nack(false, false)

	cr.metrics.RecordDelivery(ctx, queue, outcomeDeadLetter)

	if fn, ok := cr.deadLetters[queue]; ok && fn != nil {
		fn(ctx, message.Body, cause)
	}
}

// isRetryable classifies an error as retryable or non-retryable.
// Business errors (RPT-XXXX codes) and cancellation never succeed on retry.
// Timeouts, network and unknown errors are retried.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) {
		return false
	}

	var validationErr pkg.ValidationError
	if errors.As(err, &validationErr) {
		return false
	}

	var notFoundErr pkg.EntityNotFoundError
	if errors.As(err, &notFoundErr) {
		return false
	}

	var forbiddenErr pkg.ForbiddenError
	if errors.As(err, &forbiddenErr) {
		return false
	}

	var knownFieldsErr pkg.ValidationKnownFieldsError
	if errors.As(err, &knownFieldsErr) {
		return false
	}

	var unknownFieldsErr pkg.ValidationUnknownFieldsError
	if errors.As(err, &unknownFieldsErr) {
		return false
	}

	return !strings.HasPrefix(err.Error(), "RPT-")
}

func newRequestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
