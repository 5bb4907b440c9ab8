// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package bootstrap

import (
	"context"
	"sync"

	"github.com/navimedi/reporter/pkg/rabbitmq"
)

// QueueRouter is the consumer surface used by the worker: handler registration and the run loop.
type QueueRouter interface {
	rabbitmq.ConsumerRepository
	OnDeadLetter(queueName string, fn rabbitmq.DeadLetterFunc)
}

// ReportGenerator processes generate-report jobs and finalizes dead-lettered ones.
type ReportGenerator interface {
	GenerateReport(ctx context.Context, body []byte) error
	HandleDeadLetter(ctx context.Context, body []byte, cause error)
}

// MultiQueueConsumer represents a multi-queue consumer.
type MultiQueueConsumer struct {
	consumerRoutes QueueRouter
}

// NewMultiQueueConsumer registers the report handlers on queue and returns the consumer.
func NewMultiQueueConsumer(routes QueueRouter, queue string, generator ReportGenerator) *MultiQueueConsumer {
	routes.Register(queue, generator.GenerateReport)
	routes.OnDeadLetter(queue, generator.HandleDeadLetter)

	return &MultiQueueConsumer{
		consumerRoutes: routes,
	}
}

// Run starts consumers for all registered queues and blocks until ctx ends and
// every in-flight delivery was settled.
func (mq *MultiQueueConsumer) Run(ctx context.Context) error {
	wg := &sync.WaitGroup{}

	if err := mq.consumerRoutes.RunConsumers(ctx, wg); err != nil {
		return err
	}

	<-ctx.Done()

	wg.Wait()

	return nil
}
