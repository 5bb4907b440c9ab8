// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package pkg

import (
	"crypto/rand"
	"math/big"
	"time"

	"github.com/navimedi/reporter/pkg/constant"
)

// Backoff is an exponential retry schedule. Delays start at Initial, grow by Factor and stop at Max.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
	Factor  float64
}

// PublishBackoff paces retries of a report request publish on the manager.
var PublishBackoff = Backoff{
	Initial: constant.ProducerInitialBackoff,
	Max:     constant.ProducerMaxBackoff,
	Factor:  constant.ProducerBackoffFactor,
}

// RedeliveryBackoff paces report redeliveries and queue resubscribes on the worker.
var RedeliveryBackoff = Backoff{
	Initial: constant.RetryInitialBackoff,
	Max:     constant.RetryMaxBackoff,
	Factor:  constant.RetryBackoffFactor,
}

// Delay returns the un-jittered wait before retry attempt+1. Negative attempts count as 0.
func (b Backoff) Delay(attempt int) time.Duration {
	d := b.Initial
	if d > b.Max {
		return b.Max
	}

	for i := 0; i < attempt; i++ {
		d = b.Next(d)
		if d == b.Max {
			break
		}
	}

	return d
}

// Next grows current by Factor, capped at Max.
func (b Backoff) Next(current time.Duration) time.Duration {
	next := time.Duration(float64(current) * b.Factor)
	if next > b.Max {
		return b.Max
	}

	return next
}

// Jitter returns a random duration in [0, d], with d capped at Max.
// Full jitter keeps workers that lost the broker together from reconnecting in lockstep.
func (b Backoff) Jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}

	if d > b.Max {
		d = b.Max
	}

	n, err := rand.Int(rand.Reader, big.NewInt(int64(d)+1))
	if err != nil {
		return d / 2
	}

	return time.Duration(n.Int64())
}

// Wait is Jitter(Delay(attempt)).
func (b Backoff) Wait(attempt int) time.Duration {
	return b.Jitter(b.Delay(attempt))
}
