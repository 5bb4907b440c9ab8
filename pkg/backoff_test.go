// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package pkg

import (
	"testing"
	"time"

	"github.com/navimedi/reporter/pkg/constant"

	"github.com/stretchr/testify/assert"
)

func TestBackoff_Delay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		backoff Backoff
		attempt int
		want    time.Duration
	}{
		{name: "publish first retry", backoff: PublishBackoff, attempt: 0, want: 500 * time.Millisecond},
		{name: "publish doubles", backoff: PublishBackoff, attempt: 3, want: 4 * time.Second},
		{name: "publish capped", backoff: PublishBackoff, attempt: 5, want: constant.ProducerMaxBackoff},
		{name: "publish stays capped", backoff: PublishBackoff, attempt: 40, want: constant.ProducerMaxBackoff},
		{name: "negative attempt is first retry", backoff: PublishBackoff, attempt: -2, want: 500 * time.Millisecond},
		{name: "redelivery first retry", backoff: RedeliveryBackoff, attempt: 0, want: time.Second},
		{name: "redelivery fifth retry", backoff: RedeliveryBackoff, attempt: 4, want: 16 * time.Second},
		{name: "redelivery capped", backoff: RedeliveryBackoff, attempt: constant.MaxMessageRetries, want: constant.RetryMaxBackoff},
		{
			name:    "initial above max is clamped",
			backoff: Backoff{Initial: time.Minute, Max: time.Second, Factor: 2},
			attempt: 0,
			want:    time.Second,
		},
		{
			name:    "factor one keeps a flat schedule",
			backoff: Backoff{Initial: 3 * time.Second, Max: time.Minute, Factor: 1},
			attempt: 7,
			want:    3 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, tt.backoff.Delay(tt.attempt))
		})
	}
}

func TestBackoff_PublishProgression(t *testing.T) {
	t.Parallel()

	want := []time.Duration{
		500 * time.Millisecond,
		time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		constant.ProducerMaxBackoff,
		constant.ProducerMaxBackoff,
	}

	d := PublishBackoff.Initial

	for i, w := range want {
		assert.Equal(t, w, d, "step %d", i)
		d = PublishBackoff.Next(d)
	}
}

func TestBackoff_Jitter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		delay time.Duration
		max   time.Duration
	}{
		{name: "zero", delay: 0, max: 0},
		{name: "negative", delay: -time.Second, max: 0},
		{name: "below cap", delay: 2 * time.Second, max: 2 * time.Second},
		{name: "above cap", delay: time.Hour, max: constant.RetryMaxBackoff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			for i := 0; i < 100; i++ {
				got := RedeliveryBackoff.Jitter(tt.delay)
				assert.GreaterOrEqual(t, got, time.Duration(0))
				assert.LessOrEqual(t, got, tt.max)
			}
		})
	}
}

func TestBackoff_WaitSpreadsWorkers(t *testing.T) {
	t.Parallel()

	seen := make(map[time.Duration]struct{})

	for i := 0; i < 50; i++ {
		d := RedeliveryBackoff.Wait(2)
		assert.LessOrEqual(t, d, 4*time.Second)

		seen[d] = struct{}{}
	}

	assert.Greater(t, len(seen), 1, "workers retrying together should not wait the same time")
}
