// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/navimedi/reporter/pkg"
)

// Poller waits for pending reports to reach a terminal status.
type Poller struct {
	api      *API
	cache    Cache[[]GeneratedReport]
	listKey  string
	interval time.Duration
}

// Await polls the report every interval until it is completed or failed, then invalidates the
// report list. A failed report is returned without error; callers inspect Status.
// A ctx deadline stops polling with a *TimeoutError; cancelling ctx returns context.Canceled.
func (p *Poller) Await(ctx context.Context, id string) (*GeneratedReport, error) {
	logger := pkg.NewLoggerFromContext(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		report, err := p.api.GetReport(ctx, id)
		if err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil, fmt.Errorf("await report %s: %w", id, ctx.Err())
			}

			return nil, err
		}

		if report.Terminal() {
			if err := p.cache.Invalidate(ctx, p.listKey); err != nil {
				logger.Warnf("Failed to invalidate report list cache %s: %v", p.listKey, err)
			}

			return report, nil
		}

		logger.Debugf("Report %s is %s, polling again in %s", id, report.Status, p.interval)

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, &TimeoutError{Operation: "await report " + id, Err: ctx.Err()}
			}

			return nil, fmt.Errorf("await report %s: %w", id, ctx.Err())
		case <-ticker.C:
		}
	}
}
