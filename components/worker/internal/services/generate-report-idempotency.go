// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package services

import (
	"context"

	"github.com/navimedi/reporter/pkg"
	"github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/redis"

	"github.com/google/uuid"
)

// acquireGenerationLock takes the SETNX lock of reportID. It returns false when another worker holds it,
// plus a release func that drops the lock. Redis failures let the generation proceed.
func (uc *UseCase) acquireGenerationLock(ctx context.Context, reportID uuid.UUID) (bool, func()) {
	noop := func() {}

	if uc.LockRepo == nil {
		return true, noop
	}

	logger := pkg.NewLoggerFromContext(ctx)
	key := redis.IdempotencyKey(constant.IdempotencyKeyPrefix, reportID.String())

	acquired, err := uc.LockRepo.SetNX(ctx, key, constant.ProcessingStatus, constant.IdempotencyTTL)
	if err != nil {
		logger.Warnf("Idempotency lock unavailable for report %s, continuing without it: %v", reportID, err)
		return true, noop
	}

	if !acquired {
		return false, noop
	}

	return true, func() {
		// The caller's context may already be cancelled.
		if err := uc.LockRepo.Del(context.WithoutCancel(ctx), key); err != nil {
			logger.Warnf("Failed to release idempotency lock %s: %v", key, err)
		}
	}
}
