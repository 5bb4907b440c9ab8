// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package client

import (
	"context"
	"slices"

	"github.com/navimedi/reporter/pkg"
)

// maxListFetchAttempts bounds the re-fetches of a list invalidated while in flight.
const maxListFetchAttempts = 2

// EmptyListMessage is the affordance shown when no report was generated yet.
const EmptyListMessage = "No reports generated yet."

// ListState is the display state of the report list. The states are mutually exclusive.
type ListState string

const (
	ListLoading   ListState = "loading"
	ListEmpty     ListState = "empty"
	ListPopulated ListState = "populated"
)

// ListView is what a report list screen renders.
type ListView struct {
	State   ListState
	Reports []GeneratedReport
	Message string
}

// Registry is the cached list of generated reports.
type Registry struct {
	api     *API
	cache   Cache[[]GeneratedReport]
	listKey string
}

// List returns the cached reports while fresh, otherwise fetches and caches them.
// An empty list is a valid result. The returned slice is a copy the caller may edit.
//
// A fetch that overlaps an invalidation is not cached and is retried once, so a list read
// before a creation never replaces the invalidated entry.
func (r *Registry) List(ctx context.Context) ([]GeneratedReport, error) {
	logger := pkg.NewLoggerFromContext(ctx)

	reports, ok, err := r.cache.Get(ctx, r.listKey)
	if err != nil {
		logger.Warnf("Report list cache unavailable, fetching: %v", err)
	} else if ok {
		return slices.Clone(reports), nil
	}

	for attempt := 1; ; attempt++ {
		gen, genErr := r.cache.Generation(ctx, r.listKey)

		reports, err = r.api.ListReports(ctx)
		if err != nil {
			logger.Errorf("Failed to list reports: %v", err)
			return nil, err
		}

		if genErr != nil {
			logger.Warnf("Report list cache unavailable, not caching %s: %v", r.listKey, genErr)
			return slices.Clone(reports), nil
		}

		stored, err := r.cache.PutIfGeneration(ctx, r.listKey, reports, gen)
		if err != nil {
			logger.Warnf("Failed to cache report list %s: %v", r.listKey, err)
			return slices.Clone(reports), nil
		}

		if stored || attempt == maxListFetchAttempts {
			return slices.Clone(reports), nil
		}

		logger.Debugf("Report list %s was invalidated during fetch, fetching again", r.listKey)
	}
}

// Refresh marks the cached list stale and fetches it again.
func (r *Registry) Refresh(ctx context.Context) ([]GeneratedReport, error) {
	if err := r.cache.SetStale(ctx, r.listKey); err != nil {
		pkg.NewLoggerFromContext(ctx).Warnf("Failed to mark report list %s stale: %v", r.listKey, err)
	}

	return r.List(ctx)
}

// View returns the current display state without any network call.
// Nothing cached yet means the list is still loading.
func (r *Registry) View(ctx context.Context) ListView {
	reports, ok, err := r.cache.Peek(ctx, r.listKey)
	if err != nil || !ok {
		return ListView{State: ListLoading}
	}

	if len(reports) == 0 {
		return ListView{State: ListEmpty, Message: EmptyListMessage}
	}

	return ListView{State: ListPopulated, Reports: slices.Clone(reports)}
}
