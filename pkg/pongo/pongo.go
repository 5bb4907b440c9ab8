// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

// Package pongo renders report HTML with pongo2 templates, custom filters and aggregation tags.
package pongo

import (
	"fmt"

	"github.com/flosch/pongo2/v6"
)

// init registers the custom filters and aggregation tags with pongo2.
func init() {
	filters := map[string]pongo2.FilterFunction{
		"cell":        cellFilter,
		"format_kind": formatKindFilter,
		"money":       moneyFilter,
		"percent_of":  percentOfFilter,
	}

	for name, fn := range filters {
		if err := pongo2.RegisterFilter(name, fn); err != nil {
			panic(fmt.Sprintf("Failed to register filter '%s': %s", name, err.Error()))
		}
	}

	tags := []struct {
		name string
		op   string
	}{
		{"sum_by", "sum"},
		{"count_by", "count"},
		{"avg_by", "avg"},
		{"min_by", "min"},
		{"max_by", "max"},
	}

	for _, tag := range tags {
		if err := pongo2.RegisterTag(tag.name, makeAggregateTag(tag.op)); err != nil {
			panic(fmt.Sprintf("Failed to register tag '%s': %s", tag.name, err.Error()))
		}
	}
}
