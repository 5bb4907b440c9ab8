// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package pongo

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// getNestedField retrieves a value from a nested map based on a dot-separated path. Returns the value and a boolean indicating success.
func getNestedField(m map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")

	var current any = m

	for _, part := range parts {
		currMap, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		current, ok = currMap[part]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

// toDecimal converts numeric template values to decimals.
func toDecimal(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case decimal.Decimal:
		return t, true
	case *decimal.Decimal:
		if t == nil {
			return decimal.Decimal{}, false
		}

		return *t, true
	case int:
		return decimal.NewFromInt(int64(t)), true
	case int32:
		return decimal.NewFromInt32(t), true
	case int64:
		return decimal.NewFromInt(t), true
	case float64:
		return decimal.NewFromFloat(t), true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(t))
		return d, err == nil
	default:
		return decimal.Decimal{}, false
	}
}

// groupThousands inserts comma separators into the integer part of a fixed-point string.
func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}

	intPart, frac := s, ""
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		intPart, frac = s[:idx], s[idx:]
	}

	var b strings.Builder

	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}

		b.WriteRune(r)
	}

	return sign + b.String() + frac
}

// formatDate renders dates as calendar days and passes other values through.
func formatDate(v any) (string, bool) {
	switch t := v.(type) {
	case time.Time:
		return t.Format("2006-01-02"), true
	case *time.Time:
		if t == nil {
			return "", true
		}

		return t.Format("2006-01-02"), true
	default:
		return "", false
	}
}
