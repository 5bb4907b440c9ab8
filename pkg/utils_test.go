// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNilOrEmpty(t *testing.T) {
	t.Parallel()

	empty, blank, null, value := "", "   ", "null", "pdf"

	assert.True(t, IsNilOrEmpty(nil))
	assert.True(t, IsNilOrEmpty(&empty))
	assert.True(t, IsNilOrEmpty(&blank))
	assert.True(t, IsNilOrEmpty(&null))
	assert.False(t, IsNilOrEmpty(&value))
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "laboratory_summary", want: "laboratory-summary"},
		{in: "Laboratory Summary Report (2025-08-01 to 2025-08-31)", want: "laboratory-summary-report-2025-08-01-to-2025-08-31"},
		{in: "  --  ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "abc", Truncate("abc", 10))
	assert.Equal(t, "ab", Truncate("abc", 2))
}
