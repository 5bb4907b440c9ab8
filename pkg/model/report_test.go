// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package model

import (
	"testing"
	"time"

	"github.com/navimedi/reporter/pkg/constant"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		from    string
		to      string
		wantErr error
	}{
		{name: "month", from: "2025-08-01", to: "2025-08-31"},
		{name: "single day", from: "2025-08-15", to: "2025-08-15"},
		{name: "exactly twelve months", from: "2025-01-01", to: "2026-01-01"},
		{name: "reversed", from: "2025-08-31", to: "2025-08-01", wantErr: constant.ErrInvalidFinalDate},
		{name: "bad layout", from: "01/08/2025", to: "2025-08-31", wantErr: constant.ErrInvalidDateFormat},
		{name: "too long", from: "2024-01-01", to: "2025-06-01", wantErr: constant.ErrDateRangeExceedsLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			from, to, err := ParseDateRange(tt.from, tt.to)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.False(t, to.Before(from))
		})
	}
}

func TestDefaultTitle(t *testing.T) {
	t.Parallel()

	from := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "Laboratory Summary Report (2025-08-01 to 2025-08-31)", DefaultTitle(constant.ReportTypeLaboratorySummary, from, to))
	assert.Equal(t, "custom Report (2025-08-01 to 2025-08-31)", DefaultTitle("custom", from, to))
}

func TestFileNameAndDownloadURL(t *testing.T) {
	t.Parallel()

	from := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC)

	name := FileName(constant.ReportTypeTurnaroundTime, constant.FormatXLSX, from, to)
	assert.Equal(t, "turnaround-time-2025-08-01-2025-08-31.xlsx", name)

	id := uuid.MustParse("0198c7a2-6f6e-7d51-9b1a-5f0d9a2c1e11")
	assert.Equal(t, "/v1/reports/download/0198c7a2-6f6e-7d51-9b1a-5f0d9a2c1e11/"+name, DownloadURL(id, name))
}

func TestCreateReportInput_Options(t *testing.T) {
	t.Parallel()

	in := CreateReportInput{IncludeTestResults: true, IncludeFinancials: true}
	assert.Equal(t, ReportOptions{IncludeTestResults: true, IncludeFinancials: true}, in.Options())
}
