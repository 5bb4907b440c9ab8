// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/model"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBodyApp(received *model.CreateReportInput) *fiber.App {
	app := fiber.New()
	app.Post("/reports", WithBody(new(model.CreateReportInput), func(p any, c *fiber.Ctx) error {
		*received = *p.(*model.CreateReportInput)
		return c.SendStatus(http.StatusNoContent)
	}))

	return app
}

func postBody(t *testing.T, app *fiber.App, body string) (int, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/reports", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	raw, _ := io.ReadAll(resp.Body)

	var payload map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &payload))
	}

	return resp.StatusCode, payload
}

func TestWithBody(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "valid payload",
			body:       `{"type":"laboratory_summary","format":"pdf","dateFrom":"2025-08-01","dateTo":"2025-08-31","includeTestResults":true}`,
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "empty body",
			body:       ``,
			wantStatus: http.StatusBadRequest,
			wantCode:   constant.ErrMissingRequiredFields.Error(),
		},
		{
			name:       "unknown field",
			body:       `{"type":"laboratory_summary","format":"pdf","dateFrom":"2025-08-01","dateTo":"2025-08-31","templateId":"x"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   constant.ErrUnexpectedFieldsInTheRequest.Error(),
		},
		{
			name:       "missing required fields",
			body:       `{"format":"pdf"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   constant.ErrMissingFieldsInRequest.Error(),
		},
		{
			name:       "unsupported type",
			body:       `{"type":"radiology","format":"pdf","dateFrom":"2025-08-01","dateTo":"2025-08-31"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   constant.ErrInvalidReportType.Error(),
		},
		{
			name:       "unsupported format",
			body:       `{"type":"test_volume","format":"docx","dateFrom":"2025-08-01","dateTo":"2025-08-31"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   constant.ErrInvalidOutputFormat.Error(),
		},
		{
			name:       "bad date layout",
			body:       `{"type":"test_volume","format":"csv","dateFrom":"08/01/2025","dateTo":"2025-08-31"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   constant.ErrInvalidDateFormat.Error(),
		},
		{
			name:       "wrong json type",
			body:       `{"type":12,"format":"csv","dateFrom":"2025-08-01","dateTo":"2025-08-31"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   constant.ErrBadRequest.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var received model.CreateReportInput

			status, payload := postBody(t, newBodyApp(&received), tt.body)
			assert.Equal(t, tt.wantStatus, status)

			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, payload["code"])
			}
		})
	}
}

func TestWithBody_DecodesFlags(t *testing.T) {
	var received model.CreateReportInput

	status, _ := postBody(t, newBodyApp(&received),
		`{"type":"billing_summary","format":"xlsx","dateFrom":"2025-08-01","dateTo":"2025-08-01","includeFinancials":true}`)

	require.Equal(t, http.StatusNoContent, status)
	assert.Equal(t, "billing_summary", received.Type)
	assert.True(t, received.IncludeFinancials)
	assert.False(t, received.IncludeCharts)
}

func TestExtractFieldNameFromUnmarshalError(t *testing.T) {
	msg := "json: cannot unmarshal number into Go struct field CreateReportInput.type of type string"
	assert.Equal(t, "type", extractFieldNameFromUnmarshalError(msg))
	assert.Equal(t, "", extractFieldNameFromUnmarshalError("unexpected end of JSON input"))
}
