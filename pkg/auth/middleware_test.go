// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package auth

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/navimedi/reporter/pkg/constant"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProtectedApp(client *AuthClient) *fiber.App {
	app := fiber.New()
	app.Get("/v1/reports", client.Authorize("reports", "read"), func(c *fiber.Ctx) error {
		p, ok := PrincipalFromContext(c.UserContext())
		if !ok {
			return c.SendStatus(http.StatusInternalServerError)
		}

		return c.SendString(p.TenantID)
	})

	return app
}

func TestAuthorize(t *testing.T) {
	svc := NewTokenService("secret", "reporter")

	readToken, err := svc.Issue(labTech, time.Hour)
	require.NoError(t, err)

	noPermToken, err := svc.Issue(Principal{Subject: "u", TenantID: "clinic-01"}, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCode   string
	}{
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized, wantCode: constant.ErrMissingAuthorization.Error()},
		{name: "invalid token", header: "Bearer garbage", wantStatus: http.StatusUnauthorized, wantCode: constant.ErrInvalidToken.Error()},
		{name: "missing permission", header: "Bearer " + noPermToken, wantStatus: http.StatusForbidden, wantCode: constant.ErrInsufficientPermission.Error()},
		{name: "authorized", header: "Bearer " + readToken, wantStatus: http.StatusOK},
	}

	app := newProtectedApp(NewAuthClient(svc, true))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/reports", nil)
			if tt.header != "" {
				req.Header.Set(constant.HeaderAuthorization, tt.header)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			body, _ := io.ReadAll(resp.Body)

			if tt.wantCode == "" {
				assert.Equal(t, "clinic-01", string(body))
				return
			}

			var payload map[string]any
			require.NoError(t, json.Unmarshal(body, &payload))
			assert.Equal(t, tt.wantCode, payload["code"])
		})
	}
}

func TestAuthorize_Disabled(t *testing.T) {
	app := newProtectedApp(NewAuthClient(nil, false))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/v1/reports", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "default", string(body))
}
