// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/navimedi/reporter/pkg"
	"github.com/navimedi/reporter/pkg/constant"
	"github.com/navimedi/reporter/pkg/net/http"

	"github.com/gofiber/fiber/v2"
)

type principalKey struct{}

// AuthClient guards routes with bearer token authentication.
type AuthClient struct {
	Enabled bool
	tokens  *TokenService
}

// NewAuthClient returns an AuthClient. With enabled false every request runs as the anonymous principal.
func NewAuthClient(tokens *TokenService, enabled bool) *AuthClient {
	return &AuthClient{Enabled: enabled, tokens: tokens}
}

// anonymous is used when authentication is disabled, typically in local development.
var anonymous = Principal{
	Subject:     "anonymous",
	Name:        "anonymous",
	TenantID:    "default",
	Permissions: []string{constant.PermissionReportsRead, constant.PermissionReportsWrite},
}

// Authorize requires a valid bearer token carrying the "<resource>:<action>" permission.
func (a *AuthClient) Authorize(resource, action string) fiber.Handler {
	permission := fmt.Sprintf("%s:%s", resource, action)

	return func(c *fiber.Ctx) error {
		if !a.Enabled {
			p := anonymous
			setPrincipal(c, &p)

			return c.Next()
		}

		header := c.Get(constant.HeaderAuthorization)
		if !strings.HasPrefix(header, constant.BearerPrefix) {
			return http.WithError(c, pkg.ValidateBusinessError(constant.ErrMissingAuthorization, "Report"))
		}

		principal, err := a.tokens.Parse(strings.TrimSpace(strings.TrimPrefix(header, constant.BearerPrefix)))
		if err != nil {
			return http.WithError(c, pkg.ValidateBusinessError(err, "Report"))
		}

		if !principal.Can(permission) {
			return http.WithError(c, pkg.ValidateBusinessError(constant.ErrInsufficientPermission, "Report", permission))
		}

		setPrincipal(c, principal)

		return c.Next()
	}
}

func setPrincipal(c *fiber.Ctx, p *Principal) {
	c.Locals(constant.LocalsPrincipal, p)
	c.SetUserContext(ContextWithPrincipal(c.UserContext(), p))
}

// ContextWithPrincipal stores p in ctx.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal stored by Authorize, if any.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)

	return p, ok && p != nil
}
