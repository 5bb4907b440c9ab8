// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

// Package auth issues and validates the bearer tokens accepted by the manager.
package auth

import (
	"errors"
	"slices"
	"time"

	"github.com/navimedi/reporter/pkg/constant"

	"github.com/golang-jwt/jwt/v5"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	Subject     string   `json:"sub"`
	Name        string   `json:"name"`
	TenantID    string   `json:"tenantId"`
	Permissions []string `json:"permissions"`
}

// Can reports whether the principal holds permission.
func (p *Principal) Can(permission string) bool {
	return slices.Contains(p.Permissions, permission)
}

// DisplayName is the name recorded as generatedBy on reports.
func (p *Principal) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}

	return p.Subject
}

// Claims is the JWT payload.
type Claims struct {
	Name        string   `json:"name,omitempty"`
	TenantID    string   `json:"tenantId"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// TokenService signs and parses HS256 tokens with a shared secret.
type TokenService struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewTokenService returns a TokenService for the given secret and issuer.
func NewTokenService(secret, issuer string) *TokenService {
	return &TokenService{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// Issue signs a token for principal valid for ttl.
func (s *TokenService) Issue(principal Principal, ttl time.Duration) (string, error) {
	now := s.now()

	claims := Claims{
		Name:        principal.Name,
		TenantID:    principal.TenantID,
		Permissions: principal.Permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.Subject,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Parse validates token and returns its principal. Expired tokens yield ErrTokenExpired,
// any other failure ErrInvalidToken.
func (s *TokenService) Parse(token string) (*Principal, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, constant.ErrTokenExpired
		}

		return nil, constant.ErrInvalidToken
	}

	if claims.Subject == "" || claims.TenantID == "" {
		return nil, constant.ErrInvalidToken
	}

	return &Principal{
		Subject:     claims.Subject,
		Name:        claims.Name,
		TenantID:    claims.TenantID,
		Permissions: claims.Permissions,
	}, nil
}
