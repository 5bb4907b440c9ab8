// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package client

import (
	"context"
	"errors"
)

//go:generate mockgen --destination=session.mock.go --package=client . SessionProvider

// ErrNoSession is returned by a SessionProvider without an authenticated caller.
var ErrNoSession = errors.New("no active session")

// Session is the authenticated caller: a user identity and its bearer token.
type Session struct {
	UserID string
	Token  string
}

// Valid reports whether both the user and the token are present.
func (s *Session) Valid() bool {
	return s != nil && s.UserID != "" && s.Token != ""
}

// SessionProvider exposes the current session. It is read at the moment of each request,
// the client never stores or refreshes credentials itself.
type SessionProvider interface {
	Session(ctx context.Context) (*Session, error)
}

// StaticSession is a SessionProvider with fixed credentials.
type StaticSession struct {
	UserID string
	Token  string
}

// Session implements SessionProvider.
func (s StaticSession) Session(_ context.Context) (*Session, error) {
	if s.UserID == "" || s.Token == "" {
		return nil, ErrNoSession
	}

	return &Session{UserID: s.UserID, Token: s.Token}, nil
}
