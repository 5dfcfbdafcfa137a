// Package session carries the put.io access token into each request.
package session

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/oauth2"
)

// Session supplies access tokens. A nil *Session behaves like Anonymous.
type Session struct {
	src oauth2.TokenSource
}

// Static returns a session for a fixed OAuth token. An empty token yields
// an anonymous session.
func Static(token string) *Session {
	token = strings.TrimSpace(token)
	if token == "" {
		return Anonymous()
	}
	return &Session{src: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})}
}

// FromTokenSource wraps any oauth2.TokenSource, reusing tokens until they
// expire.
func FromTokenSource(ts oauth2.TokenSource) *Session {
	if ts == nil {
		return Anonymous()
	}
	return &Session{src: oauth2.ReuseTokenSource(nil, ts)}
}

// Anonymous returns a session without credentials.
func Anonymous() *Session {
	return &Session{}
}

// ErrNoToken is returned by Token when the session has no credentials.
var ErrNoToken = errors.New("session: no access token")

// Token returns the current access token.
func (s *Session) Token() (string, error) {
	if s == nil || s.src == nil {
		return "", ErrNoToken
	}
	tok, err := s.src.Token()
	if err != nil {
		return "", err
	}
	if tok == nil || tok.AccessToken == "" {
		return "", ErrNoToken
	}
	return tok.AccessToken, nil
}

// AccessToken returns the token and whether one is available. Token source
// failures are reported as no token.
func (s *Session) AccessToken(ctx context.Context) (string, bool) {
	if ctx != nil && ctx.Err() != nil {
		return "", false
	}
	tok, err := s.Token()
	if err != nil {
		return "", false
	}
	return tok, true
}
