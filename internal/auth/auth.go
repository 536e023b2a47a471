// Package auth holds SecurityCenter session token state.
package auth

import "net/http"

// TokenHeader is the header SecurityCenter expects on authenticated calls.
const TokenHeader = "X-SecurityCenter"

// Session holds the token obtained from POST /rest/token.
// The zero value is an unauthenticated session.
type Session struct {
	token string
}

// SetToken stores the session token returned by a login call.
func (s *Session) SetToken(token string) {
	s.token = token
}

// Clear drops the stored token.
func (s *Session) Clear() {
	s.token = ""
}

// Apply adds the token header to an HTTP request, if a token is set.
func (s *Session) Apply(req *http.Request) {
	if s == nil || s.token == "" {
		return
	}
	req.Header.Set(TokenHeader, s.token)
}

// Authenticated reports whether a token is currently held.
func (s *Session) Authenticated() bool {
	return s != nil && s.token != ""
}
