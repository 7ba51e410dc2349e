// Package auth persists the REST session and exposes it as a bearer token source.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"taskboard/internal/service"
)

// ErrNoSession is returned by Load when no session file exists.
var ErrNoSession = errors.New("not logged in")

// Session is the stored login: the bearer token issued by the store and the
// user it belongs to.
type Session struct {
	Token string       `json:"token"`
	User  service.User `json:"user"`
}

// FromCredentials builds a session from a login or registration response.
func FromCredentials(c service.Credentials) *Session {
	return &Session{Token: c.Token, User: c.User}
}

// Load reads a session file.
func Load(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("invalid session file: %w", err)
	}
	if s.Token == "" {
		return nil, ErrNoSession
	}
	return &s, nil
}

// Save writes the session with mode 0600.
func (s *Session) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Claims parses the token's registered claims without verifying the
// signature. The signing key belongs to the store; the client only reads
// expiry and subject.
func (s *Session) Claims() (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, claims); err != nil {
		return nil, fmt.Errorf("token is not a JWT: %w", err)
	}
	return claims, nil
}

// Expiry returns the token expiry when the token carries one.
func (s *Session) Expiry() (time.Time, bool) {
	claims, err := s.Claims()
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Expired reports whether the token has a known expiry before now.
// Opaque tokens are never considered expired locally; the store decides.
func (s *Session) Expired(now time.Time) bool {
	exp, ok := s.Expiry()
	return ok && !exp.After(now)
}

// TokenSource returns a static bearer token source for oauth2.NewClient.
func (s *Session) TokenSource() oauth2.TokenSource {
	tok := &oauth2.Token{
		AccessToken: s.Token,
		TokenType:   "Bearer",
	}
	if exp, ok := s.Expiry(); ok {
		tok.Expiry = exp
	}
	return oauth2.StaticTokenSource(tok)
}
