package auth

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jlvsolutions/WorldCities-sub000/pkg/metrics"
)

// ErrRefreshToken is returned for unknown, expired or revoked refresh tokens.
var ErrRefreshToken = errors.New("invalid refresh token")

type refreshToken struct {
	userID  string
	expires time.Time
}

// RefreshStore keeps issued refresh tokens in memory. Every token is single
// use: Rotate consumes it and issues the next one.
type RefreshStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	tokens map[string]refreshToken
}

// NewRefreshStore returns a store issuing tokens valid for ttl.
func NewRefreshStore(ttl time.Duration) *RefreshStore {
	return &RefreshStore{ttl: ttl, now: time.Now, tokens: map[string]refreshToken{}}
}

// Issue creates a refresh token for userID.
func (s *RefreshStore) Issue(userID string) (string, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueLocked(userID)
}

func (s *RefreshStore) issueLocked(userID string) (string, time.Time) {
	tok := uuid.NewString()
	exp := s.now().Add(s.ttl)
	s.tokens[tok] = refreshToken{userID: userID, expires: exp}
	metrics.RefreshTokens.Set(float64(len(s.tokens)))
	return tok, exp
}

// Rotate consumes tok and issues a replacement for the same user.
func (s *RefreshStore) Rotate(tok string) (userID, next string, exp time.Time, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rt, ok := s.tokens[tok]
	delete(s.tokens, tok)
	if !ok || !s.now().Before(rt.expires) {
		metrics.RefreshTokens.Set(float64(len(s.tokens)))
		return "", "", time.Time{}, ErrRefreshToken
	}
	next, exp = s.issueLocked(rt.userID)
	return rt.userID, next, exp, nil
}

// Owner returns the user tok was issued to.
func (s *RefreshStore) Owner(tok string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rt, ok := s.tokens[tok]
	return rt.userID, ok
}

// Revoke drops tok. It reports whether the token existed.
func (s *RefreshStore) Revoke(tok string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tokens[tok]
	delete(s.tokens, tok)
	metrics.RefreshTokens.Set(float64(len(s.tokens)))
	return ok
}

// Purge drops expired tokens and returns how many were removed.
func (s *RefreshStore) Purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for k, rt := range s.tokens {
		if !now.Before(rt.expires) {
			delete(s.tokens, k)
			n++
		}
	}
	metrics.RefreshTokens.Set(float64(len(s.tokens)))
	metrics.PurgedRefreshTokens.Add(float64(n))
	return n
}

// Len returns the number of live tokens.
func (s *RefreshStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}
