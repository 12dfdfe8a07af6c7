// Package credentials holds the signed-in user's tokens and trades the
// refresh token for a new access token when the API rejects the current
// one.
package credentials

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"sim-sync/internal/domain"
)

var (
	ErrSessionGone   = errors.New("session is no longer valid")
	ErrRefreshFailed = errors.New("token refresh failed")
)

// Session is safe for concurrent use. Concurrent refreshes share a single
// request to the identity endpoint.
type Session struct {
	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	signedOut    bool
	onSignOut    []func()

	refreshURL string
	timeout    time.Duration
	httpClient *http.Client
	group      singleflight.Group
	logger     zerolog.Logger
}

func NewSession(accessToken, refreshToken, refreshURL string, timeout time.Duration, logger zerolog.Logger) *Session {
	return &Session{
		accessToken:  accessToken,
		refreshToken: refreshToken,
		refreshURL:   refreshURL,
		timeout:      timeout,
		httpClient:   &http.Client{Timeout: timeout},
		logger:       logger.With().Str("component", "credentials").Logger(),
	}
}

// CurrentToken returns the access token, or "" when signed out.
func (s *Session) CurrentToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.signedOut {
		return ""
	}
	return s.accessToken
}

// RefreshToken obtains a new access token from the identity endpoint and
// makes it current. The exchange is shared by concurrent callers and is
// not tied to any one caller's ctx; a caller whose ctx ends stops waiting
// with ctx.Err() while the exchange carries on for the others.
func (s *Session) RefreshToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	refresh, signedOut := s.refreshToken, s.signedOut
	s.mu.RUnlock()

	if signedOut || refresh == "" {
		return "", ErrSessionGone
	}

	ch := s.group.DoChan("refresh", func() (interface{}, error) {
		exchangeCtx, cancel := s.detached(ctx)
		defer cancel()

		token, err := s.exchange(exchangeCtx, refresh)
		if err != nil {
			return "", err
		}
		s.mu.Lock()
		if !s.signedOut {
			s.accessToken = token
		}
		s.mu.Unlock()
		return token, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		s.logger.Debug().Bool("shared", res.Shared).Msg("access token refreshed")
		return res.Val.(string), nil
	}
}

// detached keeps ctx's values but not its cancellation, bounded by the
// configured timeout.
func (s *Session) detached(ctx context.Context) (context.Context, context.CancelFunc) {
	parent := context.WithoutCancel(ctx)
	if s.timeout > 0 {
		return context.WithTimeout(parent, s.timeout)
	}
	return context.WithCancel(parent)
}

func (s *Session) exchange(ctx context.Context, refresh string) (string, error) {
	payload, err := json.Marshal(domain.RefreshTokenRequest{RefreshToken: refresh})
	if err != nil {
		return "", fmt.Errorf("failed to encode refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.refreshURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", ErrSessionGone
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("%w: status %d", ErrRefreshFailed, resp.StatusCode)
	}

	var tokenResp domain.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrRefreshFailed)
	}

	return tokenResp.AccessToken, nil
}

// SignOut drops both tokens and runs the sign-out hooks. Only the first
// call has any effect.
func (s *Session) SignOut() {
	s.mu.Lock()
	if s.signedOut {
		s.mu.Unlock()
		return
	}
	s.signedOut = true
	s.accessToken = ""
	s.refreshToken = ""
	hooks := append([]func(){}, s.onSignOut...)
	s.mu.Unlock()

	s.logger.Info().Msg("signed out")
	for _, hook := range hooks {
		hook()
	}
}

// OnSignOut registers fn to run when the session signs out.
func (s *Session) OnSignOut(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSignOut = append(s.onSignOut, fn)
}

func (s *Session) SignedOut() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.signedOut
}

// ExpiresAt reads the exp claim of the current access token without
// verifying its signature. The API remains the judge of validity.
func (s *Session) ExpiresAt() (time.Time, bool) {
	token := s.CurrentToken()
	if token == "" {
		return time.Time{}, false
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
