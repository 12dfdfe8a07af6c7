package service

import (
	"errors"
	"testing"
	"time"

	"sim-sync/internal/domain"
	. "sim-sync/pkg/jwt"
)

func TestAuthService_IssueSession(t *testing.T) {
	service := NewAuthService("test-secret", 15*time.Minute, 7*24*time.Hour)

	tests := []struct {
		name   string
		userID string
	}{
		{name: "given user", userID: "user-32"},
		{name: "generated user", userID: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := service.IssueSession(tt.userID)
			if err != nil {
				t.Fatalf("IssueSession() error = %v", err)
			}
			if tt.userID != "" && session.UserID != tt.userID {
				t.Errorf("UserID = %q, want %q", session.UserID, tt.userID)
			}
			if session.UserID == "" {
				t.Error("expected a user id")
			}
			if session.ExpiresIn != 900 {
				t.Errorf("ExpiresIn = %d, want 900", session.ExpiresIn)
			}

			claims, err := service.ValidateToken(session.AccessToken)
			if err != nil {
				t.Fatalf("ValidateToken() error = %v", err)
			}
			if claims.UserID != session.UserID {
				t.Errorf("claims.UserID = %q, want %q", claims.UserID, session.UserID)
			}

			if _, err := service.ValidateToken(session.RefreshToken); err == nil {
				t.Error("a refresh token must not be accepted as an access token")
			}
		})
	}
}

func TestAuthService_RefreshToken(t *testing.T) {
	service := NewAuthService("test-secret", 15*time.Minute, 7*24*time.Hour)

	session, err := service.IssueSession("user-32")
	if err != nil {
		t.Fatalf("IssueSession() error = %v", err)
	}

	expiredRefresh, _ := GenerateRefreshToken("user-32", -time.Hour, "test-secret")
	foreignRefresh, _ := GenerateRefreshToken("user-32", time.Hour, "other-secret")

	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{name: "valid refresh token", token: session.RefreshToken},
		{name: "access token", token: session.AccessToken, wantErr: true},
		{name: "expired", token: expiredRefresh, wantErr: true},
		{name: "wrong secret", token: foreignRefresh, wantErr: true},
		{name: "garbage", token: "not-a-token", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := service.RefreshToken(&domain.RefreshTokenRequest{RefreshToken: tt.token})
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRefreshToken) {
					t.Errorf("expected ErrInvalidRefreshToken, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("RefreshToken() error = %v", err)
			}
			claims, err := ValidateToken(resp.AccessToken, "test-secret")
			if err != nil {
				t.Fatalf("issued token invalid: %v", err)
			}
			if claims.UserID != "user-32" || claims.Type != TypeAccess {
				t.Errorf("unexpected claims %+v", claims)
			}
		})
	}
}
