package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"sim-sync/internal/domain"
	"sim-sync/pkg/jwt"
)

// AuthService issues the tokens the simulated API accepts. It stands in
// for the external identity provider.
type AuthService struct {
	jwtSecret         string
	jwtExpiration     time.Duration
	refreshExpiration time.Duration
}

func NewAuthService(jwtSecret string, jwtExp, refreshExp time.Duration) *AuthService {
	return &AuthService{
		jwtSecret:         jwtSecret,
		jwtExpiration:     jwtExp,
		refreshExpiration: refreshExp,
	}
}

// IssueSession creates an access and refresh token pair. An empty userID
// gets a fresh one.
func (s *AuthService) IssueSession(userID string) (*domain.SessionResponse, error) {
	if userID == "" {
		userID = uuid.New().String()
	}

	accessToken, err := jwt.GenerateToken(userID, s.jwtExpiration, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := jwt.GenerateRefreshToken(userID, s.refreshExpiration, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &domain.SessionResponse{
		UserID:       userID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtExpiration.Seconds()),
	}, nil
}

func (s *AuthService) RefreshToken(req *domain.RefreshTokenRequest) (*domain.TokenResponse, error) {
	claims, err := jwt.ValidateTokenOfType(req.RefreshToken, s.jwtSecret, jwt.TypeRefresh)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRefreshToken, err)
	}

	accessToken, err := jwt.GenerateToken(claims.UserID, s.jwtExpiration, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &domain.TokenResponse{
		AccessToken: accessToken,
		ExpiresIn:   int64(s.jwtExpiration.Seconds()),
	}, nil
}

// ValidateToken accepts access tokens only.
func (s *AuthService) ValidateToken(token string) (*jwt.Claims, error) {
	claims, err := jwt.ValidateTokenOfType(token, s.jwtSecret, jwt.TypeAccess)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return claims, nil
}
