package client

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/profilesync/internal/client/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type accessClaims struct {
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
	jwt.RegisteredClaims
}

// parseAccessToken decodes the claims of a GoTrue access token. The signature
// is not checked here; the backend verifies it on every request.
func parseAccessToken(token string) (*accessClaims, error) {
	claims := &accessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}

	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, fmt.Errorf("access token subject %q: %w", claims.Subject, err)
	}

	return claims, nil
}

// sessionFromTokens builds a Session from a token pair. expiresIn is used
// only when the access token carries no exp claim.
func sessionFromTokens(access, refresh string, expiresIn int64) (*models.Session, error) {
	claims, err := parseAccessToken(access)
	if err != nil {
		return nil, err
	}

	s := &models.Session{
		UserID:       claims.Subject,
		Email:        claims.Email,
		Metadata:     claims.UserMetadata,
		AccessToken:  access,
		RefreshToken: refresh,
	}

	switch {
	case claims.ExpiresAt != nil:
		s.ExpiresAt = claims.ExpiresAt.Time
	case expiresIn > 0:
		s.ExpiresAt = now().Add(time.Duration(expiresIn) * time.Second)
	}

	return s, nil
}
