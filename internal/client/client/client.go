package client

import (
	"context"

	"github.com/dmitrijs2005/profilesync/internal/client/models"
)

// AuthClient is the auth transport consumed by the session store.
type AuthClient interface {
	SendOneTimeCode(ctx context.Context, email string) error
	VerifyOneTimeCode(ctx context.Context, email, code string) (*models.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*models.Session, error)
	SignOut(ctx context.Context, accessToken string) error
}
