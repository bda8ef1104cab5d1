// Package profiles reads and writes the single profile row keyed by the
// session subject. Every call is a fresh round trip; nothing is cached.
//
// Errors returned by every implementation have already been classified
// (see Classify), so callers only need errors.Is against
// common.ErrorNotFound, common.ErrUsernameTaken and common.ErrRepository.
package profiles

import (
	"context"

	"github.com/dmitrijs2005/profilesync/internal/client/models"
)

type Repository interface {
	Fetch(ctx context.Context, id string) (*models.Profile, error)
	Create(ctx context.Context, id, username, defaultEmail, defaultName string) (*models.Profile, error)
	Update(ctx context.Context, id string, patch models.ProfilePatch) (*models.Profile, error)
}

// TokenSource supplies the bearer token of the current session.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}
