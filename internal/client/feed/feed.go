// Package feed delivers row-update notifications for a single profile.
package feed

import (
	"context"

	"github.com/dmitrijs2005/profilesync/internal/client/models"
)

// Subscriber opens change-feed subscriptions filtered to one profile id.
// onRowUpdated is called from a single goroutine, in delivery order.
type Subscriber interface {
	Subscribe(ctx context.Context, id string, onRowUpdated func(models.Profile)) (Subscription, error)
}

// Subscription is a live change-feed channel. Unsubscribe releases it and is
// safe to call more than once.
type Subscription interface {
	ID() string
	Unsubscribe()
}

// TokenSource supplies the bearer token presented when joining a channel.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}
