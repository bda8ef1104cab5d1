// Package bootstrap assembles the client runtime from a Config: local
// metadata store, session store, profile repository, change feed and the
// reconciliation engine. Both the CLI and the daemon start from here.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/profilesync/internal/client/client"
	"github.com/dmitrijs2005/profilesync/internal/client/config"
	"github.com/dmitrijs2005/profilesync/internal/client/feed"
	"github.com/dmitrijs2005/profilesync/internal/client/reconcile"
	"github.com/dmitrijs2005/profilesync/internal/client/repositories/profiles"
	"github.com/dmitrijs2005/profilesync/internal/client/services"
	"github.com/dmitrijs2005/profilesync/internal/cryptox"
	"github.com/dmitrijs2005/profilesync/internal/filex"
	"github.com/dmitrijs2005/profilesync/internal/logging"
	serverdb "github.com/dmitrijs2005/profilesync/internal/server/db"

	_ "modernc.org/sqlite"
)

var ErrUnknownBackend = errors.New("unknown storage backend")

// Runtime is a fully wired client. Close releases the databases.
type Runtime struct {
	Sessions *services.SessionStore
	Engine   *reconcile.Engine

	closers []func() error
}

// New builds a Runtime. The engine is constructed but not started.
func New(ctx context.Context, cfg *config.Config, log logging.Logger) (*Runtime, error) {
	rt := &Runtime{}
	ok := false
	defer func() {
		if !ok {
			rt.Close()
		}
	}()

	if _, err := filex.EnsureDir(cfg.DataDir); err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}
	deviceKey, err := filex.LoadOrCreateKey(cfg.DeviceKeyPath(), cryptox.KeySize)
	if err != nil {
		return nil, fmt.Errorf("device key: %w", err)
	}

	meta, err := client.InitDatabase(ctx, cfg.MetadataDSN())
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}
	rt.closers = append(rt.closers, meta.Close)

	hc := &http.Client{Timeout: cfg.RequestTimeout}

	auth := client.NewGoTrueClient(cfg.ProjectURL, cfg.AnonKey, hc, log)
	rt.Sessions = services.NewSessionStore(auth, meta, deviceKey, log)

	repo, err := rt.profileRepository(ctx, cfg, hc, log)
	if err != nil {
		return nil, err
	}

	sub, err := feed.NewRealtimeSubscriber(cfg.ProjectURL, cfg.AnonKey, rt.Sessions, cfg.HeartbeatInterval, log)
	if err != nil {
		return nil, fmt.Errorf("change feed: %w", err)
	}

	rt.Engine = reconcile.New(rt.Sessions, repo, sub, reconcile.Options{RequestTimeout: cfg.RequestTimeout}, log)

	ok = true
	return rt, nil
}

func (rt *Runtime) profileRepository(ctx context.Context, cfg *config.Config, hc *http.Client, log logging.Logger) (profiles.Repository, error) {
	switch cfg.StorageBackend {
	case config.BackendREST, "":
		return profiles.NewRESTRepository(cfg.ProjectURL, cfg.AnonKey, rt.Sessions, hc, log), nil
	case config.BackendPostgres:
		db, err := serverdb.Open(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, db.Close)
		return profiles.NewPostgresRepository(db), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.StorageBackend)
	}
}

// Close releases everything New opened, in reverse order.
func (rt *Runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		errs = append(errs, rt.closers[i]())
	}
	rt.closers = nil
	return errors.Join(errs...)
}
