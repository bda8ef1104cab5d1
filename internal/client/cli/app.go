package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/dmitrijs2005/profilesync/internal/client/models"
	"github.com/dmitrijs2005/profilesync/internal/client/reconcile"
	"github.com/dmitrijs2005/profilesync/internal/logging"
	"golang.org/x/sync/errgroup"
)

// SessionActions is the part of the session store the CLI calls directly.
type SessionActions interface {
	SendCode(ctx context.Context, email string) error
	Verify(ctx context.Context, email, code string) (*models.Session, error)
	Refresh(ctx context.Context) (*models.Session, error)
}

// Engine is the reconciliation engine surface used by the CLI.
type Engine interface {
	Run(ctx context.Context) error
	CreateProfile(ctx context.Context, username string) error
	BeginEdit(ctx context.Context) (models.Profile, error)
	SetField(ctx context.Context, field models.Field, value string) error
	CommitEdit(ctx context.Context) error
	CancelEdit(ctx context.Context) error
	SignOut(ctx context.Context) error
	Snapshot() reconcile.Snapshot
	OnNavigate(handler func(reconcile.Destination)) (unsubscribe func())
}

type App struct {
	sessions SessionActions
	engine   Engine
	reader   *bufio.Reader
	out      io.Writer
	log      logging.Logger

	// email the last code was sent to; verify defaults to it
	email string
}

func NewApp(sessions SessionActions, engine Engine, in io.Reader, out io.Writer, log logging.Logger) *App {
	return &App{
		sessions: sessions,
		engine:   engine,
		reader:   bufio.NewReader(in),
		out:      out,
		log:      log.With("module", "cli"),
	}
}

// Run starts the engine and the REPL. It returns when the user exits or the
// engine fails.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.engine.Run(ctx)
	})
	g.Go(func() error {
		defer cancel()
		a.Root(ctx)
		return nil
	})
	return g.Wait()
}

func (a *App) isSignedIn() bool {
	return a.engine.Snapshot().State != reconcile.SignedOut
}

func (a *App) getStatus() string {
	s := a.engine.Snapshot()
	status := s.State.String()
	if s.User != nil {
		status = s.User.Username + " " + status
	}
	if s.Editing {
		status += " editing"
	}
	return fmt.Sprintf("(%s)", status)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format+"\n", args...)
}
