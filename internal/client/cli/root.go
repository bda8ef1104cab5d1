package cli

import (
	"context"

	"github.com/dmitrijs2005/profilesync/internal/client/reconcile"
)

// Root prints navigation signals while the REPL runs on the app's reader.
func (a *App) Root(ctx context.Context) {
	a.printf("Welcome to profilesync (type 'help' for commands)")

	unsubscribe := a.engine.OnNavigate(a.onNavigate)
	defer unsubscribe()

	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) onNavigate(d reconcile.Destination) {
	switch d {
	case reconcile.DestinationSignIn:
		a.printf("-> Login with Email: signin <email>")
	case reconcile.DestinationOnboarding:
		a.printf("-> Create Your Username: username <name>")
		a.printf("   This will be your unique identity")
	case reconcile.DestinationMain:
		if u := a.engine.Snapshot().User; u != nil {
			a.printf("-> Welcome, %s! Type 'show' to see your profile.", u.Username)
		} else {
			a.printf("-> Welcome!")
		}
	}
}
