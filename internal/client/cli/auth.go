package cli

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/profilesync/internal/common"
)

var errEmailRequired = errors.New("email address is required")

// getSimpleText and getCode are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getCode = GetCode

// SignIn requests a one-time code for the given (or prompted) email.
func (a *App) SignIn(ctx context.Context, args []string) error {
	email, err := a.argOrPrompt(args, "Email Address")
	if err != nil {
		return err
	}
	if email == "" {
		return errEmailRequired
	}

	if err := a.sessions.SendCode(ctx, email); err != nil {
		return err
	}
	a.email = email
	a.printf("Code sent to your email: %s. Type 'verify' to enter it.", email)
	return nil
}

// Verify reads the one-time code without echo and exchanges it for a
// session. The engine picks the new session up from the session store and
// routes to onboarding or main on its own.
func (a *App) Verify(ctx context.Context, args []string) error {
	email := a.email
	if len(args) > 0 {
		email = args[0]
	}
	if email == "" {
		return errEmailRequired
	}

	code, err := getCode(a.out, email)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(code)

	a.printf("Verifying...")
	if _, err := a.sessions.Verify(ctx, email, strings.TrimSpace(string(code))); err != nil {
		return err
	}
	a.email = email
	a.printf("Verified Successfully!")
	return nil
}

// Refresh rotates the session tokens ahead of expiry. The engine treats the
// rotated session as the same user and keeps its state.
func (a *App) Refresh(ctx context.Context) error {
	sess, err := a.sessions.Refresh(ctx)
	if err != nil {
		return err
	}
	if sess.ExpiresAt.IsZero() {
		a.printf("Session refreshed")
	} else {
		a.printf("Session refreshed, valid until %s", sess.ExpiresAt.Local().Format(time.DateTime))
	}
	return nil
}

// Logout signs out. Local state is cleared right away; the backend call
// finishes in the background.
func (a *App) Logout(ctx context.Context) error {
	if err := a.engine.SignOut(ctx); err != nil {
		return err
	}
	a.printf("Signed out")
	return nil
}

func (a *App) argOrPrompt(args []string, prompt string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	return getSimpleText(a.reader, prompt, a.out)
}
