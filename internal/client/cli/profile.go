package cli

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/profilesync/internal/client/models"
)

// Username completes onboarding. The value is passed to the engine exactly as
// typed so validation sees embedded spaces.
func (a *App) Username(ctx context.Context, args []string) error {
	name, err := a.argOrPrompt(args, "Enter username here...")
	if err != nil {
		return err
	}
	if err := a.engine.CreateProfile(ctx, name); err != nil {
		return err
	}
	a.printf("Username saved")
	return nil
}

// Show prints the authoritative profile and, while editing, the draft.
func (a *App) Show(ctx context.Context) error {
	s := a.engine.Snapshot()
	if s.User == nil {
		a.printf("No profile loaded (%s)", s.State)
		return nil
	}
	a.printProfile(*s.User)
	if s.Editing && s.Draft != nil {
		a.printf("")
		a.printf("Editing (unsaved):")
		a.printProfile(*s.Draft)
	}
	if s.LastError != nil {
		a.printf("Last error: %s", userMessage(s.LastError))
	}
	return nil
}

// Edit opens the edit session. Remote updates are held back until save or
// cancel.
func (a *App) Edit(ctx context.Context) error {
	draft, err := a.engine.BeginEdit(ctx)
	if err != nil {
		return err
	}
	a.printProfile(draft)
	a.printf("Use 'set <username|name|intro> <value>', then 'save' or 'cancel'.")
	return nil
}

// Set changes one draft field. Without a value it prompts: multi-line for the
// introduction, single line otherwise.
func (a *App) Set(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.printf("Usage: set <username|name|intro> <value>")
		return nil
	}
	field, err := models.ParseField(args[0])
	if err != nil {
		return err
	}

	var value string
	switch {
	case len(args) > 1:
		value = strings.Join(args[1:], " ")
	case field == models.FieldEmail:
		value, err = getMultiline(a.reader, "Enter your introduction", a.out)
	default:
		value, err = getSimpleText(a.reader, "Enter your "+string(field), a.out)
	}
	if err != nil {
		return err
	}

	return a.engine.SetField(ctx, field, value)
}

// Save commits the draft. On failure the draft stays open for another try.
func (a *App) Save(ctx context.Context) error {
	if err := a.engine.CommitEdit(ctx); err != nil {
		return err
	}
	a.printf("Profile saved")
	return nil
}

// Cancel discards the draft.
func (a *App) Cancel(ctx context.Context) error {
	if err := a.engine.CancelEdit(ctx); err != nil {
		return err
	}
	a.printf("Edit cancelled")
	return nil
}

func (a *App) printProfile(p models.Profile) {
	name := p.Name
	if name == "" {
		name = "Not set"
	}
	a.printf("Your id Username:       %s", p.Username)
	a.printf("Your Profile User Name: %s", name)
	a.printf("Your Introduction:      %s", p.Email)
}
