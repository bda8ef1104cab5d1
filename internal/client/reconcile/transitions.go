package reconcile

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/profilesync/internal/client/edit"
	"github.com/dmitrijs2005/profilesync/internal/client/models"
	"github.com/dmitrijs2005/profilesync/internal/common"
	"github.com/dmitrijs2005/profilesync/internal/validation"
)

func (e *Engine) handle(ev event) {
	switch ev := ev.(type) {
	case startupDone:
		e.onStartupDone(ev)
	case sessionChanged:
		e.onSessionChanged(ev)
	case fetchDone:
		e.onFetchDone(ev)
	case createRequested:
		if err := e.onCreateRequested(ev); err != nil {
			e.respond(ev.reply, err)
		}
	case createDone:
		e.onCreateDone(ev)
	case subscribed:
		e.onSubscribed(ev)
	case profilePushed:
		e.onProfilePushed(ev)
	case editBegun:
		r := e.onEditBegun()
		e.publish()
		ev.reply <- r
	case fieldSet:
		e.respond(ev.reply, e.onFieldSet(ev))
	case editCommitted:
		if err := e.onEditCommitted(ev); err != nil {
			e.respond(ev.reply, err)
		}
	case commitDone:
		e.onCommitDone(ev)
	case editCancelled:
		e.respond(ev.reply, e.onEditCancelled())
	case signOutRequested:
		e.onSignOutRequested()
		e.respond(ev.reply, nil)
	}
}

// respond publishes before replying so a caller that returns from a public
// method already sees its effect in Snapshot.
func (e *Engine) respond(reply chan<- error, err error) {
	e.publish()
	reply <- err
}

// startup asks the session store for a persisted session. The answer is
// tagged like any other async result so a session event that arrives first
// wins.
func (e *Engine) startup() {
	e.gen++
	gen := e.gen
	e.spawn(func(ctx context.Context) {
		s, err := e.sessions.Current(ctx)
		e.post(startupDone{gen: gen, session: s, err: err})
	})
}

func (e *Engine) onStartupDone(ev startupDone) {
	if ev.gen != e.gen {
		e.log.Debug(e.runCtx, "dropping stale startup result", "generation", ev.gen)
		return
	}
	if ev.session == nil {
		e.enterSignedOut()
		if ev.err != nil {
			e.log.Warn(e.runCtx, "session restore failed", "error", ev.err)
			e.lastErr = ev.err
		}
		return
	}
	e.beginSession(ev.session)
}

func (e *Engine) onSessionChanged(ev sessionChanged) {
	s := ev.session
	if e.signOuts > 0 {
		if s == nil {
			e.signOuts--
			return
		}
		// a refresh that raced the local sign-out
		e.log.Debug(e.runCtx, "ignoring session during sign-out", "user_id", s.UserID)
		return
	}
	if s == nil {
		if e.state == SignedOut && e.session == nil {
			// already handled by a local sign-out
			return
		}
		e.log.Info(e.runCtx, "session ended")
		e.enterSignedOut()
		return
	}

	if e.session != nil && e.session.UserID == s.UserID && !e.needsFetch() {
		// token refresh for the same subject
		e.session = s
		return
	}

	e.beginSession(s)
}

// needsFetch reports whether a session event for the current subject should
// trigger a new profile fetch: only after a failed one.
func (e *Engine) needsFetch() bool {
	return e.state == SignedOut || (e.state == AwaitingProfile && e.fetchFailed)
}

// beginSession starts a new generation for s: everything tied to the previous
// session is released and the profile is fetched.
func (e *Engine) beginSession(s *models.Session) {
	e.gen++
	e.reset()
	e.session = s
	e.state = AwaitingProfile
	e.fetching = true

	gen, id := e.gen, s.UserID
	e.log.Info(e.runCtx, "fetching profile", "user_id", id, "generation", gen)
	e.spawn(func(ctx context.Context) {
		p, err := e.repo.Fetch(ctx, id)
		e.post(fetchDone{gen: gen, id: id, profile: p, err: err})
	})
}

func (e *Engine) onFetchDone(ev fetchDone) {
	if ev.gen != e.gen || !e.fetching {
		e.log.Debug(e.runCtx, "dropping stale fetch result", "user_id", ev.id, "generation", ev.gen)
		return
	}
	e.fetching = false

	switch {
	case ev.err == nil:
		e.becomeActive(ev.profile)
	case errors.Is(ev.err, common.ErrorNotFound):
		e.navigate(DestinationOnboarding)
	default:
		e.log.Warn(e.runCtx, "profile fetch failed", "user_id", ev.id, "error", ev.err)
		e.fetchFailed = true
		e.lastErr = ev.err
	}
}

// onCreateRequested returns an error when the request is rejected up front;
// otherwise the reply is sent from onCreateDone.
func (e *Engine) onCreateRequested(ev createRequested) error {
	if e.state != AwaitingProfile || e.session == nil {
		return common.ErrNotOnboarding
	}
	if e.creating {
		return common.ErrCreateInProgress
	}
	if err := validation.Username(ev.username); err != nil {
		e.lastErr = err
		return err
	}

	e.creating = true
	gen, s := e.gen, e.session
	e.spawn(func(ctx context.Context) {
		p, err := e.repo.Create(ctx, s.UserID, ev.username, s.Email, s.DisplayName())
		e.post(createDone{gen: gen, id: s.UserID, profile: p, err: err, reply: ev.reply})
	})

	return nil
}

func (e *Engine) onCreateDone(ev createDone) {
	if ev.gen != e.gen {
		e.respond(ev.reply, common.ErrStale)
		return
	}
	e.creating = false
	if e.state != AwaitingProfile {
		e.respond(ev.reply, common.ErrStale)
		return
	}

	if ev.err != nil {
		e.log.Info(e.runCtx, "profile creation failed", "user_id", ev.id, "error", ev.err)
		e.lastErr = ev.err
		e.respond(ev.reply, ev.err)
		return
	}

	e.fetching = false
	e.becomeActive(ev.profile)
	e.respond(ev.reply, nil)
}

// becomeActive installs p as CurrentUser, signals the main area and opens the
// change feed for p.ID.
func (e *Engine) becomeActive(p *models.Profile) {
	e.state = Active
	e.user = profilePtr(*p)
	e.fetchFailed = false
	e.lastErr = nil
	e.navigate(DestinationMain)
	e.subscribe(p.ID)
}

func (e *Engine) subscribe(id string) {
	e.releaseSubscription()
	token := e.subToken

	e.spawn(func(ctx context.Context) {
		sub, err := e.feed.Subscribe(ctx, id, func(p models.Profile) {
			e.post(profilePushed{token: token, id: id, profile: p})
		})
		e.post(subscribed{token: token, id: id, sub: sub, err: err})
	})
}

func (e *Engine) onSubscribed(ev subscribed) {
	if ev.token != e.subToken || e.state != Active || e.user == nil || e.user.ID != ev.id {
		if ev.sub != nil {
			// superseded while connecting
			ev.sub.Unsubscribe()
		}
		return
	}
	if ev.err != nil {
		e.log.Warn(e.runCtx, "change feed subscribe failed", "user_id", ev.id, "error", ev.err)
		return
	}
	e.sub = ev.sub
}

// releaseSubscription invalidates any pending subscribe and closes the live
// one.
func (e *Engine) releaseSubscription() {
	e.subToken++
	if e.sub != nil {
		e.sub.Unsubscribe()
		e.sub = nil
	}
}

func (e *Engine) onProfilePushed(ev profilePushed) {
	if ev.token != e.subToken || e.state != Active || e.user == nil || e.user.ID != ev.id || ev.profile.ID != ev.id {
		return
	}
	if e.draft.Active() {
		e.log.Debug(e.runCtx, "edit in progress, dropping remote update", "user_id", ev.id)
		return
	}
	e.user = profilePtr(ev.profile)
}

func (e *Engine) onEditBegun() editReply {
	if e.state != Active || e.user == nil {
		return editReply{err: common.ErrNotActive}
	}
	if !e.draft.Active() {
		e.draft = edit.Begin(*e.user)
	}
	return editReply{draft: e.draft.Values()}
}

func (e *Engine) onFieldSet(ev fieldSet) error {
	if !e.draft.Active() {
		return common.ErrNoEdit
	}
	if e.savingDraft == e.draft {
		return common.ErrEditInProgress
	}
	return e.draft.Set(ev.field, ev.value)
}

// onEditCommitted mirrors onCreateRequested: nil means the reply is pending.
func (e *Engine) onEditCommitted(ev editCommitted) error {
	if e.state != Active || e.user == nil {
		return common.ErrNotActive
	}
	if !e.draft.Active() {
		return common.ErrNoEdit
	}
	if e.savingDraft != nil {
		return common.ErrEditInProgress
	}
	if err := validation.Username(e.draft.Username()); err != nil {
		e.lastErr = err
		return err
	}

	d := e.draft
	e.savingDraft = d
	gen, id, patch := e.gen, e.user.ID, d.Patch()
	e.spawn(func(ctx context.Context) {
		p, err := e.repo.Update(ctx, id, patch)
		e.post(commitDone{gen: gen, id: id, draft: d, profile: p, err: err, reply: ev.reply})
	})
	return nil
}

func (e *Engine) onCommitDone(ev commitDone) {
	if ev.gen != e.gen {
		e.respond(ev.reply, common.ErrStale)
		return
	}
	e.savingDraft = nil

	if ev.err != nil {
		e.log.Info(e.runCtx, "profile update failed", "user_id", ev.id, "error", ev.err)
		e.lastErr = ev.err
		e.respond(ev.reply, ev.err)
		return
	}

	e.user = profilePtr(*ev.profile)
	e.lastErr = nil
	if e.draft == ev.draft {
		e.draft.Discard()
		e.draft = nil
	}
	e.respond(ev.reply, nil)
}

func (e *Engine) onEditCancelled() error {
	if !e.draft.Active() {
		return common.ErrNoEdit
	}
	e.log.Debug(e.runCtx, "edit cancelled", "discarded_changes", e.draft.Dirty())
	e.draft.Discard()
	e.draft = nil
	return nil
}

// onSignOutRequested clears everything locally and emits the sign-in signal
// before the transport call completes.
func (e *Engine) onSignOutRequested() {
	e.enterSignedOut()
	e.signOuts++

	e.spawnDetached(func(ctx context.Context) {
		if err := e.sessions.SignOut(ctx); err != nil {
			e.log.Warn(ctx, "transport sign-out failed", "error", err)
		}
	})
}

// spawnDetached runs fn with a context that survives engine shutdown.
func (e *Engine) spawnDetached(fn func(ctx context.Context)) {
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(e.runCtx), signOutTimeout)
		defer cancel()
		fn(ctx)
	}()
}

func (e *Engine) enterSignedOut() {
	e.gen++
	e.reset()
	e.session = nil
	e.state = SignedOut
	e.lastErr = nil
	e.navigate(DestinationSignIn)
}

// reset drops everything derived from the current session.
func (e *Engine) reset() {
	e.releaseSubscription()
	if e.draft != nil {
		e.draft.Discard()
		e.draft = nil
	}
	e.savingDraft = nil
	e.creating = false
	e.fetching = false
	e.fetchFailed = false
	e.user = nil
}
