// Package reconcile owns the authoritative CurrentUser value. A single
// goroutine (Run) processes a queue of typed events: session changes from the
// session store, completions of repository calls, change-feed pushes and the
// user's onboarding and edit actions. Every handler runs to completion before
// the next event is taken, so edit gating and stale-result checks are plain
// reads of actor state.
//
// Network calls never run on the actor goroutine. They are started from a
// handler, tagged with the session generation current at the time, and post
// their result back as an event; results whose generation no longer matches
// are dropped.
package reconcile

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/profilesync/internal/client/edit"
	"github.com/dmitrijs2005/profilesync/internal/client/feed"
	"github.com/dmitrijs2005/profilesync/internal/client/models"
	"github.com/dmitrijs2005/profilesync/internal/client/repositories/profiles"
	"github.com/dmitrijs2005/profilesync/internal/common"
	"github.com/dmitrijs2005/profilesync/internal/logging"
)

const (
	eventQueueSize      = 64
	navigationQueueSize = 64

	// signOutTimeout bounds the background transport sign-out.
	signOutTimeout = 10 * time.Second
)

// SessionSource is the part of the session store the engine consumes.
type SessionSource interface {
	Current(ctx context.Context) (*models.Session, error)
	OnChange(handler func(*models.Session)) (unsubscribe func())
	SignOut(ctx context.Context) error
}

type Options struct {
	// RequestTimeout bounds each repository and subscribe call; zero means
	// no limit beyond the Run context.
	RequestTimeout time.Duration
}

type Engine struct {
	sessions SessionSource
	repo     profiles.Repository
	feed     feed.Subscriber
	opts     Options
	log      logging.Logger

	events  chan event
	nav     chan Destination
	done    chan struct{}
	started atomic.Bool
	snap    atomic.Pointer[Snapshot]

	nmu         sync.Mutex
	navHandlers map[int]func(Destination)
	navNext     int

	// trace, when set, observes every handled event (tests only).
	trace func(event)

	// Actor state. Only the Run goroutine touches these fields.
	runCtx      context.Context
	state       State
	session     *models.Session
	gen         uint64
	fetching    bool
	fetchFailed bool
	creating    bool
	user        *models.Profile
	draft       *edit.Draft
	savingDraft *edit.Draft
	sub         feed.Subscription
	subToken    uint64
	lastErr     error
	dest        Destination
	pendingNav  []Destination
	// signOuts counts local sign-outs the session store has not yet
	// confirmed with a nil session.
	signOuts    int
}

func New(sessions SessionSource, repo profiles.Repository, subscriber feed.Subscriber, opts Options, log logging.Logger) *Engine {
	e := &Engine{
		sessions:    sessions,
		repo:        repo,
		feed:        subscriber,
		opts:        opts,
		log:         log.With("module", "reconcile"),
		events:      make(chan event, eventQueueSize),
		nav:         make(chan Destination, navigationQueueSize),
		done:        make(chan struct{}),
		navHandlers: make(map[int]func(Destination)),
	}
	e.snap.Store(&Snapshot{State: SignedOut})
	return e
}

// Run processes events until ctx ends. It can be called once.
func (e *Engine) Run(ctx context.Context) error {
	if !e.started.CompareAndSwap(false, true) {
		return common.ErrAlreadyStarted
	}
	defer func() {
		close(e.done)
		e.drain()
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	e.runCtx = ctx

	unsubscribe := e.sessions.OnChange(func(s *models.Session) {
		e.post(sessionChanged{session: s})
	})
	defer unsubscribe()

	go e.dispatchNavigation(ctx)

	e.startup()

	for {
		select {
		case <-ctx.Done():
			e.releaseSubscription()
			e.log.Info(context.Background(), "engine stopped")
			return nil
		case ev := <-e.events:
			e.log.Debug(ctx, "event", "name", ev.name(), "state", e.state.String(), "generation", e.gen)
			e.handle(ev)
			e.publish()
			e.flushNavigation(ctx)
			if e.trace != nil {
				e.trace(ev)
			}
		}
	}
}

// post enqueues an event from a worker goroutine. Once Run has returned,
// events are discarded instead.
func (e *Engine) post(ev event) {
	select {
	case e.events <- ev:
		select {
		case <-e.done:
			// Run may have drained before this send landed
			e.drain()
		default:
		}
	case <-e.done:
		discard(ev)
	}
}

// drain empties the queue after Run has returned.
func (e *Engine) drain() {
	for {
		select {
		case ev := <-e.events:
			discard(ev)
		default:
			return
		}
	}
}

// discard closes a subscription nobody will own.
func discard(ev event) {
	if sb, ok := ev.(subscribed); ok && sb.sub != nil {
		sb.sub.Unsubscribe()
	}
}

// spawn runs fn off the actor with the per-request timeout applied.
func (e *Engine) spawn(fn func(ctx context.Context)) {
	ctx := e.runCtx
	go func() {
		if e.opts.RequestTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, e.opts.RequestTimeout)
			defer cancel()
		}
		fn(ctx)
	}()
}

func await[T any](ctx context.Context, e *Engine, ev event, reply <-chan T) (T, error) {
	var zero T
	select {
	case e.events <- ev:
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-e.done:
		return zero, common.ErrEngineStopped
	}

	select {
	case r := <-reply:
		return r, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-e.done:
		return zero, common.ErrEngineStopped
	}
}

func awaitErr(ctx context.Context, e *Engine, ev event, reply chan error) error {
	err, callErr := await(ctx, e, ev, reply)
	if callErr != nil {
		return callErr
	}
	return err
}

// CreateProfile completes onboarding with username. It returns once the
// repository has answered: a validation error (no repository call),
// common.ErrUsernameTaken, common.ErrRepository or nil.
func (e *Engine) CreateProfile(ctx context.Context, username string) error {
	reply := make(chan error, 1)
	return awaitErr(ctx, e, createRequested{username: username, reply: reply}, reply)
}

// BeginEdit opens an edit session seeded from CurrentUser and returns the
// draft values. Calling it while a draft is open returns that draft.
func (e *Engine) BeginEdit(ctx context.Context) (models.Profile, error) {
	reply := make(chan editReply, 1)
	r, err := await(ctx, e, editBegun{reply: reply}, reply)
	if err != nil {
		return models.Profile{}, err
	}
	return r.draft, r.err
}

// SetField changes one draft field. No validation happens here.
func (e *Engine) SetField(ctx context.Context, field models.Field, value string) error {
	reply := make(chan error, 1)
	return awaitErr(ctx, e, fieldSet{field: field, value: value, reply: reply}, reply)
}

// CommitEdit validates the draft and saves it. On failure the draft is kept
// unchanged.
func (e *Engine) CommitEdit(ctx context.Context) error {
	reply := make(chan error, 1)
	return awaitErr(ctx, e, editCommitted{reply: reply}, reply)
}

// CancelEdit discards the draft without a repository call.
func (e *Engine) CancelEdit(ctx context.Context) error {
	reply := make(chan error, 1)
	return awaitErr(ctx, e, editCancelled{reply: reply}, reply)
}

// SignOut clears local state and emits the sign-in signal immediately; the
// transport sign-out runs in the background.
func (e *Engine) SignOut(ctx context.Context) error {
	reply := make(chan error, 1)
	return awaitErr(ctx, e, signOutRequested{reply: reply}, reply)
}

// Snapshot returns the latest published state. Safe from any goroutine.
func (e *Engine) Snapshot() Snapshot {
	return *e.snap.Load()
}

// CurrentUser returns a copy of the authoritative profile, or nil.
func (e *Engine) CurrentUser() *models.Profile {
	u := e.snap.Load().User
	if u == nil {
		return nil
	}
	return profilePtr(*u)
}

// OnNavigate registers a navigation handler. Handlers run in emission order on
// a dispatcher goroutine, never on the actor.
func (e *Engine) OnNavigate(handler func(Destination)) (unsubscribe func()) {
	e.nmu.Lock()
	id := e.navNext
	e.navNext++
	e.navHandlers[id] = handler
	e.nmu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.nmu.Lock()
			delete(e.navHandlers, id)
			e.nmu.Unlock()
		})
	}
}

// navigate records d; it reaches handlers once the current event is
// published.
func (e *Engine) navigate(d Destination) {
	e.dest = d
	e.log.Info(e.runCtx, "navigate", "destination", string(d), "generation", e.gen)
	e.pendingNav = append(e.pendingNav, d)
}

func (e *Engine) flushNavigation(ctx context.Context) {
	for _, d := range e.pendingNav {
		select {
		case e.nav <- d:
		case <-ctx.Done():
		}
	}
	e.pendingNav = e.pendingNav[:0]
}

func (e *Engine) dispatchNavigation(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case d := <-e.nav:
			e.nmu.Lock()
			hs := make([]func(Destination), 0, len(e.navHandlers))
			for _, h := range e.navHandlers {
				hs = append(hs, h)
			}
			e.nmu.Unlock()
			for _, h := range hs {
				h(d)
			}
		}
	}
}

func (e *Engine) publish() {
	s := &Snapshot{
		State:       e.state,
		Creating:    e.creating,
		Saving:      e.savingDraft != nil,
		Destination: e.dest,
		LastError:   e.lastErr,
		Generation:  e.gen,
	}
	if e.session != nil {
		s.SessionUserID = e.session.UserID
	}
	if e.user != nil {
		s.User = profilePtr(*e.user)
	}
	if e.draft.Active() {
		s.Editing = true
		s.Draft = profilePtr(e.draft.Values())
	}
	e.snap.Store(s)
}
