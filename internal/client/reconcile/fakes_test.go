package reconcile

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/profilesync/internal/client/feed"
	"github.com/dmitrijs2005/profilesync/internal/client/models"
	"github.com/dmitrijs2005/profilesync/internal/common"
)

// ---- session store ----

type fakeSessions struct {
	mu          sync.Mutex
	current     *models.Session
	currentErr  error
	handlers    map[int]func(*models.Session)
	next        int
	signOuts    int
	signOutGate chan struct{}
}

func newFakeSessions(current *models.Session) *fakeSessions {
	return &fakeSessions{current: current, handlers: map[int]func(*models.Session){}}
}

func (f *fakeSessions) Current(ctx context.Context) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current, f.currentErr
}

func (f *fakeSessions) OnChange(h func(*models.Session)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.next
	f.next++
	f.handlers[id] = h
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.handlers, id)
	}
}

// emit behaves like the real store: set current, then notify.
func (f *fakeSessions) emit(s *models.Session) {
	f.mu.Lock()
	f.current = s
	hs := make([]func(*models.Session), 0, len(f.handlers))
	for _, h := range f.handlers {
		hs = append(hs, h)
	}
	f.mu.Unlock()
	for _, h := range hs {
		h(s)
	}
}

func (f *fakeSessions) SignOut(ctx context.Context) error {
	f.mu.Lock()
	f.signOuts++
	gate := f.signOutGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.emit(nil)
	return nil
}

func (f *fakeSessions) signOutCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signOuts
}

// ---- profile repository ----

type createCall struct {
	id, username, email, name string
}

type fakeRepo struct {
	mu        sync.Mutex
	rows      map[string]models.Profile
	taken     map[string]bool
	fetchGate map[string]chan struct{}
	fetchErr  error
	createErr error
	updateErr error
	updGate   chan struct{}

	fetchCalls  int
	createCalls []createCall
	updateCalls []models.ProfilePatch
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		rows:      map[string]models.Profile{},
		taken:     map[string]bool{},
		fetchGate: map[string]chan struct{}{},
	}
}

func (f *fakeRepo) put(p models.Profile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[p.ID] = p
}

func (f *fakeRepo) gateFetch(id string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.fetchGate[id] = ch
	return ch
}

func (f *fakeRepo) Fetch(ctx context.Context, id string) (*models.Profile, error) {
	f.mu.Lock()
	f.fetchCalls++
	gate := f.fetchGate[id]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	p, ok := f.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &p, nil
}

func (f *fakeRepo) Create(ctx context.Context, id, username, defaultEmail, defaultName string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls = append(f.createCalls, createCall{id: id, username: username, email: defaultEmail, name: defaultName})
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.taken[username] {
		return nil, common.ErrUsernameTaken
	}
	p := models.Profile{ID: id, Username: username, Name: defaultName, Email: defaultEmail}
	f.rows[id] = p
	f.taken[username] = true
	return &p, nil
}

func (f *fakeRepo) Update(ctx context.Context, id string, patch models.ProfilePatch) (*models.Profile, error) {
	f.mu.Lock()
	f.updateCalls = append(f.updateCalls, patch)
	gate := f.updGate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	if patch.Username != nil && f.taken[*patch.Username] && f.rows[id].Username != *patch.Username {
		return nil, common.ErrUsernameTaken
	}
	p := patch.Apply(f.rows[id])
	f.rows[id] = p
	return &p, nil
}

func (f *fakeRepo) counts() (fetches, creates, updates int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchCalls, len(f.createCalls), len(f.updateCalls)
}

func (f *fakeRepo) lastPatch() models.ProfilePatch {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updateCalls[len(f.updateCalls)-1]
}

// ---- change feed ----

type fakeSub struct {
	id       string
	onUpdate func(models.Profile)
	released atomic.Int32
}

func (s *fakeSub) ID() string   { return s.id }
func (s *fakeSub) Unsubscribe() { s.released.Add(1) }

type fakeFeed struct {
	mu   sync.Mutex
	subs []*fakeSub
	err  error
	gate chan struct{}
}

func (f *fakeFeed) Subscribe(ctx context.Context, id string, onUpdate func(models.Profile)) (feed.Subscription, error) {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	s := &fakeSub{id: id, onUpdate: onUpdate}
	f.subs = append(f.subs, s)
	return s, nil
}

func (f *fakeFeed) all() []*fakeSub {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*fakeSub(nil), f.subs...)
}

func (f *fakeFeed) live() []*fakeSub {
	var out []*fakeSub
	for _, s := range f.all() {
		if s.released.Load() == 0 {
			out = append(out, s)
		}
	}
	return out
}

// push delivers p through every subscription ever opened for p.ID, released
// or not, the way a lagging transport could.
func (f *fakeFeed) push(p models.Profile) {
	for _, s := range f.all() {
		if s.id == p.ID {
			s.onUpdate(p)
		}
	}
}
