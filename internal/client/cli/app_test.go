package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/profilesync/internal/client/models"
	"github.com/dmitrijs2005/profilesync/internal/client/reconcile"
	"github.com/dmitrijs2005/profilesync/internal/common"
	"github.com/dmitrijs2005/profilesync/internal/logging"
	"github.com/stretchr/testify/require"
)

type fakeSessions struct {
	sent      []string
	verified  []string
	refreshed int
	expiresAt time.Time
	err       error
}

func (f *fakeSessions) SendCode(ctx context.Context, email string) error {
	f.sent = append(f.sent, email)
	return f.err
}

func (f *fakeSessions) Verify(ctx context.Context, email, code string) (*models.Session, error) {
	f.verified = append(f.verified, email+":"+code)
	if f.err != nil {
		return nil, f.err
	}
	return &models.Session{UserID: "u1", Email: email}, nil
}

func (f *fakeSessions) Refresh(ctx context.Context) (*models.Session, error) {
	f.refreshed++
	if f.err != nil {
		return nil, f.err
	}
	return &models.Session{UserID: "u1", ExpiresAt: f.expiresAt}, nil
}

type fakeEngine struct {
	mu       sync.Mutex
	snap     reconcile.Snapshot
	username string
	fields   map[models.Field]string
	err      error
	nav      func(reconcile.Destination)
	ran      bool
}

func (f *fakeEngine) Run(ctx context.Context) error {
	f.mu.Lock()
	f.ran = true
	f.mu.Unlock()
	<-ctx.Done()
	return nil
}

func (f *fakeEngine) CreateProfile(ctx context.Context, username string) error {
	f.username = username
	return f.err
}

func (f *fakeEngine) BeginEdit(ctx context.Context) (models.Profile, error) {
	if f.err != nil {
		return models.Profile{}, f.err
	}
	return *f.snap.User, nil
}

func (f *fakeEngine) SetField(ctx context.Context, field models.Field, value string) error {
	if f.fields == nil {
		f.fields = map[models.Field]string{}
	}
	f.fields[field] = value
	return f.err
}

func (f *fakeEngine) CommitEdit(ctx context.Context) error { return f.err }
func (f *fakeEngine) CancelEdit(ctx context.Context) error { return f.err }
func (f *fakeEngine) SignOut(ctx context.Context) error    { return f.err }
func (f *fakeEngine) Snapshot() reconcile.Snapshot         { return f.snap }

func (f *fakeEngine) OnNavigate(h func(reconcile.Destination)) func() {
	f.nav = h
	return func() {}
}

func newTestApp(input string) (*App, *fakeSessions, *fakeEngine, *bytes.Buffer) {
	s := &fakeSessions{}
	e := &fakeEngine{}
	var out bytes.Buffer
	return NewApp(s, e, strings.NewReader(input), &out, logging.Nop()), s, e, &out
}

func TestSignInThenVerify(t *testing.T) {
	old := getCode
	t.Cleanup(func() { getCode = old })
	getCode = func(w io.Writer, email string) ([]byte, error) {
		return []byte(" 123456\n"), nil
	}

	app, s, _, out := newTestApp("")
	ctx := context.Background()

	require.NoError(t, app.SignIn(ctx, []string{"a@b.c"}))
	require.Equal(t, []string{"a@b.c"}, s.sent)

	require.NoError(t, app.Verify(ctx, nil))
	require.Equal(t, []string{"a@b.c:123456"}, s.verified, "verify defaults to the last email and trims the code")
	require.Contains(t, out.String(), "Verified Successfully!")
}

func TestSignIn_PromptsForEmail(t *testing.T) {
	app, s, _, _ := newTestApp("me@x.io\n")
	require.NoError(t, app.SignIn(context.Background(), nil))
	require.Equal(t, []string{"me@x.io"}, s.sent)
}

func TestVerify_RequiresEmail(t *testing.T) {
	app, _, _, _ := newTestApp("")
	require.ErrorIs(t, app.Verify(context.Background(), nil), errEmailRequired)
}

func TestUsername_PassesValueAsTyped(t *testing.T) {
	app, _, e, _ := newTestApp("")
	require.NoError(t, app.Username(context.Background(), []string{"ab", "cd"}))
	require.Equal(t, "ab cd", e.username)
}

func TestSet_Values(t *testing.T) {
	app, _, e, _ := newTestApp("line one\nline two\n\n")
	ctx := context.Background()

	require.NoError(t, app.Set(ctx, []string{"name", "Alice", "L."}))
	require.Equal(t, "Alice L.", e.fields[models.FieldName])

	require.NoError(t, app.Set(ctx, []string{"intro"}))
	require.Equal(t, "line one\nline two", e.fields[models.FieldEmail])

	require.ErrorIs(t, app.Set(ctx, []string{"avatar", "x"}), common.ErrUnknownField)
}

func TestShow(t *testing.T) {
	app, _, e, out := newTestApp("")
	e.snap = reconcile.Snapshot{State: reconcile.Active, User: &models.Profile{Username: "alice42", Email: "hello"}}

	require.NoError(t, app.Show(context.Background()))
	require.Contains(t, out.String(), "Your id Username:       alice42")
	require.Contains(t, out.String(), "Your Profile User Name: Not set")
	require.Contains(t, out.String(), "Your Introduction:      hello")
	require.Equal(t, "(alice42 active)", app.getStatus())
}

func TestOnNavigate_PrintsDestination(t *testing.T) {
	capturePrints(t)
	app, _, e, out := newTestApp("exit\n")
	e.snap = reconcile.Snapshot{State: reconcile.Active, User: &models.Profile{Username: "alice42"}}

	app.Root(context.Background())
	require.NotNil(t, e.nav)

	e.nav(reconcile.DestinationOnboarding)
	e.nav(reconcile.DestinationMain)
	require.Contains(t, out.String(), "Create Your Username")
	require.Contains(t, out.String(), "Welcome, alice42!")
}

func TestRun_StopsEngineWhenREPLExits(t *testing.T) {
	capturePrints(t)
	app, _, e, _ := newTestApp("exit\n")

	require.NoError(t, app.Run(context.Background()))
	e.mu.Lock()
	defer e.mu.Unlock()
	require.True(t, e.ran)
}

func TestRefresh(t *testing.T) {
	app, s, _, out := newTestApp("")
	ctx := context.Background()

	require.NoError(t, app.Refresh(ctx))
	require.Equal(t, 1, s.refreshed)
	require.Contains(t, out.String(), "Session refreshed\n")

	out.Reset()
	s.expiresAt = time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, app.Refresh(ctx))
	require.Contains(t, out.String(), "Session refreshed, valid until "+s.expiresAt.Local().Format(time.DateTime))

	s.err = common.ErrNoSession
	require.ErrorIs(t, app.Refresh(ctx), common.ErrNoSession)
}
