package grpc

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/profilesync/internal/client/models"
	"github.com/dmitrijs2005/profilesync/internal/client/reconcile"
	"github.com/dmitrijs2005/profilesync/internal/common"
	"github.com/dmitrijs2005/profilesync/internal/logging"
	"github.com/dmitrijs2005/profilesync/internal/uiapi"
	"github.com/dmitrijs2005/profilesync/internal/validation"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
)

type fakeSessions struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeSessions) SendCode(ctx context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, email)
	return f.err
}

func (f *fakeSessions) Verify(ctx context.Context, email, code string) (*models.Session, error) {
	if code != "123456" {
		return nil, common.ErrInvalidCode
	}
	return &models.Session{UserID: "u1", Email: email}, nil
}

type fakeEngine struct {
	mu       sync.Mutex
	snap     reconcile.Snapshot
	username string
	fields   map[models.Field]string
	handlers []func(reconcile.Destination)
}

func (f *fakeEngine) CreateProfile(ctx context.Context, username string) error {
	if err := validation.Username(username); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if username == "taken1" {
		return common.ErrUsernameTaken
	}
	f.username = username
	return nil
}

func (f *fakeEngine) BeginEdit(ctx context.Context) (models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.snap.User == nil {
		return models.Profile{}, common.ErrNotActive
	}
	return *f.snap.User, nil
}

func (f *fakeEngine) SetField(ctx context.Context, field models.Field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fields == nil {
		f.fields = map[models.Field]string{}
	}
	f.fields[field] = value
	return nil
}

func (f *fakeEngine) CommitEdit(ctx context.Context) error { return common.ErrNoEdit }
func (f *fakeEngine) CancelEdit(ctx context.Context) error { return nil }
func (f *fakeEngine) SignOut(ctx context.Context) error    { return nil }

func (f *fakeEngine) Snapshot() reconcile.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeEngine) OnNavigate(h func(reconcile.Destination)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers = append(f.handlers, h)
	return func() {}
}

func (f *fakeEngine) navigate(d reconcile.Destination) {
	f.mu.Lock()
	hs := append(([]func(reconcile.Destination))(nil), f.handlers...)
	f.mu.Unlock()
	for _, h := range hs {
		h(d)
	}
}

func (f *fakeEngine) watched() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handlers) > 0
}

type fixture struct {
	sessions *fakeSessions
	engine   *fakeEngine
	client   *uiapi.Client
}

func startServer(t *testing.T, serverToken, clientToken string) *fixture {
	t.Helper()
	f := &fixture{sessions: &fakeSessions{}, engine: &fakeEngine{}}

	lis := bufconn.Listen(1 << 20)
	srv := NewGRPCServer("bufnet", logging.Nop(), f.sessions, f.engine, serverToken)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(uiapi.CodecName)),
	)
	require.NoError(t, err)
	f.client = uiapi.NewClient(conn, clientToken)

	t.Cleanup(func() {
		conn.Close()
		cancel()
		require.NoError(t, <-done)
	})
	return f
}

func TestUnaryCalls(t *testing.T) {
	f := startServer(t, "", "")
	ctx := context.Background()

	require.NoError(t, f.client.SendCode(ctx, "a@b.c"))
	require.Equal(t, []string{"a@b.c"}, f.sessions.sent)

	res, err := f.client.VerifyCode(ctx, "a@b.c", "123456")
	require.NoError(t, err)
	require.Equal(t, &uiapi.VerifyCodeResponse{UserID: "u1", Email: "a@b.c"}, res)

	require.NoError(t, f.client.CreateProfile(ctx, "alice42"))
	require.Equal(t, "alice42", f.engine.username)

	require.NoError(t, f.client.SetField(ctx, models.Field("intro"), "hello there"))
	require.Equal(t, "hello there", f.engine.fields[models.FieldEmail])

	require.NoError(t, f.client.CancelEdit(ctx))
	require.NoError(t, f.client.SignOut(ctx))
}

func TestErrorsSurviveTheWire(t *testing.T) {
	f := startServer(t, "", "")
	ctx := context.Background()

	_, err := f.client.VerifyCode(ctx, "a@b.c", "000000")
	require.ErrorIs(t, err, common.ErrInvalidCode)

	err = f.client.CreateProfile(ctx, "ab cd")
	require.ErrorIs(t, err, common.ErrValidation)
	require.Equal(t, "validation error: username cannot contain spaces", err.Error())

	require.ErrorIs(t, f.client.CreateProfile(ctx, "taken1"), common.ErrUsernameTaken)

	_, err = f.client.BeginEdit(ctx)
	require.ErrorIs(t, err, common.ErrNotActive)

	require.ErrorIs(t, f.client.CommitEdit(ctx), common.ErrNoEdit)
	require.ErrorIs(t, f.client.SetField(ctx, models.Field("avatar"), "x"), common.ErrUnknownField)
}

func TestGetSnapshot(t *testing.T) {
	f := startServer(t, "", "")
	f.engine.snap = reconcile.Snapshot{
		State:       reconcile.Active,
		User:        &models.Profile{ID: "u1", Username: "alice42"},
		Destination: reconcile.DestinationMain,
		LastError:   errors.New("boom"),
		Generation:  3,
	}

	got, err := f.client.GetSnapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, "active", got.State)
	require.Equal(t, "alice42", got.User.Username)
	require.Equal(t, "main", got.Destination)
	require.Equal(t, "boom", got.LastError)
	require.Equal(t, uint64(3), got.Generation)
}

func TestUIToken(t *testing.T) {
	ctx := context.Background()

	f := startServer(t, "s3cret", "wrong")
	require.ErrorIs(t, f.client.SendCode(ctx, "a@b.c"), uiapi.ErrForbidden)
	require.Empty(t, f.sessions.sent)

	events, errc, err := f.client.WatchNavigation(ctx, false)
	require.NoError(t, err, "stream rejections surface on receive")
	select {
	case err := <-errc:
		require.ErrorIs(t, err, uiapi.ErrForbidden)
	case <-time.After(2 * time.Second):
		t.Fatal("stream was not rejected")
	}
	_, open := <-events
	require.False(t, open)
	require.False(t, f.engine.watched())

	ok := startServer(t, "s3cret", "s3cret")
	require.NoError(t, ok.client.SendCode(ctx, "a@b.c"))
}

func TestWatchNavigation(t *testing.T) {
	f := startServer(t, "", "")
	f.engine.snap = reconcile.Snapshot{Destination: reconcile.DestinationSignIn}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := f.client.WatchNavigation(ctx, false)
	require.NoError(t, err)

	recv := func() string {
		select {
		case ev := <-events:
			return ev.Destination
		case <-time.After(2 * time.Second):
			t.Fatal("no navigation event")
			return ""
		}
	}

	require.Equal(t, "sign-in", recv(), "current destination first")

	require.Eventually(t, f.engine.watched, 2*time.Second, 5*time.Millisecond)
	f.engine.navigate(reconcile.DestinationOnboarding)
	f.engine.navigate(reconcile.DestinationMain)

	require.Equal(t, "onboarding", recv())
	require.Equal(t, "main", recv())
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	srv := NewGRPCServer("127.0.0.1:0", logging.Nop(), &fakeSessions{}, &fakeEngine{}, "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error on graceful stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	srv := NewGRPCServer("127.0.0.1:99999", logging.Nop(), &fakeSessions{}, &fakeEngine{}, "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Run(ctx); err == nil {
		t.Fatal("expected error from Run on bad address, got nil")
	}
}
