package uiapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/profilesync/internal/client/client"
	"github.com/dmitrijs2005/profilesync/internal/client/models"
	"github.com/dmitrijs2005/profilesync/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

var ErrForbidden = errors.New("ui token rejected")

// knownErrors are recognised by message prefix when a status comes back, so
// callers can keep matching with errors.Is across the process boundary.
var knownErrors = []error{
	common.ErrValidation,
	common.ErrUsernameTaken,
	common.ErrInvalidCode,
	common.ErrNotActive,
	common.ErrNotOnboarding,
	common.ErrNoEdit,
	common.ErrEditInProgress,
	common.ErrCreateInProgress,
	common.ErrUnknownField,
	common.ErrStale,
	common.ErrNoSession,
	common.ErrRepository,
	common.ErrEngineStopped,
}

// Client is a typed client for SessionService.
type Client struct {
	cc    grpc.ClientConnInterface
	conn  *grpc.ClientConn
	token string
}

// Dial connects to the daemon at addr. token is sent with every call when
// not empty.
func Dial(addr, token string) (*Client, error) {
	c := &Client{token: token}
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
		grpc.WithChainUnaryInterceptor(c.tokenUnaryInterceptor),
		grpc.WithChainStreamInterceptor(c.tokenStreamInterceptor),
	)
	if err != nil {
		return nil, err
	}
	c.cc = conn
	c.conn = conn
	return c, nil
}

// NewClient wraps an existing connection. The connection must have been
// created with the json content-subtype as a default call option.
func NewClient(cc grpc.ClientConnInterface, token string) *Client {
	return &Client{cc: cc, token: token}
}

func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) withToken(ctx context.Context) context.Context {
	if c.token == "" {
		return ctx
	}
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.UITokenHeaderName, c.token)
	return metadata.NewOutgoingContext(ctx, md)
}

func (c *Client) tokenUnaryInterceptor(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
	return invoker(c.withToken(ctx), method, req, reply, cc, opts...)
}

func (c *Client) tokenStreamInterceptor(ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn, method string, streamer grpc.Streamer, opts ...grpc.CallOption) (grpc.ClientStream, error) {
	return streamer(c.withToken(ctx), desc, cc, method, opts...)
}

func (c *Client) invoke(ctx context.Context, method string, in, out any) error {
	if err := c.cc.Invoke(c.withToken(ctx), method, in, out, grpc.CallContentSubtype(CodecName)); err != nil {
		return mapError(err)
	}
	return nil
}

func (c *Client) SendCode(ctx context.Context, email string) error {
	return c.invoke(ctx, SendCodeMethod, &SendCodeRequest{Email: email}, &Empty{})
}

func (c *Client) VerifyCode(ctx context.Context, email, code string) (*VerifyCodeResponse, error) {
	out := &VerifyCodeResponse{}
	if err := c.invoke(ctx, VerifyCodeMethod, &VerifyCodeRequest{Email: email, Code: code}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateProfile(ctx context.Context, username string) error {
	return c.invoke(ctx, CreateProfileMethod, &CreateProfileRequest{Username: username}, &Empty{})
}

func (c *Client) BeginEdit(ctx context.Context) (models.Profile, error) {
	out := &ProfileResponse{}
	if err := c.invoke(ctx, BeginEditMethod, &Empty{}, out); err != nil {
		return models.Profile{}, err
	}
	return out.Profile, nil
}

func (c *Client) SetField(ctx context.Context, field models.Field, value string) error {
	return c.invoke(ctx, SetFieldMethod, &SetFieldRequest{Field: string(field), Value: value}, &Empty{})
}

func (c *Client) CommitEdit(ctx context.Context) error {
	return c.invoke(ctx, CommitEditMethod, &Empty{}, &Empty{})
}

func (c *Client) CancelEdit(ctx context.Context) error {
	return c.invoke(ctx, CancelEditMethod, &Empty{}, &Empty{})
}

func (c *Client) SignOut(ctx context.Context) error {
	return c.invoke(ctx, SignOutMethod, &Empty{}, &Empty{})
}

func (c *Client) GetSnapshot(ctx context.Context) (*SnapshotResponse, error) {
	out := &SnapshotResponse{}
	if err := c.invoke(ctx, GetSnapshotMethod, &Empty{}, out); err != nil {
		return nil, err
	}
	return out, nil
}

// WatchNavigation streams navigation signals until ctx ends or the server
// goes away. The channel is closed when the stream ends; the error, if any,
// is delivered on errc.
func (c *Client) WatchNavigation(ctx context.Context, skipCurrent bool) (<-chan NavigationEvent, <-chan error, error) {
	stream, err := c.cc.NewStream(c.withToken(ctx), &ServiceDesc.Streams[0], WatchNavigationMethod, grpc.CallContentSubtype(CodecName))
	if err != nil {
		return nil, nil, mapError(err)
	}
	x := &grpc.GenericClientStream[WatchNavigationRequest, NavigationEvent]{ClientStream: stream}
	// io.EOF means the server already ended the stream; Recv reports why
	if err := x.ClientStream.SendMsg(&WatchNavigationRequest{SkipCurrent: skipCurrent}); err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, mapError(err)
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, nil, mapError(err)
	}

	events := make(chan NavigationEvent)
	errc := make(chan error, 1)
	go func() {
		defer close(events)
		for {
			ev, err := x.Recv()
			if err != nil {
				if status.Code(err) != codes.Canceled && ctx.Err() == nil {
					errc <- mapError(err)
				}
				return
			}
			select {
			case events <- *ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, errc, nil
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.PermissionDenied:
		return ErrForbidden
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s", client.ErrUnavailable, st.Message())
	}

	msg := st.Message()
	for _, known := range knownErrors {
		if strings.HasPrefix(msg, known.Error()) {
			return fmt.Errorf("%w%s", known, strings.TrimPrefix(msg, known.Error()))
		}
	}
	return fmt.Errorf("rpc error: %w", err)
}
