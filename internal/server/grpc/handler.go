package grpc

import (
	"context"

	"github.com/dmitrijs2005/profilesync/internal/client/models"
	"github.com/dmitrijs2005/profilesync/internal/client/reconcile"
	"github.com/dmitrijs2005/profilesync/internal/uiapi"
	"google.golang.org/grpc"
)

// navigationBuffer bounds how far a slow screen may lag before signals are
// dropped for it.
const navigationBuffer = 16

func (s *GRPCServer) SendCode(ctx context.Context, req *uiapi.SendCodeRequest) (*uiapi.Empty, error) {
	if err := s.sessions.SendCode(ctx, req.Email); err != nil {
		s.logger.Warn(ctx, "send code failed", "error", err)
		return nil, toStatus(err)
	}
	return &uiapi.Empty{}, nil
}

func (s *GRPCServer) VerifyCode(ctx context.Context, req *uiapi.VerifyCodeRequest) (*uiapi.VerifyCodeResponse, error) {
	sess, err := s.sessions.Verify(ctx, req.Email, req.Code)
	if err != nil {
		return nil, toStatus(err)
	}
	s.logger.Info(ctx, "verified", "user_id", sess.UserID)
	return &uiapi.VerifyCodeResponse{UserID: sess.UserID, Email: sess.Email}, nil
}

func (s *GRPCServer) CreateProfile(ctx context.Context, req *uiapi.CreateProfileRequest) (*uiapi.Empty, error) {
	if err := s.engine.CreateProfile(ctx, req.Username); err != nil {
		return nil, toStatus(err)
	}
	return &uiapi.Empty{}, nil
}

func (s *GRPCServer) BeginEdit(ctx context.Context, _ *uiapi.Empty) (*uiapi.ProfileResponse, error) {
	draft, err := s.engine.BeginEdit(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &uiapi.ProfileResponse{Profile: draft}, nil
}

func (s *GRPCServer) SetField(ctx context.Context, req *uiapi.SetFieldRequest) (*uiapi.Empty, error) {
	field, err := models.ParseField(req.Field)
	if err != nil {
		return nil, toStatus(err)
	}
	if err := s.engine.SetField(ctx, field, req.Value); err != nil {
		return nil, toStatus(err)
	}
	return &uiapi.Empty{}, nil
}

func (s *GRPCServer) CommitEdit(ctx context.Context, _ *uiapi.Empty) (*uiapi.Empty, error) {
	if err := s.engine.CommitEdit(ctx); err != nil {
		return nil, toStatus(err)
	}
	return &uiapi.Empty{}, nil
}

func (s *GRPCServer) CancelEdit(ctx context.Context, _ *uiapi.Empty) (*uiapi.Empty, error) {
	if err := s.engine.CancelEdit(ctx); err != nil {
		return nil, toStatus(err)
	}
	return &uiapi.Empty{}, nil
}

func (s *GRPCServer) SignOut(ctx context.Context, _ *uiapi.Empty) (*uiapi.Empty, error) {
	if err := s.engine.SignOut(ctx); err != nil {
		return nil, toStatus(err)
	}
	return &uiapi.Empty{}, nil
}

func (s *GRPCServer) GetSnapshot(ctx context.Context, _ *uiapi.Empty) (*uiapi.SnapshotResponse, error) {
	return snapshotResponse(s.engine.Snapshot()), nil
}

// WatchNavigation forwards navigation signals to the caller, starting with
// the current destination unless SkipCurrent is set.
func (s *GRPCServer) WatchNavigation(req *uiapi.WatchNavigationRequest, stream grpc.ServerStreamingServer[uiapi.NavigationEvent]) error {
	ctx := stream.Context()

	ch := make(chan reconcile.Destination, navigationBuffer)
	unsubscribe := s.engine.OnNavigate(func(d reconcile.Destination) {
		select {
		case ch <- d:
		default:
			s.logger.Warn(ctx, "navigation watcher lagging, signal dropped", "destination", string(d))
		}
	})
	defer unsubscribe()

	if !req.SkipCurrent {
		if d := s.engine.Snapshot().Destination; d != reconcile.DestinationNone {
			if err := stream.Send(&uiapi.NavigationEvent{Destination: string(d)}); err != nil {
				return err
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d := <-ch:
			if err := stream.Send(&uiapi.NavigationEvent{Destination: string(d)}); err != nil {
				return err
			}
		}
	}
}

func snapshotResponse(s reconcile.Snapshot) *uiapi.SnapshotResponse {
	out := &uiapi.SnapshotResponse{
		State:         s.State.String(),
		SessionUserID: s.SessionUserID,
		User:          s.User,
		Editing:       s.Editing,
		Draft:         s.Draft,
		Saving:        s.Saving,
		Creating:      s.Creating,
		Destination:   string(s.Destination),
		Generation:    s.Generation,
	}
	if s.LastError != nil {
		out.LastError = s.LastError.Error()
	}
	return out
}
