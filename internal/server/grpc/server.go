// Package grpc serves the UI façade: a gRPC SessionService that lets
// external screen processes drive the reconciliation engine.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/profilesync/internal/client/models"
	"github.com/dmitrijs2005/profilesync/internal/client/reconcile"
	"github.com/dmitrijs2005/profilesync/internal/logging"
	"github.com/dmitrijs2005/profilesync/internal/uiapi"
	"google.golang.org/grpc"
)

// Sessions is the part of the session store exposed to screens.
type Sessions interface {
	SendCode(ctx context.Context, email string) error
	Verify(ctx context.Context, email, code string) (*models.Session, error)
}

// Engine is the reconciliation engine surface exposed to screens.
type Engine interface {
	CreateProfile(ctx context.Context, username string) error
	BeginEdit(ctx context.Context) (models.Profile, error)
	SetField(ctx context.Context, field models.Field, value string) error
	CommitEdit(ctx context.Context) error
	CancelEdit(ctx context.Context) error
	SignOut(ctx context.Context) error
	Snapshot() reconcile.Snapshot
	OnNavigate(handler func(reconcile.Destination)) (unsubscribe func())
}

type GRPCServer struct {
	address  string
	sessions Sessions
	engine   Engine
	logger   logging.Logger
	uiToken  string
}

func NewGRPCServer(a string, l logging.Logger, sessions Sessions, engine Engine, uiToken string) *GRPCServer {
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		sessions: sessions,
		engine:   engine,
		uiToken:  uiToken,
	}
}

// Run listens on the configured address and serves until ctx ends.
func (s *GRPCServer) Run(ctx context.Context) error {
	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve serves on lis until ctx ends, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.uiTokenInterceptor),
		grpc.ChainStreamInterceptor(s.uiTokenStreamInterceptor),
	)

	uiapi.RegisterSessionServiceServer(srv, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
