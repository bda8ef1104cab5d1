package grpc

import (
	"context"
	"crypto/subtle"

	"github.com/dmitrijs2005/profilesync/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// authorized reports whether ctx carries the configured ui token. Without a
// configured token every call is allowed.
func (s *GRPCServer) authorized(ctx context.Context) bool {
	if s.uiToken == "" {
		return true
	}
	var token string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get(common.UITokenHeaderName)
		if len(values) > 0 {
			token = values[0]
		}
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.uiToken)) == 1
}

func (s *GRPCServer) uiTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if !s.authorized(ctx) {
		s.logger.Warn(ctx, "rejected call without valid ui token", "method", info.FullMethod)
		return nil, status.Error(codes.PermissionDenied, "invalid ui token")
	}
	return handler(ctx, req)
}

func (s *GRPCServer) uiTokenStreamInterceptor(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	if !s.authorized(ss.Context()) {
		s.logger.Warn(ss.Context(), "rejected stream without valid ui token", "method", info.FullMethod)
		return status.Error(codes.PermissionDenied, "invalid ui token")
	}
	return handler(srv, ss)
}
