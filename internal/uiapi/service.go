package uiapi

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "profilesync.ui.SessionService"

const (
	SendCodeMethod        = "/" + ServiceName + "/SendCode"
	VerifyCodeMethod      = "/" + ServiceName + "/VerifyCode"
	CreateProfileMethod   = "/" + ServiceName + "/CreateProfile"
	BeginEditMethod       = "/" + ServiceName + "/BeginEdit"
	SetFieldMethod        = "/" + ServiceName + "/SetField"
	CommitEditMethod      = "/" + ServiceName + "/CommitEdit"
	CancelEditMethod      = "/" + ServiceName + "/CancelEdit"
	SignOutMethod         = "/" + ServiceName + "/SignOut"
	GetSnapshotMethod     = "/" + ServiceName + "/GetSnapshot"
	WatchNavigationMethod = "/" + ServiceName + "/WatchNavigation"
)

// SessionServiceServer is implemented by the daemon.
type SessionServiceServer interface {
	SendCode(context.Context, *SendCodeRequest) (*Empty, error)
	VerifyCode(context.Context, *VerifyCodeRequest) (*VerifyCodeResponse, error)
	CreateProfile(context.Context, *CreateProfileRequest) (*Empty, error)
	BeginEdit(context.Context, *Empty) (*ProfileResponse, error)
	SetField(context.Context, *SetFieldRequest) (*Empty, error)
	CommitEdit(context.Context, *Empty) (*Empty, error)
	CancelEdit(context.Context, *Empty) (*Empty, error)
	SignOut(context.Context, *Empty) (*Empty, error)
	GetSnapshot(context.Context, *Empty) (*SnapshotResponse, error)
	WatchNavigation(*WatchNavigationRequest, grpc.ServerStreamingServer[NavigationEvent]) error
}

// ServiceDesc is registered with grpc.Server by RegisterSessionServiceServer.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SessionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("SendCode", SessionServiceServer.SendCode),
		unary("VerifyCode", SessionServiceServer.VerifyCode),
		unary("CreateProfile", SessionServiceServer.CreateProfile),
		unary("BeginEdit", SessionServiceServer.BeginEdit),
		unary("SetField", SessionServiceServer.SetField),
		unary("CommitEdit", SessionServiceServer.CommitEdit),
		unary("CancelEdit", SessionServiceServer.CancelEdit),
		unary("SignOut", SessionServiceServer.SignOut),
		unary("GetSnapshot", SessionServiceServer.GetSnapshot),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchNavigation",
			Handler:       watchNavigationHandler,
			ServerStreams: true,
		},
	},
}

func RegisterSessionServiceServer(s grpc.ServiceRegistrar, srv SessionServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func unary[Req, Resp any](name string, call func(SessionServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(SessionServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(SessionServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func watchNavigationHandler(srv any, stream grpc.ServerStream) error {
	in := new(WatchNavigationRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(SessionServiceServer).WatchNavigation(in, &grpc.GenericServerStream[WatchNavigationRequest, NavigationEvent]{ServerStream: stream})
}
