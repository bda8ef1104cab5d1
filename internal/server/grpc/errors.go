package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/profilesync/internal/client/client"
	"github.com/dmitrijs2005/profilesync/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps a domain error onto a gRPC status. The message keeps the
// original error text so the client can recover the sentinel.
func toStatus(err error) error {
	if err == nil {
		return nil
	}

	var code codes.Code
	switch {
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrUnknownField):
		code = codes.InvalidArgument
	case errors.Is(err, common.ErrUsernameTaken):
		code = codes.AlreadyExists
	case errors.Is(err, common.ErrInvalidCode):
		code = codes.Unauthenticated
	case errors.Is(err, common.ErrNotActive),
		errors.Is(err, common.ErrNotOnboarding),
		errors.Is(err, common.ErrNoEdit),
		errors.Is(err, common.ErrNoSession):
		code = codes.FailedPrecondition
	case errors.Is(err, common.ErrEditInProgress), errors.Is(err, common.ErrCreateInProgress), errors.Is(err, common.ErrStale):
		code = codes.Aborted
	case errors.Is(err, client.ErrUnavailable), errors.Is(err, client.ErrTransport), errors.Is(err, common.ErrEngineStopped):
		code = codes.Unavailable
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	default:
		code = codes.Internal
	}
	return status.Error(code, err.Error())
}
