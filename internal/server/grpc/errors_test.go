package grpc

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/profilesync/internal/client/client"
	"github.com/dmitrijs2005/profilesync/internal/common"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		code codes.Code
	}{
		{fmt.Errorf("%w: too short", common.ErrValidation), codes.InvalidArgument},
		{common.ErrUnknownField, codes.InvalidArgument},
		{fmt.Errorf("%w: 23505", common.ErrUsernameTaken), codes.AlreadyExists},
		{common.ErrInvalidCode, codes.Unauthenticated},
		{common.ErrNotActive, codes.FailedPrecondition},
		{common.ErrNotOnboarding, codes.FailedPrecondition},
		{common.ErrNoEdit, codes.FailedPrecondition},
		{common.ErrEditInProgress, codes.Aborted},
		{common.ErrStale, codes.Aborted},
		{fmt.Errorf("%w: dial", client.ErrUnavailable), codes.Unavailable},
		{context.DeadlineExceeded, codes.DeadlineExceeded},
		{fmt.Errorf("%w: boom", common.ErrRepository), codes.Internal},
		{errors.New("other"), codes.Internal},
	}
	for _, tt := range tests {
		st, ok := status.FromError(toStatus(tt.err))
		require.True(t, ok)
		require.Equal(t, tt.code, st.Code(), tt.err.Error())
		require.Equal(t, tt.err.Error(), st.Message())
	}

	require.NoError(t, toStatus(nil))
}
