package validation

import (
	"strings"
	"testing"

	"github.com/dmitrijs2005/profilesync/internal/common"
	"github.com/stretchr/testify/require"
)

func TestUsername_Valid(t *testing.T) {
	for _, u := range []string{"alice42", "abcd", "ABCD1234", strings.Repeat("a", 20), "0000"} {
		require.NoError(t, Username(u), u)
	}
}

func TestUsername_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
		msg  string
	}{
		{name: "empty", in: "", msg: "cannot be empty"},
		{name: "blank", in: "    ", msg: "cannot be empty"},
		{name: "space inside", in: "ali ce", msg: "cannot contain spaces"},
		{name: "tab inside", in: "ali\tce", msg: "cannot contain spaces"},
		{name: "leading space", in: " alice", msg: "cannot contain spaces"},
		{name: "length 3", in: "bob", msg: "4-20 characters"},
		{name: "length 21", in: strings.Repeat("a", 21), msg: "4-20 characters"},
		{name: "dash", in: "ab-cd", msg: "letters and numbers"},
		{name: "underscore", in: "ab_cd", msg: "letters and numbers"},
		{name: "non ascii", in: "ålice", msg: "letters and numbers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Username(tt.in)
			require.ErrorIs(t, err, common.ErrValidation)
			require.Contains(t, err.Error(), tt.msg)
		})
	}
}
