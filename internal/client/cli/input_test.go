package cli

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetSimpleText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trims", "  alice42 \n", "alice42"},
		{"crlf", "alice42\r\n", "alice42"},
		{"last line without newline", "alice42", "alice42"},
		{"first line only", "alice42\nbob\n", "alice42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := GetSimpleText(bufio.NewReader(strings.NewReader(tt.input)), "Enter your email", &out)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.Equal(t, "Enter your email\n> ", out.String())
		})
	}
}

func TestGetSimpleText_EmptyInput(t *testing.T) {
	_, err := GetSimpleText(bufio.NewReader(strings.NewReader("")), "Enter your email", io.Discard)
	require.ErrorIs(t, err, io.EOF)
}

func TestGetMultiline(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"stops at empty line", "Hi there.\nI like Go.\n\nignored\n", "Hi there.\nI like Go."},
		{"eof without empty line", "Hi there.\r\nI like Go.", "Hi there.\nI like Go."},
		{"nothing entered", "\n", ""},
		{"empty input", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := GetMultiline(bufio.NewReader(strings.NewReader(tt.input)), "Enter your introduction", &out)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.True(t, strings.HasPrefix(out.String(), "Enter your introduction\n"))
		})
	}
}

func TestGetCode(t *testing.T) {
	old := readPassword
	t.Cleanup(func() { readPassword = old })

	readPassword = func(int) ([]byte, error) { return []byte(" 123-456 "), nil }

	var out bytes.Buffer
	code, err := GetCode(&out, "a@b.c")
	require.NoError(t, err)
	require.Equal(t, []byte("123456"), code)
	require.Equal(t, "Enter Verification Code (sent to a@b.c): \n", out.String())

	out.Reset()
	_, err = GetCode(&out, "")
	require.NoError(t, err)
	require.Equal(t, "Enter Verification Code: \n", out.String())

	boom := errors.New("boom")
	readPassword = func(int) ([]byte, error) { return nil, boom }
	_, err = GetCode(io.Discard, "a@b.c")
	require.ErrorIs(t, err, boom)
}
