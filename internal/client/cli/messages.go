package cli

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dmitrijs2005/profilesync/internal/client/client"
	"github.com/dmitrijs2005/profilesync/internal/common"
)

// userMessage turns an error from a command into the line shown to the user.
func userMessage(err error) string {
	switch {
	case errors.Is(err, common.ErrValidation):
		return capitalize(strings.TrimPrefix(err.Error(), common.ErrValidation.Error()+": "))
	case errors.Is(err, common.ErrInvalidCode):
		return "OTP is incorrect. Please try again."
	case errors.Is(err, common.ErrUsernameTaken):
		return "Username is already taken"
	case errors.Is(err, common.ErrNotOnboarding):
		return "There is no profile to create right now"
	case errors.Is(err, common.ErrCreateInProgress):
		return "Your username is already being saved"
	case errors.Is(err, common.ErrNotActive):
		return "Your profile is not loaded yet"
	case errors.Is(err, common.ErrNoEdit):
		return "Nothing is being edited. Type 'edit' first."
	case errors.Is(err, common.ErrEditInProgress):
		return "A save is already in progress"
	case errors.Is(err, common.ErrUnknownField):
		return "Unknown field. Use username, name or intro."
	case errors.Is(err, common.ErrStale):
		return "The session changed before the request finished"
	case errors.Is(err, common.ErrNoSession), errors.Is(err, client.ErrUnauthorized):
		return "You are not signed in"
	case errors.Is(err, client.ErrUnavailable):
		return "Server unavailable, please try again later"
	case errors.Is(err, common.ErrRepository):
		return "Could not reach your profile, please try again"
	case errors.Is(err, errEmailRequired):
		return "Email address is required"
	default:
		return "Error: " + err.Error()
	}
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
