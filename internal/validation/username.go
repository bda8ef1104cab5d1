// Package validation holds the pre-flight checks applied before anything is
// sent to the profile repository.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/profilesync/internal/common"
)

const (
	MinUsernameLength = 4
	MaxUsernameLength = 20
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

// Username reports whether s is acceptable as a username. Rules are checked in
// a fixed order so the first violated rule is the one reported. The returned
// error wraps common.ErrValidation.
func Username(s string) error {
	switch {
	case strings.TrimSpace(s) == "":
		return invalid("username cannot be empty")
	case strings.ContainsFunc(s, isSpace):
		return invalid("username cannot contain spaces")
	case utf8.RuneCountInString(s) < MinUsernameLength || utf8.RuneCountInString(s) > MaxUsernameLength:
		return invalid(fmt.Sprintf("username must be %d-%d characters long", MinUsernameLength, MaxUsernameLength))
	case !usernamePattern.MatchString(s):
		return invalid("username can only contain letters and numbers")
	}
	return nil
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f'
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", common.ErrValidation, msg)
}
