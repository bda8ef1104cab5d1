package models

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/profilesync/internal/common"
)

// Profile is the durable user record stored in the backend table.
// Email holds the user's free-text introduction despite its name; the column
// is kept as-is for compatibility with the table schema.
type Profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

// ProfilePatch is a partial update. Nil fields are left untouched.
type ProfilePatch struct {
	Username *string `json:"username,omitempty"`
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
}

// Apply returns a copy of p with the non-nil fields of patch applied.
func (patch ProfilePatch) Apply(p Profile) Profile {
	if patch.Username != nil {
		p.Username = *patch.Username
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Email != nil {
		p.Email = *patch.Email
	}
	return p
}

// Field names an editable profile attribute.
type Field string

const (
	FieldUsername Field = "username"
	FieldName     Field = "name"
	FieldEmail    Field = "email"
)

// ParseField maps user input to a Field. "intro" and "introduction" are
// accepted for the email column.
func ParseField(s string) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "username":
		return FieldUsername, nil
	case "name":
		return FieldName, nil
	case "email", "intro", "introduction":
		return FieldEmail, nil
	default:
		return "", fmt.Errorf("%w: %q", common.ErrUnknownField, s)
	}
}
