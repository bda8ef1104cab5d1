// Package edit holds the transient local draft of profile fields used while
// the user is editing. A draft does no validation; callers validate before
// committing.
package edit

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/profilesync/internal/client/models"
	"github.com/dmitrijs2005/profilesync/internal/common"
)

// Draft is not safe for concurrent use; the reconciliation engine owns it.
type Draft struct {
	values    models.Profile
	dirty     bool
	discarded bool
}

// Begin seeds a draft from the authoritative profile.
func Begin(from models.Profile) *Draft {
	return &Draft{values: from}
}

// Set changes one field of the draft.
func (d *Draft) Set(field models.Field, value string) error {
	if d.discarded {
		return common.ErrNoEdit
	}
	switch field {
	case models.FieldUsername:
		d.values.Username = value
	case models.FieldName:
		d.values.Name = value
	case models.FieldEmail:
		d.values.Email = value
	default:
		return fmt.Errorf("%w: %q", common.ErrUnknownField, string(field))
	}
	d.dirty = true
	return nil
}

// Discard ends the draft without touching anything else. Safe to repeat.
func (d *Draft) Discard() {
	d.discarded = true
}

func (d *Draft) Active() bool {
	return d != nil && !d.discarded
}

func (d *Draft) Dirty() bool {
	return d.dirty
}

// Values returns a copy of the current draft values.
func (d *Draft) Values() models.Profile {
	return d.values
}

// Username returns the candidate username as it will be committed.
func (d *Draft) Username() string {
	return strings.TrimSpace(d.values.Username)
}

// Patch builds the update sent on commit: the username trimmed, name and
// email passed through verbatim.
func (d *Draft) Patch() models.ProfilePatch {
	username := d.Username()
	name := d.values.Name
	email := d.values.Email
	return models.ProfilePatch{Username: &username, Name: &name, Email: &email}
}
