package reconcile

import "github.com/dmitrijs2005/profilesync/internal/client/models"

// State is the coarse lifecycle position of the signed-in user.
type State int

const (
	SignedOut State = iota
	AwaitingProfile
	Active
)

func (s State) String() string {
	switch s {
	case SignedOut:
		return "signed-out"
	case AwaitingProfile:
		return "awaiting-profile"
	case Active:
		return "active"
	default:
		return "unknown"
	}
}

// Destination is the navigation signal for screen consumers.
type Destination string

const (
	DestinationNone       Destination = ""
	DestinationSignIn     Destination = "sign-in"
	DestinationOnboarding Destination = "onboarding"
	DestinationMain       Destination = "main"
)

// Snapshot is an immutable view of the engine, published after every event.
type Snapshot struct {
	State State

	// SessionUserID is the subject of the current session, if any.
	SessionUserID string

	// User is CurrentUser; nil unless State is Active.
	User *models.Profile

	Editing bool
	// Draft holds the draft values while Editing.
	Draft *models.Profile
	// Saving is set while an edit commit is in flight.
	Saving bool
	// Creating is set while onboarding profile creation is in flight.
	Creating bool

	// Destination is the most recent navigation signal.
	Destination Destination

	// LastError is the most recent surfaced failure; cleared by the next
	// successful transition.
	LastError error

	Generation uint64
}

func profilePtr(p models.Profile) *models.Profile {
	return &p
}
