package reconcile

import (
	"github.com/dmitrijs2005/profilesync/internal/client/edit"
	"github.com/dmitrijs2005/profilesync/internal/client/feed"
	"github.com/dmitrijs2005/profilesync/internal/client/models"
)

// event is anything the actor loop handles. Completions of asynchronous work
// carry the generation they were issued under.
type event interface {
	name() string
}

type startupDone struct {
	gen     uint64
	session *models.Session
	err     error
}

type sessionChanged struct {
	session *models.Session
}

type fetchDone struct {
	gen     uint64
	id      string
	profile *models.Profile
	err     error
}

type createRequested struct {
	username string
	reply    chan error
}

type createDone struct {
	gen     uint64
	id      string
	profile *models.Profile
	err     error
	reply   chan error
}

type subscribed struct {
	token uint64
	id    string
	sub   feed.Subscription
	err   error
}

type profilePushed struct {
	token   uint64
	id      string
	profile models.Profile
}

type editBegun struct {
	reply chan editReply
}

type editReply struct {
	draft models.Profile
	err   error
}

type fieldSet struct {
	field models.Field
	value string
	reply chan error
}

type editCommitted struct {
	reply chan error
}

type commitDone struct {
	gen     uint64
	id      string
	draft   *edit.Draft
	profile *models.Profile
	err     error
	reply   chan error
}

type editCancelled struct {
	reply chan error
}

type signOutRequested struct {
	reply chan error
}

func (startupDone) name() string      { return "startup_done" }
func (sessionChanged) name() string   { return "session_changed" }
func (fetchDone) name() string        { return "fetch_done" }
func (createRequested) name() string  { return "create_requested" }
func (createDone) name() string       { return "create_done" }
func (subscribed) name() string       { return "subscribed" }
func (profilePushed) name() string    { return "profile_pushed" }
func (editBegun) name() string        { return "edit_begun" }
func (fieldSet) name() string         { return "field_set" }
func (editCommitted) name() string    { return "edit_committed" }
func (commitDone) name() string       { return "commit_done" }
func (editCancelled) name() string    { return "edit_cancelled" }
func (signOutRequested) name() string { return "sign_out_requested" }
