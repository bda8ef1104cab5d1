package uiapi

import "github.com/dmitrijs2005/profilesync/internal/client/models"

type Empty struct{}

type SendCodeRequest struct {
	Email string `json:"email"`
}

type VerifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type VerifyCodeResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

type CreateProfileRequest struct {
	Username string `json:"username"`
}

type ProfileResponse struct {
	Profile models.Profile `json:"profile"`
}

type SetFieldRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// SnapshotResponse mirrors the engine snapshot. LastError carries the
// message only.
type SnapshotResponse struct {
	State         string          `json:"state"`
	SessionUserID string          `json:"session_user_id,omitempty"`
	User          *models.Profile `json:"user,omitempty"`
	Editing       bool            `json:"editing"`
	Draft         *models.Profile `json:"draft,omitempty"`
	Saving        bool            `json:"saving"`
	Creating      bool            `json:"creating"`
	Destination   string          `json:"destination,omitempty"`
	LastError     string          `json:"last_error,omitempty"`
	Generation    uint64          `json:"generation"`
}

type WatchNavigationRequest struct {
	// SkipCurrent suppresses the initial event carrying the current
	// destination.
	SkipCurrent bool `json:"skip_current"`
}

type NavigationEvent struct {
	Destination string `json:"destination"`
}
