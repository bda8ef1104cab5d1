// Package models defines the client-side data types shared by the session
// store, the profile repository, the change feed and the reconciliation engine.
package models

import "time"

// Session is the authenticated identity credential issued by the auth
// transport. It says nothing about whether a Profile exists.
type Session struct {
	// UserID is the stable subject identifier (a UUID).
	UserID string `json:"user_id"`

	// Email is the address the one-time code was delivered to, if any.
	Email string `json:"email,omitempty"`

	// Metadata is the free-form user metadata attached by the auth provider.
	Metadata map[string]any `json:"metadata,omitempty"`

	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// DisplayName returns the "name" entry of the session metadata, or "".
func (s *Session) DisplayName() string {
	if s == nil || s.Metadata == nil {
		return ""
	}
	name, _ := s.Metadata["name"].(string)
	return name
}

// Expired reports whether the access token is past its expiry at now.
// A zero ExpiresAt never expires.
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
