// Package client contains the client-side transports for profilesync.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic auth contract (see the AuthClient interface):
//     SendOneTimeCode, VerifyOneTimeCode, Refresh and SignOut.
//  2. A concrete implementation against the GoTrue HTTP API (see
//     GoTrueClient). Access tokens are decoded without verification to read
//     the subject, email, user metadata and expiry; the backend remains the
//     authority on signatures.
//  3. Local persistence bootstrap utilities (InitDatabase, RunMigrations)
//     that open the SQLite metadata store and apply embedded goose
//     migrations.
//
// # Error Handling
//
// Common conditions are exposed as sentinel errors that callers can match with
// errors.Is: ErrUnavailable, ErrUnauthorized, ErrInvalidCode.
//
// All operations accept context.Context and honor cancellation/timeouts.
package client
