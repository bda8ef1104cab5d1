// Package cli provides the interactive profilesync command-line client.
//
// It drives the reconciliation engine from a REPL: sign in with a one-time
// code, pick a username on first sign-in, then view and edit the profile.
// Navigation signals from the engine are printed as they arrive, so the
// terminal follows the same sign-in → onboarding → main flow a screen
// would.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
