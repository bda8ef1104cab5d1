// Package uiapi defines the gRPC contract between the profilesync daemon and
// external screen processes: message types, a JSON codec, the service
// descriptor and a typed client.
//
// There is no .proto file. Messages are plain Go structs and travel as JSON
// under the "json" content-subtype; both sides pick the codec up by importing
// this package.
package uiapi
