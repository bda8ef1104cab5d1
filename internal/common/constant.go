package common

// UITokenHeaderName is the gRPC metadata key carrying the shared secret that
// screen processes present to the UI façade.
const UITokenHeaderName = "ui_token"

// ProfileTable is the name of the relational table holding profiles.
const ProfileTable = "User"
