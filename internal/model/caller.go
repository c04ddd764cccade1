package model

// Caller is the verified subject of the current request, bound by the bearer
// middleware. Token is the raw credential, kept so that calls to other
// services can forward it.
type Caller struct {
	ID    uint64 // identity id from the uid claim
	Email string // token subject
	Token string // raw bearer credential
}
