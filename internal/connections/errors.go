package connections

import "errors"

var (
	// ErrProfileIDRequired indicates a missing initiator, recipient or querying profile.
	ErrProfileIDRequired = errors.New("profile id is required")
	// ErrRequestIDRequired indicates a missing connection request identifier.
	ErrRequestIDRequired = errors.New("request id is required")
	// ErrSelfRequest indicates a profile tried to connect with itself.
	ErrSelfRequest = errors.New("cannot create a connection request with yourself")
	// ErrRequestExists indicates a request already exists for the pair in either direction.
	ErrRequestExists = errors.New("a connection request already exists between these profiles")
	// ErrProfileNotFound indicates the initiator or recipient profile does not exist.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrRequestNotFound indicates the connection request does not exist.
	ErrRequestNotFound = errors.New("connection request not found")
	// ErrNotPending indicates a transition was attempted on a request that is no longer pending.
	ErrNotPending = errors.New("connection request is not pending")
	// ErrStatusChanged is returned by stores when a conditional write found a different status.
	ErrStatusChanged = errors.New("connection request status changed")
)
