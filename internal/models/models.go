package models

import "time"

// User represents an account within the MusiHub platform.
type User struct {
	ID        string
	Name      string
	Email     string
	Password  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Profile is the public musician record owned by a user account.
type Profile struct {
	ID         string
	UserID     string
	Name       string
	Email      string
	Bio        string
	Location   string
	PictureURL string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

const (
	DefaultProfileBio        = "This is a default bio."
	DefaultProfileLocation   = "This is a default location."
	DefaultProfilePictureURL = "https://example.com/default-profile-picture.png"
)

// DefaultProfile builds the profile every new account starts with.
func DefaultProfile(id string, user User, now time.Time) Profile {
	return Profile{
		ID:         id,
		UserID:     user.ID,
		Name:       user.Name,
		Email:      user.Email,
		Bio:        DefaultProfileBio,
		Location:   DefaultProfileLocation,
		PictureURL: DefaultProfilePictureURL,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// ConnectionRequest is a directed proposal from one profile to another.
// Initiator and Recipient are only populated by queries that expand profiles.
type ConnectionRequest struct {
	ID          string
	InitiatorID string
	RecipientID string
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	RespondedAt *time.Time

	Initiator *Profile
	Recipient *Profile
}

const (
	ConnectionStatusPending  = "pending"
	ConnectionStatusAccepted = "accepted"
	ConnectionStatusRejected = "rejected"
)

// ConnectionEvent describes a change to a connection request delivered to one profile.
type ConnectionEvent struct {
	Type    string
	Request ConnectionRequest
	At      time.Time
}

const (
	EventConnectionRequested = "connection.requested"
	EventConnectionAccepted  = "connection.accepted"
	EventConnectionRejected  = "connection.rejected"
	EventConnectionCancelled = "connection.cancelled"
)

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}
