package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/musihub/backend/internal/connections"
	"github.com/musihub/backend/internal/models"
)

// UserStore captures the persistence operations required by the auth handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
}

// ProfileStore captures the persistence operations on musician profiles.
type ProfileStore interface {
	Create(ctx context.Context, profile models.Profile) error
	FindByID(ctx context.Context, id string) (models.Profile, error)
	FindByUserID(ctx context.Context, userID string) (models.Profile, error)
	SearchByName(ctx context.Context, name string, limit int) ([]models.Profile, error)
	Update(ctx context.Context, profile models.Profile) error
}

// SessionManager issues, refreshes and revokes authentication tokens for users.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, refreshToken string)
}

// TokenVerifier resolves access tokens for the authentication middleware.
type TokenVerifier interface {
	Verify(accessToken string) (string, error)
}

// ConnectionService runs the connection-request workflow.
type ConnectionService interface {
	Request(ctx context.Context, initiatorID, recipientID string) (models.ConnectionRequest, error)
	Get(ctx context.Context, requestID string) (models.ConnectionRequest, error)
	Pending(ctx context.Context, profileID string) ([]connections.PendingRequest, error)
	Accepted(ctx context.Context, profileID string) ([]connections.Connection, error)
	Accept(ctx context.Context, requestID string) (models.ConnectionRequest, error)
	Reject(ctx context.Context, requestID string) (models.ConnectionRequest, error)
	Cancel(ctx context.Context, requestID string) error
	Status(ctx context.Context, profileA, profileB string) (connections.PairStatus, error)
}

// PictureStorage persists uploaded profile pictures and returns their public URL.
type PictureStorage interface {
	SavePicture(ctx context.Context, profileID, filename, contentType string, r io.Reader) (string, error)
}

// NotificationStream serves the realtime event stream of a profile.
type NotificationStream interface {
	ServeWS(w http.ResponseWriter, r *http.Request, profileID string) error
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
