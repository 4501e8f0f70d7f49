package connections

import (
	"context"
	"time"

	"github.com/musihub/backend/internal/models"
)

// Query selects connection requests touching a profile.
type Query struct {
	ProfileID string
	Status    string
	// SortByUpdated orders by last update instead of creation, newest first either way.
	SortByUpdated bool
	Limit         int
}

// Store persists connection requests.
//
// CreateRequest returns ErrRequestExists when the pair already has a request and
// ErrProfileNotFound when either profile is unknown. FindBetween matches the pair in either order. List results carry expanded
// Initiator and Recipient profiles. TransitionStatus and DeleteRequest only apply
// when the stored status still equals from/status and return ErrStatusChanged otherwise.
type Store interface {
	CreateRequest(ctx context.Context, request models.ConnectionRequest) error
	FindRequest(ctx context.Context, requestID string) (models.ConnectionRequest, error)
	FindBetween(ctx context.Context, profileA, profileB string) (models.ConnectionRequest, error)
	List(ctx context.Context, query Query) ([]models.ConnectionRequest, error)
	TransitionStatus(ctx context.Context, requestID, from, to string, at time.Time) (models.ConnectionRequest, error)
	DeleteRequest(ctx context.Context, requestID, status string) error
}

// Notifier delivers connection events to the profile they concern.
type Notifier interface {
	Publish(ctx context.Context, profileID string, event models.ConnectionEvent)
}
