// Package connections implements the request workflow that links two musician profiles.
//
// A request is created pending by its initiator and may then be accepted or rejected
// by the workflow, or cancelled (deleted) while still pending. At most one request
// exists per unordered pair of profiles.
package connections

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/musihub/backend/internal/logging"
	"github.com/musihub/backend/internal/models"
)

const (
	pendingLimit  = 50
	acceptedLimit = 100
)

// PendingRequest is a pending request seen from one of its two profiles.
type PendingRequest struct {
	models.ConnectionRequest
	IsSender     bool
	OtherProfile *models.Profile
}

// Connection is an accepted request seen from one of its two profiles.
type Connection struct {
	models.ConnectionRequest
	ConnectedProfile *models.Profile
}

// PairStatus reports whether two profiles have a request between them.
type PairStatus struct {
	Exists  bool
	Status  string
	Request *models.ConnectionRequest
}

// Service coordinates connection requests between profiles.
type Service struct {
	store    Store
	notifier Notifier
	now      func() time.Time
	newID    func() string
}

// NewService constructs a Service. notifier may be nil.
func NewService(store Store, notifier Notifier) *Service {
	if store == nil {
		panic("connections: store must not be nil")
	}
	return &Service{
		store:    store,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// Request creates a pending connection request from initiator to recipient.
func (s *Service) Request(ctx context.Context, initiatorID, recipientID string) (models.ConnectionRequest, error) {
	ctx, span := logging.StartSpan(ctx, "connections.request")
	defer span.End()

	initiatorID = strings.TrimSpace(initiatorID)
	recipientID = strings.TrimSpace(recipientID)
	if initiatorID == "" || recipientID == "" {
		return models.ConnectionRequest{}, ErrProfileIDRequired
	}
	if initiatorID == recipientID {
		return models.ConnectionRequest{}, ErrSelfRequest
	}

	exists, err := s.HasExisting(ctx, initiatorID, recipientID)
	if err != nil {
		return models.ConnectionRequest{}, err
	}
	if exists {
		return models.ConnectionRequest{}, ErrRequestExists
	}

	now := s.now()
	request := models.ConnectionRequest{
		ID:          s.newID(),
		InitiatorID: initiatorID,
		RecipientID: recipientID,
		Status:      models.ConnectionStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.CreateRequest(ctx, request); err != nil {
		return models.ConnectionRequest{}, fmt.Errorf("create connection request: %w", err)
	}

	logging.FromContext(ctx).Info("connection requested", "requestId", request.ID, "initiatorId", initiatorID, "recipientId", recipientID)
	s.notify(ctx, recipientID, models.EventConnectionRequested, request)

	return request, nil
}

// HasExisting reports whether any request exists between the two profiles, in either order.
func (s *Service) HasExisting(ctx context.Context, profileA, profileB string) (bool, error) {
	if profileA == "" || profileB == "" {
		return false, ErrProfileIDRequired
	}

	_, err := s.store.FindBetween(ctx, profileA, profileB)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrRequestNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("check existing connection request: %w", err)
	}
}

// Get returns a single connection request.
func (s *Service) Get(ctx context.Context, requestID string) (models.ConnectionRequest, error) {
	if requestID == "" {
		return models.ConnectionRequest{}, ErrRequestIDRequired
	}
	return s.store.FindRequest(ctx, requestID)
}

// Pending lists pending requests the profile sent or received, newest first.
func (s *Service) Pending(ctx context.Context, profileID string) ([]PendingRequest, error) {
	if profileID == "" {
		return nil, ErrProfileIDRequired
	}

	requests, err := s.store.List(ctx, Query{
		ProfileID: profileID,
		Status:    models.ConnectionStatusPending,
		Limit:     pendingLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("list pending connection requests: %w", err)
	}

	out := make([]PendingRequest, 0, len(requests))
	for _, request := range requests {
		isSender := request.InitiatorID == profileID
		out = append(out, PendingRequest{
			ConnectionRequest: request,
			IsSender:          isSender,
			OtherProfile:      counterparty(request, isSender),
		})
	}
	return out, nil
}

// Accepted lists the profile's accepted connections, most recently updated first.
func (s *Service) Accepted(ctx context.Context, profileID string) ([]Connection, error) {
	if profileID == "" {
		return nil, ErrProfileIDRequired
	}

	requests, err := s.store.List(ctx, Query{
		ProfileID:     profileID,
		Status:        models.ConnectionStatusAccepted,
		SortByUpdated: true,
		Limit:         acceptedLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("list accepted connections: %w", err)
	}

	out := make([]Connection, 0, len(requests))
	for _, request := range requests {
		out = append(out, Connection{
			ConnectionRequest: request,
			ConnectedProfile:  counterparty(request, request.InitiatorID == profileID),
		})
	}
	return out, nil
}

// Accept moves a pending request to accepted.
func (s *Service) Accept(ctx context.Context, requestID string) (models.ConnectionRequest, error) {
	return s.respond(ctx, requestID, "accept", models.ConnectionStatusAccepted, models.EventConnectionAccepted)
}

// Reject moves a pending request to rejected.
func (s *Service) Reject(ctx context.Context, requestID string) (models.ConnectionRequest, error) {
	return s.respond(ctx, requestID, "reject", models.ConnectionStatusRejected, models.EventConnectionRejected)
}

// Cancel deletes a request that is still pending.
func (s *Service) Cancel(ctx context.Context, requestID string) error {
	ctx, span := logging.StartSpan(ctx, "connections.cancel")
	defer span.End()

	request, err := s.pendingRequest(ctx, requestID, "cancel")
	if err != nil {
		return err
	}

	if err := s.store.DeleteRequest(ctx, requestID, models.ConnectionStatusPending); err != nil {
		return s.writeError(err, "cancel")
	}

	logging.FromContext(ctx).Info("connection request cancelled", "requestId", requestID)
	s.notify(ctx, request.RecipientID, models.EventConnectionCancelled, request)
	return nil
}

// Status reports the request between two profiles, if any.
func (s *Service) Status(ctx context.Context, profileA, profileB string) (PairStatus, error) {
	if profileA == "" || profileB == "" {
		return PairStatus{}, ErrProfileIDRequired
	}

	request, err := s.store.FindBetween(ctx, profileA, profileB)
	if err != nil {
		if errors.Is(err, ErrRequestNotFound) {
			return PairStatus{}, nil
		}
		return PairStatus{}, fmt.Errorf("lookup connection status: %w", err)
	}

	return PairStatus{Exists: true, Status: request.Status, Request: &request}, nil
}

func (s *Service) respond(ctx context.Context, requestID, action, status, eventType string) (models.ConnectionRequest, error) {
	ctx, span := logging.StartSpan(ctx, "connections."+action)
	defer span.End()

	if _, err := s.pendingRequest(ctx, requestID, action); err != nil {
		return models.ConnectionRequest{}, err
	}

	updated, err := s.store.TransitionStatus(ctx, requestID, models.ConnectionStatusPending, status, s.now())
	if err != nil {
		return models.ConnectionRequest{}, s.writeError(err, action)
	}

	logging.FromContext(ctx).Info("connection request answered", "requestId", requestID, "status", status)
	s.notify(ctx, updated.InitiatorID, eventType, updated)

	return updated, nil
}

// pendingRequest re-reads the request and guards that it is still pending.
func (s *Service) pendingRequest(ctx context.Context, requestID, action string) (models.ConnectionRequest, error) {
	if requestID == "" {
		return models.ConnectionRequest{}, ErrRequestIDRequired
	}

	request, err := s.store.FindRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, ErrRequestNotFound) {
			return models.ConnectionRequest{}, err
		}
		return models.ConnectionRequest{}, fmt.Errorf("load connection request: %w", err)
	}

	if request.Status != models.ConnectionStatusPending {
		return models.ConnectionRequest{}, fmt.Errorf("cannot %s a request with status: %s: %w", action, request.Status, ErrNotPending)
	}

	return request, nil
}

func (s *Service) writeError(err error, action string) error {
	switch {
	case errors.Is(err, ErrStatusChanged):
		return fmt.Errorf("cannot %s a request that changed concurrently: %w", action, ErrNotPending)
	case errors.Is(err, ErrRequestNotFound):
		return err
	default:
		return fmt.Errorf("%s connection request: %w", action, err)
	}
}

func (s *Service) notify(ctx context.Context, profileID, eventType string, request models.ConnectionRequest) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(ctx, profileID, models.ConnectionEvent{
		Type:    eventType,
		Request: request,
		At:      s.now(),
	})
}

func counterparty(request models.ConnectionRequest, isInitiator bool) *models.Profile {
	if isInitiator {
		return request.Recipient
	}
	return request.Initiator
}
