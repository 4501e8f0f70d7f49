package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/musihub/backend/internal/connections"
	"github.com/musihub/backend/internal/logging"
	"github.com/musihub/backend/internal/models"
)

// ConnectionHandler exposes the connection-request workflow to the authenticated caller.
type ConnectionHandler struct {
	Connections ConnectionService
	Resolver    ProfileResolver
}

// Create handles POST /api/v1/connections with body {"profileId": "..."}.
func (h ConnectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, ok := h.Resolver.caller(w, r)
	if !ok {
		return
	}

	var req createConnectionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logging.FromContext(ctx).Warn("invalid connection payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	request, err := h.Connections.Request(ctx, caller.ID, strings.TrimSpace(req.ProfileID))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, newConnectionResponse(request))
}

// Accepted handles GET /api/v1/connections.
func (h ConnectionHandler) Accepted(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, ok := h.Resolver.caller(w, r)
	if !ok {
		return
	}

	items, err := h.Connections.Accepted(ctx, caller.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"connections": newAcceptedResponses(items)})
}

// Pending handles GET /api/v1/connections/pending.
func (h ConnectionHandler) Pending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, ok := h.Resolver.caller(w, r)
	if !ok {
		return
	}

	items, err := h.Connections.Pending(ctx, caller.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"requests": newPendingResponses(items)})
}

// Status handles GET /api/v1/connections/status/{profileId}.
func (h ConnectionHandler) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, ok := h.Resolver.caller(w, r)
	if !ok {
		return
	}

	status, err := h.Connections.Status(ctx, caller.ID, mux.Vars(r)["profileId"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, newStatusResponse(status))
}

// Accept handles POST /api/v1/connections/{id}/accept. Only the recipient may accept.
func (h ConnectionHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.Connections.Accept)
}

// Reject handles POST /api/v1/connections/{id}/reject. Only the recipient may reject.
func (h ConnectionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.Connections.Reject)
}

func (h ConnectionHandler) respond(w http.ResponseWriter, r *http.Request, transition func(ctx context.Context, id string) (models.ConnectionRequest, error)) {
	ctx := r.Context()

	request, ok := h.authorize(w, r, func(caller models.Profile, req models.ConnectionRequest) bool {
		return req.RecipientID == caller.ID
	})
	if !ok {
		return
	}

	updated, err := transition(ctx, request.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, newConnectionResponse(updated))
}

// Cancel handles DELETE /api/v1/connections/{id}. Only the initiator may cancel.
func (h ConnectionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	request, ok := h.authorize(w, r, func(caller models.Profile, req models.ConnectionRequest) bool {
		return req.InitiatorID == caller.ID
	})
	if !ok {
		return
	}

	if err := h.Connections.Cancel(ctx, request.ID); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// authorize loads the request named in the path and checks the caller's role on it.
func (h ConnectionHandler) authorize(w http.ResponseWriter, r *http.Request, allowed func(models.Profile, models.ConnectionRequest) bool) (models.ConnectionRequest, bool) {
	ctx := r.Context()

	caller, ok := h.Resolver.caller(w, r)
	if !ok {
		return models.ConnectionRequest{}, false
	}

	request, err := h.Connections.Get(ctx, mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return models.ConnectionRequest{}, false
	}

	if !allowed(caller, request) {
		if request.InitiatorID != caller.ID && request.RecipientID != caller.ID {
			// Requests between other profiles are not disclosed.
			respondError(ctx, w, http.StatusNotFound, connections.ErrRequestNotFound.Error())
			return models.ConnectionRequest{}, false
		}
		respondError(ctx, w, http.StatusForbidden, "not allowed to change this connection request")
		return models.ConnectionRequest{}, false
	}

	return request, true
}

func (h ConnectionHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	status, message := connectionErrorStatus(err)
	if status == http.StatusInternalServerError {
		logging.FromContext(ctx).Error("connection workflow failed", "error", err)
	}
	respondError(ctx, w, status, message)
}

func connectionErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, connections.ErrProfileIDRequired),
		errors.Is(err, connections.ErrRequestIDRequired),
		errors.Is(err, connections.ErrSelfRequest):
		return http.StatusBadRequest, rootMessage(err)
	case errors.Is(err, connections.ErrRequestExists):
		return http.StatusConflict, connections.ErrRequestExists.Error()
	case errors.Is(err, connections.ErrNotPending):
		return http.StatusConflict, strings.TrimSuffix(err.Error(), ": "+connections.ErrNotPending.Error())
	case errors.Is(err, connections.ErrRequestNotFound),
		errors.Is(err, connections.ErrProfileNotFound):
		return http.StatusNotFound, rootMessage(err)
	default:
		return http.StatusInternalServerError, "unable to process connection request"
	}
}

// rootMessage returns the message of the innermost wrapped error.
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

type createConnectionRequest struct {
	ProfileID string `json:"profileId"`
}
