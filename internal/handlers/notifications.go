package handlers

import (
	"net/http"

	"github.com/musihub/backend/internal/logging"
)

// NotificationHandler streams connection events to the caller's profile.
type NotificationHandler struct {
	Events   NotificationStream
	Resolver ProfileResolver
}

// Stream handles GET /api/v1/notifications/ws.
func (h NotificationHandler) Stream(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.Resolver.caller(w, r)
	if !ok {
		return
	}

	// ServeWS answers failed handshakes itself.
	if err := h.Events.ServeWS(w, r, caller.ID); err != nil {
		logging.FromContext(r.Context()).Warn("notification stream ended", "error", err, "profileId", caller.ID)
	}
}
