// Package notify fans connection events out to the websocket sessions of the profile they concern.
package notify

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/musihub/backend/internal/logging"
	"github.com/musihub/backend/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024

	subscriptionBuffer = 16
)

// Hub routes events to subscribers keyed by profile id. The zero value is not usable.
type Hub struct {
	mu       sync.RWMutex
	subs     map[string]map[*Subscription]struct{}
	upgrader websocket.Upgrader
}

// NewHub builds a Hub. Websocket handshakes are accepted from the listed origins,
// from any origin when the list contains "*", and always when no Origin header is sent.
func NewHub(allowedOrigins []string) *Hub {
	h := &Hub{subs: make(map[string]map[*Subscription]struct{})}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			return slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
		},
	}
	return h
}

// Subscription receives the events published for one profile.
type Subscription struct {
	ProfileID string

	hub    *Hub
	events chan models.ConnectionEvent
	once   sync.Once
}

// Events is closed when the subscription is closed.
func (s *Subscription) Events() <-chan models.ConnectionEvent {
	return s.events
}

// Close detaches the subscription from the hub. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		defer s.hub.mu.Unlock()
		if set, ok := s.hub.subs[s.ProfileID]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(s.hub.subs, s.ProfileID)
			}
		}
		close(s.events)
	})
}

// Subscribe registers interest in the events of a profile.
func (h *Hub) Subscribe(profileID string) *Subscription {
	sub := &Subscription{
		ProfileID: profileID,
		hub:       h,
		events:    make(chan models.ConnectionEvent, subscriptionBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[profileID]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[profileID] = set
	}
	set[sub] = struct{}{}
	return sub
}

// Subscribers counts the open subscriptions for a profile.
func (h *Hub) Subscribers(profileID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[profileID])
}

// CloseAll closes every open subscription, ending their websocket streams.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	var open []*Subscription
	for _, set := range h.subs {
		for sub := range set {
			open = append(open, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range open {
		sub.Close()
	}
}

// Publish delivers event to every subscriber of profileID without blocking.
// Subscribers whose buffer is full miss the event.
func (h *Hub) Publish(ctx context.Context, profileID string, event models.ConnectionEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[profileID] {
		select {
		case sub.events <- event:
		default:
			logging.FromContext(ctx).Warn("dropping connection event for slow subscriber", "profileId", profileID, "type", event.Type)
		}
	}
}

// ServeWS upgrades the request and streams events for profileID until the client
// goes away or the request context ends.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, profileID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	sub := h.Subscribe(profileID)
	defer sub.Close()

	logger := logging.FromContext(r.Context())
	logger.Info("notification stream opened", "profileId", profileID)

	done := make(chan struct{})
	go readPump(conn, done)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			logger.Info("notification stream closed", "profileId", profileID)
			return nil
		case <-r.Context().Done():
			return nil
		case event, ok := <-sub.Events():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return nil
			}
			if err := conn.WriteJSON(newEventMessage(event)); err != nil {
				return err
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}

// readPump discards client frames and keeps the read deadline fresh on pong.
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

type eventMessage struct {
	Type    string         `json:"type"`
	Request requestPayload `json:"request"`
	At      time.Time      `json:"at"`
}

type requestPayload struct {
	ID          string     `json:"id"`
	InitiatorID string     `json:"profile_id_1"`
	RecipientID string     `json:"profile_id_2"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	RespondedAt *time.Time `json:"respondedAt,omitempty"`
}

func newEventMessage(event models.ConnectionEvent) eventMessage {
	req := event.Request
	return eventMessage{
		Type: event.Type,
		Request: requestPayload{
			ID:          req.ID,
			InitiatorID: req.InitiatorID,
			RecipientID: req.RecipientID,
			Status:      req.Status,
			CreatedAt:   req.CreatedAt,
			UpdatedAt:   req.UpdatedAt,
			RespondedAt: req.RespondedAt,
		},
		At: event.At,
	}
}
