package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/musihub/backend/internal/models"
)

func testEvent(id string) models.ConnectionEvent {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return models.ConnectionEvent{
		Type: models.EventConnectionRequested,
		Request: models.ConnectionRequest{
			ID:          id,
			InitiatorID: "profile-a",
			RecipientID: "profile-b",
			Status:      models.ConnectionStatusPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		At: now,
	}
}

func TestHubPublishReachesOnlyTargetProfile(t *testing.T) {
	hub := NewHub(nil)
	target := hub.Subscribe("profile-b")
	other := hub.Subscribe("profile-c")
	defer target.Close()
	defer other.Close()

	hub.Publish(context.Background(), "profile-b", testEvent("req-1"))

	select {
	case event := <-target.Events():
		if event.Request.ID != "req-1" {
			t.Fatalf("unexpected event: %+v", event)
		}
	case <-time.After(time.Second):
		t.Fatal("expected event for subscribed profile")
	}

	select {
	case event := <-other.Events():
		t.Fatalf("unexpected event for other profile: %+v", event)
	default:
	}
}

func TestHubPublishDoesNotBlockWhenBufferIsFull(t *testing.T) {
	hub := NewHub(nil)
	sub := hub.Subscribe("profile-b")
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriptionBuffer*2; i++ {
			hub.Publish(context.Background(), "profile-b", testEvent("req"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}

	if got := len(sub.Events()); got != subscriptionBuffer {
		t.Fatalf("expected buffer to hold %d events, got %d", subscriptionBuffer, got)
	}
}

func TestSubscriptionClose(t *testing.T) {
	hub := NewHub(nil)
	sub := hub.Subscribe("profile-b")
	if hub.Subscribers("profile-b") != 1 {
		t.Fatal("expected one subscriber")
	}

	sub.Close()
	sub.Close()

	if hub.Subscribers("profile-b") != 0 {
		t.Fatal("expected subscriber to be removed")
	}
	if _, ok := <-sub.Events(); ok {
		t.Fatal("expected events channel to be closed")
	}

	hub.Publish(context.Background(), "profile-b", testEvent("req-1"))
}

func TestHubCloseAll(t *testing.T) {
	hub := NewHub(nil)
	a := hub.Subscribe("profile-a")
	b := hub.Subscribe("profile-b")

	hub.CloseAll()

	for _, sub := range []*Subscription{a, b} {
		if _, ok := <-sub.Events(); ok {
			t.Fatalf("expected events of %s to be closed", sub.ProfileID)
		}
	}
	if hub.Subscribers("profile-a") != 0 || hub.Subscribers("profile-b") != 0 {
		t.Fatal("expected no subscribers after CloseAll")
	}
}

func TestServeWSStreamsEvents(t *testing.T) {
	hub := NewHub([]string{"https://musihub.example"})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.ServeWS(w, r, "profile-b")
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	header := http.Header{"Origin": []string{"https://musihub.example"}}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(time.Second)
	for hub.Subscribers("profile-b") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscription was not registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.Publish(context.Background(), "profile-b", testEvent("req-9"))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Type    string `json:"type"`
		Request struct {
			ID          string `json:"id"`
			InitiatorID string `json:"profile_id_1"`
			Status      string `json:"status"`
		} `json:"request"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if msg.Type != models.EventConnectionRequested || msg.Request.ID != "req-9" || msg.Request.InitiatorID != "profile-a" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestServeWSRejectsForeignOrigin(t *testing.T) {
	hub := NewHub([]string{"https://musihub.example"})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.ServeWS(w, r, "profile-b")
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		t.Fatal("expected handshake to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 response, got %+v", resp)
	}
}
