package server

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gridbase/gridbase/internal/server/dto"
)

// subscriberCount reports how many subscribers one collection's room holds.
func (h *Hub) subscriberCount(collectionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[collectionID])
}

func TestSubscribeReceivesRefresh(t *testing.T) {
	env := newTestEnv(t)
	c := env.createCollection(t)

	wsURL := "ws" + strings.TrimPrefix(env.srv.URL, "http") +
		"/api/collections/" + c.ID + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer func() { _ = conn.Close() }()
	_ = resp.Body.Close()

	// The handler registers the subscriber after the upgrade handshake
	// completes; wait until it shows up before mutating.
	deadline := time.Now().Add(5 * time.Second)
	for env.server.hub.subscriberCount(c.ID) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	r := env.do(t, http.MethodPost, "/api/collections/"+c.ID+"/items",
		dto.CreateItemRequest{Data: map[string]any{"c2": "A"}}, true)
	_ = r.Body.Close()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg struct {
		Type       string `json:"type"`
		Collection string `json:"collection"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "refresh" || msg.Collection != c.ID {
		t.Errorf("message = %+v", msg)
	}
}

func TestHubDropsSlowSubscriber(t *testing.T) {
	h := NewHub()
	sub, ok := h.subscribe("c1")
	if !ok {
		t.Fatal("subscribe refused")
	}

	// Fill the send buffer without draining; the broadcast that finds it
	// full must drop the subscriber instead of blocking.
	for i := 0; i < cap(sub.send)+1; i++ {
		h.NotifyRefresh("c1")
	}
	if n := h.subscriberCount("c1"); n != 0 {
		t.Errorf("subscribers after overflow = %d", n)
	}

	// The channel is closed after the buffered messages drain.
	for i := 0; i < cap(sub.send); i++ {
		if _, ok := <-sub.send; !ok {
			t.Fatalf("channel closed after %d of %d messages", i, cap(sub.send))
		}
	}
	if _, ok := <-sub.send; ok {
		t.Error("channel not closed after drop")
	}
}

func TestHubNotifyIsScopedToCollection(t *testing.T) {
	h := NewHub()
	sub, _ := h.subscribe("c1")
	other, _ := h.subscribe("c2")

	h.NotifyRefresh("c1")
	select {
	case msg := <-sub.send:
		if msg.Collection != "c1" {
			t.Errorf("collection = %q", msg.Collection)
		}
	default:
		t.Error("subscriber did not receive broadcast")
	}
	select {
	case <-other.send:
		t.Error("broadcast leaked into another collection's room")
	default:
	}
}

func TestHubShutdown(t *testing.T) {
	h := NewHub()
	sub, _ := h.subscribe("c1")
	h.Shutdown()

	if _, ok := <-sub.send; ok {
		t.Error("channel not closed on shutdown")
	}
	if _, ok := h.subscribe("c1"); ok {
		t.Error("subscribe accepted after shutdown")
	}
	// Broadcasting into a shut-down hub is a no-op, not a panic.
	h.NotifyRefresh("c1")
}

func TestHubUnsubscribeIdempotent(t *testing.T) {
	h := NewHub()
	sub, _ := h.subscribe("c1")
	h.unsubscribe("c1", sub)
	h.unsubscribe("c1", sub)
	if n := h.subscriberCount("c1"); n != 0 {
		t.Errorf("subscribers = %d", n)
	}
}
