// Refresh notifications. Every mutation broadcasts a refresh message to the
// websocket subscribers of the affected collection, so open tables can
// re-fetch instead of polling. Delivery is best effort; a slow subscriber
// is dropped rather than allowed to block the rest.

package server

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// refreshMessage is the single message type pushed to subscribers.
type refreshMessage struct {
	Type       string `json:"type"`
	Collection string `json:"collection"`
}

// Hub tracks websocket subscribers per collection.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]map[*subscriber]bool
	done  bool
}

type subscriber struct {
	send chan refreshMessage
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*subscriber]bool)}
}

// NotifyRefresh queues a refresh broadcast for one collection.
func (h *Hub) NotifyRefresh(collectionID string) {
	msg := refreshMessage{Type: "refresh", Collection: collectionID}
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.rooms[collectionID] {
		select {
		case sub.send <- msg:
		default:
			// Subscriber is not draining; drop it.
			delete(h.rooms[collectionID], sub)
			close(sub.send)
		}
	}
}

// Shutdown closes every subscriber channel. Subsequent subscriptions are
// rejected.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.done = true
	for _, room := range h.rooms {
		for sub := range room {
			close(sub.send)
		}
	}
	h.rooms = make(map[string]map[*subscriber]bool)
}

func (h *Hub) subscribe(collectionID string) (*subscriber, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done {
		return nil, false
	}
	sub := &subscriber{send: make(chan refreshMessage, 8)}
	if h.rooms[collectionID] == nil {
		h.rooms[collectionID] = make(map[*subscriber]bool)
	}
	h.rooms[collectionID][sub] = true
	return sub, true
}

func (h *Hub) unsubscribe(collectionID string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room := h.rooms[collectionID]; room != nil && room[sub] {
		delete(room, sub)
		close(sub.send)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API is token-authenticated, not cookie-authenticated, so
	// cross-origin upgrades are harmless.
	CheckOrigin: func(*http.Request) bool { return true },
}

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
)

// Subscribe upgrades the connection and streams refresh messages for one
// collection until the client goes away.
func (s *Server) Subscribe(w http.ResponseWriter, r *http.Request) {
	collectionID := r.PathValue("id")
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Websocket upgrade failed", "collection", collectionID, "err", err)
		return
	}
	sub, ok := s.hub.subscribe(collectionID)
	if !ok {
		_ = conn.Close()
		return
	}
	defer func() {
		s.hub.unsubscribe(collectionID, sub)
		_ = conn.Close()
	}()

	// Reader goroutine: the client never sends meaningful data, but reading
	// is what detects the close handshake.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.hub.unsubscribe(collectionID, sub)
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()
	for {
		select {
		case msg, ok := <-sub.send:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
