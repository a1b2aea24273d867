package main

import (
	"sync"

	"github.com/gorilla/websocket"
)

// watchClient is one WebSocket viewer of a session. Slow clients are
// dropped rather than allowed to stall a broadcast.
type watchClient struct {
	conn *websocket.Conn
	send chan any
}

// envelopeMessage is pushed to watchers after every session mutation.
type envelopeMessage struct {
	Type    string   `json:"type"` // "session"
	Session *Session `json:"session"`
}

// watchHub fans session updates out to the clients watching each code.
// Watching is an optimization over polling, never a replacement: a
// client that misses a push still converges on the next poll.
type watchHub struct {
	mu       sync.Mutex
	watchers map[string]map[*watchClient]bool
}

func newWatchHub() *watchHub {
	return &watchHub{
		watchers: make(map[string]map[*watchClient]bool),
	}
}

func (h *watchHub) subscribe(code string, c *watchClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.watchers[code] == nil {
		h.watchers[code] = make(map[*watchClient]bool)
	}
	h.watchers[code][c] = true
}

func (h *watchHub) unsubscribe(code string, c *watchClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if set, ok := h.watchers[code]; ok {
		if set[c] {
			delete(set, c)
			close(c.send)
		}
		if len(set) == 0 {
			delete(h.watchers, code)
		}
	}
}

// broadcast pushes the updated envelope to everyone watching the code.
func (h *watchHub) broadcast(code string, sess *Session) {
	msg := envelopeMessage{Type: "session", Session: sess}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.watchers[code] {
		select {
		case c.send <- msg:
		default:
			delete(h.watchers[code], c)
			close(c.send)
		}
	}
}

func (c *watchClient) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// readPump discards inbound frames; the watch socket is one-way. It
// exists to notice the close and trigger cleanup.
func (c *watchClient) readPump(h *watchHub, code string) {
	defer func() {
		h.unsubscribe(code, c)
		_ = c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
