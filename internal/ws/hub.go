package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Client is one console subscribed to a call's live feed.
type Client struct {
	CallID string
	Conn   *websocket.Conn
	Send   chan []byte
}

// Hub fans call-session updates out to every console watching that call.
type Hub struct {
	mu          sync.RWMutex
	callClients map[string][]*Client
	Logger      zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		callClients: map[string][]*Client{},
		Logger:      logger,
	}
}

// Register attaches a connection to a call and starts its write pump.
func (h *Hub) Register(callID string, conn *websocket.Conn) *Client {
	client := &Client{
		CallID: callID,
		Conn:   conn,
		Send:   make(chan []byte, 16),
	}
	h.mu.Lock()
	h.callClients[callID] = append(h.callClients[callID], client)
	h.mu.Unlock()

	go client.writePump()
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	clients := h.callClients[client.CallID]
	for i, c := range clients {
		if c == client {
			h.callClients[client.CallID] = append(clients[:i], clients[i+1:]...)
			break
		}
	}
	if len(h.callClients[client.CallID]) == 0 {
		delete(h.callClients, client.CallID)
	}
	h.mu.Unlock()
	close(client.Send)
}

// Broadcast pushes a payload to every client on the call. Slow clients are
// skipped rather than blocking the caller.
func (h *Hub) Broadcast(callID string, payload any) {
	b, err := json.Marshal(payload)
	if err != nil {
		h.Logger.Error().Err(err).Msg("marshal broadcast payload")
		return
	}

	// Sends stay under the read lock so Unregister cannot close a channel
	// mid-broadcast. Sends never block, slow clients just miss an update.
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.callClients[callID] {
		select {
		case c.Send <- b:
		default:
			h.Logger.Warn().Str("call_id", callID).Msg("dropping update for slow client")
		}
	}
}

func (c *Client) writePump() {
	defer c.Conn.Close()
	for msg := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}
