package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// @Summary Subscribe to live call updates
// @Description Upgrades to a WebSocket that receives a call_update envelope on every session mutation and timer tick.
// @Tags calls
// @Param id path string true "call id"
// @Router /ws/calls/{id} [get]
func (h *Handler) WatchCall(c *gin.Context) {
	call, ok := h.call(c)
	if !ok {
		return
	}
	if h.Hub == nil {
		writeError(c, http.StatusServiceUnavailable, "UNAVAILABLE", "Live feed is not enabled", nil)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := h.Hub.Register(call.ID(), conn)
	h.Logger.Info().Str("call_id", call.ID()).Msg("console subscribed to live feed")

	// Send the current state immediately so the console does not wait for
	// the next mutation.
	h.broadcast(call)

	go func() {
		defer h.Hub.Unregister(client)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
