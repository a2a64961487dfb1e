package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// @Summary Liveness and dependency status
// @Tags health
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 503 {object} map[string]any
// @Router /healthz [get]
func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := gin.H{"status": "ok", "active_calls": h.Registry.Len()}

	if h.Store != nil {
		if err := h.Store.Ping(ctx); err != nil {
			writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
			return
		}
		status["db"] = "ok"
	}

	if err := h.AI.Health(ctx); err != nil {
		status["ai"] = "unreachable"
	} else {
		status["ai"] = "ok"
	}

	c.JSON(http.StatusOK, status)
}
