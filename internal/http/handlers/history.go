package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/epanner/shipfast-hack-25/internal/export"
)

// @Summary Recent finished calls
// @Tags history
// @Produce json
// @Success 200 {array} models.CallRecord
// @Failure 500 {object} map[string]any
// @Router /api/calls [get]
func (h *Handler) HistoryList(c *gin.Context) {
	if h.Store == nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Call history is not available", nil)
		return
	}
	records, err := h.Store.ListRecentCalls(c.Request.Context(), h.HistoryLimit)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load call history", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls": records})
}

// @Summary Export call history as xlsx
// @Tags history
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary
// @Failure 500 {object} map[string]any
// @Router /api/admin/export [get]
func (h *Handler) ExportHistory(c *gin.Context) {
	if h.Store == nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Call history is not available", nil)
		return
	}
	records, err := h.Store.ListRecentCalls(c.Request.Context(), h.HistoryLimit)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load call history", err.Error())
		return
	}

	filename := fmt.Sprintf("call-history-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := export.WriteCallHistory(c.Writer, records); err != nil {
		h.Logger.Error().Err(err).Msg("failed to write export")
	}
}
