package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/epanner/shipfast-hack-25/internal/ai"
	"github.com/epanner/shipfast-hack-25/internal/clock"
	"github.com/epanner/shipfast-hack-25/internal/db"
	"github.com/epanner/shipfast-hack-25/internal/ingest"
	"github.com/epanner/shipfast-hack-25/internal/models"
	"github.com/epanner/shipfast-hack-25/internal/session"
	"github.com/epanner/shipfast-hack-25/internal/ws"
)

// teardownDelay keeps an ended session visible long enough for the console
// to show its closing message before the state is discarded.
const teardownDelay = 2 * time.Second

type Handler struct {
	Registry     *session.Registry
	Store        *db.Store
	AI           ai.Adapter
	Ingest       ingest.Client
	Hub          *ws.Hub
	Clock        clock.Clock
	Validator    *validator.Validate
	Logger       zerolog.Logger
	HistoryLimit int
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// callUpdate is the envelope pushed to feed subscribers on every mutation.
type callUpdate struct {
	Type string              `json:"type"`
	Call models.CallSnapshot `json:"call"`
}

func (h *Handler) broadcast(call *session.Call) {
	if h.Hub == nil {
		return
	}
	h.Hub.Broadcast(call.ID(), callUpdate{Type: "call_update", Call: call.Snapshot()})
}

func (h *Handler) call(c *gin.Context) (*session.Call, bool) {
	call, ok := h.Registry.Get(c.Param("id"))
	if !ok {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Call session not found", nil)
		return nil, false
	}
	return call, true
}

type StartCallRequest struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number" validate:"required"`
	Location    string `json:"location"`
	Coordinates string `json:"coordinates"`
	Language    string `json:"language"`
	Sex         string `json:"sex"`
}

// @Summary Register an incoming call
// @Tags calls
// @Accept json
// @Produce json
// @Param request body StartCallRequest true "inbound call data"
// @Success 201 {object} models.CallSnapshot
// @Failure 400 {object} map[string]any
// @Router /api/calls [post]
func (h *Handler) StartCall(c *gin.Context) {
	var req StartCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_INPUT", "Malformed request body", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_INPUT", "Validation failed", err.Error())
		return
	}

	call := session.New(models.CallerInfo{
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		Location:    req.Location,
		Coordinates: req.Coordinates,
		Language:    req.Language,
		Sex:         req.Sex,
	}, h.Clock, h.broadcast)
	h.Registry.Add(call)

	h.Logger.Info().Str("call_id", call.ID()).Str("phone", req.PhoneNumber).Msg("incoming call registered")
	c.JSON(http.StatusCreated, call.Snapshot())
}

// @Summary Answer an incoming call
// @Tags calls
// @Produce json
// @Param id path string true "call id"
// @Success 200 {object} models.CallSnapshot
// @Failure 409 {object} map[string]any
// @Router /api/calls/{id}/answer [post]
func (h *Handler) Answer(c *gin.Context) {
	call, ok := h.call(c)
	if !ok {
		return
	}
	if err := call.Answer(); err != nil {
		writeError(c, http.StatusConflict, "CONFLICT", "Call cannot be answered", err.Error())
		return
	}
	h.broadcast(call)
	c.JSON(http.StatusOK, call.Snapshot())
}

// @Summary End a connected call
// @Description Ends the call, persists the record, and tears the session down after a short closing delay.
// @Tags calls
// @Produce json
// @Param id path string true "call id"
// @Success 200 {object} models.CallSnapshot
// @Failure 409 {object} map[string]any
// @Router /api/calls/{id}/hangup [post]
func (h *Handler) Hangup(c *gin.Context) {
	call, ok := h.call(c)
	if !ok {
		return
	}
	if err := call.Hangup(); err != nil {
		writeError(c, http.StatusConflict, "CONFLICT", "Call cannot be hung up", err.Error())
		return
	}

	if h.Store != nil {
		if err := h.Store.SaveCall(c.Request.Context(), call.Record(), call.Messages()); err != nil {
			// The session still ends; losing the history row is logged, not fatal.
			h.Logger.Error().Err(err).Str("call_id", call.ID()).Msg("failed to persist call record")
		}
	}

	h.Registry.RemoveAfter(call.ID(), teardownDelay)
	h.broadcast(call)
	c.JSON(http.StatusOK, call.Snapshot())
}

type DispatchRequest struct {
	Service models.Service `json:"service" validate:"required,oneof=Ambulance Fire Police Rescue"`
}

// @Summary Dispatch an emergency service
// @Tags calls
// @Accept json
// @Produce json
// @Param id path string true "call id"
// @Param request body DispatchRequest true "service to dispatch"
// @Success 200 {object} models.CallSnapshot
// @Router /api/calls/{id}/dispatch [post]
func (h *Handler) Dispatch(c *gin.Context) {
	call, ok := h.call(c)
	if !ok {
		return
	}
	var req DispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_INPUT", "Malformed request body", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_INPUT", "Unknown service", err.Error())
		return
	}
	call.Dispatch(req.Service)
	h.broadcast(call)
	c.JSON(http.StatusOK, call.Snapshot())
}

type PriorityRequest struct {
	Priority models.Priority `json:"priority" validate:"required,oneof=low medium high critical"`
}

// @Summary Manually override the call priority
// @Tags calls
// @Accept json
// @Produce json
// @Param id path string true "call id"
// @Param request body PriorityRequest true "priority"
// @Success 200 {object} models.CallSnapshot
// @Router /api/calls/{id}/priority [post]
func (h *Handler) SetPriority(c *gin.Context) {
	call, ok := h.call(c)
	if !ok {
		return
	}
	var req PriorityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_INPUT", "Malformed request body", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_INPUT", "Unknown priority", err.Error())
		return
	}
	call.OverridePriority(req.Priority)
	h.broadcast(call)
	c.JSON(http.StatusOK, call.Snapshot())
}

type MessageRequest struct {
	Speaker          models.Speaker `json:"speaker" validate:"required,oneof=caller ai-agent human-agent"`
	Text             string         `json:"text" validate:"required"`
	OriginalLanguage string         `json:"original_language"`
	IsTranslated     bool           `json:"is_translated"`
}

// @Summary Append a transcript message
// @Tags transcript
// @Accept json
// @Produce json
// @Param id path string true "call id"
// @Param request body MessageRequest true "message"
// @Success 200 {object} models.CallSnapshot
// @Router /api/calls/{id}/messages [post]
func (h *Handler) PostMessage(c *gin.Context) {
	call, ok := h.call(c)
	if !ok {
		return
	}
	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_INPUT", "Malformed request body", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_INPUT", "Validation failed", err.Error())
		return
	}
	call.AppendMessage(req.Speaker, req.Text, req.OriginalLanguage, req.IsTranslated)
	h.broadcast(call)
	c.JSON(http.StatusOK, call.Snapshot())
}

// @Summary Live feed snapshot for a call
// @Tags calls
// @Produce json
// @Param id path string true "call id"
// @Success 200 {object} models.CallSnapshot
// @Failure 404 {object} map[string]any
// @Router /api/calls/{id}/feed [get]
func (h *Handler) Feed(c *gin.Context) {
	call, ok := h.call(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, call.Snapshot())
}

// @Summary Acknowledge an AI suggestion
// @Tags suggestions
// @Produce json
// @Param id path string true "call id"
// @Param sid path string true "suggestion id"
// @Success 200 {object} models.CallSnapshot
// @Router /api/calls/{id}/suggestions/{sid}/ack [post]
func (h *Handler) AckSuggestion(c *gin.Context) {
	call, ok := h.call(c)
	if !ok {
		return
	}
	if !call.AcknowledgeSuggestion(c.Param("sid")) {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Suggestion not found", nil)
		return
	}
	h.broadcast(call)
	c.JSON(http.StatusOK, call.Snapshot())
}

// @Summary Apply a suggestion to the situation summary
// @Description Appends the suggestion content as a titled annotation and marks it acknowledged.
// @Tags suggestions
// @Produce json
// @Param id path string true "call id"
// @Param sid path string true "suggestion id"
// @Success 200 {object} models.CallSnapshot
// @Router /api/calls/{id}/suggestions/{sid}/apply [post]
func (h *Handler) ApplySuggestion(c *gin.Context) {
	call, ok := h.call(c)
	if !ok {
		return
	}
	if !call.ApplySuggestion(c.Param("sid")) {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Suggestion not found", nil)
		return
	}
	h.broadcast(call)
	c.JSON(http.StatusOK, call.Snapshot())
}

// @Summary Mark a follow-up question as asked
// @Tags suggestions
// @Produce json
// @Param id path string true "call id"
// @Param qid path string true "question id"
// @Success 200 {object} models.CallSnapshot
// @Router /api/calls/{id}/questions/{qid}/ack [post]
func (h *Handler) AckQuestion(c *gin.Context) {
	call, ok := h.call(c)
	if !ok {
		return
	}
	if !call.MarkQuestionAsked(c.Param("qid")) {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Question not found", nil)
		return
	}
	h.broadcast(call)
	c.JSON(http.StatusOK, call.Snapshot())
}

type SummaryRequest struct {
	Text   string `json:"text"`
	Commit bool   `json:"commit"`
}

// @Summary Edit the situation summary
// @Description Stores the text as an open draft, or commits it when commit is true.
// @Tags calls
// @Accept json
// @Produce json
// @Param id path string true "call id"
// @Param request body SummaryRequest true "summary edit"
// @Success 200 {object} models.CallSnapshot
// @Router /api/calls/{id}/summary [put]
func (h *Handler) UpdateSummary(c *gin.Context) {
	call, ok := h.call(c)
	if !ok {
		return
	}
	var req SummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_INPUT", "Malformed request body", err.Error())
		return
	}
	call.UpdateSummary(req.Text, req.Commit)
	h.broadcast(call)
	c.JSON(http.StatusOK, call.Snapshot())
}
