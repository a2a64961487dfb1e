package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/epanner/shipfast-hack-25/internal/ai"
	"github.com/epanner/shipfast-hack-25/internal/ingest"
	"github.com/epanner/shipfast-hack-25/internal/models"
	"github.com/epanner/shipfast-hack-25/internal/session"
)

// Fixed advisory content shown when the recommendation service fails, so the
// panels are never empty while the transcript is already on screen.
func fallbackSuggestions() []models.Suggestion {
	return []models.Suggestion{{
		ID:         "fallback-1",
		Type:       "advice",
		Priority:   models.PriorityHigh,
		Title:      "Scene Assessment",
		Content:    "Conduct thorough scene safety assessment before approaching.",
		Confidence: 85,
	}}
}

func fallbackQuestions() []models.Question {
	return []models.Question{{
		ID:        "fallback-1",
		Category:  "safety",
		Question:  "Is the caller in a safe location?",
		Priority:  10,
		Reasoning: "Caller safety is priority with potential hazards on scene",
	}}
}

// @Summary Process an uploaded audio clip
// @Description Validates the file, sends it to the AI service, appends the transcript, and fetches recommendations and follow-up questions.
// @Tags transcript
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "call id"
// @Param audio_file formData file true "audio clip (mp3, wav, m4a, ogg, flac; max 50MB)"
// @Param target_language formData string false "target language"
// @Success 200 {object} models.CallSnapshot
// @Failure 400 {object} map[string]any
// @Failure 502 {object} map[string]any
// @Router /api/calls/{id}/audio [post]
func (h *Handler) ProcessAudio(c *gin.Context) {
	call, ok := h.call(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("audio_file")
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_INPUT", "audio_file is required", nil)
		return
	}
	targetLanguage := c.PostForm("target_language")

	res, err := h.Ingest.Submit(c.Request.Context(), fh, targetLanguage)
	if err != nil {
		var invalid ingest.InvalidInputError
		if errors.As(err, &invalid) {
			writeError(c, http.StatusBadRequest, "INVALID_INPUT", invalid.Reason, nil)
			return
		}
		writeError(c, http.StatusBadGateway, "TRANSPORT_ERROR", "Audio processing failed", err.Error())
		return
	}

	// The session may have ended while the request was in flight; a late
	// result must not write into a torn-down call.
	current, stillLive := h.Registry.Get(call.ID())
	if !stillLive || current.Status() == models.StatusEnded {
		h.Logger.Warn().Str("call_id", call.ID()).Msg("discarding audio result for ended session")
		writeError(c, http.StatusConflict, "CONFLICT", "Call ended during processing", nil)
		return
	}

	// The service reports only the language it translated into, never the
	// caller's source language, so provenance stays empty.
	translated := res.TargetLanguage != "" && res.TargetLanguage != "english"
	call.AppendMessage(models.SpeakerCaller, res.Transcript, "", translated)
	call.MergeAudioSummary(res.Summary)

	h.fetchAdvisories(c, call, ai.AnalysisRequest{
		Transcript:     res.Transcript,
		Summary:        res.Summary,
		TargetLanguage: res.TargetLanguage,
	})

	h.broadcast(call)
	c.JSON(http.StatusOK, gin.H{
		"transcription": res,
		"call":          call.Snapshot(),
	})
}

// fetchAdvisories runs the two follow-up calls after a successful ingest.
// They are sequential, independent, and degrade to fixed fallbacks; they
// never fail the ingest that already succeeded.
func (h *Handler) fetchAdvisories(c *gin.Context, call *session.Call, req ai.AnalysisRequest) {
	suggestions, err := h.AI.GenerateRecommendations(c.Request.Context(), req)
	if err != nil || len(suggestions) == 0 {
		if err != nil {
			h.Logger.Error().Err(err).Str("call_id", call.ID()).Msg("recommendations unavailable, using fallback")
		}
		suggestions = fallbackSuggestions()
	}
	call.SetSuggestions(suggestions)

	questions, err := h.AI.GenerateAgentSuggestions(c.Request.Context(), req)
	if err != nil || len(questions) == 0 {
		if err != nil {
			h.Logger.Error().Err(err).Str("call_id", call.ID()).Msg("agent suggestions unavailable, using fallback")
		}
		questions = fallbackQuestions()
	}
	call.SetQuestions(questions)
}
