package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/epanner/shipfast-hack-25/internal/ai"
	"github.com/epanner/shipfast-hack-25/internal/clock"
	"github.com/epanner/shipfast-hack-25/internal/ingest"
	"github.com/epanner/shipfast-hack-25/internal/models"
	"github.com/epanner/shipfast-hack-25/internal/session"
)

type stubAdapter struct {
	processCalled bool
	processErr    error
	result        ai.TranscriptionResult
	recErr        error
	recs          []models.Suggestion
	qErr          error
	questions     []models.Question
}

func (s *stubAdapter) ProcessAudio(ctx context.Context, file io.Reader, filename, targetLanguage string) (ai.TranscriptionResult, error) {
	s.processCalled = true
	if s.processErr != nil {
		return ai.TranscriptionResult{}, s.processErr
	}
	return s.result, nil
}

func (s *stubAdapter) GenerateRecommendations(ctx context.Context, req ai.AnalysisRequest) ([]models.Suggestion, error) {
	return s.recs, s.recErr
}

func (s *stubAdapter) GenerateAgentSuggestions(ctx context.Context, req ai.AnalysisRequest) ([]models.Question, error) {
	return s.questions, s.qErr
}

func (s *stubAdapter) Health(ctx context.Context) error {
	return nil
}

func newTestRouter(t *testing.T, adapter ai.Adapter) (*gin.Engine, *Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := &Handler{
		Registry:  session.NewRegistry(),
		AI:        adapter,
		Ingest:    ingest.Client{AI: adapter, DefaultLanguage: "english"},
		Clock:     clock.System{},
		Validator: validator.New(),
		Logger:    zerolog.Nop(),
	}

	r := gin.New()
	r.GET("/healthz", h.Healthz)
	api := r.Group("/api")
	api.POST("/calls", h.StartCall)
	api.GET("/calls/:id/feed", h.Feed)
	api.POST("/calls/:id/answer", h.Answer)
	api.POST("/calls/:id/hangup", h.Hangup)
	api.POST("/calls/:id/dispatch", h.Dispatch)
	api.POST("/calls/:id/priority", h.SetPriority)
	api.POST("/calls/:id/messages", h.PostMessage)
	api.POST("/calls/:id/audio", h.ProcessAudio)
	api.POST("/calls/:id/suggestions/:sid/apply", h.ApplySuggestion)
	return r, h
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req, _ := http.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func startCall(t *testing.T, r *gin.Engine) models.CallSnapshot {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/calls", gin.H{"phone_number": "+1 (555) 123-4567", "location": "Highway 95, Exit 12"})
	if w.Code != http.StatusCreated {
		t.Fatalf("start call: status %d, body %s", w.Code, w.Body.String())
	}
	var snap models.CallSnapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	return snap
}

func TestStartCallRequiresPhoneNumber(t *testing.T) {
	r, _ := newTestRouter(t, &stubAdapter{})
	w := doJSON(t, r, http.MethodPost, "/api/calls", gin.H{"location": "nowhere"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestCallLifecycleFlow(t *testing.T) {
	r, _ := newTestRouter(t, &stubAdapter{})
	snap := startCall(t, r)
	if snap.Status != models.StatusIncoming {
		t.Fatalf("expected incoming, got %s", snap.Status)
	}

	if w := doJSON(t, r, http.MethodPost, "/api/calls/"+snap.ID+"/answer", nil); w.Code != http.StatusOK {
		t.Fatalf("answer: %d %s", w.Code, w.Body.String())
	}

	w := doJSON(t, r, http.MethodPost, "/api/calls/"+snap.ID+"/messages", gin.H{
		"speaker": "caller", "text": "there is smoke everywhere",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("message: %d %s", w.Code, w.Body.String())
	}
	var after models.CallSnapshot
	_ = json.Unmarshal(w.Body.Bytes(), &after)
	if after.EmergencyType != "Fire Emergency" || after.Priority != models.PriorityHigh {
		t.Fatalf("classification: (%s, %s)", after.EmergencyType, after.Priority)
	}

	// Dispatch is idempotent.
	doJSON(t, r, http.MethodPost, "/api/calls/"+snap.ID+"/dispatch", gin.H{"service": "Fire"})
	w = doJSON(t, r, http.MethodPost, "/api/calls/"+snap.ID+"/dispatch", gin.H{"service": "Fire"})
	_ = json.Unmarshal(w.Body.Bytes(), &after)
	if len(after.DispatchedServices) != 1 || after.DispatchedServices[0] != models.ServiceFire {
		t.Fatalf("dispatched: %v", after.DispatchedServices)
	}

	if w := doJSON(t, r, http.MethodPost, "/api/calls/"+snap.ID+"/hangup", nil); w.Code != http.StatusOK {
		t.Fatalf("hangup: %d %s", w.Code, w.Body.String())
	}
	if w := doJSON(t, r, http.MethodPost, "/api/calls/"+snap.ID+"/answer", nil); w.Code != http.StatusConflict {
		t.Fatalf("expected 409 answering ended call, got %d", w.Code)
	}
}

func TestManualPriorityOverrideViaAPI(t *testing.T) {
	r, _ := newTestRouter(t, &stubAdapter{})
	snap := startCall(t, r)

	doJSON(t, r, http.MethodPost, "/api/calls/"+snap.ID+"/priority", gin.H{"priority": "critical"})
	w := doJSON(t, r, http.MethodPost, "/api/calls/"+snap.ID+"/messages", gin.H{
		"speaker": "caller", "text": "someone needs help here",
	})
	var after models.CallSnapshot
	_ = json.Unmarshal(w.Body.Bytes(), &after)
	if after.Priority != models.PriorityCritical || !after.PriorityOverridden {
		t.Fatalf("override lost: %+v", after.Priority)
	}
}

func makeAudioRequest(t *testing.T, path, filename, contentType string, size int) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="audio_file"; filename="`+filename+`"`)
	if contentType != "" {
		hdr.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(bytes.Repeat([]byte("a"), size)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	_ = mw.WriteField("target_language", "english")
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req, _ := http.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestAudioUploadRejectsNonAudio(t *testing.T) {
	adapter := &stubAdapter{}
	r, _ := newTestRouter(t, adapter)
	snap := startCall(t, r)

	req := makeAudioRequest(t, "/api/calls/"+snap.ID+"/audio", "clip.exe", "application/octet-stream", 128)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	if adapter.processCalled {
		t.Fatalf("no request should reach the AI service on invalid input")
	}
}

func TestAudioUploadFallbackOnRecommendationFailure(t *testing.T) {
	adapter := &stubAdapter{
		result: ai.TranscriptionResult{
			Transcript:     "fire in the kitchen",
			Summary:        []string{"smoke visible"},
			TargetLanguage: "english",
		},
		recErr: errors.New("status 500"),
		qErr:   errors.New("status 500"),
	}
	r, _ := newTestRouter(t, adapter)
	snap := startCall(t, r)
	doJSON(t, r, http.MethodPost, "/api/calls/"+snap.ID+"/answer", nil)

	req := makeAudioRequest(t, "/api/calls/"+snap.ID+"/audio", "clip.mp3", "audio/mpeg", 128)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Call models.CallSnapshot `json:"call"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(resp.Call.Messages) != 1 || !strings.Contains(resp.Call.Messages[0].Text, "fire in the kitchen") {
		t.Fatalf("transcript message missing: %+v", resp.Call.Messages)
	}
	if resp.Call.Messages[0].Speaker != models.SpeakerCaller {
		t.Fatalf("expected caller message, got %s", resp.Call.Messages[0].Speaker)
	}
	if resp.Call.EmergencyType != "Fire Emergency" || resp.Call.Priority != models.PriorityHigh {
		t.Fatalf("classification: (%s, %s)", resp.Call.EmergencyType, resp.Call.Priority)
	}
	if len(resp.Call.Suggestions) != 1 || resp.Call.Suggestions[0].Title != "Scene Assessment" {
		t.Fatalf("expected single fallback suggestion, got %+v", resp.Call.Suggestions)
	}
	if len(resp.Call.Questions) != 1 || resp.Call.Questions[0].Question != "Is the caller in a safe location?" {
		t.Fatalf("expected fallback question, got %+v", resp.Call.Questions)
	}
}

func TestAudioResultDroppedAfterHangup(t *testing.T) {
	adapter := &stubAdapter{
		result: ai.TranscriptionResult{
			Transcript:     "fire in the kitchen",
			Summary:        []string{"smoke visible"},
			TargetLanguage: "english",
		},
	}
	r, h := newTestRouter(t, adapter)
	snap := startCall(t, r)
	doJSON(t, r, http.MethodPost, "/api/calls/"+snap.ID+"/answer", nil)
	doJSON(t, r, http.MethodPost, "/api/calls/"+snap.ID+"/hangup", nil)

	// The session stays registered through the teardown delay, so the
	// upload reaches the handler but its result must be discarded.
	req := makeAudioRequest(t, "/api/calls/"+snap.ID+"/audio", "clip.mp3", "audio/mpeg", 128)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
	call, ok := h.Registry.Get(snap.ID)
	if !ok {
		t.Fatalf("session should still be registered during teardown")
	}
	if got := call.Messages(); len(got) != 0 {
		t.Fatalf("ended session must not gain messages, got %+v", got)
	}
	after := call.Snapshot()
	if after.EmergencyType != "Unknown Emergency" || after.Priority != models.PriorityMedium {
		t.Fatalf("classification changed after hangup: (%s, %s)", after.EmergencyType, after.Priority)
	}
}

func TestAudioMessageOmitsSourceLanguage(t *testing.T) {
	adapter := &stubAdapter{
		result: ai.TranscriptionResult{
			Transcript:     "il y a un incendie dans la cuisine",
			Summary:        []string{"feu signalé"},
			TargetLanguage: "french",
		},
	}
	r, _ := newTestRouter(t, adapter)
	snap := startCall(t, r)
	doJSON(t, r, http.MethodPost, "/api/calls/"+snap.ID+"/answer", nil)

	req := makeAudioRequest(t, "/api/calls/"+snap.ID+"/audio", "clip.mp3", "audio/mpeg", 128)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Call models.CallSnapshot `json:"call"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Call.Messages) != 1 {
		t.Fatalf("expected one message, got %+v", resp.Call.Messages)
	}
	msg := resp.Call.Messages[0]
	if !msg.IsTranslated {
		t.Fatalf("non-english target should mark the message translated")
	}
	if msg.OriginalLanguage != "" {
		t.Fatalf("source language is unknown and must stay empty, got %q", msg.OriginalLanguage)
	}
}

func TestApplySuggestionEndpoint(t *testing.T) {
	r, h := newTestRouter(t, &stubAdapter{})
	snap := startCall(t, r)

	call, _ := h.Registry.Get(snap.ID)
	call.SetSuggestions([]models.Suggestion{
		{ID: "s1", Priority: models.PriorityHigh, Title: "Scene Assessment", Content: "Keep bystanders clear."},
	})

	w := doJSON(t, r, http.MethodPost, "/api/calls/"+snap.ID+"/suggestions/s1/apply", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("apply: %d %s", w.Code, w.Body.String())
	}
	var after models.CallSnapshot
	_ = json.Unmarshal(w.Body.Bytes(), &after)
	if !strings.Contains(after.Assessment.Summary, "[Scene Assessment]") {
		t.Fatalf("summary missing annotation: %q", after.Assessment.Summary)
	}
	if !after.Suggestions[0].Acknowledged {
		t.Fatalf("applied suggestion should be acknowledged")
	}
}

func TestFeedUnknownCall(t *testing.T) {
	r, _ := newTestRouter(t, &stubAdapter{})
	w := doJSON(t, r, http.MethodGet, "/api/calls/nope/feed", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
