package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/epanner/shipfast-hack-25/internal/models"
)

type HTTPAdapter struct {
	BaseURL string
	Client  *http.Client
}

func (h HTTPAdapter) client() *http.Client {
	if h.Client != nil {
		return h.Client
	}
	return &http.Client{Timeout: 60 * time.Second}
}

func (h HTTPAdapter) ProcessAudio(ctx context.Context, file io.Reader, filename, targetLanguage string) (TranscriptionResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("audio_file", filename)
	if err != nil {
		return TranscriptionResult{}, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return TranscriptionResult{}, err
	}
	if err := mw.WriteField("target_language", targetLanguage); err != nil {
		return TranscriptionResult{}, err
	}
	if err := mw.Close(); err != nil {
		return TranscriptionResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.BaseURL+"/process-audio", &buf)
	if err != nil {
		return TranscriptionResult{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := h.client().Do(req)
	if err != nil {
		return TranscriptionResult{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return TranscriptionResult{}, fmt.Errorf("process-audio: status %d", resp.StatusCode)
	}

	var r TranscriptionResult
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return TranscriptionResult{}, err
	}
	return r, nil
}

type recommendationEntry struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Priority   string `json:"priority"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	Confidence int    `json:"confidence"`
}

func (h HTTPAdapter) GenerateRecommendations(ctx context.Context, reqBody AnalysisRequest) ([]models.Suggestion, error) {
	var out struct {
		Recommendations []recommendationEntry `json:"recommendations"`
	}
	if err := h.postJSON(ctx, "/generate-recommendations", reqBody, &out); err != nil {
		return nil, err
	}

	items := make([]models.Suggestion, 0, len(out.Recommendations))
	for _, rec := range out.Recommendations {
		// Malformed entries are dropped here instead of trusted downstream.
		if rec.ID == "" || rec.Title == "" || rec.Content == "" {
			continue
		}
		items = append(items, models.Suggestion{
			ID:         rec.ID,
			Type:       rec.Type,
			Priority:   models.Priority(rec.Priority),
			Title:      rec.Title,
			Content:    rec.Content,
			Confidence: rec.Confidence,
		})
	}
	return items, nil
}

type agentSuggestionEntry struct {
	ID         string `json:"id"`
	Category   string `json:"category"`
	Suggestion string `json:"suggestion"`
	Priority   int    `json:"priority"`
	Reasoning  string `json:"reasoning"`
}

func (h HTTPAdapter) GenerateAgentSuggestions(ctx context.Context, reqBody AnalysisRequest) ([]models.Question, error) {
	var out struct {
		Suggestions []agentSuggestionEntry `json:"suggestions"`
	}
	if err := h.postJSON(ctx, "/generate-agent-suggestions", reqBody, &out); err != nil {
		return nil, err
	}

	items := make([]models.Question, 0, len(out.Suggestions))
	for _, s := range out.Suggestions {
		if s.ID == "" || s.Suggestion == "" {
			continue
		}
		items = append(items, models.Question{
			ID:        s.ID,
			Category:  s.Category,
			Question:  s.Suggestion,
			Priority:  s.Priority,
			Reasoning: s.Reasoning,
		})
	}
	return items, nil
}

func (h HTTPAdapter) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.BaseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := h.client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("health: status %d", resp.StatusCode)
	}
	return nil
}

func (h HTTPAdapter) postJSON(ctx context.Context, path string, body any, out any) error {
	b, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.BaseURL+path, bytes.NewBuffer(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
