package ai

import (
	"context"
	"io"

	"github.com/epanner/shipfast-hack-25/internal/models"
)

// TranscriptionResult is the decoded /process-audio response.
type TranscriptionResult struct {
	Transcript     string   `json:"transcript"`
	Summary        []string `json:"summary"`
	TargetLanguage string   `json:"target_language"`
}

// AnalysisRequest feeds the recommendation and agent-suggestion endpoints.
type AnalysisRequest struct {
	Transcript     string   `json:"transcript"`
	Summary        []string `json:"summary"`
	TargetLanguage string   `json:"target_language"`
}

// Adapter is the external AI processing service. The service itself is an
// opaque collaborator; only its request/response contract is modeled.
type Adapter interface {
	ProcessAudio(ctx context.Context, file io.Reader, filename, targetLanguage string) (TranscriptionResult, error)
	GenerateRecommendations(ctx context.Context, req AnalysisRequest) ([]models.Suggestion, error)
	GenerateAgentSuggestions(ctx context.Context, req AnalysisRequest) ([]models.Question, error)
	Health(ctx context.Context) error
}
