package ai

import (
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"strings"

	"github.com/epanner/shipfast-hack-25/internal/models"
)

// MockAdapter stands in for the AI service when no AI_URL is configured, so
// the console can run end to end without the collaborator. ModelVersion is
// stamped into generated IDs so mock output is recognizable in the console.
type MockAdapter struct {
	ModelVersion string
}

func (m MockAdapter) version() string {
	if m.ModelVersion == "" {
		return "mock"
	}
	return m.ModelVersion
}

var mockTranscripts = []string{
	"There is a fire in the kitchen, smoke everywhere, we are outside now.",
	"My husband has chest pain and can barely breathe, please hurry.",
	"A car crashed into the barrier on Highway 95, one person looks injured.",
	"I need help, something is wrong with my neighbor, she is not answering.",
}

var mockSummaries = [][]string{
	{"Kitchen fire reported", "Occupants evacuated", "Smoke visible from street"},
	{"Male with chest pain", "Breathing difficulty", "Caller is spouse, on scene"},
	{"Single vehicle collision", "One occupant injured", "Highway 95 near exit 12"},
	{"Welfare check requested", "Neighbor unresponsive to knocking", "No visible hazard"},
}

func hashString(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

func (m MockAdapter) ProcessAudio(ctx context.Context, file io.Reader, filename, targetLanguage string) (TranscriptionResult, error) {
	// The payload is drained but its content does not matter for the mock.
	_, _ = io.Copy(io.Discard, file)

	h := hashString(filename)
	i := int(h % uint64(len(mockTranscripts)))
	return TranscriptionResult{
		Transcript:     mockTranscripts[i],
		Summary:        mockSummaries[i],
		TargetLanguage: targetLanguage,
	}, nil
}

func (m MockAdapter) GenerateRecommendations(ctx context.Context, req AnalysisRequest) ([]models.Suggestion, error) {
	return []models.Suggestion{
		{
			ID:         fmt.Sprintf("%s-%d-1", m.version(), hashString(req.Transcript)%1000),
			Type:       "advice",
			Priority:   models.PriorityHigh,
			Title:      "Scene Assessment",
			Content:    "Conduct thorough scene safety assessment before approaching.",
			Confidence: 85,
		},
		{
			ID:         fmt.Sprintf("%s-%d-2", m.version(), hashString(req.Transcript)%1000),
			Type:       "protocol",
			Priority:   models.PriorityMedium,
			Title:      "Caller Guidance",
			Content:    "Keep the caller calm and on the line until responders arrive.",
			Confidence: 78,
		},
	}, nil
}

func (m MockAdapter) GenerateAgentSuggestions(ctx context.Context, req AnalysisRequest) ([]models.Question, error) {
	if strings.EqualFold(req.TargetLanguage, "french") {
		return []models.Question{
			{ID: m.version() + "-q1", Category: "medical", Question: "Avez-vous des douleurs thoraciques ?", Priority: 10, Reasoning: "Cardiac symptoms change the response"},
			{ID: m.version() + "-q2", Category: "medical", Question: "Avez-vous des antécédents médicaux ?", Priority: 8, Reasoning: "History informs paramedics"},
		}, nil
	}
	return []models.Question{
		{ID: m.version() + "-q1", Category: "safety", Question: "Are you in a safe location?", Priority: 10, Reasoning: "Caller safety comes first"},
		{ID: m.version() + "-q2", Category: "medical", Question: "Do you have any allergies?", Priority: 8, Reasoning: "Relevant for treatment on arrival"},
	}, nil
}

func (m MockAdapter) Health(ctx context.Context) error {
	return nil
}
