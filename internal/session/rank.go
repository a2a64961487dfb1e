package session

import (
	"fmt"
	"sort"

	"github.com/epanner/shipfast-hack-25/internal/models"
)

// OrderSuggestions returns a copy with unacknowledged items first, each
// partition sorted by descending priority, stable otherwise.
func OrderSuggestions(items []models.Suggestion) []models.Suggestion {
	out := append([]models.Suggestion(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Acknowledged != out[j].Acknowledged {
			return !out[i].Acknowledged
		}
		return out[i].Priority.Rank() > out[j].Priority.Rank()
	})
	return out
}

// OrderQuestions does the same for follow-up questions, whose priority is a
// plain integer.
func OrderQuestions(items []models.Question) []models.Question {
	out := append([]models.Question(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Asked != out[j].Asked {
			return !out[i].Asked
		}
		return out[i].Priority > out[j].Priority
	})
	return out
}

// ApplyToSummary returns the summary with the suggestion appended as a
// titled annotation. The suggestion is not mutated.
func ApplyToSummary(item models.Suggestion, summary string) string {
	annotation := fmt.Sprintf("[%s] %s", item.Title, item.Content)
	if summary == "" {
		return annotation
	}
	return summary + "\n\n" + annotation
}
