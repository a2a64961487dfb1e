package classify

import (
	"strings"

	"github.com/epanner/shipfast-hack-25/internal/models"
)

type rule struct {
	keywords []string
	label    string
	priority models.Priority
}

// Ordered rule list, first match wins.
var rules = []rule{
	{[]string{"heart", "chest", "cardiac"}, "Medical - Cardiac", models.PriorityCritical},
	{[]string{"fire", "smoke", "burning"}, "Fire Emergency", models.PriorityHigh},
	{[]string{"accident", "crash", "injured"}, "Traffic Accident", models.PriorityHigh},
	{[]string{"help", "emergency"}, "General Emergency", models.PriorityMedium},
}

// Classify maps transcript text to an emergency category and an initial
// priority via case-insensitive keyword matching.
func Classify(transcript string) (string, models.Priority) {
	t := strings.ToLower(transcript)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(t, kw) {
				return r.label, r.priority
			}
		}
	}
	return "Unknown Emergency", models.PriorityMedium
}
