package models

import "time"

type CallStatus string

const (
	StatusIncoming  CallStatus = "incoming"
	StatusConnected CallStatus = "connected"
	StatusEnded     CallStatus = "ended"
)

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Rank orders priorities for sorting, higher is more urgent.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

type Speaker string

const (
	SpeakerCaller     Speaker = "caller"
	SpeakerAIAgent    Speaker = "ai-agent"
	SpeakerHumanAgent Speaker = "human-agent"
)

type Service string

const (
	ServiceAmbulance Service = "Ambulance"
	ServiceFire      Service = "Fire"
	ServicePolice    Service = "Police"
	ServiceRescue    Service = "Rescue"
)

// CallerInfo is supplied when a call comes in and never changes afterwards.
type CallerInfo struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
	Location    string `json:"location"`
	Coordinates string `json:"coordinates,omitempty"`
	Language    string `json:"language,omitempty"`
	Sex         string `json:"sex,omitempty"`
}

type TranscriptMessage struct {
	ID               string  `json:"id"`
	Speaker          Speaker `json:"speaker"`
	Text             string  `json:"text"`
	Timestamp        string  `json:"timestamp"`
	OriginalLanguage string  `json:"original_language,omitempty"`
	IsTranslated     bool    `json:"is_translated,omitempty"`
}

// Suggestion is an AI recommendation offered for one-click inclusion
// into the situation summary.
type Suggestion struct {
	ID           string   `json:"id"`
	Type         string   `json:"type"` // advice, warning, protocol
	Priority     Priority `json:"priority"`
	Title        string   `json:"title"`
	Content      string   `json:"content"`
	Confidence   int      `json:"confidence"`
	Acknowledged bool     `json:"acknowledged"`
}

// Question is a follow-up the AI suggests the operator ask the caller.
type Question struct {
	ID        string `json:"id"`
	Category  string `json:"category"` // location, medical, safety, details, reassurance
	Question  string `json:"question"`
	Priority  int    `json:"priority"`
	Reasoning string `json:"reasoning,omitempty"`
	Asked     bool   `json:"asked"`
}

// Assessment holds the operator-editable situation summary. Draft carries
// uncommitted edits while Editing is set.
type Assessment struct {
	Summary    string `json:"summary"`
	Draft      string `json:"draft,omitempty"`
	Editing    bool   `json:"editing"`
	Confidence int    `json:"confidence"`
}

// CallSnapshot is a point-in-time copy of a live session, safe to serialize
// after the session keeps mutating.
type CallSnapshot struct {
	ID                 string              `json:"id"`
	Status             CallStatus          `json:"status"`
	DurationSeconds    int                 `json:"duration_seconds"`
	Duration           string              `json:"duration"`
	Caller             CallerInfo          `json:"caller"`
	EmergencyType      string              `json:"emergency_type"`
	Priority           Priority            `json:"priority"`
	PriorityOverridden bool                `json:"priority_overridden"`
	DispatchedServices []Service           `json:"dispatched_services"`
	Messages           []TranscriptMessage `json:"messages"`
	Suggestions        []Suggestion        `json:"suggestions"`
	Questions          []Question          `json:"questions"`
	Assessment         Assessment          `json:"assessment"`
}

// CallRecord is the persisted form of a finished call.
type CallRecord struct {
	ID                 string    `json:"id"`
	PhoneNumber        string    `json:"phone_number"`
	CallerName         string    `json:"caller_name"`
	Location           string    `json:"location"`
	Language           string    `json:"language"`
	EmergencyType      string    `json:"emergency_type"`
	Priority           Priority  `json:"priority"`
	DurationSeconds    int       `json:"duration_seconds"`
	Summary            string    `json:"summary"`
	DispatchedServices []string  `json:"dispatched_services"`
	StartedAt          time.Time `json:"started_at"`
	EndedAt            time.Time `json:"ended_at"`
}
