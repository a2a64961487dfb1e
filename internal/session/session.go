package session

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/epanner/shipfast-hack-25/internal/classify"
	"github.com/epanner/shipfast-hack-25/internal/clock"
	"github.com/epanner/shipfast-hack-25/internal/models"
)

var (
	ErrNotIncoming  = errors.New("call is not in incoming state")
	ErrNotConnected = errors.New("call is not connected")
)

// Call owns the in-memory state of one emergency call. All methods are safe
// for concurrent use; network completions and the ticker touch the same
// instance the handlers do.
type Call struct {
	mu sync.RWMutex

	id     string
	caller models.CallerInfo
	status models.CallStatus

	clk         clock.Clock
	startedAt   time.Time
	connectedAt time.Time
	accumulated time.Duration
	endedAt     time.Time

	emergencyType      string
	priority           models.Priority
	priorityOverridden bool

	dispatched  map[models.Service]bool
	messages    []models.TranscriptMessage
	suggestions []models.Suggestion
	questions   []models.Question
	assessment  models.Assessment

	onTick   func(*Call)
	stopTick chan struct{}
}

// New creates an incoming call. onTick, if set, fires once per second while
// the call is connected so the presentation layer can refresh.
func New(caller models.CallerInfo, clk clock.Clock, onTick func(*Call)) *Call {
	if clk == nil {
		clk = clock.System{}
	}
	return &Call{
		id:            uuid.NewString(),
		caller:        caller,
		status:        models.StatusIncoming,
		clk:           clk,
		startedAt:     clk.Now(),
		emergencyType: "Unknown Emergency",
		priority:      models.PriorityMedium,
		dispatched:    map[models.Service]bool{},
		onTick:        onTick,
	}
}

func (c *Call) ID() string {
	return c.id
}

func (c *Call) Status() models.CallStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// Answer moves the call from incoming to connected and starts the tick loop.
func (c *Call) Answer() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != models.StatusIncoming {
		return ErrNotIncoming
	}
	c.status = models.StatusConnected
	c.connectedAt = c.clk.Now()
	if c.onTick != nil {
		c.startTickLoop()
	}
	return nil
}

// Hangup ends a connected call. The duration stops accumulating and the
// ticker is cancelled; ended is terminal.
func (c *Call) Hangup() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != models.StatusConnected {
		return ErrNotConnected
	}
	c.accumulated += c.clk.Now().Sub(c.connectedAt)
	c.endedAt = c.clk.Now()
	c.status = models.StatusEnded
	if c.stopTick != nil {
		close(c.stopTick)
		c.stopTick = nil
	}
	return nil
}

// Reset zeroes the timer for a fresh inbound call reusing this slot. Only
// valid before the call was answered.
func (c *Call) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != models.StatusIncoming {
		return ErrNotIncoming
	}
	c.accumulated = 0
	c.startedAt = c.clk.Now()
	return nil
}

func (c *Call) startTickLoop() {
	c.stopTick = make(chan struct{})
	stop := c.stopTick
	t := time.NewTicker(time.Second)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-t.C:
				c.onTick(c)
			case <-stop:
				return
			}
		}
	}()
}

// DurationSeconds is derived from the clock: time spent connected so far,
// frozen while incoming or ended.
func (c *Call) DurationSeconds() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.durationSecondsLocked()
}

func (c *Call) durationSecondsLocked() int {
	d := c.accumulated
	if c.status == models.StatusConnected {
		d += c.clk.Now().Sub(c.connectedAt)
	}
	return int(d / time.Second)
}

// FormatDuration renders seconds as mm:ss for the console header.
func FormatDuration(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// AppendMessage adds one transcript entry and re-derives the emergency
// classification. Prior entries are never mutated or reordered. A manual
// priority override survives re-classification; the type label does not.
func (c *Call) AppendMessage(speaker models.Speaker, text, originalLanguage string, translated bool) models.TranscriptMessage {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg := models.TranscriptMessage{
		ID:               uuid.NewString(),
		Speaker:          speaker,
		Text:             text,
		Timestamp:        c.clk.Now().Format("15:04:05"),
		OriginalLanguage: originalLanguage,
		IsTranslated:     translated,
	}
	c.messages = append(c.messages, msg)

	label, prio := classify.Classify(c.transcriptTextLocked())
	c.emergencyType = label
	if !c.priorityOverridden {
		c.priority = prio
	}
	return msg
}

func (c *Call) transcriptTextLocked() string {
	parts := make([]string, 0, len(c.messages))
	for _, m := range c.messages {
		parts = append(parts, m.Text)
	}
	return strings.Join(parts, " ")
}

// Messages returns a copy of the log in insertion order.
func (c *Call) Messages() []models.TranscriptMessage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.TranscriptMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// OverridePriority records an operator decision that sticks for the rest of
// the session.
func (c *Call) OverridePriority(p models.Priority) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.priority = p
	c.priorityOverridden = true
}

// Dispatch marks a service as requested. Idempotent, no removal.
func (c *Call) Dispatch(svc models.Service) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dispatched[svc] = true
}

func (c *Call) DispatchedServices() []models.Service {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dispatchedLocked()
}

func (c *Call) dispatchedLocked() []models.Service {
	out := make([]models.Service, 0, len(c.dispatched))
	for svc := range c.dispatched {
		out = append(out, svc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SetSuggestions replaces the recommendation panel content.
func (c *Call) SetSuggestions(items []models.Suggestion) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.suggestions = items
}

func (c *Call) SetQuestions(items []models.Question) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.questions = items
}

// AcknowledgeSuggestion marks an item clicked. Idempotent; the item stays in
// the list and sorts after unacknowledged ones.
func (c *Call) AcknowledgeSuggestion(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.suggestions {
		if c.suggestions[i].ID == id {
			c.suggestions[i].Acknowledged = true
			return true
		}
	}
	return false
}

// MarkQuestionAsked flags a follow-up question as asked. Idempotent.
func (c *Call) MarkQuestionAsked(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.questions {
		if c.questions[i].ID == id {
			c.questions[i].Asked = true
			return true
		}
	}
	return false
}

func (c *Call) OrderedSuggestions() []models.Suggestion {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return OrderSuggestions(c.suggestions)
}

func (c *Call) OrderedQuestions() []models.Question {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return OrderQuestions(c.questions)
}

// ApplySuggestion appends the item's content to the situation summary (the
// draft when an edit is open, the committed text otherwise) and marks it
// acknowledged. The item itself is not removed.
func (c *Call) ApplySuggestion(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.suggestions {
		if c.suggestions[i].ID != id {
			continue
		}
		if c.assessment.Editing {
			c.assessment.Draft = ApplyToSummary(c.suggestions[i], c.assessment.Draft)
		} else {
			c.assessment.Summary = ApplyToSummary(c.suggestions[i], c.assessment.Summary)
		}
		c.suggestions[i].Acknowledged = true
		return true
	}
	return false
}

// UpdateSummary stores operator edits. commit writes the committed value and
// closes the edit buffer; otherwise the text sits in the draft.
func (c *Call) UpdateSummary(text string, commit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if commit {
		c.assessment.Summary = text
		c.assessment.Draft = ""
		c.assessment.Editing = false
		return
	}
	c.assessment.Draft = text
	c.assessment.Editing = true
}

// MergeAudioSummary folds the bullet points from a processed upload into the
// committed assessment text.
func (c *Call) MergeAudioSummary(points []string) {
	if len(points) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	joined := strings.Join(points, " ")
	if c.assessment.Summary == "" {
		c.assessment.Summary = joined
	} else {
		c.assessment.Summary += "\n\nUploaded audio analysis: " + joined
	}
	c.assessment.Confidence = 96
}

func (c *Call) Assessment() models.Assessment {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.assessment
}

// Snapshot copies the full view state for serialization or fan-out.
func (c *Call) Snapshot() models.CallSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	secs := c.durationSecondsLocked()
	return models.CallSnapshot{
		ID:                 c.id,
		Status:             c.status,
		DurationSeconds:    secs,
		Duration:           FormatDuration(secs),
		Caller:             c.caller,
		EmergencyType:      c.emergencyType,
		Priority:           c.priority,
		PriorityOverridden: c.priorityOverridden,
		DispatchedServices: c.dispatchedLocked(),
		Messages:           append([]models.TranscriptMessage(nil), c.messages...),
		Suggestions:        OrderSuggestions(c.suggestions),
		Questions:          OrderQuestions(c.questions),
		Assessment:         c.assessment,
	}
}

// Record converts an ended call into its persisted form.
func (c *Call) Record() models.CallRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	services := make([]string, 0, len(c.dispatched))
	for _, svc := range c.dispatchedLocked() {
		services = append(services, string(svc))
	}
	return models.CallRecord{
		ID:                 c.id,
		PhoneNumber:        c.caller.PhoneNumber,
		CallerName:         c.caller.Name,
		Location:           c.caller.Location,
		Language:           c.caller.Language,
		EmergencyType:      c.emergencyType,
		Priority:           c.priority,
		DurationSeconds:    c.durationSecondsLocked(),
		Summary:            c.assessment.Summary,
		DispatchedServices: services,
		StartedAt:          c.startedAt,
		EndedAt:            c.endedAt,
	}
}
