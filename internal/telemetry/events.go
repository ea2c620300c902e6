package telemetry

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/vitrine/dmconsole/internal/pkg/logger"
)

// Wire event kinds pushed by the automation process. Anything else is
// ignored without error.
const (
	kindMessageAttempt = "dm_log"
	kindSystemMessage  = "log_line"
	kindStats          = "stats"
	kindBacklog        = "backlog"
)

// Counters are the aggregate send counters for one connection session.
// They only grow while the session lasts; the automation process resets
// them by resending fresh values on a new cycle.
type Counters struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Fail    int `json:"fail"`
}

// statsPayload uses pointers so a field the server did not resend keeps
// its prior value instead of collapsing to zero.
type statsPayload struct {
	Total   *int `json:"total"`
	Success *int `json:"success"`
	Fail    *int `json:"fail"`
}

func (c *Counters) merge(p *statsPayload) {
	if p.Total != nil {
		c.Total = *p.Total
	}
	if p.Success != nil {
		c.Success = *p.Success
	}
	if p.Fail != nil {
		c.Fail = *p.Fail
	}
}

// refObject is the embedded account/sender/template reference carried
// by message-attempt events.
type refObject struct {
	ID       int    `json:"id"`
	Username string `json:"instagram_username"`
	Name     string `json:"name"`
}

func (r *refObject) display() string {
	switch {
	case r == nil:
		return "?"
	case r.Username != "":
		return r.Username
	case r.Name != "":
		return r.Name
	default:
		return fmt.Sprintf("#%d", r.ID)
	}
}

// wireEvent is the union of all event payloads; Type selects which
// fields are meaningful.
type wireEvent struct {
	Type string `json:"type"`

	// message-attempt
	Success  bool          `json:"success"`
	SentAt   string        `json:"sent_at"`
	Account  *refObject    `json:"account"`
	Sender   *refObject    `json:"sender"`
	Template *refObject    `json:"template"`
	Stats    *statsPayload `json:"stats"`

	// system-message
	Message string `json:"message"`
	Level   string `json:"level"`
	Source  string `json:"logger"`

	// backlog
	Events []json.RawMessage `json:"events"`
}

// Snapshot is the observable state the presentation layer renders.
type Snapshot struct {
	Connected bool     `json:"connected"`
	Counters  Counters `json:"counters"`
	Lines     []string `json:"lines"`
}

// State classifies raw telemetry events and folds them into the
// aggregate counters and the rolling log. The lock exists because HTTP
// handlers read snapshots while the consumer goroutine applies events;
// only the consumer mutates.
type State struct {
	mu        sync.RWMutex
	connected bool
	counters  Counters
	log       *RingLog
}

// NewState creates an empty State with the standard log capacity.
func NewState() *State {
	return &State{log: NewRingLog(LogCapacity)}
}

// Apply classifies one raw event and folds it in. Malformed payloads
// are dropped without touching the state.
func (s *State) Apply(raw []byte) {
	var ev wireEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		logger.Debug("telemetry: dropping malformed event", "error", err)
		return
	}

	switch ev.Type {
	case kindBacklog:
		// Replay in the order given, oldest first, before anything
		// received live afterward.
		for _, sub := range ev.Events {
			s.Apply(sub)
		}
	case kindStats:
		if ev.Stats != nil {
			s.mu.Lock()
			s.counters.merge(ev.Stats)
			s.mu.Unlock()
		}
	case kindMessageAttempt:
		line := renderAttempt(&ev)
		s.mu.Lock()
		s.log.Append(line)
		if ev.Stats != nil {
			s.counters.merge(ev.Stats)
		}
		s.mu.Unlock()
	case kindSystemMessage:
		line := renderSystem(&ev)
		s.mu.Lock()
		s.log.Append(line)
		s.mu.Unlock()
	default:
		// Unknown kinds are not an error.
	}
}

// Snapshot returns a copy of the observable state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Connected: s.connected,
		Counters:  s.counters,
		Lines:     s.log.Lines(),
	}
}

// setConnected flips the connectivity indicator.
func (s *State) setConnected(up bool) {
	s.mu.Lock()
	s.connected = up
	s.mu.Unlock()
}

// reset clears session state. A fresh connection carries no memory of
// the previous one beyond what the server resends as a backlog event.
func (s *State) reset() {
	s.mu.Lock()
	s.counters = Counters{}
	s.log.Reset()
	s.mu.Unlock()
}

func renderAttempt(ev *wireEvent) string {
	status := "SENT"
	if !ev.Success {
		status = "FAIL"
	}
	return fmt.Sprintf("%s %s @%s via %s",
		eventClock(ev.SentAt), status, ev.Account.display(), senderDisplay(ev.Sender))
}

func senderDisplay(r *refObject) string {
	if r != nil && r.Name != "" {
		return r.Name
	}
	return r.display()
}

func renderSystem(ev *wireEvent) string {
	level := ev.Level
	if level == "" {
		level = "INFO"
	}
	if ev.Source != "" {
		return fmt.Sprintf("%s %s [%s] %s", eventClock(ev.SentAt), level, ev.Source, ev.Message)
	}
	return fmt.Sprintf("%s %s %s", eventClock(ev.SentAt), level, ev.Message)
}

// eventClock renders the event timestamp as HH:MM:SS, falling back to
// the local clock when the server sent none or an unparsable one.
func eventClock(sentAt string) string {
	if sentAt != "" {
		if t, err := time.Parse(time.RFC3339, sentAt); err == nil {
			return t.Format("15:04:05")
		}
	}
	return time.Now().Format("15:04:05")
}
