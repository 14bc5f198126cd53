// ABOUTME: Conversation session state for one correspondent
// ABOUTME: Holds the state machine position, the accumulating draft and the assistance history

package session

import "strings"

// State is the conversation state machine position for one correspondent.
type State string

const (
	// StateIdle means no flow is in progress. Idle sessions carry no draft
	// and no assistance history.
	StateIdle State = "idle"
	// StateCollectingInfo means the correspondent was prompted for request
	// details and free text is interpreted as requirement input.
	StateCollectingInfo State = "collecting_info"
	// StateAwaitingAssistance means the correspondent is in the open-ended
	// Q&A sub-flow.
	StateAwaitingAssistance State = "awaiting_assistance"
	// StateProcessing means a complete draft is being matched and logged.
	StateProcessing State = "processing"
)

// Turn is one role-tagged entry in the assistance history.
type Turn struct {
	Role    string // "user" or "assistant"
	Content string
}

// Draft accumulates request fields across turns. Fields hold canonical
// values or are empty when not yet supplied.
type Draft struct {
	POL           string
	POD           string
	ContainerType string
	EmptyPickup   string
	Commodity     string
}

// Merge folds a newer extraction into the draft. Non-empty incoming fields
// overwrite; empty fields never clear previously supplied values.
func (d *Draft) Merge(in Draft) {
	if v := strings.TrimSpace(in.POL); v != "" {
		d.POL = v
	}
	if v := strings.TrimSpace(in.POD); v != "" {
		d.POD = v
	}
	if v := strings.TrimSpace(in.ContainerType); v != "" {
		d.ContainerType = v
	}
	if v := strings.TrimSpace(in.EmptyPickup); v != "" {
		d.EmptyPickup = v
	}
	if v := strings.TrimSpace(in.Commodity); v != "" {
		d.Commodity = v
	}
}

// Complete reports whether the draft can be processed. Empty pickup never
// blocks completeness; it defaults to the wildcard at query time.
func (d *Draft) Complete() bool {
	return len(d.Missing()) == 0
}

// Missing returns the user-facing names of required fields not yet supplied.
func (d *Draft) Missing() []string {
	var missing []string
	if d.POL == "" {
		missing = append(missing, "port of origin")
	}
	if d.POD == "" {
		missing = append(missing, "port of destination")
	}
	if d.ContainerType == "" {
		missing = append(missing, "container type")
	}
	if d.Commodity == "" {
		missing = append(missing, "commodity")
	}
	return missing
}

// Session is the per-correspondent conversation state. At most one session
// exists per correspondent id; it is mutated only by the conversation engine
// while holding the correspondent's lock.
type Session struct {
	Correspondent string
	State         State
	Draft         Draft
	Assistance    []Turn
	Welcomed      bool
}

// Reset clears the session back to a fresh Idle state, including the
// welcome flag. Used by the "finished" button.
func (s *Session) Reset() {
	s.State = StateIdle
	s.Draft = Draft{}
	s.Assistance = nil
	s.Welcomed = false
}

// EndCycle clears the draft and history and returns to Idle while keeping
// the welcome flag, used when a request cycle completes.
func (s *Session) EndCycle() {
	s.State = StateIdle
	s.Draft = Draft{}
	s.Assistance = nil
}
