package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"carbon/internal/core"
)

// Event types carried in LedgerEvent.Type.
const (
	EventActivityLogged = "activity.logged"
	EventLedgerCleared  = "ledger.cleared"
)

// LedgerEvent is the JSON envelope published for every ledger change.
// Activity is set for activity.logged; Removed for ledger.cleared.
type LedgerEvent struct {
	Type      string               `json:"type"`
	Activity  *core.ActivityRecord `json:"activity,omitempty"`
	Removed   int                  `json:"removed,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
}

// NewActivityLoggedEvent wraps a record that was just appended.
func NewActivityLoggedEvent(r core.ActivityRecord, at time.Time) *LedgerEvent {
	return &LedgerEvent{Type: EventActivityLogged, Activity: &r, Timestamp: at.UTC()}
}

// NewLedgerClearedEvent reports that removed records were dropped.
func NewLedgerClearedEvent(removed int, at time.Time) *LedgerEvent {
	return &LedgerEvent{Type: EventLedgerCleared, Removed: removed, Timestamp: at.UTC()}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON decodes and checks an event body.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Type {
	case EventActivityLogged:
		if msg.Activity == nil {
			return nil, fmt.Errorf("%s event without activity", msg.Type)
		}
	case EventLedgerCleared:
	default:
		return nil, fmt.Errorf("unknown event type %q", msg.Type)
	}
	return &msg, nil
}
