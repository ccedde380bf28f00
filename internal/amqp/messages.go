package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"finmate/internal/storage"
)

// ExpenseEvent announces a committed change to one expense.
// It carries only the id; consumers read the row itself from the API or database.
type ExpenseEvent struct {
	Type      string    `json:"type"`
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseEvent(kind string, id int64) *ExpenseEvent {
	return &ExpenseEvent{
		Type:      kind,
		ID:        id,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// Validate rejects unknown event types and non-positive ids.
func (m *ExpenseEvent) Validate() error {
	switch m.Type {
	case storage.EventCreated, storage.EventUpdated, storage.EventDeleted:
	default:
		return fmt.Errorf("unknown event type %q", m.Type)
	}
	if m.ID <= 0 {
		return fmt.Errorf("invalid expense id %d", m.ID)
	}
	return nil
}

// ExpenseEventFromJSON decodes and validates a message body.
func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var msg ExpenseEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
