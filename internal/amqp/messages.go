package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"finboss/internal/core"
)

// TransactionEvent is the wire form of a domain event. Source identifies the
// publishing process so it can skip its own messages.
type TransactionEvent struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	core.Event
}

// NewTransactionEvent wraps e with a fresh message id, stamping the time if unset.
func NewTransactionEvent(source string, e core.Event) *TransactionEvent {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	return &TransactionEvent{
		ID:     uuid.NewString(),
		Source: source,
		Event:  e,
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventFromJSON decodes a message and rejects ones without a type.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var msg TransactionEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("event type is required")
	}
	return &msg, nil
}
