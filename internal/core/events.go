package core

import "time"

type EventType string

const (
	EventTransactionCreated EventType = "transaction.created"
	EventTransactionUpdated EventType = "transaction.updated"
	EventTransactionDeleted EventType = "transaction.deleted"
	EventLoggedIn           EventType = "auth.logged_in"
	EventLoggedOut          EventType = "auth.logged_out"
)

// Event describes a state change another client may want to react to.
type Event struct {
	Type          EventType `json:"type"`
	TransactionID string    `json:"transactionId,omitempty"`
	UserID        string    `json:"userId,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// IsTransactionEvent reports whether the event changes the transaction list.
func (e Event) IsTransactionEvent() bool {
	switch e.Type {
	case EventTransactionCreated, EventTransactionUpdated, EventTransactionDeleted:
		return true
	}
	return false
}
