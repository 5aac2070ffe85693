package amqp

import (
	"encoding/json"
	"time"
)

// Record types and actions carried by record events. They mirror the
// sync queue vocabulary so the worker can log what woke it.
const (
	RecordTransaction = "transaction"
	RecordBudget      = "budget"

	ActionAppend = "append"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// RecordEvent announces that a local record changed and the sync queue
// has work. It is a wake-up signal, not a data carrier: the worker
// drains the queue from the database, never from the message body.
type RecordEvent struct {
	RecordType string    `json:"record_type"`
	RecordID   string    `json:"record_id"`
	Action     string    `json:"action"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewRecordEvent creates a record event stamped with the current time
func NewRecordEvent(recordType, recordID, action string) *RecordEvent {
	return &RecordEvent{
		RecordType: recordType,
		RecordID:   recordID,
		Action:     action,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (m *RecordEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordEventFromJSON creates an event from JSON bytes
func RecordEventFromJSON(data []byte) (*RecordEvent, error) {
	var msg RecordEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
