package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeRecordCreated = "record.created"
	EventTypeRecordUpdated = "record.updated"
	EventTypeRecordDeleted = "record.deleted"
)

// RecordTypes lists every mutation event the console publishes.
var RecordTypes = []string{EventTypeRecordCreated, EventTypeRecordUpdated, EventTypeRecordDeleted}

// RecordEvent is published after the backend acknowledged a mutation made
// from a console screen.
type RecordEvent struct {
	BaseEvent
	Resource  string `json:"resource"`
	RecordID  int64  `json:"record_id"`
	Label     string `json:"label"`
	Username  string `json:"username"`
	SessionID string `json:"session_id"`
}

func NewRecordEvent(eventType, resource string, recordID int64, label, username, sessionID string) *RecordEvent {
	return &RecordEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"resource":  resource,
				"record_id": recordID,
				"label":     label,
				"username":  username,
			},
		},
		Resource:  resource,
		RecordID:  recordID,
		Label:     label,
		Username:  username,
		SessionID: sessionID,
	}
}
