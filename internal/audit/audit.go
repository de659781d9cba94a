// Package audit records every mutation committed through the console.
package audit

import (
	"context"
	"time"
)

type Entry struct {
	ID         int64     `db:"id" json:"id"`
	EventID    string    `db:"event_id" json:"event_id"`
	EventType  string    `db:"event_type" json:"event_type"`
	Resource   string    `db:"resource" json:"resource"`
	RecordID   int64     `db:"record_id" json:"record_id"`
	Label      string    `db:"label" json:"label"`
	Username   string    `db:"username" json:"username"`
	OccurredAt time.Time `db:"occurred_at" json:"occurred_at"`
}

type RepositoryAPI interface {
	Insert(ctx context.Context, e *Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

type EntriesResponse struct {
	Entries []Entry `json:"entries"`
}
