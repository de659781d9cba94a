package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/admin-console/internal/core/events"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Subscribe records every record.* event published on bus.
func (s *Service) Subscribe(bus *events.EventBus) {
	bus.SubscribeAll(s.HandleRecordEvent, events.RecordTypes...)
}

func (s *Service) HandleRecordEvent(ctx context.Context, event events.Event) error {
	rec, ok := event.(*events.RecordEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload %T for %s", event, event.EventType())
	}

	entry := &Entry{
		EventID:    rec.EventID(),
		EventType:  rec.EventType(),
		Resource:   rec.Resource,
		RecordID:   rec.RecordID,
		Label:      rec.Label,
		Username:   rec.Username,
		OccurredAt: rec.OccurredAt().UTC(),
	}
	if err := s.repo.Insert(ctx, entry); err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	s.logger.Debug("audit entry recorded", "event_type", entry.EventType, "resource", entry.Resource, "record_id", entry.RecordID)
	return nil
}

// Recent returns the newest entries first. limit is clamped to
// [1, MaxLimit]; zero or less means DefaultLimit.
func (s *Service) Recent(ctx context.Context, limit int) ([]Entry, error) {
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}
	entries, err := s.repo.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load audit entries: %w", err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}
