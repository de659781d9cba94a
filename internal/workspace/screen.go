// Package workspace assembles the per-session console: one screen per entity
// type plus the dashboard, and the registry that owns them across requests.
package workspace

import (
	"context"
	"log/slog"
	"sync"

	"github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/dialog"
	"github.com/frahmantamala/admin-console/internal/errfmt"
	"github.com/frahmantamala/admin-console/internal/listing"
)

// Record is what a screen needs from an entity row.
type Record interface {
	listing.Filterable
	RecordID() int64
}

// Resource is a dialog resource that can also list its collection.
type Resource[T Record, F dialog.Form] interface {
	dialog.Resource[T, F]
	List(ctx context.Context) ([]T, error)
}

// ViewUpdate carries the view controls a client changed; nil fields are
// left as they are.
type ViewUpdate struct {
	Search   *string `json:"search,omitempty"`
	Status   *string `json:"status,omitempty"`
	Page     *int    `json:"page,omitempty"`
	PageSize *int    `json:"page_size,omitempty"`
}

type ScreenSnapshot struct {
	Screen    string          `json:"screen"`
	State     listing.Status  `json:"state"`
	Error     string          `json:"error,omitempty"`
	Items     interface{}     `json:"items"`
	Total     int             `json:"total"`
	Page      int             `json:"page"`
	PageSize  int             `json:"page_size"`
	PageCount int             `json:"page_count"`
	Search    string          `json:"search"`
	Status    string          `json:"status"`
	Modal     dialog.Snapshot `json:"modal"`
}

// ScreenAPI is a screen with its record type erased, so handlers can route
// by name.
type ScreenAPI interface {
	Name() string
	Mount(ctx context.Context)
	Snapshot() ScreenSnapshot
	Err() error
	Refresh(ctx context.Context) error
	UpdateView(update ViewUpdate)
	Open(ctx context.Context, mode dialog.Mode, id int64) error
	SetFields(fields map[string]string) error
	Submit(ctx context.Context) error
	CloseModal()
	Unmount()
}

// CommitHook runs after a mutation was acknowledged and the screen reloaded.
type CommitHook[T any] func(ctx context.Context, mode dialog.Mode, rec T)

// Screen is the list store, view controls and modal of one entity type.
type Screen[T Record, F dialog.Form] struct {
	name   string
	store  *listing.Store[T]
	view   *listing.View[T]
	modal  *dialog.Controller[T, F]
	hook   CommitHook[T]
	logger *slog.Logger

	mountOnce sync.Once
}

func NewScreen[T Record, F dialog.Form](resource Resource[T, F], console internal.ConsoleConfig, hook CommitHook[T], logger *slog.Logger) *Screen[T, F] {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Screen[T, F]{
		name:   resource.Name(),
		store:  listing.NewStore(resource.Name(), listing.Fetcher[T](resource.List), logger),
		view:   listing.NewView[T](console.DefaultPageSize, console.MaxPageSize),
		hook:   hook,
		logger: logger.With("screen", resource.Name()),
	}
	s.modal = dialog.NewController[T, F](resource, s.committed, logger)
	return s
}

func (s *Screen[T, F]) Name() string { return s.name }

// Mount performs the first load. Later calls are no-ops; use Refresh to
// reload.
func (s *Screen[T, F]) Mount(ctx context.Context) {
	s.mountOnce.Do(func() {
		if err := s.store.Load(ctx); err != nil {
			s.logger.Warn("initial load failed", "error", err)
		}
	})
}

func (s *Screen[T, F]) Refresh(ctx context.Context) error {
	return s.store.Refresh(ctx)
}

// committed reconciles with the server rather than patching the list.
func (s *Screen[T, F]) committed(ctx context.Context, c dialog.Commit[T]) {
	if err := s.store.Refresh(ctx); err != nil {
		s.logger.Warn("refresh after commit failed", "mode", c.Mode, "error", err)
	}
	if s.hook != nil {
		s.hook(ctx, c.Mode, c.Record)
	}
}

func (s *Screen[T, F]) UpdateView(update ViewUpdate) {
	if update.Search != nil {
		s.view.SetSearch(*update.Search)
	}
	if update.Status != nil {
		s.view.SetStatus(*update.Status)
	}
	if update.PageSize != nil {
		s.view.SetPageSize(*update.PageSize)
	}
	if update.Page != nil {
		s.view.SetPage(*update.Page)
	}
}

// Open shows the modal for mode. id selects the record for view, edit and
// delete and is ignored on create.
func (s *Screen[T, F]) Open(ctx context.Context, mode dialog.Mode, id int64) error {
	if mode == dialog.ModeCreate {
		return s.modal.Open(ctx, mode, nil)
	}
	rec, ok := s.find(id)
	if !ok {
		return internal.ErrRecordNotFound
	}
	return s.modal.Open(ctx, mode, &rec)
}

func (s *Screen[T, F]) find(id int64) (T, bool) {
	for _, rec := range s.store.Records() {
		if rec.RecordID() == id {
			return rec, true
		}
	}
	var zero T
	return zero, false
}

func (s *Screen[T, F]) SetFields(fields map[string]string) error {
	return s.modal.Set(fields)
}

func (s *Screen[T, F]) Submit(ctx context.Context) error {
	return s.modal.Submit(ctx)
}

func (s *Screen[T, F]) CloseModal() {
	s.modal.Close()
}

// Unmount cancels outstanding loads and closes the modal; late results are
// discarded.
func (s *Screen[T, F]) Unmount() {
	s.modal.Close()
	s.store.Close()
}

// Err is the error of the latest load, nil after a successful one.
func (s *Screen[T, F]) Err() error {
	return s.store.Err()
}

func (s *Screen[T, F]) Snapshot() ScreenSnapshot {
	state := s.view.State()
	window := s.view.Apply(s.store.Records())
	snap := ScreenSnapshot{
		Screen:    s.name,
		State:     s.store.Status(),
		Items:     window.Items,
		Total:     window.Total,
		Page:      window.Page,
		PageSize:  window.PageSize,
		PageCount: window.PageCount,
		Search:    state.Search,
		Status:    state.Status,
		Modal:     s.modal.Snapshot(),
	}
	if snap.State == listing.StatusError {
		snap.Error = errfmt.Format(s.store.Err())
	}
	return snap
}
