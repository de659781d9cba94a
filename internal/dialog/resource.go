// Package dialog drives the create/view/edit/delete modal of a console
// screen: option loading, field binding, submission and reconciliation.
package dialog

import (
	"context"

	"github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/core/common/lookup"
)

type Mode string

const (
	ModeClosed Mode = "closed"
	ModeCreate Mode = "create"
	ModeView   Mode = "view"
	ModeEdit   Mode = "edit"
	ModeDelete Mode = "delete"
)

func ParseMode(s string) (Mode, bool) {
	switch m := Mode(s); m {
	case ModeCreate, ModeView, ModeEdit, ModeDelete:
		return m, true
	}
	return ModeClosed, false
}

type Phase string

const (
	PhaseNone           Phase = ""
	PhaseLoadingOptions Phase = "loading_options"
	PhaseReady          Phase = "ready"
	PhaseSubmitting     Phase = "submitting"
	PhaseBlocked        Phase = "blocked"
)

// Form is the editable half of a create or edit modal. Implementations are
// pointer types; the controller serialises access to them.
type Form interface {
	// Set binds one field. Unknown fields and unparsable values return an
	// *internal.AppError.
	Set(field, value string) error
	Validate(creating bool) *internal.AppError
	Values() map[string]interface{}
}

// OptionSource fetches one dropdown's choices. Required sources block the
// modal when they fail; optional ones degrade to an empty list.
type OptionSource struct {
	Field    string
	Required bool
	Load     func(ctx context.Context) ([]lookup.Option, error)
}

// Resource is what a controller needs from one entity type.
type Resource[T any, F Form] interface {
	Name() string
	Supports(mode Mode) bool
	NewForm() F
	FormFrom(rec T) F
	OptionSources() []OptionSource
	Create(ctx context.Context, form F) (T, error)
	Update(ctx context.Context, rec T, form F) (T, error)
	Delete(ctx context.Context, rec T) error
}

// Commit describes a mutation the backend acknowledged.
type Commit[T any] struct {
	Mode   Mode
	Record T
}
