package location

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/backend"
	"github.com/frahmantamala/admin-console/internal/core/common/validation"
	"github.com/frahmantamala/admin-console/internal/dialog"
)

const Path = "/locations/"

type Location struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (l Location) RecordID() int64 { return l.ID }

func (l Location) SearchText() []string { return []string{l.Name} }

func (l Location) StatusValue() string { return "" }

type Form struct {
	Name string
}

func (f *Form) Set(field, value string) error {
	if field != "name" {
		return internal.NewValidationFieldError(field, fmt.Sprintf("unknown field %q", field), internal.ErrCodeUnknownField)
	}
	f.Name = value
	return nil
}

func (f *Form) Validate(bool) *internal.AppError {
	v := validation.NewValidator()
	v.Field("name", "Name", f.Name).Required().MaxLength(100)
	return v.Validate()
}

func (f *Form) Values() map[string]interface{} {
	return map[string]interface{}{"name": f.Name}
}

// Service exposes locations as create-only: the backend offers no edit or
// delete for them.
type Service struct {
	locations *backend.Collection[Location]
	logger    *slog.Logger
}

func NewService(client *backend.Client, logger *slog.Logger) *Service {
	return &Service{locations: backend.NewCollection[Location](client, Path), logger: logger}
}

func (s *Service) Name() string { return "locations" }

func (s *Service) List(ctx context.Context) ([]Location, error) {
	locations, err := s.locations.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	return locations, nil
}

func (s *Service) Supports(mode dialog.Mode) bool {
	return mode == dialog.ModeCreate || mode == dialog.ModeView
}

func (s *Service) NewForm() *Form { return &Form{} }

func (s *Service) FormFrom(l Location) *Form { return &Form{Name: l.Name} }

func (s *Service) OptionSources() []dialog.OptionSource { return nil }

func (s *Service) Create(ctx context.Context, form *Form) (Location, error) {
	created, err := s.locations.Create(ctx, map[string]string{"name": strings.TrimSpace(form.Name)})
	if err != nil {
		return Location{}, fmt.Errorf("failed to create location: %w", err)
	}
	s.logger.Info("location created", "location_id", created.ID)
	return created, nil
}

func (s *Service) Update(context.Context, Location, *Form) (Location, error) {
	return Location{}, internal.ErrUnsupported
}

func (s *Service) Delete(context.Context, Location) error {
	return internal.ErrUnsupported
}
