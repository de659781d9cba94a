// Package role manages roles, which double as the designation option set on
// the user form.
package role

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

const Path = "/roles/"

type Role struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at,omitempty"`
}

func (r Role) RecordID() int64 { return r.ID }

func (r Role) SearchText() []string { return []string{r.Name, r.Description} }

func (r Role) StatusValue() string { return "" }

type RoleRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Form struct {
	Name        string
	Description string
}

func (f *Form) Set(field, value string) error {
	switch field {
	case "name":
		f.Name = value
	case "description":
		f.Description = value
	default:
		return internal.NewValidationFieldError(field, fmt.Sprintf("unknown field %q", field), internal.ErrCodeUnknownField)
	}
	return nil
}

func (f *Form) Validate(bool) *internal.AppError {
	v := validation.NewValidator()
	v.Field("name", "Name", f.Name).Required().MaxLength(100)
	v.Field("description", "Description", f.Description).MaxLength(500)
	return v.Validate()
}

func (f *Form) Values() map[string]interface{} {
	return map[string]interface{}{"name": f.Name, "description": f.Description}
}

func (f *Form) Request() RoleRequest {
	return RoleRequest{Name: strings.TrimSpace(f.Name), Description: strings.TrimSpace(f.Description)}
}

type Service struct {
	roles  *backend.Collection[Role]
	logger *slog.Logger
}

func NewService(client *backend.Client, logger *slog.Logger) *Service {
	return &Service{roles: backend.NewCollection[Role](client, Path), logger: logger}
}

func (s *Service) Name() string { return "roles" }

func (s *Service) List(ctx context.Context) ([]Role, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	return roles, nil
}

func (s *Service) Supports(dialog.Mode) bool { return true }

func (s *Service) NewForm() *Form { return &Form{} }

func (s *Service) FormFrom(r Role) *Form {
	return &Form{Name: r.Name, Description: r.Description}
}

func (s *Service) OptionSources() []dialog.OptionSource { return nil }

func (s *Service) Create(ctx context.Context, form *Form) (Role, error) {
	created, err := s.roles.Create(ctx, form.Request())
	if err != nil {
		return Role{}, fmt.Errorf("failed to create role: %w", err)
	}
	s.logger.Info("role created", "role_id", created.ID)
	return created, nil
}

func (s *Service) Update(ctx context.Context, original Role, form *Form) (Role, error) {
	updated, err := s.roles.Update(ctx, original.ID, form.Request())
	if err != nil {
		return Role{}, fmt.Errorf("failed to update role %d: %w", original.ID, err)
	}
	if updated.ID == 0 {
		updated = original
	}
	s.logger.Info("role updated", "role_id", original.ID)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, r Role) error {
	if err := s.roles.Delete(ctx, r.ID); err != nil {
		return fmt.Errorf("failed to delete role %d: %w", r.ID, err)
	}
	s.logger.Info("role deleted", "role_id", r.ID)
	return nil
}
