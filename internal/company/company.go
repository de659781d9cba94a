package company

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/backend"
	"github.com/frahmantamala/admin-console/internal/core/common/lookup"
	"github.com/frahmantamala/admin-console/internal/core/common/validation"
	"github.com/frahmantamala/admin-console/internal/dialog"
)

const Path = "/companies/"

type Company struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Location      string `json:"location"`
	LocationValue string `json:"-"`
	ShopsCount    int    `json:"shops_count"`
}

func (c *Company) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID           int64      `json:"id"`
		Name         string     `json:"name"`
		Location     lookup.Ref `json:"location"`
		LocationName string     `json:"location_name"`
		ShopsCount   *int       `json:"shops_count"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*c = Company{
		ID:            raw.ID,
		Name:          raw.Name,
		Location:      raw.Location.Display(),
		LocationValue: raw.Location.FormValue(),
	}
	if raw.LocationName != "" {
		c.Location = raw.LocationName
	}
	if raw.ShopsCount != nil && *raw.ShopsCount > 0 {
		c.ShopsCount = *raw.ShopsCount
	}
	return nil
}

func (c Company) RecordID() int64 { return c.ID }

func (c Company) SearchText() []string { return []string{c.Name, c.Location} }

func (c Company) StatusValue() string { return "" }

type CreateCompanyRequest struct {
	Name     string      `json:"name"`
	Location interface{} `json:"location"`
}

type Form struct {
	Name     string
	Location string
}

func (f *Form) Set(field, value string) error {
	switch field {
	case "name":
		f.Name = value
	case "location":
		f.Location = value
	default:
		return internal.NewValidationFieldError(field, fmt.Sprintf("unknown field %q", field), internal.ErrCodeUnknownField)
	}
	return nil
}

func (f *Form) Validate(bool) *internal.AppError {
	v := validation.NewValidator()
	v.Field("name", "Name", f.Name).Required().MaxLength(100)
	v.Field("location", "Location", f.Location).Required()
	return v.Validate()
}

func (f *Form) Values() map[string]interface{} {
	return map[string]interface{}{"name": f.Name, "location": f.Location}
}

type Service struct {
	companies *backend.Collection[Company]
	locations *backend.Collection[lookup.Option]
	logger    *slog.Logger
}

func NewService(client *backend.Client, logger *slog.Logger) *Service {
	return &Service{
		companies: backend.NewCollection[Company](client, Path),
		locations: backend.NewCollection[lookup.Option](client, "/locations/"),
		logger:    logger,
	}
}

func (s *Service) Name() string { return "companies" }

func (s *Service) List(ctx context.Context) ([]Company, error) {
	companies, err := s.companies.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	return companies, nil
}

func (s *Service) Supports(mode dialog.Mode) bool {
	return mode == dialog.ModeCreate || mode == dialog.ModeView
}

func (s *Service) NewForm() *Form { return &Form{} }

func (s *Service) FormFrom(c Company) *Form {
	return &Form{Name: c.Name, Location: c.LocationValue}
}

func (s *Service) OptionSources() []dialog.OptionSource {
	return []dialog.OptionSource{{Field: "location", Required: true, Load: s.locations.List}}
}

func (s *Service) Create(ctx context.Context, form *Form) (Company, error) {
	created, err := s.companies.Create(ctx, CreateCompanyRequest{
		Name:     strings.TrimSpace(form.Name),
		Location: lookup.PayloadValue(form.Location),
	})
	if err != nil {
		return Company{}, fmt.Errorf("failed to create company: %w", err)
	}
	s.logger.Info("company created", "company_id", created.ID)
	return created, nil
}

func (s *Service) Update(context.Context, Company, *Form) (Company, error) {
	return Company{}, internal.ErrUnsupported
}

func (s *Service) Delete(context.Context, Company) error {
	return internal.ErrUnsupported
}
