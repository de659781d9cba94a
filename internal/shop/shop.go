package shop

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

const Path = "/shops/"

type Shop struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Company       string `json:"company"`
	Location      string `json:"location"`
	CompanyValue  string `json:"-"`
	LocationValue string `json:"-"`
}

func (s *Shop) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID           int64      `json:"id"`
		Name         string     `json:"name"`
		Company      lookup.Ref `json:"company"`
		Location     lookup.Ref `json:"location"`
		CompanyName  string     `json:"company_name"`
		LocationName string     `json:"location_name"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = Shop{
		ID:            raw.ID,
		Name:          raw.Name,
		Company:       raw.Company.Display(),
		Location:      raw.Location.Display(),
		CompanyValue:  raw.Company.FormValue(),
		LocationValue: raw.Location.FormValue(),
	}
	if raw.CompanyName != "" {
		s.Company = raw.CompanyName
	}
	if raw.LocationName != "" {
		s.Location = raw.LocationName
	}
	return nil
}

func (s Shop) RecordID() int64 { return s.ID }

func (s Shop) SearchText() []string { return []string{s.Name, s.Company, s.Location} }

func (s Shop) StatusValue() string { return "" }

type CreateShopRequest struct {
	Name     string      `json:"name"`
	Company  interface{} `json:"company"`
	Location interface{} `json:"location"`
}

type Form struct {
	Name     string
	Company  string
	Location string
}

func (f *Form) Set(field, value string) error {
	switch field {
	case "name":
		f.Name = value
	case "company":
		f.Company = value
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
	v.Field("company", "Company", f.Company).Required()
	v.Field("location", "Location", f.Location).Required()
	return v.Validate()
}

func (f *Form) Values() map[string]interface{} {
	return map[string]interface{}{"name": f.Name, "company": f.Company, "location": f.Location}
}

type Service struct {
	shops     *backend.Collection[Shop]
	companies *backend.Collection[lookup.Option]
	locations *backend.Collection[lookup.Option]
	logger    *slog.Logger
}

func NewService(client *backend.Client, logger *slog.Logger) *Service {
	return &Service{
		shops:     backend.NewCollection[Shop](client, Path),
		companies: backend.NewCollection[lookup.Option](client, "/companies/"),
		locations: backend.NewCollection[lookup.Option](client, "/locations/"),
		logger:    logger,
	}
}

func (s *Service) Name() string { return "shops" }

func (s *Service) List(ctx context.Context) ([]Shop, error) {
	shops, err := s.shops.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list shops: %w", err)
	}
	return shops, nil
}

func (s *Service) Supports(mode dialog.Mode) bool {
	return mode == dialog.ModeCreate || mode == dialog.ModeView
}

func (s *Service) NewForm() *Form { return &Form{} }

func (s *Service) FormFrom(sh Shop) *Form {
	return &Form{Name: sh.Name, Company: sh.CompanyValue, Location: sh.LocationValue}
}

func (s *Service) OptionSources() []dialog.OptionSource {
	return []dialog.OptionSource{
		{Field: "company", Required: true, Load: s.companies.List},
		{Field: "location", Required: true, Load: s.locations.List},
	}
}

func (s *Service) Create(ctx context.Context, form *Form) (Shop, error) {
	created, err := s.shops.Create(ctx, CreateShopRequest{
		Name:     strings.TrimSpace(form.Name),
		Company:  lookup.PayloadValue(form.Company),
		Location: lookup.PayloadValue(form.Location),
	})
	if err != nil {
		return Shop{}, fmt.Errorf("failed to create shop: %w", err)
	}
	s.logger.Info("shop created", "shop_id", created.ID)
	return created, nil
}

func (s *Service) Update(context.Context, Shop, *Form) (Shop, error) {
	return Shop{}, internal.ErrUnsupported
}

func (s *Service) Delete(context.Context, Shop) error {
	return internal.ErrUnsupported
}
