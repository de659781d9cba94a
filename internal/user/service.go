package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/admin-console/internal/backend"
	"github.com/frahmantamala/admin-console/internal/core/common/lookup"
	"github.com/frahmantamala/admin-console/internal/dialog"
)

const Path = "/users/"

// Service is the users resource: list fetcher, modal resource and payload
// mapping over the backend's /users/ collection.
type Service struct {
	users        *backend.Collection[User]
	roles        *backend.Collection[lookup.Option]
	companies    *backend.Collection[lookup.Option]
	locations    *backend.Collection[lookup.Option]
	designations *backend.Collection[lookup.Option]
	shops        *backend.Collection[lookup.Option]
	logger       *slog.Logger
}

func NewService(client *backend.Client, logger *slog.Logger) *Service {
	return &Service{
		users:        backend.NewCollection[User](client, Path),
		roles:        backend.NewCollection[lookup.Option](client, "/roles/"),
		companies:    backend.NewCollection[lookup.Option](client, "/companies/"),
		locations:    backend.NewCollection[lookup.Option](client, "/locations/"),
		designations: backend.NewCollection[lookup.Option](client, "/designations/"),
		shops:        backend.NewCollection[lookup.Option](client, "/shops/"),
		logger:       logger,
	}
}

func (s *Service) Name() string { return "users" }

func (s *Service) List(ctx context.Context) ([]User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *Service) Supports(mode dialog.Mode) bool { return true }

func (s *Service) NewForm() *Form { return NewForm() }

func (s *Service) FormFrom(u User) *Form { return FormFrom(u) }

// OptionSources loads every user dropdown; only shops may fail without
// blocking the form.
func (s *Service) OptionSources() []dialog.OptionSource {
	return []dialog.OptionSource{
		{Field: "role", Required: true, Load: s.roles.List},
		{Field: "company", Required: true, Load: s.companies.List},
		{Field: "location", Required: true, Load: s.locations.List},
		{Field: "designation", Required: true, Load: s.designations.List},
		{Field: "shop", Required: false, Load: s.shops.List},
	}
}

func (s *Service) Create(ctx context.Context, form *Form) (User, error) {
	created, err := s.users.Create(ctx, form.CreateRequest())
	if err != nil {
		return User{}, fmt.Errorf("failed to create user: %w", err)
	}
	if created.Username == "" && created.Name == "" {
		created.Username = form.Username
		created.Name = form.Name
	}
	s.logger.Info("user created", "user_id", created.ID, "username", created.Username)
	return created, nil
}

func (s *Service) Update(ctx context.Context, original User, form *Form) (User, error) {
	updated, err := s.users.Update(ctx, original.ID, form.UpdateRequest(original))
	if err != nil {
		return User{}, fmt.Errorf("failed to update user %d: %w", original.ID, err)
	}
	if updated.ID == 0 {
		updated = original
	}
	s.logger.Info("user updated", "user_id", original.ID)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, u User) error {
	if err := s.users.Delete(ctx, u.ID); err != nil {
		return fmt.Errorf("failed to delete user %d: %w", u.ID, err)
	}
	s.logger.Info("user deleted", "user_id", u.ID)
	return nil
}
