package session

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	sessionDatamodel "github.com/frahmantamala/admin-console/internal/core/datamodel/session"
)

// Session is one authenticated console login and the backend tokens it
// holds.
type Session struct {
	ID               string    `json:"id"`
	Username         string    `json:"username"`
	Access           string    `json:"-"`
	Refresh          string    `json:"-"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
	CreatedAt        time.Time `json:"created_at"`
	LastSeenAt       time.Time `json:"last_seen_at"`
}

func (s *Session) AccessValid(now time.Time) bool {
	return s.Access != "" && now.Before(s.AccessExpiresAt)
}

func (s *Session) RefreshValid(now time.Time) bool {
	return s.Refresh != "" && now.Before(s.RefreshExpiresAt)
}

// RepositoryAPI persists sessions. GetByID returns nil, nil for unknown ids.
type RepositoryAPI interface {
	Save(ctx context.Context, s *sessionDatamodel.ConsoleSession) error
	GetByID(ctx context.Context, id string) (*sessionDatamodel.ConsoleSession, error)
	Touch(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

func ToDataModel(s *Session, sealer *Sealer) (*sessionDatamodel.ConsoleSession, error) {
	access, err := sealer.Seal(s.Access)
	if err != nil {
		return nil, err
	}
	refresh, err := sealer.Seal(s.Refresh)
	if err != nil {
		return nil, err
	}
	return &sessionDatamodel.ConsoleSession{
		ID:               s.ID,
		Username:         s.Username,
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  s.AccessExpiresAt,
		RefreshExpiresAt: s.RefreshExpiresAt,
		CreatedAt:        s.CreatedAt,
		LastSeenAt:       s.LastSeenAt,
	}, nil
}

func FromDataModel(dm *sessionDatamodel.ConsoleSession, sealer *Sealer) (*Session, error) {
	access, err := sealer.Open(dm.AccessToken)
	if err != nil {
		return nil, err
	}
	refresh, err := sealer.Open(dm.RefreshToken)
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:               dm.ID,
		Username:         dm.Username,
		Access:           access,
		Refresh:          refresh,
		AccessExpiresAt:  dm.AccessExpiresAt,
		RefreshExpiresAt: dm.RefreshExpiresAt,
		CreatedAt:        dm.CreatedAt,
		LastSeenAt:       dm.LastSeenAt,
	}, nil
}

// tokenExpiry reads the exp claim without verifying the signature; the
// console never holds the backend's signing key. Opaque tokens or tokens
// without exp fall back to now+ttl.
func tokenExpiry(token string, now time.Time, ttl time.Duration) time.Time {
	fallback := now.Add(ttl)
	if token == "" {
		return now
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return fallback
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return fallback
	}
	return exp.Time
}
