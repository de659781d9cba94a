package session

import (
	"time"

	"github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/core/common/validation"
)

type LoginDTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (d LoginDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("username", "Username", d.Username).Required()
	v.Field("password", "Password", d.Password).Required()
	return v.Validate()
}

type LoginResponse struct {
	SessionID string    `json:"session_id"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

type SessionResponse struct {
	SessionID        string    `json:"session_id"`
	Username         string    `json:"username"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
	CreatedAt        time.Time `json:"created_at"`
}

func toSessionResponse(s *Session) SessionResponse {
	return SessionResponse{
		SessionID:        s.ID,
		Username:         s.Username,
		AccessExpiresAt:  s.AccessExpiresAt,
		RefreshExpiresAt: s.RefreshExpiresAt,
		CreatedAt:        s.CreatedAt,
	}
}
