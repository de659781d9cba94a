package session

import (
	"context"
	"net/http"

	"github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/transport"
	"github.com/frahmantamala/admin-console/pkg/logger"
)

type ServiceAPI interface {
	Login(ctx context.Context, username, password string) (*Session, error)
	Logout(ctx context.Context, id string) error
	CurrentSession(ctx context.Context, id string) (*Session, bool, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(base *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{BaseHandler: base, Service: svc}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if appErr := dto.Validate(); appErr != nil {
		h.HandleServiceError(w, appErr)
		return
	}

	s, err := h.Service.Login(r.Context(), dto.Username, dto.Password)
	if err != nil {
		h.Log(r).Warn("login failed", "username", dto.Username, "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, LoginResponse{
		SessionID: s.ID,
		Username:  s.Username,
		ExpiresAt: s.RefreshExpiresAt,
	})
}

// Logout must run behind AuthMiddleware.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Logout(r.Context(), internal.SessionIDFromContext(r.Context())); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok, err := h.Service.CurrentSession(r.Context(), internal.SessionIDFromContext(r.Context()))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if !ok {
		h.HandleServiceError(w, internal.ErrLoginRequired)
		return
	}
	h.WriteJSON(w, http.StatusOK, toSessionResponse(s))
}

// AuthMiddleware resolves the bearer session id. Requests without a live
// session get 401 login required.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := h.ExtractTokenFromHeader(r)
		if id == "" {
			h.HandleServiceError(w, internal.ErrLoginRequired)
			return
		}

		s, ok, err := h.Service.CurrentSession(r.Context(), id)
		if err != nil {
			h.Log(r).Error("auth middleware: session lookup failed", "error", err)
			h.HandleServiceError(w, err)
			return
		}
		if !ok {
			h.HandleServiceError(w, internal.ErrLoginRequired)
			return
		}

		ctx := internal.ContextWithSession(r.Context(), s.ID, s.Username)
		ctx = logger.With(ctx, "session", internal.SessionPrefix(s.ID), "username", s.Username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
