package audit

import (
	"context"
	"net/http"
	"strconv"

	"github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/transport"
)

type ServiceAPI interface {
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(base *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{BaseHandler: base, Service: service}
}

func (h *Handler) GetRecent(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.HandleServiceError(w, internal.NewValidationFieldError("limit", "limit must be a number", internal.ErrCodeInvalidNumber))
			return
		}
		limit = n
	}

	entries, err := h.Service.Recent(r.Context(), limit)
	if err != nil {
		h.Log(r).Error("GetRecent: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, EntriesResponse{Entries: entries})
}
