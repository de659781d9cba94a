package workspace

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/backend"
	"github.com/frahmantamala/admin-console/internal/dialog"
	"github.com/frahmantamala/admin-console/internal/listing"
	"github.com/frahmantamala/admin-console/internal/transport"
)

type OpenModalRequest struct {
	Mode string `json:"mode"`
	ID   int64  `json:"id,omitempty"`
}

type SetFieldsRequest struct {
	Fields map[string]string `json:"fields"`
}

type Handler struct {
	*transport.BaseHandler
	Registry *Registry
}

func NewHandler(base *transport.BaseHandler, registry *Registry) *Handler {
	return &Handler{BaseHandler: base, Registry: registry}
}

func (h *Handler) workspace(r *http.Request) *Workspace {
	ctx := r.Context()
	return h.Registry.Get(internal.SessionIDFromContext(ctx), internal.UsernameFromContext(ctx))
}

func (h *Handler) screen(w http.ResponseWriter, r *http.Request) (*Workspace, ScreenAPI, bool) {
	ws := h.workspace(r)
	screen, err := ws.Screen(r.Context(), chi.URLParam(r, "screen"))
	if err != nil {
		h.HandleServiceError(w, err)
		return nil, nil, false
	}
	return ws, screen, true
}

// sessionLost reports whether err means the backend no longer accepts the
// session's credentials.
func sessionLost(err error) bool {
	return backend.IsUnauthorized(err) || errors.Is(err, internal.ErrSessionExpired)
}

// writeSnapshot answers login required instead when the session ended while
// the request ran, which drops its workspace.
func (h *Handler) writeSnapshot(w http.ResponseWriter, status int, ws *Workspace, screen ScreenAPI) {
	if !h.Registry.Active(ws) || sessionLost(screen.Err()) {
		h.HandleServiceError(w, internal.ErrLoginRequired)
		return
	}
	h.WriteJSON(w, status, screen.Snapshot())
}

func (h *Handler) GetScreen(w http.ResponseWriter, r *http.Request) {
	ws, screen, ok := h.screen(w, r)
	if !ok {
		return
	}
	h.writeSnapshot(w, http.StatusOK, ws, screen)
}

func (h *Handler) RefreshScreen(w http.ResponseWriter, r *http.Request) {
	ws, screen, ok := h.screen(w, r)
	if !ok {
		return
	}
	if err := screen.Refresh(r.Context()); err != nil && !errors.Is(err, listing.ErrSuperseded) {
		h.Log(r).Warn("RefreshScreen: load failed", "screen", screen.Name(), "error", err)
	}
	h.writeSnapshot(w, http.StatusOK, ws, screen)
}

func (h *Handler) UpdateView(w http.ResponseWriter, r *http.Request) {
	ws, screen, ok := h.screen(w, r)
	if !ok {
		return
	}
	var update ViewUpdate
	if err := h.DecodeJSON(r, &update); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	screen.UpdateView(update)
	h.writeSnapshot(w, http.StatusOK, ws, screen)
}

func (h *Handler) OpenModal(w http.ResponseWriter, r *http.Request) {
	ws, screen, ok := h.screen(w, r)
	if !ok {
		return
	}
	var req OpenModalRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	mode, valid := dialog.ParseMode(req.Mode)
	if !valid {
		h.HandleServiceError(w, internal.NewValidationFieldError("mode", "mode must be one of create, view, edit, delete", internal.ErrCodeInvalidChoice))
		return
	}
	if err := screen.Open(r.Context(), mode, req.ID); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.writeSnapshot(w, http.StatusOK, ws, screen)
}

func (h *Handler) SetModalFields(w http.ResponseWriter, r *http.Request) {
	ws, screen, ok := h.screen(w, r)
	if !ok {
		return
	}
	var req SetFieldsRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if err := screen.SetFields(req.Fields); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.writeSnapshot(w, http.StatusOK, ws, screen)
}

// SubmitModal answers 422 with the snapshot when the modal absorbed the
// failure and stays open.
func (h *Handler) SubmitModal(w http.ResponseWriter, r *http.Request) {
	ws, screen, ok := h.screen(w, r)
	if !ok {
		return
	}
	err := screen.Submit(r.Context())
	switch {
	case err == nil:
		h.writeSnapshot(w, http.StatusOK, ws, screen)
	case sessionLost(err):
		h.HandleServiceError(w, internal.ErrLoginRequired)
	case dialog.IsSubmitError(err):
		h.WriteJSON(w, http.StatusUnprocessableEntity, screen.Snapshot())
	default:
		h.HandleServiceError(w, err)
	}
}

func (h *Handler) CloseModal(w http.ResponseWriter, r *http.Request) {
	ws, screen, ok := h.screen(w, r)
	if !ok {
		return
	}
	screen.CloseModal()
	h.writeSnapshot(w, http.StatusOK, ws, screen)
}

func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, h.workspace(r).Dashboard(r.Context()).Snapshot())
}

func (h *Handler) RefreshDashboard(w http.ResponseWriter, r *http.Request) {
	board := h.workspace(r).Dashboard(r.Context())
	if err := board.Refresh(r.Context()); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, board.Snapshot())
}

// Routes mounts the screen and dashboard endpoints. The caller applies the
// session middleware.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/screens/{screen}", func(sr chi.Router) {
		sr.Get("/", h.GetScreen)
		sr.Post("/refresh", h.RefreshScreen)
		sr.Put("/view", h.UpdateView)
		sr.Post("/modal", h.OpenModal)
		sr.Patch("/modal", h.SetModalFields)
		sr.Post("/modal/submit", h.SubmitModal)
		sr.Delete("/modal", h.CloseModal)
	})
	r.Get("/dashboard", h.GetDashboard)
	r.Post("/dashboard/refresh", h.RefreshDashboard)
}
