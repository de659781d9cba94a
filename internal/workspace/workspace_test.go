package workspace_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/backend"
	"github.com/frahmantamala/admin-console/internal/core/common/lookup"
	"github.com/frahmantamala/admin-console/internal/core/events"
	"github.com/frahmantamala/admin-console/internal/transport"
	"github.com/frahmantamala/admin-console/internal/workspace"
)

type fakeTokens struct {
	mu          sync.Mutex
	invalidated []string
	onInvalid   func(id string)
}

func (f *fakeTokens) TokenSource(id string) backend.TokenSource {
	return backend.TokenFunc(func(context.Context) (string, error) { return "access-" + id, nil })
}

func (f *fakeTokens) Invalidate(ctx context.Context, id string) {
	f.mu.Lock()
	f.invalidated = append(f.invalidated, id)
	f.mu.Unlock()
	if f.onInvalid != nil {
		f.onInvalid(id)
	}
}

type modalSnapshot struct {
	Mode        string                     `json:"mode"`
	Phase       string                     `json:"phase"`
	Error       string                     `json:"error"`
	Form        map[string]interface{}     `json:"form"`
	Options     map[string][]lookup.Option `json:"options"`
	Unavailable []string                   `json:"unavailable"`
	FieldErrors map[string]string          `json:"field_errors"`
}

type screenSnapshot struct {
	Screen    string                   `json:"screen"`
	State     string                   `json:"state"`
	Error     string                   `json:"error"`
	Items     []map[string]interface{} `json:"items"`
	Total     int                      `json:"total"`
	Page      int                      `json:"page"`
	PageSize  int                      `json:"page_size"`
	PageCount int                      `json:"page_count"`
	Modal     modalSnapshot            `json:"modal"`
}

type errorBody struct {
	Error struct {
		Code    internal.ErrorCode `json:"code"`
		Message string             `json:"message"`
	} `json:"error"`
}

var _ = Describe("Workspace HTTP", func() {
	var (
		fb       *fakeBackend
		tokens   *fakeTokens
		bus      *events.EventBus
		registry *workspace.Registry
		router   *chi.Mux
		recorded []*events.RecordEvent
		recMu    sync.Mutex
	)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, path, nil)
		} else {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	recordedEvents := func() []*events.RecordEvent {
		recMu.Lock()
		defer recMu.Unlock()
		return append([]*events.RecordEvent(nil), recorded...)
	}

	snapshotOf := func(rec *httptest.ResponseRecorder) screenSnapshot {
		var snap screenSnapshot
		Expect(json.Unmarshal(rec.Body.Bytes(), &snap)).To(Succeed())
		return snap
	}

	errorOf := func(rec *httptest.ResponseRecorder) errorBody {
		var body errorBody
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		return body
	}

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		fb = newFakeBackend()
		tokens = &fakeTokens{}
		bus = events.NewEventBus(slogger)
		recMu.Lock()
		recorded = nil
		recMu.Unlock()
		bus.Subscribe(events.EventTypeRecordCreated, func(ctx context.Context, event events.Event) error {
			recMu.Lock()
			defer recMu.Unlock()
			recorded = append(recorded, event.(*events.RecordEvent))
			return nil
		})

		client := backend.NewClient(backend.Config{BaseURL: fb.URL()}, slogger)
		console := internal.ConsoleConfig{DefaultPageSize: 5, MaxPageSize: 50, NewUsersLimit: 4}
		registry = workspace.NewRegistry(workspace.NewFactory(client, tokens, bus, console, slogger), time.Hour, slogger)
		tokens.onInvalid = registry.Drop

		handler := workspace.NewHandler(transport.NewBaseHandler(slogger), registry)
		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(internal.ContextWithSession(r.Context(), "sess-1", "admin")))
			})
		})
		handler.Routes(router)
	})

	AfterEach(func() {
		registry.CloseAll()
		bus.Wait()
		fb.Close()
	})

	Describe("screens", func() {
		It("should mount on first access and paginate the list", func() {
			rec := do(http.MethodGet, "/screens/users", "")
			Expect(rec.Code).To(Equal(http.StatusOK))

			snap := snapshotOf(rec)
			Expect(snap.State).To(Equal("populated"))
			Expect(snap.Total).To(Equal(12))
			Expect(snap.PageSize).To(Equal(5))
			Expect(snap.PageCount).To(Equal(3))
			Expect(snap.Items).To(HaveLen(5))
			Expect(snap.Modal.Mode).To(Equal("closed"))

			do(http.MethodGet, "/screens/users", "")
			Expect(fb.listCalls()).To(Equal(1))
		})

		It("should filter by status and clamp the page", func() {
			do(http.MethodGet, "/screens/users", "")

			snap := snapshotOf(do(http.MethodPut, "/screens/users/view", `{"status":"Approved","page":9}`))
			Expect(snap.Total).To(Equal(3))
			Expect(snap.PageCount).To(Equal(1))
			Expect(snap.Page).To(Equal(1))
			for _, item := range snap.Items {
				Expect(item["status"]).To(Equal("Approved"))
			}
		})

		It("should refetch on refresh", func() {
			do(http.MethodGet, "/screens/users", "")
			Expect(do(http.MethodPost, "/screens/users/refresh", "").Code).To(Equal(http.StatusOK))
			Expect(fb.listCalls()).To(Equal(2))
		})

		It("should reject unknown screens", func() {
			rec := do(http.MethodGet, "/screens/invoices", "")
			Expect(rec.Code).To(Equal(http.StatusNotFound))
			Expect(errorOf(rec).Error.Code).To(Equal(internal.ErrCodeUnknownScreen))
		})
	})

	Describe("modal", func() {
		BeforeEach(func() {
			do(http.MethodGet, "/screens/users", "")
			do(http.MethodGet, "/dashboard", "")
		})

		It("should create a user and reconcile the list from the server", func() {
			snap := snapshotOf(do(http.MethodPost, "/screens/users/modal", `{"mode":"create"}`))
			Expect(snap.Modal.Mode).To(Equal("create"))
			Expect(snap.Modal.Phase).To(Equal("ready"))
			Expect(snap.Modal.Options["designation"]).To(Equal([]lookup.Option{{ID: 7, Name: "Engineer"}}))

			rec := do(http.MethodPatch, "/screens/users/modal", `{"fields":{"username":"newbie","name":"New Bie","email":"newbie@example.com","company":"1","location":"1","designation":"7"}}`)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(snapshotOf(rec).Modal.Form["username"]).To(Equal("newbie"))

			rec = do(http.MethodPost, "/screens/users/modal/submit", "")
			Expect(rec.Code).To(Equal(http.StatusOK))
			snap = snapshotOf(rec)
			Expect(snap.Modal.Mode).To(Equal("closed"))
			Expect(snap.Total).To(Equal(13))
			Expect(snap.Items[0]["username"]).To(Equal("newbie"))
			Expect(fb.listCalls()).To(Equal(2))

			bus.Wait()
			got := recordedEvents()
			Expect(got).To(HaveLen(1))
			Expect(got[0].Resource).To(Equal("users"))
			Expect(got[0].Label).To(Equal("New Bie"))
			Expect(got[0].Username).To(Equal("admin"))
		})

		It("should show the created user first on the dashboard", func() {
			Expect(do(http.MethodGet, "/dashboard", "").Code).To(Equal(http.StatusOK))

			do(http.MethodPost, "/screens/users/modal", `{"mode":"create"}`)
			do(http.MethodPatch, "/screens/users/modal", `{"fields":{"username":"newbie","name":"New Bie","email":"newbie@example.com","company":"1","location":"1","designation":"7"}}`)
			Expect(do(http.MethodPost, "/screens/users/modal/submit", "").Code).To(Equal(http.StatusOK))

			var board struct {
				Widgets []struct {
					Name string                   `json:"name"`
					Data []map[string]interface{} `json:"data"`
				} `json:"widgets"`
			}
			Expect(json.Unmarshal(do(http.MethodGet, "/dashboard", "").Body.Bytes(), &board)).To(Succeed())
			found := false
			for _, w := range board.Widgets {
				if w.Name == "new-users" {
					found = true
					Expect(w.Data).To(HaveLen(1))
					Expect(w.Data[0]["name"]).To(Equal("New Bie"))
					Expect(w.Data[0]["role"]).To(Equal("New User"))
				}
			}
			Expect(found).To(BeTrue())
		})

		It("should keep the modal open with field errors when validation fails", func() {
			do(http.MethodPost, "/screens/users/modal", `{"mode":"create"}`)

			rec := do(http.MethodPost, "/screens/users/modal/submit", "")
			Expect(rec.Code).To(Equal(http.StatusUnprocessableEntity))
			snap := snapshotOf(rec)
			Expect(snap.Modal.Mode).To(Equal("create"))
			Expect(snap.Modal.FieldErrors).To(HaveKey("username"))
			Expect(snap.Modal.FieldErrors).To(HaveKey("email"))
			Expect(fb.listCalls()).To(Equal(1))
		})

		It("should surface backend field errors in the modal", func() {
			do(http.MethodPost, "/screens/users/modal", `{"mode":"create"}`)
			do(http.MethodPatch, "/screens/users/modal", `{"fields":{"username":"taken","name":"Dup","email":"dup@example.com","company":"1","location":"1","designation":"7"}}`)

			rec := do(http.MethodPost, "/screens/users/modal/submit", "")
			Expect(rec.Code).To(Equal(http.StatusUnprocessableEntity))
			snap := snapshotOf(rec)
			Expect(snap.Modal.Mode).To(Equal("create"))
			Expect(snap.Modal.Phase).To(Equal("ready"))
			Expect(snap.Modal.Error).To(Equal("username: A user with that username already exists."))
			Expect(snap.Total).To(Equal(12))
		})

		It("should reject unknown fields", func() {
			do(http.MethodPost, "/screens/users/modal", `{"mode":"create"}`)
			rec := do(http.MethodPatch, "/screens/users/modal", `{"fields":{"salary":"1"}}`)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("should refuse edits on create-only screens", func() {
			do(http.MethodGet, "/screens/companies", "")
			rec := do(http.MethodPost, "/screens/companies/modal", `{"mode":"edit","id":1}`)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(errorOf(rec).Error.Code).To(Equal(internal.ErrCodeUnsupported))
		})

		It("should report records missing from the list", func() {
			rec := do(http.MethodPost, "/screens/users/modal", `{"mode":"view","id":999}`)
			Expect(rec.Code).To(Equal(http.StatusNotFound))
			Expect(errorOf(rec).Error.Code).To(Equal(internal.ErrCodeRecordNotFound))
		})

		It("should reject unknown modes", func() {
			rec := do(http.MethodPost, "/screens/users/modal", `{"mode":"archive"}`)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("should close the modal", func() {
			do(http.MethodPost, "/screens/users/modal", `{"mode":"view","id":3}`)
			snap := snapshotOf(do(http.MethodDelete, "/screens/users/modal", ""))
			Expect(snap.Modal.Mode).To(Equal("closed"))

			rec := do(http.MethodPost, "/screens/users/modal/submit", "")
			Expect(rec.Code).To(Equal(http.StatusConflict))
			Expect(errorOf(rec).Error.Code).To(Equal(internal.ErrCodeModalClosed))
		})
	})

	It("should require login again after the backend rejects the session", func() {
		fb.rejectAll()

		rec := do(http.MethodGet, "/screens/roles", "")
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		Expect(errorOf(rec).Error.Code).To(Equal(internal.ErrCodeLoginRequired))
		Expect(tokens.invalidated).To(ContainElement("sess-1"))
		Expect(registry.Len()).To(Equal(0))
	})
})

var _ = Describe("Registry", func() {
	var (
		registry *workspace.Registry
		now      time.Time
		built    int
	)

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		client := backend.NewClient(backend.Config{BaseURL: "http://127.0.0.1:1"}, slogger)
		now = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
		built = 0
		factory := func(sessionID, username string) *workspace.Workspace {
			built++
			return workspace.New(sessionID, username, workspace.Deps{Client: client, Logger: slogger})
		}
		registry = workspace.NewRegistry(factory, 30*time.Minute, slogger).WithClock(func() time.Time { return now })
	})

	It("should reuse the workspace of a session", func() {
		first := registry.Get("a", "alice")
		Expect(registry.Get("a", "alice")).To(BeIdenticalTo(first))
		Expect(built).To(Equal(1))
	})

	It("should build a fresh workspace after a drop", func() {
		first := registry.Get("a", "alice")
		registry.Drop("a")
		Expect(registry.Len()).To(Equal(0))
		Expect(registry.Get("a", "alice")).NotTo(BeIdenticalTo(first))
	})

	It("should evict only idle workspaces", func() {
		registry.Get("a", "alice")
		now = now.Add(20 * time.Minute)
		registry.Get("b", "bob")
		now = now.Add(15 * time.Minute)

		Expect(registry.Sweep()).To(Equal(1))
		Expect(registry.Len()).To(Equal(1))
	})
})
