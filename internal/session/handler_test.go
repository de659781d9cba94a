package session_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/session"
	"github.com/frahmantamala/admin-console/internal/transport"
)

type fakeSessions struct {
	sessions  map[string]*session.Session
	loginErr  error
	loggedOut []string
}

func (f *fakeSessions) Login(ctx context.Context, username, password string) (*session.Session, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	s := &session.Session{ID: "sess-new", Username: username, RefreshExpiresAt: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)}
	f.sessions[s.ID] = s
	return s, nil
}

func (f *fakeSessions) Logout(ctx context.Context, id string) error {
	f.loggedOut = append(f.loggedOut, id)
	delete(f.sessions, id)
	return nil
}

func (f *fakeSessions) CurrentSession(ctx context.Context, id string) (*session.Session, bool, error) {
	s, ok := f.sessions[id]
	return s, ok, nil
}

var _ = Describe("Handler", func() {
	var (
		fake    *fakeSessions
		handler *session.Handler
	)

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		fake = &fakeSessions{sessions: map[string]*session.Session{
			"sess-1": {ID: "sess-1", Username: "admin"},
		}}
		handler = session.NewHandler(transport.NewBaseHandler(slogger), fake)
	})

	errorCode := func(rec *httptest.ResponseRecorder) internal.ErrorCode {
		var body struct {
			Error struct {
				Code internal.ErrorCode `json:"code"`
			} `json:"error"`
		}
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		return body.Error.Code
	}

	Describe("Login", func() {
		It("should return the new session id", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"username":"admin","password":"pw"}`))
			rec := httptest.NewRecorder()
			handler.Login(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			var resp session.LoginResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.SessionID).To(Equal("sess-new"))
			Expect(resp.Username).To(Equal("admin"))
		})

		It("should reject a missing password before calling the backend", func() {
			fake.loginErr = internal.ErrInvalidCredentials
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"username":"admin"}`))
			rec := httptest.NewRecorder()
			handler.Login(rec, req)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(errorCode(rec)).To(Equal(internal.ErrCodeValidationFailed))
		})

		It("should map bad credentials to 401", func() {
			fake.loginErr = internal.ErrInvalidCredentials
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"username":"admin","password":"nope"}`))
			rec := httptest.NewRecorder()
			handler.Login(rec, req)

			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			Expect(errorCode(rec)).To(Equal(internal.ErrCodeInvalidCredentials))
		})
	})

	Describe("AuthMiddleware", func() {
		var protected http.Handler

		BeforeEach(func() {
			protected = handler.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(internal.SessionIDFromContext(r.Context()) + "/" + internal.UsernameFromContext(r.Context())))
			}))
		})

		It("should put the session on the request context", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
			req.Header.Set("Authorization", "Bearer sess-1")
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(Equal("sess-1/admin"))
		})

		It("should require login without a bearer token", func() {
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/session", nil))

			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			Expect(errorCode(rec)).To(Equal(internal.ErrCodeLoginRequired))
		})

		It("should require login for an unknown session", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
			req.Header.Set("Authorization", "Bearer gone")
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})
	})

	It("should log out the session on the context", func() {
		logout := handler.AuthMiddleware(http.HandlerFunc(handler.Logout))
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
		req.Header.Set("Authorization", "Bearer sess-1")
		rec := httptest.NewRecorder()
		logout.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusNoContent))
		Expect(fake.loggedOut).To(Equal([]string{"sess-1"}))
	})
})
