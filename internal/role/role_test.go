package role_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/frahmantamala/admin-console/internal/backend"
	"github.com/frahmantamala/admin-console/internal/dialog"
	"github.com/frahmantamala/admin-console/internal/role"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Role Service", func() {
	var (
		server  *httptest.Server
		mux     *http.ServeMux
		service *role.Service
	)

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		mux = http.NewServeMux()
		server = httptest.NewServer(mux)
		service = role.NewService(backend.NewClient(backend.Config{BaseURL: server.URL}, slogger), slogger)
	})

	AfterEach(func() {
		server.Close()
	})

	It("should support every modal", func() {
		for _, mode := range []dialog.Mode{dialog.ModeCreate, dialog.ModeView, dialog.ModeEdit, dialog.ModeDelete} {
			Expect(service.Supports(mode)).To(BeTrue())
		}
		Expect(service.OptionSources()).To(BeEmpty())
	})

	It("should require a name", func() {
		form := service.NewForm()
		Expect(form.Set("description", "Edits content")).To(Succeed())
		Expect(form.Validate(true).FieldErrors()).To(HaveKeyWithValue("name", "Name is required"))
	})

	It("should prefill the edit form with an empty description when absent", func() {
		form := service.FormFrom(role.Role{ID: 1, Name: "Admin"})
		Expect(form.Values()).To(Equal(map[string]interface{}{"name": "Admin", "description": ""}))
	})

	It("should put the edited role to its item path", func() {
		mux.HandleFunc("/roles/4/", func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.Method).To(Equal(http.MethodPut))
			var body role.RoleRequest
			Expect(json.NewDecoder(r.Body).Decode(&body)).To(Succeed())
			Expect(body).To(Equal(role.RoleRequest{Name: "Ops", Description: "Runs things"}))
			_, _ = w.Write([]byte(`{"id":4,"name":"Ops","description":"Runs things"}`))
		})

		form := service.FormFrom(role.Role{ID: 4, Name: "Operations"})
		Expect(form.Set("name", " Ops ")).To(Succeed())
		Expect(form.Set("description", "Runs things")).To(Succeed())

		updated, err := service.Update(context.Background(), role.Role{ID: 4}, form)
		Expect(err).NotTo(HaveOccurred())
		Expect(updated.Name).To(Equal("Ops"))
	})
})
