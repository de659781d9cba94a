package user_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/frahmantamala/admin-console/internal/backend"
	"github.com/frahmantamala/admin-console/internal/user"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Service", func() {
	var (
		server  *httptest.Server
		mux     *http.ServeMux
		service *user.Service
		ctx     context.Context
	)

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		mux = http.NewServeMux()
		server = httptest.NewServer(mux)
		service = user.NewService(backend.NewClient(backend.Config{BaseURL: server.URL}, slogger), slogger)
		ctx = context.Background()
	})

	AfterEach(func() {
		server.Close()
	})

	It("should list and normalize users", func() {
		mux.HandleFunc("/users/", func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			_, _ = w.Write([]byte(`[{"id":1,"username":"a","profile":{"first_name":"Ann"}}]`))
		})

		users, err := service.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(users).To(HaveLen(1))
		Expect(users[0].Name).To(Equal("Ann"))
	})

	It("should post the create payload with first_name", func() {
		mux.HandleFunc("/users/", func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.Method).To(Equal(http.MethodPost))
			var body map[string]interface{}
			Expect(json.NewDecoder(r.Body).Decode(&body)).To(Succeed())
			Expect(body).To(HaveKeyWithValue("first_name", "Ann Lee"))
			Expect(body).To(HaveKeyWithValue("company", BeNumerically("==", 2)))
			Expect(body).NotTo(HaveKey("shop"))
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":9,"username":"ann","first_name":"Ann Lee","designation":"QA Lead"}`))
		})

		form := user.NewForm()
		for field, value := range map[string]string{
			"username": "ann", "name": "Ann Lee", "email": "ann@acme.io",
			"company": "2", "location": "3", "designation": "QA Lead",
		} {
			Expect(form.Set(field, value)).To(Succeed())
		}

		created, err := service.Create(ctx, form)
		Expect(err).NotTo(HaveOccurred())
		Expect(created.ID).To(Equal(int64(9)))
		Expect(created.Designation).To(Equal("QA Lead"))
	})

	It("should keep the original record when the update response is empty", func() {
		mux.HandleFunc("/users/3/", func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.Method).To(Equal(http.MethodPut))
			w.WriteHeader(http.StatusNoContent)
		})

		original := user.User{ID: 3, Username: "jdoe", Name: "Jane"}
		updated, err := service.Update(ctx, original, user.FormFrom(original))
		Expect(err).NotTo(HaveOccurred())
		Expect(updated.ID).To(Equal(int64(3)))
	})

	It("should wrap backend failures", func() {
		mux.HandleFunc("/users/3/", func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"Not found."}`))
		})

		err := service.Delete(ctx, user.User{ID: 3})
		Expect(backend.IsNotFound(err)).To(BeTrue())
	})

	It("should mark only the shop options as optional", func() {
		required := map[string]bool{}
		for _, src := range service.OptionSources() {
			required[src.Field] = src.Required
		}
		Expect(required).To(Equal(map[string]bool{
			"role": true, "company": true, "location": true, "designation": true, "shop": false,
		}))
	})
})
