package company_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"

	"github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/backend"
	"github.com/frahmantamala/admin-console/internal/company"
	"github.com/frahmantamala/admin-console/internal/dialog"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Company", func() {
	It("should prefer location_name for display and keep the id for the form", func() {
		var c company.Company
		Expect(json.Unmarshal([]byte(`{"id":1,"name":"Acme","location":3,"location_name":"Paris","shops_count":2}`), &c)).To(Succeed())
		Expect(c).To(Equal(company.Company{ID: 1, Name: "Acme", Location: "Paris", LocationValue: "3", ShopsCount: 2}))
	})

	It("should default a missing shops_count to zero", func() {
		var c company.Company
		Expect(json.Unmarshal([]byte(`{"id":1,"name":"Acme","location":"Tokyo"}`), &c)).To(Succeed())
		Expect(c.ShopsCount).To(BeZero())
		Expect(c.Location).To(Equal("Tokyo"))
	})

	It("should be create-only", func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service := company.NewService(backend.NewClient(backend.Config{BaseURL: "http://backend.invalid"}, slogger), slogger)

		Expect(service.Supports(dialog.ModeCreate)).To(BeTrue())
		Expect(service.Supports(dialog.ModeEdit)).To(BeFalse())
		Expect(service.Supports(dialog.ModeDelete)).To(BeFalse())
		Expect(service.Delete(context.Background(), company.Company{})).To(MatchError(internal.ErrUnsupported))
		Expect(service.OptionSources()).To(HaveLen(1))
	})

	It("should require a location", func() {
		form := &company.Form{Name: "Acme"}
		Expect(form.Validate(true).FieldErrors()).To(HaveKey("location"))
	})
})
