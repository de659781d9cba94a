package dialog_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/backend"
	"github.com/frahmantamala/admin-console/internal/core/common/lookup"
	"github.com/frahmantamala/admin-console/internal/core/common/validation"
	"github.com/frahmantamala/admin-console/internal/dialog"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type account struct {
	ID      int64
	Name    string
	Company string
	Shop    string
}

type accountForm struct {
	Name    string
	Company string
	Shop    string
}

func (f *accountForm) Set(field, value string) error {
	switch field {
	case "name":
		f.Name = value
	case "company":
		f.Company = value
	case "shop":
		f.Shop = value
	default:
		return internal.NewValidationFieldError(field, "unknown field", internal.ErrCodeUnknownField)
	}
	return nil
}

func (f *accountForm) Validate(creating bool) *internal.AppError {
	v := validation.NewValidator()
	v.Field("name", "Name", f.Name).Required()
	if creating {
		v.Field("company", "Company", f.Company).Required()
	}
	return v.Validate()
}

func (f *accountForm) Values() map[string]interface{} {
	return map[string]interface{}{"name": f.Name, "company": f.Company, "shop": f.Shop}
}

// fakeAccounts counts every backend call so tests can assert that no
// request was made.
type fakeAccounts struct {
	mu          sync.Mutex
	calls       int32
	createErr   error
	deleteErrs  []error
	shopErr     error
	companyErr  error
	createGate  chan struct{}
	unsupported map[dialog.Mode]bool
}

func (f *fakeAccounts) Name() string { return "accounts" }

func (f *fakeAccounts) Supports(mode dialog.Mode) bool { return !f.unsupported[mode] }

func (f *fakeAccounts) NewForm() *accountForm { return &accountForm{} }

func (f *fakeAccounts) FormFrom(rec account) *accountForm {
	return &accountForm{Name: rec.Name, Company: rec.Company, Shop: rec.Shop}
}

func (f *fakeAccounts) OptionSources() []dialog.OptionSource {
	return []dialog.OptionSource{
		{Field: "company", Required: true, Load: func(context.Context) ([]lookup.Option, error) {
			atomic.AddInt32(&f.calls, 1)
			if f.companyErr != nil {
				return nil, f.companyErr
			}
			return []lookup.Option{{ID: 1, Name: "Acme"}}, nil
		}},
		{Field: "shop", Load: func(context.Context) ([]lookup.Option, error) {
			atomic.AddInt32(&f.calls, 1)
			if f.shopErr != nil {
				return nil, f.shopErr
			}
			return []lookup.Option{{ID: 5, Name: "Downtown"}}, nil
		}},
	}
}

func (f *fakeAccounts) Create(ctx context.Context, form *accountForm) (account, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.createGate != nil {
		select {
		case <-f.createGate:
		case <-ctx.Done():
			return account{}, ctx.Err()
		}
	}
	if f.createErr != nil {
		return account{}, f.createErr
	}
	return account{ID: 42, Name: form.Name, Company: form.Company}, nil
}

func (f *fakeAccounts) Update(ctx context.Context, rec account, form *accountForm) (account, error) {
	atomic.AddInt32(&f.calls, 1)
	rec.Name = form.Name
	return rec, nil
}

func (f *fakeAccounts) Delete(ctx context.Context, rec account) error {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.deleteErrs) > 0 {
		err := f.deleteErrs[0]
		f.deleteErrs = f.deleteErrs[1:]
		return err
	}
	return nil
}

func (f *fakeAccounts) callCount() int32 { return atomic.LoadInt32(&f.calls) }

var _ = Describe("Controller", func() {
	var (
		ctx        context.Context
		resource   *fakeAccounts
		commits    []dialog.Commit[account]
		controller *dialog.Controller[account, *accountForm]
		existing   account
	)

	BeforeEach(func() {
		ctx = context.Background()
		resource = &fakeAccounts{}
		commits = nil
		existing = account{ID: 7, Name: "Jane", Company: "1"}
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		controller = dialog.NewController[account, *accountForm](resource, func(_ context.Context, c dialog.Commit[account]) {
			commits = append(commits, c)
		}, slogger)
	})

	It("should start closed", func() {
		Expect(controller.Snapshot()).To(Equal(dialog.Snapshot{Mode: dialog.ModeClosed}))
	})

	It("should block submission of an empty name without touching the backend", func() {
		Expect(controller.Open(ctx, dialog.ModeCreate, nil)).To(Succeed())
		before := resource.callCount()

		err := controller.Submit(ctx)

		Expect(dialog.IsSubmitError(err)).To(BeTrue())
		Expect(resource.callCount()).To(Equal(before))
		snap := controller.Snapshot()
		Expect(snap.Mode).To(Equal(dialog.ModeCreate))
		Expect(snap.Phase).To(Equal(dialog.PhaseReady))
		Expect(snap.FieldErrors).To(HaveKeyWithValue("name", "Name is required"))
		Expect(snap.FieldErrors).To(HaveKeyWithValue("company", "Company is required"))
		Expect(commits).To(BeEmpty())
	})

	It("should stay submittable when the optional shop options fail", func() {
		resource.shopErr = errors.New("shops down")
		Expect(controller.Open(ctx, dialog.ModeCreate, nil)).To(Succeed())

		snap := controller.Snapshot()
		Expect(snap.Phase).To(Equal(dialog.PhaseReady))
		Expect(snap.Unavailable).To(Equal([]string{"shop"}))
		Expect(snap.Options["shop"]).To(BeEmpty())
		Expect(snap.Options["company"]).To(HaveLen(1))

		Expect(controller.Set(map[string]string{"name": "Ann", "company": "1"})).To(Succeed())
		Expect(controller.Submit(ctx)).To(Succeed())
		Expect(commits).To(HaveLen(1))
	})

	It("should block when a required option set fails", func() {
		resource.companyErr = &backend.APIError{StatusCode: 500, Body: []byte(`{"detail":"db offline"}`)}
		Expect(controller.Open(ctx, dialog.ModeCreate, nil)).To(Succeed())

		snap := controller.Snapshot()
		Expect(snap.Phase).To(Equal(dialog.PhaseBlocked))
		Expect(snap.Error).To(Equal("db offline"))
		Expect(controller.Submit(ctx)).To(MatchError(internal.ErrModalNotReady))
	})

	It("should commit, clear and close after a successful create", func() {
		Expect(controller.Open(ctx, dialog.ModeCreate, nil)).To(Succeed())
		Expect(controller.Set(map[string]string{"name": "Ann", "company": "1"})).To(Succeed())

		Expect(controller.Submit(ctx)).To(Succeed())

		Expect(commits).To(Equal([]dialog.Commit[account]{{Mode: dialog.ModeCreate, Record: account{ID: 42, Name: "Ann", Company: "1"}}}))
		Expect(controller.Mode()).To(Equal(dialog.ModeClosed))

		Expect(controller.Open(ctx, dialog.ModeCreate, nil)).To(Succeed())
		Expect(controller.Snapshot().Form).To(HaveKeyWithValue("name", ""))
	})

	It("should keep the form and show the formatted error when the backend rejects it", func() {
		resource.createErr = &backend.APIError{StatusCode: 400, Body: []byte(`{"email": ["This field is required."], "non_field_errors": ["Duplicate"]}`)}
		Expect(controller.Open(ctx, dialog.ModeCreate, nil)).To(Succeed())
		Expect(controller.Set(map[string]string{"name": "Ann", "company": "1"})).To(Succeed())

		err := controller.Submit(ctx)

		Expect(dialog.IsSubmitError(err)).To(BeTrue())
		snap := controller.Snapshot()
		Expect(snap.Mode).To(Equal(dialog.ModeCreate))
		Expect(snap.Phase).To(Equal(dialog.PhaseReady))
		Expect(snap.Error).To(Equal("email: This field is required.; General: Duplicate"))
		Expect(snap.Form).To(HaveKeyWithValue("name", "Ann"))
		Expect(commits).To(BeEmpty())
	})

	It("should prefill the edit form from the record", func() {
		Expect(controller.Open(ctx, dialog.ModeEdit, &existing)).To(Succeed())
		snap := controller.Snapshot()
		Expect(snap.Form).To(Equal(map[string]interface{}{"name": "Jane", "company": "1", "shop": ""}))
		Expect(snap.Record).To(Equal(existing))
	})

	It("should allow retrying a failed delete without reopening", func() {
		resource.deleteErrs = []error{&backend.TransportError{Err: errors.New("reset")}}
		Expect(controller.Open(ctx, dialog.ModeDelete, &existing)).To(Succeed())

		Expect(dialog.IsSubmitError(controller.Submit(ctx))).To(BeTrue())
		Expect(controller.Snapshot().Error).To(Equal("Network error. Please check your connection."))
		Expect(controller.Mode()).To(Equal(dialog.ModeDelete))

		Expect(controller.Submit(ctx)).To(Succeed())
		Expect(commits).To(Equal([]dialog.Commit[account]{{Mode: dialog.ModeDelete, Record: existing}}))
		Expect(controller.Mode()).To(Equal(dialog.ModeClosed))
	})

	It("should replace an open modal instead of stacking a second one", func() {
		Expect(controller.Open(ctx, dialog.ModeView, &existing)).To(Succeed())
		Expect(controller.Open(ctx, dialog.ModeDelete, &existing)).To(Succeed())
		Expect(controller.Mode()).To(Equal(dialog.ModeDelete))
		Expect(controller.Set(map[string]string{"name": "x"})).To(MatchError(internal.ErrUnsupported))
	})

	It("should ignore a result that arrives after the modal closed", func() {
		resource.createGate = make(chan struct{})
		Expect(controller.Open(ctx, dialog.ModeCreate, nil)).To(Succeed())
		Expect(controller.Set(map[string]string{"name": "Ann", "company": "1"})).To(Succeed())

		done := make(chan error, 1)
		go func() { done <- controller.Submit(ctx) }()
		Eventually(func() dialog.Phase { return controller.Snapshot().Phase }).Should(Equal(dialog.PhaseSubmitting))
		Expect(controller.Set(map[string]string{"name": "x"})).To(MatchError(internal.ErrModalBusy))

		controller.Close()
		Eventually(done).Should(Receive(MatchError(internal.ErrModalClosed)))
		Expect(commits).To(BeEmpty())
		Expect(controller.Snapshot()).To(Equal(dialog.Snapshot{Mode: dialog.ModeClosed}))
	})

	It("should refuse modes the resource does not support", func() {
		resource.unsupported = map[dialog.Mode]bool{dialog.ModeEdit: true}
		Expect(controller.Open(ctx, dialog.ModeEdit, &existing)).To(MatchError(internal.ErrUnsupported))
		Expect(controller.Mode()).To(Equal(dialog.ModeClosed))
	})

	It("should reject submissions when nothing is open", func() {
		Expect(controller.Submit(ctx)).To(MatchError(internal.ErrModalClosed))
	})
})
