package dialog

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/core/common/lookup"
	"github.com/frahmantamala/admin-console/internal/errfmt"
)

// SubmitError is a submission the modal absorbed: it stays open showing
// Message, with FieldErrors set for local validation failures.
type SubmitError struct {
	Message     string
	FieldErrors map[string]string
	Err         error
}

func (e *SubmitError) Error() string {
	return e.Message
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// Snapshot is a copy of the modal state safe to render.
type Snapshot struct {
	Mode        Mode                       `json:"mode"`
	Phase       Phase                      `json:"phase,omitempty"`
	Record      interface{}                `json:"record,omitempty"`
	Form        map[string]interface{}     `json:"form,omitempty"`
	Options     map[string][]lookup.Option `json:"options,omitempty"`
	Unavailable []string                   `json:"unavailable,omitempty"`
	Error       string                     `json:"error,omitempty"`
	FieldErrors map[string]string          `json:"field_errors,omitempty"`
}

// Controller holds at most one open modal. Opening any modal replaces the
// current one and cancels its outstanding work.
type Controller[T any, F Form] struct {
	resource Resource[T, F]
	onCommit func(ctx context.Context, c Commit[T])
	logger   *slog.Logger

	mu          sync.Mutex
	session     uint64
	cancel      context.CancelFunc
	mode        Mode
	phase       Phase
	record      *T
	form        F
	hasForm     bool
	options     map[string][]lookup.Option
	unavailable []string
	errMsg      string
	fieldErrors map[string]string
}

// NewController wires resource to onCommit, which runs after every
// acknowledged mutation and before the modal closes.
func NewController[T any, F Form](resource Resource[T, F], onCommit func(ctx context.Context, c Commit[T]), logger *slog.Logger) *Controller[T, F] {
	if logger == nil {
		logger = slog.Default()
	}
	if onCommit == nil {
		onCommit = func(context.Context, Commit[T]) {}
	}
	return &Controller[T, F]{
		resource: resource,
		onCommit: onCommit,
		logger:   logger.With("resource", resource.Name()),
		mode:     ModeClosed,
	}
}

// Open shows the modal for mode. rec is required for view, edit and delete.
// Create and edit load option sets before becoming ready; a required option
// failure leaves the modal blocked rather than returning an error.
func (c *Controller[T, F]) Open(ctx context.Context, mode Mode, rec *T) error {
	if mode == ModeClosed {
		c.Close()
		return nil
	}
	if !c.resource.Supports(mode) {
		return internal.ErrUnsupported
	}
	if mode != ModeCreate && rec == nil {
		return internal.ErrRecordNotFound
	}

	c.mu.Lock()
	session := c.reset()
	c.mode = mode
	if rec != nil {
		selected := *rec
		c.record = &selected
	}

	switch mode {
	case ModeCreate:
		c.form, c.hasForm = c.resource.NewForm(), true
	case ModeEdit:
		c.form, c.hasForm = c.resource.FormFrom(*c.record), true
	}

	sources := c.resource.OptionSources()
	if (mode != ModeCreate && mode != ModeEdit) || len(sources) == 0 {
		c.phase = PhaseReady
		c.options = map[string][]lookup.Option{}
		c.mu.Unlock()
		return nil
	}

	c.phase = PhaseLoadingOptions
	loadCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	res, err := loadOptions(loadCtx, sources, c.logger)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != session {
		return nil
	}
	c.cancel = nil

	if err != nil {
		c.logger.Warn("required option set failed", "mode", mode, "error", err)
		c.phase = PhaseBlocked
		c.errMsg = errfmt.Format(err)
		c.options = map[string][]lookup.Option{}
		return nil
	}

	c.phase = PhaseReady
	c.options = res.options
	c.unavailable = res.unavailable
	return nil
}

// Set binds form fields. It is rejected while closed, submitting, or in
// modes without a form.
func (c *Controller[T, F]) Set(fields map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.editableLocked(); err != nil {
		return err
	}
	for name, value := range fields {
		if err := c.form.Set(name, value); err != nil {
			return err
		}
		delete(c.fieldErrors, name)
	}
	return nil
}

func (c *Controller[T, F]) editableLocked() error {
	switch {
	case c.mode == ModeClosed:
		return internal.ErrModalClosed
	case c.phase == PhaseSubmitting:
		return internal.ErrModalBusy
	case !c.hasForm:
		return internal.ErrUnsupported
	}
	return nil
}

// Submit runs the pending create, update or delete. Validation failures are
// reported without a network call. A rejected request keeps the modal open
// with the formatted error; nothing is retried automatically.
func (c *Controller[T, F]) Submit(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.mode == ModeClosed:
		c.mu.Unlock()
		return internal.ErrModalClosed
	case c.phase == PhaseSubmitting:
		c.mu.Unlock()
		return internal.ErrModalBusy
	case c.phase != PhaseReady:
		c.mu.Unlock()
		return internal.ErrModalNotReady
	case c.mode == ModeView:
		c.mu.Unlock()
		return internal.ErrUnsupported
	}

	mode := c.mode
	if mode == ModeCreate || mode == ModeEdit {
		if appErr := c.form.Validate(mode == ModeCreate); appErr != nil {
			c.fieldErrors = appErr.FieldErrors()
			c.errMsg = appErr.GetDetailedMessage()
			c.mu.Unlock()
			return &SubmitError{Message: c.errMsg, FieldErrors: appErr.FieldErrors(), Err: appErr}
		}
	}

	session := c.session
	c.phase = PhaseSubmitting
	c.errMsg = ""
	c.fieldErrors = nil
	form := c.form
	var rec T
	if c.record != nil {
		rec = *c.record
	}
	submitCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	var (
		result T
		err    error
	)
	switch mode {
	case ModeCreate:
		result, err = c.resource.Create(submitCtx, form)
	case ModeEdit:
		result, err = c.resource.Update(submitCtx, rec, form)
	case ModeDelete:
		err = c.resource.Delete(submitCtx, rec)
		result = rec
	}
	cancel()

	c.mu.Lock()
	if c.session != session {
		c.mu.Unlock()
		c.logger.Debug("dropping result for closed modal", "mode", mode)
		return internal.ErrModalClosed
	}
	c.cancel = nil

	if err != nil {
		c.phase = PhaseReady
		c.errMsg = errfmt.Format(err)
		msg := c.errMsg
		c.mu.Unlock()
		c.logger.Warn("submission rejected", "mode", mode, "error", err)
		return &SubmitError{Message: msg, Err: err}
	}
	c.mu.Unlock()

	c.onCommit(ctx, Commit[T]{Mode: mode, Record: result})

	c.mu.Lock()
	if c.session == session {
		c.reset()
	}
	c.mu.Unlock()
	return nil
}

// Close discards the modal. Work still in flight is cancelled and its
// result ignored.
func (c *Controller[T, F]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

// reset starts a new modal session in the closed state and returns its
// number. Callers hold mu.
func (c *Controller[T, F]) reset() uint64 {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	var zero F
	c.session++
	c.mode = ModeClosed
	c.phase = PhaseNone
	c.record = nil
	c.form, c.hasForm = zero, false
	c.options = nil
	c.unavailable = nil
	c.errMsg = ""
	c.fieldErrors = nil
	return c.session
}

func (c *Controller[T, F]) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func (c *Controller[T, F]) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{Mode: c.mode, Phase: c.phase, Error: c.errMsg}
	if c.mode == ModeClosed {
		return snap
	}
	if c.record != nil {
		snap.Record = *c.record
	}
	if c.hasForm {
		snap.Form = c.form.Values()
	}
	if len(c.options) > 0 {
		snap.Options = make(map[string][]lookup.Option, len(c.options))
		for k, v := range c.options {
			snap.Options[k] = append([]lookup.Option(nil), v...)
		}
	}
	snap.Unavailable = append([]string(nil), c.unavailable...)
	if len(c.fieldErrors) > 0 {
		snap.FieldErrors = make(map[string]string, len(c.fieldErrors))
		for k, v := range c.fieldErrors {
			snap.FieldErrors[k] = v
		}
	}
	return snap
}

// IsSubmitError reports whether err was absorbed into the modal state.
func IsSubmitError(err error) bool {
	var submitErr *SubmitError
	return errors.As(err, &submitErr)
}
