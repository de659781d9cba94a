// Package dashboard holds the fetch-once metric widgets shown on the console
// home screen.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/frahmantamala/admin-console/internal/backend"
	"github.com/frahmantamala/admin-console/internal/errfmt"
	"github.com/frahmantamala/admin-console/internal/listing"
	"github.com/frahmantamala/admin-console/internal/user"
)

const defaultEmoji = "👤"

type WidgetSnapshot struct {
	Name  string         `json:"name"`
	State listing.Status `json:"state"`
	Error string         `json:"error,omitempty"`
	Data  interface{}    `json:"data,omitempty"`
}

type Snapshot struct {
	Widgets []WidgetSnapshot `json:"widgets"`
}

type widget interface {
	name() string
	load(ctx context.Context) error
	snapshot(now time.Time) WidgetSnapshot
	close()
}

// storeWidget is a widget whose endpoint returns a list.
type storeWidget[T any] struct {
	widgetName string
	store      *listing.Store[T]
	render     func(rows []T, now time.Time) interface{}
}

func (w *storeWidget[T]) name() string { return w.widgetName }

func (w *storeWidget[T]) load(ctx context.Context) error { return w.store.Load(ctx) }

func (w *storeWidget[T]) close() { w.store.Close() }

func (w *storeWidget[T]) snapshot(now time.Time) WidgetSnapshot {
	snap := WidgetSnapshot{Name: w.widgetName, State: w.store.Status()}
	switch snap.State {
	case listing.StatusError:
		snap.Error = errfmt.Format(w.store.Err())
	case listing.StatusPopulated, listing.StatusEmpty:
		rows := w.store.Records()
		if w.render != nil {
			snap.Data = w.render(rows, now)
		} else {
			snap.Data = rows
		}
	}
	return snap
}

func listFetcher[T any](client *backend.Client, widgetName string) listing.Fetcher[T] {
	path := fmt.Sprintf("/dashboard/%s/", widgetName)
	return func(ctx context.Context) ([]T, error) {
		var rows []T
		if err := client.Get(ctx, path, &rows); err != nil {
			return nil, err
		}
		return rows, nil
	}
}

// objectFetcher adapts an endpoint returning a single object to a store of
// at most one record.
func objectFetcher[T any](client *backend.Client, widgetName string) listing.Fetcher[T] {
	path := fmt.Sprintf("/dashboard/%s/", widgetName)
	return func(ctx context.Context) ([]T, error) {
		var obj *T
		if err := client.Get(ctx, path, &obj); err != nil {
			return nil, err
		}
		if obj == nil {
			return []T{}, nil
		}
		return []T{*obj}, nil
	}
}

func first[T any](rows []T, _ time.Time) interface{} {
	if len(rows) == 0 {
		return nil
	}
	return rows[0]
}

type Dashboard struct {
	widgets       []widget
	newUsers      *listing.Store[NewUser]
	newUsersLimit int
	now           func() time.Time
	logger        *slog.Logger
}

func New(client *backend.Client, newUsersLimit int, logger *slog.Logger) *Dashboard {
	if newUsersLimit <= 0 {
		newUsersLimit = 4
	}
	logger = logger.With("screen", "dashboard")
	d := &Dashboard{newUsersLimit: newUsersLimit, now: time.Now, logger: logger}

	d.newUsers = listing.NewStore(WidgetNewUsers, listFetcher[NewUser](client, WidgetNewUsers), logger)

	d.widgets = []widget{
		&storeWidget[TotalUsers]{widgetName: WidgetTotalUsers, store: listing.NewStore(WidgetTotalUsers, objectFetcher[TotalUsers](client, WidgetTotalUsers), logger), render: first[TotalUsers]},
		&storeWidget[ActiveAuthor]{widgetName: WidgetActiveAuthors, store: listing.NewStore(WidgetActiveAuthors, listFetcher[ActiveAuthor](client, WidgetActiveAuthors), logger)},
		&storeWidget[NewDesignation]{widgetName: WidgetNewDesignations, store: listing.NewStore(WidgetNewDesignations, listFetcher[NewDesignation](client, WidgetNewDesignations), logger)},
		&storeWidget[NewUser]{widgetName: WidgetNewUsers, store: d.newUsers, render: newUserRows},
		&storeWidget[ProjectProgress]{widgetName: WidgetProjectProgress, store: listing.NewStore(WidgetProjectProgress, objectFetcher[ProjectProgress](client, WidgetProjectProgress), logger), render: first[ProjectProgress]},
		&storeWidget[CitySales]{widgetName: WidgetSalesDistribution, store: listing.NewStore(WidgetSalesDistribution, listFetcher[CitySales](client, WidgetSalesDistribution), logger)},
		&storeWidget[TrafficSource]{widgetName: WidgetTrafficSources, store: listing.NewStore(WidgetTrafficSources, listFetcher[TrafficSource](client, WidgetTrafficSources), logger)},
		&storeWidget[MonthlyActivity]{widgetName: WidgetUserActivity, store: listing.NewStore(WidgetUserActivity, listFetcher[MonthlyActivity](client, WidgetUserActivity), logger)},
	}
	return d
}

// WithClock replaces the time source used for relative labels.
func (d *Dashboard) WithClock(now func() time.Time) *Dashboard {
	d.now = now
	return d
}

// Load fetches every widget concurrently. A failing widget records its own
// error and never affects the others, so Load itself only fails when ctx
// is done.
func (d *Dashboard) Load(ctx context.Context) error {
	var g errgroup.Group
	for _, w := range d.widgets {
		g.Go(func() error {
			if err := w.load(ctx); err != nil && !errors.Is(err, listing.ErrSuperseded) {
				d.logger.Warn("widget failed to load", "widget", w.name(), "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return ctx.Err()
}

func (d *Dashboard) Refresh(ctx context.Context) error {
	return d.Load(ctx)
}

func (d *Dashboard) Snapshot() Snapshot {
	now := d.now()
	snap := Snapshot{Widgets: make([]WidgetSnapshot, 0, len(d.widgets))}
	for _, w := range d.widgets {
		snap.Widgets = append(snap.Widgets, w.snapshot(now))
	}
	return snap
}

// NoteUserCreated is the optimistic fast path: the created user is shown at
// the top of the new-users widget until the next full load. Before that
// widget has loaded successfully there is nothing to prepend to, and the
// user appears with the first load instead.
func (d *Dashboard) NoteUserCreated(u user.User) {
	role := u.Designation
	if role == "" {
		role = "New User"
	}
	added := u.CreatedAt
	if added == "" {
		added = d.now().UTC().Format(time.RFC3339)
	}
	if !d.newUsers.Prepend(NewUser{
		Name:      u.DisplayName(),
		Role:      role,
		Emoji:     defaultEmoji,
		TimeAdded: added,
	}, d.newUsersLimit) {
		d.logger.Debug("new-users widget not loaded, skipping fast path", "username", u.Username)
	}
}

func (d *Dashboard) Close() {
	for _, w := range d.widgets {
		w.close()
	}
}

func newUserRows(rows []NewUser, now time.Time) interface{} {
	out := make([]NewUserRow, len(rows))
	for i, row := range rows {
		if row.Emoji == "" {
			row.Emoji = defaultEmoji
		}
		out[i] = NewUserRow{NewUser: row, TimeLabel: RelativeLabel(row.TimeAdded, now)}
	}
	return out
}

// RelativeLabel renders how long ago timeAdded was: "Just now" under a
// minute (or when unparsable), then minutes, hours and days.
func RelativeLabel(timeAdded string, now time.Time) string {
	if timeAdded == "" {
		return "Just now"
	}
	added, err := time.Parse(time.RFC3339Nano, timeAdded)
	if err != nil {
		return "Just now"
	}

	mins := int(now.Sub(added) / time.Minute)
	hrs := mins / 60
	days := hrs / 24
	switch {
	case mins < 1:
		return "Just now"
	case mins < 60:
		return fmt.Sprintf("%d min%s", mins, plural(mins))
	case hrs < 24:
		return fmt.Sprintf("%d hr%s", hrs, plural(hrs))
	default:
		return fmt.Sprintf("%d day%s ago", days, plural(days))
	}
}

func plural(n int) string {
	if n > 1 {
		return "s"
	}
	return ""
}
