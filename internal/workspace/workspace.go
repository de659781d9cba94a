package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/backend"
	"github.com/frahmantamala/admin-console/internal/company"
	"github.com/frahmantamala/admin-console/internal/core/events"
	"github.com/frahmantamala/admin-console/internal/dashboard"
	"github.com/frahmantamala/admin-console/internal/dialog"
	"github.com/frahmantamala/admin-console/internal/location"
	"github.com/frahmantamala/admin-console/internal/role"
	"github.com/frahmantamala/admin-console/internal/shop"
	"github.com/frahmantamala/admin-console/internal/user"
)

// ScreenNames lists the entity screens in navigation order.
var ScreenNames = []string{"users", "roles", "companies", "locations", "shops"}

// Workspace is everything mounted for one console session.
type Workspace struct {
	SessionID string
	Username  string

	screens   map[string]ScreenAPI
	dashboard *dashboard.Dashboard
	bus       *events.EventBus
	logger    *slog.Logger

	dashboardOnce sync.Once
	lastSeen      atomic.Int64
}

type Deps struct {
	Client  *backend.Client
	Bus     *events.EventBus
	Console internal.ConsoleConfig
	Logger  *slog.Logger
}

// New builds the screens of a session. client must already carry the
// session's credentials. Nothing is fetched until a screen is first used.
func New(sessionID, username string, deps Deps) *Workspace {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("session", internal.SessionPrefix(sessionID))

	ws := &Workspace{
		SessionID: sessionID,
		Username:  username,
		bus:       deps.Bus,
		logger:    logger,
		dashboard: dashboard.New(deps.Client, deps.Console.NewUsersLimit, logger),
	}
	ws.touch(time.Now())

	users := NewScreen[user.User, *user.Form](user.NewService(deps.Client, logger), deps.Console,
		func(ctx context.Context, mode dialog.Mode, u user.User) {
			if mode == dialog.ModeCreate {
				ws.dashboard.NoteUserCreated(u)
			}
			ws.publish(ctx, "users", mode, u.ID, u.DisplayName())
		}, logger)
	roles := NewScreen[role.Role, *role.Form](role.NewService(deps.Client, logger), deps.Console,
		func(ctx context.Context, mode dialog.Mode, r role.Role) {
			ws.publish(ctx, "roles", mode, r.ID, r.Name)
		}, logger)
	companies := NewScreen[company.Company, *company.Form](company.NewService(deps.Client, logger), deps.Console,
		func(ctx context.Context, mode dialog.Mode, c company.Company) {
			ws.publish(ctx, "companies", mode, c.ID, c.Name)
		}, logger)
	locations := NewScreen[location.Location, *location.Form](location.NewService(deps.Client, logger), deps.Console,
		func(ctx context.Context, mode dialog.Mode, l location.Location) {
			ws.publish(ctx, "locations", mode, l.ID, l.Name)
		}, logger)
	shops := NewScreen[shop.Shop, *shop.Form](shop.NewService(deps.Client, logger), deps.Console,
		func(ctx context.Context, mode dialog.Mode, s shop.Shop) {
			ws.publish(ctx, "shops", mode, s.ID, s.Name)
		}, logger)

	ws.screens = map[string]ScreenAPI{
		users.Name():     users,
		roles.Name():     roles,
		companies.Name(): companies,
		locations.Name(): locations,
		shops.Name():     shops,
	}
	return ws
}

func (ws *Workspace) publish(ctx context.Context, resource string, mode dialog.Mode, id int64, label string) {
	if ws.bus == nil {
		return
	}
	var eventType string
	switch mode {
	case dialog.ModeCreate:
		eventType = events.EventTypeRecordCreated
	case dialog.ModeEdit:
		eventType = events.EventTypeRecordUpdated
	case dialog.ModeDelete:
		eventType = events.EventTypeRecordDeleted
	default:
		return
	}
	event := events.NewRecordEvent(eventType, resource, id, label, ws.Username, ws.SessionID)
	if err := ws.bus.Publish(ctx, event); err != nil {
		ws.logger.Warn("failed to publish record event", "event_type", eventType, "error", err)
	}
}

// Screen returns the named screen, mounting it on first access.
func (ws *Workspace) Screen(ctx context.Context, name string) (ScreenAPI, error) {
	screen, ok := ws.screens[name]
	if !ok {
		return nil, internal.NewNotFoundError(fmt.Sprintf("Unknown screen %q", name), internal.ErrCodeUnknownScreen)
	}
	ws.touch(time.Now())
	screen.Mount(ctx)
	return screen, nil
}

// Dashboard returns the dashboard, loading its widgets on first access.
func (ws *Workspace) Dashboard(ctx context.Context) *dashboard.Dashboard {
	ws.touch(time.Now())
	ws.dashboardOnce.Do(func() {
		if err := ws.dashboard.Load(ctx); err != nil {
			ws.logger.Warn("dashboard load interrupted", "error", err)
		}
	})
	return ws.dashboard
}

// Close unmounts every screen and the dashboard.
func (ws *Workspace) Close() {
	for _, screen := range ws.screens {
		screen.Unmount()
	}
	ws.dashboard.Close()
}

func (ws *Workspace) touch(now time.Time) {
	ws.lastSeen.Store(now.UnixNano())
}

func (ws *Workspace) LastSeen() time.Time {
	return time.Unix(0, ws.lastSeen.Load())
}
