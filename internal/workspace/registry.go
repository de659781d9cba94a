package workspace

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/backend"
	"github.com/frahmantamala/admin-console/internal/core/events"
)

// Factory builds the workspace for a session that has none yet.
type Factory func(sessionID, username string) *Workspace

// SessionTokens is the part of the session manager a workspace client needs.
type SessionTokens interface {
	TokenSource(id string) backend.TokenSource
	Invalidate(ctx context.Context, id string)
}

// NewFactory returns a Factory whose workspaces call the backend with the
// session's own tokens. A backend 401 invalidates the session.
func NewFactory(client *backend.Client, sessions SessionTokens, bus *events.EventBus, console internal.ConsoleConfig, logger *slog.Logger) Factory {
	return func(sessionID, username string) *Workspace {
		scoped := client.With(
			backend.WithTokenSource(sessions.TokenSource(sessionID)),
			backend.WithUnauthorizedHook(func(ctx context.Context) {
				sessions.Invalidate(ctx, sessionID)
			}),
		)
		return New(sessionID, username, Deps{Client: scoped, Bus: bus, Console: console, Logger: logger})
	}
}

// Registry keeps one workspace per live session.
type Registry struct {
	factory Factory
	idleTTL time.Duration
	now     func() time.Time
	logger  *slog.Logger

	mu    sync.Mutex
	items map[string]*Workspace
}

func NewRegistry(factory Factory, idleTTL time.Duration, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		factory: factory,
		idleTTL: idleTTL,
		now:     time.Now,
		logger:  logger,
		items:   make(map[string]*Workspace),
	}
}

func (r *Registry) WithClock(now func() time.Time) *Registry {
	r.now = now
	return r
}

// Get returns the session's workspace, creating it on first use.
func (r *Registry) Get(sessionID, username string) *Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()

	ws, ok := r.items[sessionID]
	if !ok {
		ws = r.factory(sessionID, username)
		r.items[sessionID] = ws
		r.logger.Debug("workspace created", "session", internal.SessionPrefix(sessionID))
	}
	ws.touch(r.now())
	return ws
}

// Drop unmounts and forgets the session's workspace, if any.
func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	ws, ok := r.items[sessionID]
	delete(r.items, sessionID)
	r.mu.Unlock()

	if ok {
		ws.Close()
		r.logger.Debug("workspace dropped", "session", internal.SessionPrefix(sessionID))
	}
}

// Active reports whether ws is still the registered workspace of its
// session.
func (r *Registry) Active(ws *Workspace) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[ws.SessionID] == ws
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Sweep drops workspaces idle for longer than the idle TTL and returns how
// many it dropped.
func (r *Registry) Sweep() int {
	if r.idleTTL <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	var idle []*Workspace
	for id, ws := range r.items {
		if ws.LastSeen().Before(cutoff) {
			idle = append(idle, ws)
			delete(r.items, id)
		}
	}
	r.mu.Unlock()

	for _, ws := range idle {
		ws.Close()
	}
	return len(idle)
}

// Run sweeps idle workspaces every interval until ctx is done. purge, when
// set, runs on the same tick.
func (r *Registry) Run(ctx context.Context, interval time.Duration, purge func(ctx context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Info("evicted idle workspaces", "count", n)
			}
			if purge != nil {
				purge(ctx)
			}
		}
	}
}

// CloseAll unmounts every workspace. Used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	items := r.items
	r.items = make(map[string]*Workspace)
	r.mu.Unlock()

	for _, ws := range items {
		ws.Close()
	}
}
