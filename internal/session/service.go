package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/backend"
	"github.com/frahmantamala/admin-console/internal/errfmt"
)

// expirySkew treats a token as expired slightly early so it does not lapse
// in flight.
const expirySkew = 10 * time.Second

// touchInterval limits last_seen_at writes to one per interval per session.
const touchInterval = time.Minute

// Authenticator is the backend's token endpoints.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (backend.Tokens, error)
	Refresh(ctx context.Context, path, refreshToken string) (backend.Tokens, error)
}

type Config struct {
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	RefreshPath string
}

// Manager owns session lifecycle: login, lookup, refresh-once and
// invalidation.
type Manager struct {
	repo   RepositoryAPI
	auth   Authenticator
	sealer *Sealer
	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	locks sync.Map

	hooksMu sync.RWMutex
	hooks   []func(id string)
}

func NewManager(repo RepositoryAPI, auth Authenticator, sealer *Sealer, cfg Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		repo:   repo,
		auth:   auth,
		sealer: sealer,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock replaces the time source; tests use it to expire tokens.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// OnEnd registers fn to run whenever a session ends by logout, expiry or
// invalidation.
func (m *Manager) OnEnd(fn func(id string)) {
	m.hooksMu.Lock()
	defer m.hooksMu.Unlock()
	m.hooks = append(m.hooks, fn)
}

// Login authenticates against the backend and stores a new session.
func (m *Manager) Login(ctx context.Context, username, password string) (*Session, error) {
	return m.LoginWithID(ctx, uuid.NewString(), username, password)
}

// LoginWithID is Login with a caller-chosen id; the CLI keeps a single
// fixed-id session in its local store. An existing session with the same id
// is replaced.
func (m *Manager) LoginWithID(ctx context.Context, id, username, password string) (*Session, error) {
	tokens, err := m.auth.Login(ctx, username, password)
	if err != nil {
		return nil, m.loginError(err)
	}

	now := m.now()
	s := &Session{
		ID:         id,
		Username:   username,
		CreatedAt:  now,
		LastSeenAt: now,
	}
	m.applyTokens(s, tokens, now)

	if err := m.save(ctx, s); err != nil {
		return nil, err
	}
	m.logger.Info("session started", "session", internal.SessionPrefix(id), "username", username)
	return s, nil
}

func (m *Manager) loginError(err error) error {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusBadRequest || apiErr.StatusCode == http.StatusUnauthorized) {
		return internal.ErrInvalidCredentials
	}
	if errors.Is(err, backend.ErrNoAccessToken) {
		return internal.ErrInvalidCredentials
	}
	return internal.NewExternalError(errfmt.Format(err), err)
}

func (m *Manager) applyTokens(s *Session, tokens backend.Tokens, now time.Time) {
	s.Access = tokens.Access
	s.AccessExpiresAt = tokenExpiry(tokens.Access, now, m.cfg.AccessTTL)
	if tokens.Refresh != "" {
		s.Refresh = tokens.Refresh
		s.RefreshExpiresAt = tokenExpiry(tokens.Refresh, now, m.cfg.RefreshTTL)
	}
	if s.Refresh == "" {
		s.RefreshExpiresAt = s.AccessExpiresAt
	}
}

func (m *Manager) save(ctx context.Context, s *Session) error {
	dm, err := ToDataModel(s, m.sealer)
	if err != nil {
		return internal.NewInternalError("failed to seal session tokens", err)
	}
	if err := m.repo.Save(ctx, dm); err != nil {
		return internal.NewInternalError("failed to store session", err)
	}
	return nil
}

// CurrentSession returns the live session for id. ok is false when the id is
// unknown or both of its tokens have expired; an expired session is removed.
func (m *Manager) CurrentSession(ctx context.Context, id string) (*Session, bool, error) {
	if id == "" {
		return nil, false, nil
	}
	dm, err := m.repo.GetByID(ctx, id)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load session: %w", err)
	}
	if dm == nil {
		return nil, false, nil
	}

	s, err := FromDataModel(dm, m.sealer)
	if err != nil {
		m.logger.Warn("dropping unreadable session", "session", internal.SessionPrefix(id), "error", err)
		m.end(ctx, id, "unreadable")
		return nil, false, nil
	}

	now := m.now()
	if !s.AccessValid(now) && !s.RefreshValid(now) {
		m.end(ctx, id, "expired")
		return nil, false, nil
	}

	if now.Sub(s.LastSeenAt) >= touchInterval {
		if err := m.repo.Touch(ctx, id, now); err != nil {
			m.logger.Warn("failed to touch session", "session", internal.SessionPrefix(id), "error", err)
		} else {
			s.LastSeenAt = now
		}
	}
	return s, true, nil
}

// AccessToken returns a usable access token for id, refreshing it once
// through the backend when it has expired. Any failure ends the session
// and yields ErrSessionExpired.
func (m *Manager) AccessToken(ctx context.Context, id string) (string, error) {
	lock := m.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	s, ok, err := m.CurrentSession(ctx, id)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", internal.ErrSessionExpired
	}

	now := m.now()
	if now.Add(expirySkew).Before(s.AccessExpiresAt) {
		return s.Access, nil
	}

	if !s.RefreshValid(now) || m.cfg.RefreshPath == "" {
		m.end(ctx, id, "access expired")
		return "", internal.ErrSessionExpired
	}

	tokens, err := m.auth.Refresh(ctx, m.cfg.RefreshPath, s.Refresh)
	if err != nil {
		m.logger.Warn("token refresh failed", "session", internal.SessionPrefix(id), "error", err)
		m.end(ctx, id, "refresh failed")
		return "", internal.ErrSessionExpired
	}

	m.applyTokens(s, tokens, now)
	if err := m.save(ctx, s); err != nil {
		return "", err
	}
	m.logger.Debug("access token refreshed", "session", internal.SessionPrefix(id))
	return s.Access, nil
}

// TokenSource binds AccessToken to one session for the backend client.
func (m *Manager) TokenSource(id string) backend.TokenSource {
	return backend.TokenFunc(func(ctx context.Context) (string, error) {
		return m.AccessToken(ctx, id)
	})
}

// Invalidate ends a session the backend rejected with 401.
func (m *Manager) Invalidate(ctx context.Context, id string) {
	m.end(ctx, id, "rejected by backend")
}

// Logout clears both tokens by deleting the session.
func (m *Manager) Logout(ctx context.Context, id string) error {
	if err := m.repo.Delete(ctx, id); err != nil {
		return internal.NewInternalError("failed to delete session", err)
	}
	m.logger.Info("session ended", "session", internal.SessionPrefix(id), "reason", "logout")
	m.notify(id)
	return nil
}

// PurgeExpired removes sessions whose refresh window has closed.
func (m *Manager) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := m.repo.DeleteExpired(ctx, m.now())
	if err != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", err)
	}
	return n, nil
}

func (m *Manager) end(ctx context.Context, id, reason string) {
	if err := m.repo.Delete(context.WithoutCancel(ctx), id); err != nil {
		m.logger.Error("failed to delete session", "session", internal.SessionPrefix(id), "error", err)
	}
	m.logger.Info("session ended", "session", internal.SessionPrefix(id), "reason", reason)
	m.notify(id)
}

func (m *Manager) notify(id string) {
	m.hooksMu.RLock()
	hooks := append([]func(string){}, m.hooks...)
	m.hooksMu.RUnlock()
	for _, fn := range hooks {
		fn(id)
	}
	m.locks.Delete(id)
}

func (m *Manager) lockFor(id string) *sync.Mutex {
	lock, _ := m.locks.LoadOrStore(id, &sync.Mutex{})
	return lock.(*sync.Mutex)
}
