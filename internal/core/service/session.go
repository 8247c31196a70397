package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

var ErrNoIdentity = errors.New("no signed-in identity")

// IdentityListener is notified after the active identity changes. user is
// nil after sign-out.
type IdentityListener func(ctx context.Context, user *domain.User) error

// SessionStore holds at most one identity for a browser. Only the owning
// Storefront changes it; everything else reads Current or subscribes.
type SessionStore struct {
	storage   port.BrowserStorage
	metrics   port.Metrics
	logger    zerolog.Logger
	user      *domain.User
	listeners []IdentityListener
}

func NewSessionStore(storage port.BrowserStorage, metrics port.Metrics, logger zerolog.Logger) *SessionStore {
	return &SessionStore{
		storage: storage,
		metrics: metrics,
		logger:  logger.With().Str("component", "session").Logger(),
	}
}

func (s *SessionStore) Subscribe(l IdentityListener) {
	s.listeners = append(s.listeners, l)
}

func (s *SessionStore) Current() (domain.User, bool) {
	if s.user == nil {
		return domain.User{}, false
	}
	return *s.user, true
}

// Restore reads the persisted session. A corrupt record is treated as signed
// out.
func (s *SessionStore) Restore(ctx context.Context) error {
	var user domain.User
	found, err := loadRecord(ctx, s.storage, sessionKey, &user)
	if errors.Is(err, ErrCorruptRecord) || (found && err == nil && user.ID == "") {
		s.metrics.CorruptRecord("session")
		s.logger.Warn().Err(err).Msg("discarding unreadable session")
		return s.set(ctx, nil)
	}
	if err != nil {
		return err
	}
	if !found {
		return s.set(ctx, nil)
	}
	return s.set(ctx, &user)
}

func (s *SessionStore) signIn(ctx context.Context, user domain.User) error {
	if err := saveRecord(ctx, s.storage, sessionKey, user); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", user.ID).Msg("signed in")
	return s.set(ctx, &user)
}

func (s *SessionStore) signOut(ctx context.Context) error {
	if err := s.storage.RemoveItem(ctx, sessionKey); err != nil {
		return fmt.Errorf("remove session: %w", err)
	}
	if s.user != nil {
		s.logger.Info().Str("user_id", s.user.ID).Msg("signed out")
	}
	return s.set(ctx, nil)
}

func (s *SessionStore) set(ctx context.Context, user *domain.User) error {
	s.user = user
	for _, l := range s.listeners {
		if err := l(ctx, user); err != nil {
			return err
		}
	}
	return nil
}

// ThemeStore keeps the light/dark preference of a browser across restarts.
type ThemeStore struct {
	storage   port.BrowserStorage
	metrics   port.Metrics
	theme     domain.Theme
	persisted bool
}

func NewThemeStore(storage port.BrowserStorage, metrics port.Metrics) *ThemeStore {
	return &ThemeStore{storage: storage, metrics: metrics, theme: domain.ThemeLight}
}

func (t *ThemeStore) Restore(ctx context.Context) error {
	var theme domain.Theme
	found, err := loadRecord(ctx, t.storage, themeKey, &theme)
	if errors.Is(err, ErrCorruptRecord) || (found && err == nil && !theme.Valid()) {
		t.metrics.CorruptRecord("theme")
		t.theme = domain.ThemeLight
		return nil
	}
	if err != nil {
		return err
	}
	if found {
		t.theme, t.persisted = theme, true
	}
	return nil
}

// Persisted reports whether a theme choice has been stored for this browser.
func (t *ThemeStore) Persisted() bool {
	return t.persisted
}

func (t *ThemeStore) Theme() domain.Theme {
	return t.theme
}

func (t *ThemeStore) Toggle(ctx context.Context) (domain.Theme, error) {
	next := t.theme.Toggle()
	if err := saveRecord(ctx, t.storage, themeKey, next); err != nil {
		return t.theme, err
	}
	t.theme, t.persisted = next, true
	return next, nil
}
