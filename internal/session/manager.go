// Copyright (c) 2025 GPAI
// Licensed under the MIT License. See LICENSE file in the project root for details.

package session

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	apperrors "gpai/cli/internal/errors"
	"gpai/cli/internal/storage"
)

// Keys used for the persisted session.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUserData     = "userData"
)

var (
	// ErrInvalidSession is returned by Establish for a nil user or empty tokens.
	ErrInvalidSession = apperrors.New(apperrors.InvalidSession, "user and both tokens are required")
	// ErrStorageUnavailable is returned by Establish when there is no store to write to.
	ErrStorageUnavailable = apperrors.New(apperrors.StorageUnavailable, "no credential store")
)

// Manager holds the session for the lifetime of the process.
type Manager struct {
	store storage.Store
	log   *zap.Logger

	// writeMu serializes whole transitions (store and memory together);
	// mu guards the in-memory fields only.
	writeMu sync.Mutex

	mu       sync.RWMutex
	user     *User
	tokens   Tokens
	loggedIn bool
	hydrated bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for recovered storage failures.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// NewManager returns an empty, not yet hydrated Manager. A nil store means
// persisted storage is unavailable in this environment.
func NewManager(store storage.Store, opts ...Option) *Manager {
	m := &Manager{store: store, log: zap.NewNop()}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Hydrate loads the persisted session. Missing keys, unreadable storage or a
// corrupt user record all yield a logged-out session; nothing is returned to
// the caller. The hydrated flag is set last, whatever the outcome.
func (m *Manager) Hydrate() {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	if m.store == nil {
		m.log.Debug("hydrate: storage unavailable, starting logged out")
		m.finishHydrate(nil, Tokens{})
		return
	}

	user, tokens, err := m.read()
	if err != nil {
		m.log.Debug("hydrate: no usable session", zap.Error(err))
		m.finishHydrate(nil, Tokens{})
		return
	}
	m.log.Debug("hydrate: session restored", zap.String("email", user.Email))
	m.finishHydrate(user, tokens)
}

func (m *Manager) read() (*User, Tokens, error) {
	access, err := m.store.Get(KeyAccessToken)
	if err != nil {
		return nil, Tokens{}, err
	}
	refresh, err := m.store.Get(KeyRefreshToken)
	if err != nil {
		return nil, Tokens{}, err
	}
	raw, err := m.store.Get(KeyUserData)
	if err != nil {
		return nil, Tokens{}, err
	}
	if access == "" || refresh == "" {
		return nil, Tokens{}, storage.ErrNotFound
	}
	user, err := decodeUser(raw)
	if err != nil {
		return nil, Tokens{}, err
	}
	return user, Tokens{AccessToken: access, RefreshToken: refresh}, nil
}

// Establish persists a freshly exchanged session and then marks it logged in.
// If any write fails the in-memory state is left untouched; a partially
// written store is discarded by the next Hydrate. Concurrent calls are
// applied one at a time, so the store never mixes two callers' values.
func (m *Manager) Establish(user *User, tokens Tokens) error {
	if user == nil || tokens.AccessToken == "" || tokens.RefreshToken == "" {
		return ErrInvalidSession
	}
	if m.store == nil {
		return ErrStorageUnavailable
	}

	raw, err := encodeUser(*user)
	if err != nil {
		return err
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	writes := []struct{ key, value string }{
		{KeyAccessToken, tokens.AccessToken},
		{KeyRefreshToken, tokens.RefreshToken},
		{KeyUserData, raw},
	}
	for _, w := range writes {
		if err := m.store.Set(w.key, w.value); err != nil {
			m.log.Warn("establish: write failed", zap.String("key", w.key), zap.Error(err))
			return err
		}
	}

	u := *user
	m.mu.Lock()
	m.user = &u
	m.tokens = tokens
	m.loggedIn = true
	m.mu.Unlock()
	return nil
}

// Clear removes the persisted session and resets the in-memory one.
// It never fails; delete errors are logged.
func (m *Manager) Clear() {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	if m.store != nil {
		var errs []error
		for _, k := range []string{KeyAccessToken, KeyRefreshToken, KeyUserData} {
			if err := m.store.Delete(k); err != nil {
				errs = append(errs, err)
			}
		}
		if err := errors.Join(errs...); err != nil {
			m.log.Warn("clear: could not remove persisted session", zap.Error(err))
		}
	}

	m.mu.Lock()
	m.user = nil
	m.tokens = Tokens{}
	m.loggedIn = false
	m.mu.Unlock()
}

// GuardedAccess reports whether protected content may render.
func (m *Manager) GuardedAccess() Access {
	m.mu.RLock()
	defer m.mu.RUnlock()
	switch {
	case !m.hydrated:
		return AccessUnknown
	case m.loggedIn:
		return AccessAuthenticated
	default:
		return AccessUnauthenticated
	}
}

// User returns a copy of the current user, or nil when logged out.
func (m *Manager) User() *User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// Tokens returns the current tokens and whether a session is established.
func (m *Manager) Tokens() (Tokens, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tokens, m.loggedIn
}

// LoggedIn reports whether a session is established.
func (m *Manager) LoggedIn() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loggedIn
}

// Hydrated reports whether the first Hydrate has completed.
func (m *Manager) Hydrated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hydrated
}

// finishHydrate publishes the hydrated state in one step, so readers never
// see hydrated=true with stale user fields.
func (m *Manager) finishHydrate(user *User, tokens Tokens) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = user
	m.tokens = tokens
	m.loggedIn = user != nil
	m.hydrated = true
}
