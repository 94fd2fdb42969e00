package session

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	apperrors "gpai/cli/internal/errors"
	"gpai/cli/internal/storage"
)

var (
	ann       = User{Name: "Ann", Email: "ann@x.com"}
	annTokens = Tokens{AccessToken: "a1", RefreshToken: "r1"}
)

// flakyStore fails writes or deletes of selected keys.
type flakyStore struct {
	*storage.Memory
	failSet    map[string]bool
	failDelete bool
}

func (f *flakyStore) Set(key, value string) error {
	if f.failSet[key] {
		return errors.New("disk full")
	}
	return f.Memory.Set(key, value)
}

func (f *flakyStore) Delete(key string) error {
	if f.failDelete {
		return errors.New("locked")
	}
	return f.Memory.Delete(key)
}

// brokenStore fails every read.
type brokenStore struct{ storage.Memory }

func (b *brokenStore) Get(string) (string, error) { return "", errors.New("keychain locked") }

func TestEmptyStorageHydratesUnauthenticated(t *testing.T) {
	m := NewManager(storage.NewMemory())
	assert.Equal(t, AccessUnknown, m.GuardedAccess())

	m.Hydrate()

	assert.Equal(t, AccessUnauthenticated, m.GuardedAccess())
	assert.True(t, m.Hydrated())
	assert.False(t, m.LoggedIn())
	assert.Nil(t, m.User())
}

func TestEstablishPersistsAndAuthenticates(t *testing.T) {
	store := storage.NewMemory()
	m := NewManager(store)
	m.Hydrate()

	require.NoError(t, m.Establish(&ann, annTokens))
	assert.Equal(t, AccessAuthenticated, m.GuardedAccess())
	assert.Equal(t, &ann, m.User())

	access, err := store.Get(KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "a1", access)
	refresh, err := store.Get(KeyRefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "r1", refresh)
	raw, err := store.Get(KeyUserData)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Ann","email":"ann@x.com"}`, raw)

	tokens, ok := m.Tokens()
	assert.True(t, ok)
	assert.Equal(t, annTokens, tokens)
}

func TestClearRemovesEverything(t *testing.T) {
	store := storage.NewMemory()
	m := NewManager(store)
	m.Hydrate()
	require.NoError(t, m.Establish(&ann, annTokens))

	m.Clear()

	assert.Equal(t, AccessUnauthenticated, m.GuardedAccess())
	assert.Nil(t, m.User())
	assert.Equal(t, 0, store.Len())
	for _, k := range []string{KeyAccessToken, KeyRefreshToken, KeyUserData} {
		_, err := store.Get(k)
		assert.ErrorIs(t, err, storage.ErrNotFound, k)
	}
}

func TestAccessTokenWithoutUserIsUnauthenticated(t *testing.T) {
	store := storage.NewMemory()
	require.NoError(t, store.Set(KeyAccessToken, "a1"))

	m := NewManager(store)
	m.Hydrate()

	assert.Equal(t, AccessUnauthenticated, m.GuardedAccess())
	assert.Nil(t, m.User())
}

func TestRestartRestoresSession(t *testing.T) {
	users := []User{
		ann,
		{Name: "Bo", Email: "bo@example.org", Avatar: "https://img.example/bo.png"},
		{Name: "", Email: "nameless@example.org"},
	}
	for _, u := range users {
		t.Run(u.Email, func(t *testing.T) {
			store := storage.NewMemory()
			first := NewManager(store)
			first.Hydrate()
			require.NoError(t, first.Establish(&u, annTokens))

			second := NewManager(store)
			second.Hydrate()

			assert.Equal(t, AccessAuthenticated, second.GuardedAccess())
			assert.Equal(t, &u, second.User())
			tokens, ok := second.Tokens()
			assert.True(t, ok)
			assert.Equal(t, annTokens, tokens)
		})
	}
}

func TestCorruptStorageHydratesUnauthenticated(t *testing.T) {
	full := map[string]string{
		KeyAccessToken:  "a1",
		KeyRefreshToken: "r1",
		KeyUserData:     `{"name":"Ann","email":"ann@x.com"}`,
	}
	tests := []struct {
		name     string
		mutate   func(map[string]string)
		useStore func() storage.Store
	}{
		{name: "missing access token", mutate: func(m map[string]string) { delete(m, KeyAccessToken) }},
		{name: "missing refresh token", mutate: func(m map[string]string) { delete(m, KeyRefreshToken) }},
		{name: "missing user record", mutate: func(m map[string]string) { delete(m, KeyUserData) }},
		{name: "empty access token", mutate: func(m map[string]string) { m[KeyAccessToken] = "" }},
		{name: "user record not json", mutate: func(m map[string]string) { m[KeyUserData] = "{name: Ann" }},
		{name: "user record null", mutate: func(m map[string]string) { m[KeyUserData] = "null" }},
		{name: "user record array", mutate: func(m map[string]string) { m[KeyUserData] = `["Ann"]` }},
		{name: "user record wrong field type", mutate: func(m map[string]string) { m[KeyUserData] = `{"name":42}` }},
		{name: "unreadable store", useStore: func() storage.Store { return &brokenStore{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var store storage.Store
			if tt.useStore != nil {
				store = tt.useStore()
			} else {
				state := map[string]string{}
				for k, v := range full {
					state[k] = v
				}
				tt.mutate(state)
				mem := storage.NewMemory()
				for k, v := range state {
					require.NoError(t, mem.Set(k, v))
				}
				store = mem
			}

			m := NewManager(store)
			require.NotPanics(t, m.Hydrate)

			assert.True(t, m.Hydrated())
			assert.False(t, m.LoggedIn())
			assert.Nil(t, m.User())
			assert.Equal(t, AccessUnauthenticated, m.GuardedAccess())
		})
	}
}

func TestUnknownFieldsInUserRecordAreIgnored(t *testing.T) {
	store := storage.NewMemory()
	require.NoError(t, store.Set(KeyAccessToken, "a1"))
	require.NoError(t, store.Set(KeyRefreshToken, "r1"))
	require.NoError(t, store.Set(KeyUserData, `{"name":"Ann","email":"ann@x.com","plan":"pro"}`))

	m := NewManager(store)
	m.Hydrate()

	assert.Equal(t, AccessAuthenticated, m.GuardedAccess())
	assert.Equal(t, &ann, m.User())
}

func TestClearIsIdempotent(t *testing.T) {
	store := storage.NewMemory()
	m := NewManager(store)
	m.Hydrate()
	require.NoError(t, m.Establish(&ann, annTokens))

	m.Clear()
	onceAccess, onceUser, onceLen := m.GuardedAccess(), m.User(), store.Len()
	require.NotPanics(t, m.Clear)

	assert.Equal(t, onceAccess, m.GuardedAccess())
	assert.Equal(t, onceUser, m.User())
	assert.Equal(t, onceLen, store.Len())
}

func TestClearBeforeHydrateKeepsUnknown(t *testing.T) {
	m := NewManager(storage.NewMemory())
	m.Clear()
	assert.Equal(t, AccessUnknown, m.GuardedAccess())
}

func TestNeverUnknownAfterHydrate(t *testing.T) {
	store := storage.NewMemory()
	m := NewManager(store)
	assert.Equal(t, AccessUnknown, m.GuardedAccess())
	m.Hydrate()

	steps := []func(){
		func() { require.NoError(t, m.Establish(&ann, annTokens)) },
		m.Clear,
		m.Clear,
		func() { require.NoError(t, m.Establish(&ann, annTokens)) },
		m.Hydrate,
		m.Clear,
		m.Hydrate,
	}
	for i, step := range steps {
		step()
		assert.NotEqual(t, AccessUnknown, m.GuardedAccess(), "step %d", i)
	}
}

func TestEstablishRejectsIncompleteInput(t *testing.T) {
	tests := []struct {
		name   string
		user   *User
		tokens Tokens
	}{
		{name: "nil user", user: nil, tokens: annTokens},
		{name: "empty access token", user: &ann, tokens: Tokens{RefreshToken: "r1"}},
		{name: "empty refresh token", user: &ann, tokens: Tokens{AccessToken: "a1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storage.NewMemory()
			m := NewManager(store)
			m.Hydrate()

			err := m.Establish(tt.user, tt.tokens)
			assert.ErrorIs(t, err, ErrInvalidSession)
			assert.Equal(t, apperrors.InvalidSession, apperrors.KindOf(err))
			assert.Equal(t, AccessUnauthenticated, m.GuardedAccess())
			assert.Equal(t, 0, store.Len())
		})
	}
}

func TestEstablishCopiesUser(t *testing.T) {
	m := NewManager(storage.NewMemory())
	m.Hydrate()
	u := ann
	require.NoError(t, m.Establish(&u, annTokens))

	u.Name = "Mallory"
	assert.Equal(t, "Ann", m.User().Name)

	got := m.User()
	got.Name = "Eve"
	assert.Equal(t, "Ann", m.User().Name)
}

func TestFailedWriteLeavesStateUnchanged(t *testing.T) {
	store := &flakyStore{Memory: storage.NewMemory(), failSet: map[string]bool{KeyUserData: true}}
	m := NewManager(store)
	m.Hydrate()

	err := m.Establish(&ann, annTokens)
	require.Error(t, err)
	assert.Equal(t, AccessUnauthenticated, m.GuardedAccess())
	assert.Nil(t, m.User())

	// The partial write is treated as no session on restart.
	restarted := NewManager(store)
	restarted.Hydrate()
	assert.Equal(t, AccessUnauthenticated, restarted.GuardedAccess())
}

func TestFailedWriteKeepsPreviousSession(t *testing.T) {
	store := &flakyStore{Memory: storage.NewMemory(), failSet: map[string]bool{}}
	m := NewManager(store)
	m.Hydrate()
	require.NoError(t, m.Establish(&ann, annTokens))

	store.failSet[KeyAccessToken] = true
	err := m.Establish(&User{Name: "Bo", Email: "bo@x.com"}, Tokens{AccessToken: "a2", RefreshToken: "r2"})
	require.Error(t, err)

	assert.Equal(t, AccessAuthenticated, m.GuardedAccess())
	assert.Equal(t, &ann, m.User())
}

func TestClearNeverFails(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	store := &flakyStore{Memory: storage.NewMemory(), failSet: map[string]bool{}}
	m := NewManager(store, WithLogger(zap.New(core)))
	m.Hydrate()
	require.NoError(t, m.Establish(&ann, annTokens))

	store.failDelete = true
	require.NotPanics(t, m.Clear)

	assert.Equal(t, AccessUnauthenticated, m.GuardedAccess())
	assert.Nil(t, m.User())
	assert.Equal(t, 1, logs.FilterMessage("clear: could not remove persisted session").Len())
}

func TestUnavailableStorage(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	m := NewManager(nil, WithLogger(zap.New(core)))

	m.Hydrate()
	assert.Equal(t, AccessUnauthenticated, m.GuardedAccess())
	assert.Equal(t, 1, logs.FilterMessage("hydrate: storage unavailable, starting logged out").Len())

	err := m.Establish(&ann, annTokens)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.Equal(t, AccessUnauthenticated, m.GuardedAccess())

	require.NotPanics(t, m.Clear)
	assert.Equal(t, AccessUnauthenticated, m.GuardedAccess())
}

func TestConcurrentReadersSeeConsistentState(t *testing.T) {
	m := NewManager(storage.NewMemory())
	m.Hydrate()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			_ = m.Establish(&ann, annTokens)
			m.Clear()
		}
	}()

	for {
		select {
		case <-done:
			return
		default:
			access := m.GuardedAccess()
			require.NotEqual(t, AccessUnknown, access)
		}
	}
}

// yieldingStore gives other goroutines a chance between every write.
type yieldingStore struct {
	*storage.Memory
}

func (s yieldingStore) Set(key, value string) error {
	runtime.Gosched()
	return s.Memory.Set(key, value)
}

func TestConcurrentEstablishKeepsStoreConsistent(t *testing.T) {
	store := yieldingStore{storage.NewMemory()}
	m := NewManager(store)
	m.Hydrate()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			u := User{Name: fmt.Sprint("user", w), Email: fmt.Sprintf("u%d@x.com", w)}
			tk := Tokens{AccessToken: fmt.Sprint("a", w), RefreshToken: fmt.Sprint("r", w)}
			for i := 0; i < 50; i++ {
				assert.NoError(t, m.Establish(&u, tk))
			}
		}(w)
	}
	wg.Wait()

	access, err := store.Get(KeyAccessToken)
	require.NoError(t, err)
	refresh, err := store.Get(KeyRefreshToken)
	require.NoError(t, err)
	raw, err := store.Get(KeyUserData)
	require.NoError(t, err)
	stored, err := decodeUser(raw)
	require.NoError(t, err)

	w := strings.TrimPrefix(access, "a")
	assert.Equal(t, "r"+w, refresh)
	assert.Equal(t, "user"+w, stored.Name)

	tokens, ok := m.Tokens()
	require.True(t, ok)
	assert.Equal(t, Tokens{AccessToken: access, RefreshToken: refresh}, tokens)
	assert.Equal(t, stored, m.User())
}

func TestAccessString(t *testing.T) {
	assert.Equal(t, "unknown", AccessUnknown.String())
	assert.Equal(t, "authenticated", AccessAuthenticated.String())
	assert.Equal(t, "unauthenticated", AccessUnauthenticated.String())
}
