// Copyright (c) 2025 GPAI
// Licensed under the MIT License. See LICENSE file in the project root for details.

package storage

import (
	"errors"
	"os"
	"runtime"
	"sync"

	"github.com/99designs/keyring"
	"go.uber.org/zap"

	"gpai/cli/internal/xdg"
)

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "gpai"

// Keyring stores values in the OS credential store.
type Keyring struct {
	mu      sync.RWMutex
	ring    keyring.Keyring
	backend keychainBackend
	log     *zap.Logger
}

// keychainBackend is implemented by native command-line backends that are
// preferred over the keyring library where available.
type keychainBackend interface {
	Set(key, value string) error
	Get(key string) (string, error)
	Delete(key string) error
}

// KeyringOptions tunes OpenKeyring.
type KeyringOptions struct {
	// FilePassword enables the encrypted file fallback when no native
	// credential store is reachable. Empty disables the fallback.
	FilePassword string
	// FileDir overrides the file keyring location (XDG data dir by default).
	FileDir string
	// AllowedBackends overrides platform backend selection entirely.
	AllowedBackends []keyring.BackendType
}

// OpenKeyring opens the platform credential store. A native command backend
// (the `security` tool on macOS) is tried first, then the keyring library.
func OpenKeyring(opts KeyringOptions, log *zap.Logger) (*Keyring, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if len(opts.AllowedBackends) == 0 {
		backend, err := nativeBackend(log)
		if err == nil {
			return &Keyring{backend: backend, log: log}, nil
		}
		log.Debug("no native credential command, using keyring library", zap.Error(err))
	}

	ring, err := openRing(opts)
	if err != nil {
		return nil, err
	}
	return &Keyring{ring: ring, log: log}, nil
}

// openRing opens the keyring library with native backends, plus the
// encrypted file backend when a password is configured.
func openRing(opts KeyringOptions) (keyring.Keyring, error) {
	allowed := opts.AllowedBackends
	if len(allowed) == 0 {
		switch runtime.GOOS {
		case "darwin":
			allowed = []keyring.BackendType{keyring.KeychainBackend, keyring.PassBackend}
		case "windows":
			allowed = []keyring.BackendType{keyring.WinCredBackend}
		default:
			allowed = []keyring.BackendType{keyring.SecretServiceBackend, keyring.KWalletBackend, keyring.PassBackend}
		}
		if opts.FilePassword != "" {
			allowed = append(allowed, keyring.FileBackend)
		}
	}

	cfg := keyring.Config{
		ServiceName:              ServiceName,
		AllowedBackends:          allowed,
		KeychainTrustApplication: true,
		PassPrefix:               ServiceName,
		WinCredPrefix:            ServiceName,
		LibSecretCollectionName:  ServiceName,
		KWalletAppID:             ServiceName,
		KWalletFolder:            ServiceName,
	}
	for _, b := range allowed {
		if b != keyring.FileBackend {
			continue
		}
		if opts.FilePassword == "" {
			return nil, errors.New("file keyring requires GPAI_KEYRING_PASSWORD")
		}
		dir := opts.FileDir
		if dir == "" {
			d, err := xdg.DataDir()
			if err != nil {
				return nil, err
			}
			dir = d
		}
		cfg.FileDir = dir
		cfg.FilePasswordFunc = keyring.FixedStringPrompt(opts.FilePassword)
	}

	return keyring.Open(cfg)
}

// Get retrieves a value. Empty values are reported as missing.
func (k *Keyring) Get(key string) (string, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if k.backend != nil {
		v, err := k.backend.Get(key)
		if err != nil {
			return "", err
		}
		if v == "" {
			return "", ErrNotFound
		}
		return v, nil
	}

	it, err := k.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if len(it.Data) == 0 {
		return "", ErrNotFound
	}
	return string(it.Data), nil
}

// Set stores a value, replacing any previous one.
func (k *Keyring) Set(key, value string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.backend != nil {
		return k.backend.Set(key, value)
	}
	return k.ring.Set(keyring.Item{Key: key, Label: ServiceName + " " + key, Data: []byte(value)})
}

// Delete removes a value. Missing keys are ignored.
func (k *Keyring) Delete(key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.backend != nil {
		return k.backend.Delete(key)
	}
	err := k.ring.Remove(key)
	if err == nil || errors.Is(err, keyring.ErrKeyNotFound) || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
