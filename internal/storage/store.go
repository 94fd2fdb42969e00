// Copyright (c) 2025 GPAI
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package storage provides the persisted key/value layer the session manager
// writes through to.
//
// Every backend stores plain string values under a small fixed set of keys.
// Values are opaque to this package; serialization of structured records is
// the caller's concern. Backends are safe for concurrent use.
package storage

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"gpai/cli/internal/config"
	apperrors "gpai/cli/internal/errors"
)

var (
	// ErrNotFound is returned by Get when the key has no value.
	ErrNotFound = errors.New("storage: key not found")
	// ErrUnavailable is returned by Open when the selected backend cannot be used.
	ErrUnavailable = apperrors.New(apperrors.StorageUnavailable, "credential store unavailable")
)

// Store is a string key/value store.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(key string) (string, error)
	// Set stores value under key, replacing any previous value.
	Set(key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
}

// Open returns the backend selected by cfg. Any failure to open it is
// reported as ErrUnavailable wrapping the cause.
func Open(cfg config.Storage, log *zap.Logger) (Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var (
		s   Store
		err error
	)
	switch cfg.Backend {
	case config.BackendKeyring, "":
		s, err = OpenKeyring(KeyringOptions{FilePassword: cfg.KeyringPassword}, log)
	case config.BackendRedis:
		s, err = OpenRedis(cfg.Redis, log)
	case config.BackendMemory:
		s = NewMemory()
	default:
		err = fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		log.Debug("credential store unavailable", zap.String("backend", cfg.Backend), zap.Error(err))
		return nil, apperrors.Wrap(apperrors.StorageUnavailable, "open "+backendName(cfg.Backend), err)
	}
	return s, nil
}

func backendName(b string) string {
	if b == "" {
		return config.BackendKeyring
	}
	return b
}
