//go:build !darwin

package storage

import (
	"errors"
	"runtime"

	"go.uber.org/zap"
)

// errNoNativeBackend means only the keyring library serves this platform.
var errNoNativeBackend = errors.New("no native credential command on " + runtime.GOOS)

func nativeBackend(*zap.Logger) (keychainBackend, error) {
	return nil, errNoNativeBackend
}
