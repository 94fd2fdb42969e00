// Copyright (c) 2025 GPAI
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package session owns the client-side authentication state of the CLI.
//
// A Manager caches the persisted session (user record plus access and refresh
// tokens) in memory and writes through to a storage.Store on every change.
// Commands construct exactly one Manager per process, Hydrate it once before
// deciding what to render, and consult GuardedAccess for the three-way answer:
// not yet known, authenticated, or unauthenticated.
//
// The Manager never talks to the network. Callers perform credential
// exchanges themselves and hand the result to Establish.
package session
