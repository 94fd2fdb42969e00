// Copyright (c) 2025 GPAI
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package authapi talks to the external authentication service.
// It performs the credential, registration, OAuth and refresh exchanges and
// returns their results. It never persists anything: storing the outcome is
// the session manager's job, called once by the command after a successful
// exchange.
package authapi

import (
	"context"
	"time"
)

// API defines the exchanges the CLI depends on.
// Implementations may call the real service or provide fakes for tests.
type API interface {
	Login(ctx context.Context, req LoginRequest) (*Result, error)
	Register(ctx context.Context, req RegisterRequest) (*Result, error)
	GoogleOAuth(ctx context.Context, req OAuthRequest) (*Result, error)
	Refresh(ctx context.Context, req RefreshRequest) (*Result, error)
	UpdateProfile(ctx context.Context, accessToken string, req UpdateProfileRequest) (*Result, error)
}

// Endpoints contains the REST paths relative to the base URL.
type Endpoints struct {
	Login       string
	Register    string
	GoogleOAuth string
	Refresh     string
	Profile     string
}

// DefaultEndpoints returns the paths served by the auth service.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Login:       "/login",
		Register:    "/register",
		GoogleOAuth: "/google-oauth",
		Refresh:     "/refresh",
		Profile:     "/profile",
	}
}

// LoginRequest carries email/password credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// RegisterRequest creates a new account.
type RegisterRequest struct {
	LoginRequest
	Username    string     `json:"username" validate:"required,min=3,max=50"`
	FullName    string     `json:"fullName" validate:"required"`
	Phone       string     `json:"phone,omitempty" validate:"omitempty,min=8,max=20"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	Gender      string     `json:"gender,omitempty" validate:"omitempty,oneof=male female other"`
	Address     string     `json:"address,omitempty"`
}

// OAuthRequest exchanges a Google ID token.
type OAuthRequest struct {
	Token string `json:"token" validate:"required"`
}

// RefreshRequest exchanges a refresh token for new tokens.
type RefreshRequest struct {
	Token string `json:"token" validate:"required"`
}

// UpdateProfileRequest changes profile fields of the signed-in account.
// Nil fields are left as they are.
type UpdateProfileRequest struct {
	Username    *string    `json:"username,omitempty" validate:"omitempty,min=3,max=50"`
	FullName    *string    `json:"fullName,omitempty"`
	Phone       *string    `json:"phone,omitempty" validate:"omitempty,min=8,max=20"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	Gender      *string    `json:"gender,omitempty" validate:"omitempty,oneof=male female other"`
	Address     *string    `json:"address,omitempty"`
	AvatarURL   *string    `json:"avatarUrl,omitempty"`
}

// Empty reports whether the request changes nothing.
func (r UpdateProfileRequest) Empty() bool {
	return r.Username == nil && r.FullName == nil && r.Phone == nil &&
		r.DateOfBirth == nil && r.Gender == nil && r.Address == nil && r.AvatarURL == nil
}

// Result is a successful exchange. Tokens are opaque; Profile fields are
// whatever the service chose to return and may be empty.
type Result struct {
	AccessToken  string
	RefreshToken string
	Profile      Profile
}

// HasTokens reports whether the exchange issued an access token.
func (r *Result) HasTokens() bool {
	return r != nil && r.AccessToken != ""
}

// Profile holds optional identity fields returned alongside tokens.
type Profile struct {
	Name   string
	Email  string
	Avatar string
}
