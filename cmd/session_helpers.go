package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"
	"go.uber.org/zap"

	"gpai/cli/internal/authapi"
	apperrors "gpai/cli/internal/errors"
	"gpai/cli/internal/httperrors"
	"gpai/cli/internal/session"
)

// deriveUser builds the stored user from what the exchange returned. The
// name falls back to fallbackName, then to the local part of the email.
func deriveUser(p authapi.Profile, email, fallbackName string) *session.User {
	if p.Email != "" {
		email = p.Email
	}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = fallbackName
	}
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	if name == "" {
		name = "User"
	}
	return &session.User{Name: name, Email: email, Avatar: p.Avatar}
}

// redirectToLogin is what a guarded command shows to a logged-out user.
func redirectToLogin(w io.Writer) {
	fmt.Fprintln(w, "🔒 You're not logged in yet!")
	fmt.Fprintln(w, "   Run 'gpai login' to get started.")
}

// signOut clears the session and sends the user back to login. Every path
// that ends a session goes through here.
func signOut(app *App, w io.Writer, reason string) {
	app.Session.Clear()
	fmt.Fprintln(w, reason)
	fmt.Fprintln(w, "   Run 'gpai login' to sign in again.")
}

func tokensOf(res *authapi.Result) session.Tokens {
	return session.Tokens{AccessToken: res.AccessToken, RefreshToken: res.RefreshToken}
}

// establish stores a session for user.
func establish(app *App, user *session.User, tokens session.Tokens) error {
	err := app.Session.Establish(user, tokens)
	if err == nil {
		return nil
	}
	app.Log.Warn("establish session failed", zap.Error(err))
	if apperrors.KindOf(err) == apperrors.StorageUnavailable {
		pterm.Warning.Println("No credential store is available, so the session cannot be saved.")
		pterm.Println("Set GPAI_KEYRING_PASSWORD to use the encrypted file keyring, or pick another store with --storage.")
	}
	return fmt.Errorf("save session: %w", err)
}

// renew exchanges the stored refresh token and stores the new tokens with the
// current user. A refresh token the service did not rotate is kept.
func renew(ctx context.Context, app *App, w io.Writer) error {
	tokens, _ := app.Session.Tokens()
	res, err := withSpinner(w, "Refreshing session", func() (*authapi.Result, error) {
		return app.Auth.Refresh(ctx, authapi.RefreshRequest{Token: tokens.RefreshToken})
	})
	if err != nil {
		return err
	}
	if res.RefreshToken == "" {
		res.RefreshToken = tokens.RefreshToken
	}

	user := app.Session.User()
	if res.Profile.Name != "" {
		user.Name = res.Profile.Name
	}
	if res.Profile.Avatar != "" {
		user.Avatar = res.Profile.Avatar
	}
	return establish(app, user, tokensOf(res))
}

// exchangeError turns an auth service failure into user guidance.
func exchangeError(app *App, err error, action string) error {
	switch apperrors.KindOf(err) {
	case apperrors.Unauthorized, apperrors.InvalidInput:
		return err
	}
	if httperrors.Classify(err) == httperrors.CategoryGeneric {
		return err
	}
	return httperrors.FormatNetworkError(err, action, httperrors.ExtractHostFromURL(app.Config.APIURL))
}
