// Copyright (c) 2025 GPAI
// Licensed under the MIT License. See LICENSE file in the project root for details.

package authapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	apperrors "gpai/cli/internal/errors"
)

var (
	// ErrUnauthorized matches exchanges rejected with 401.
	ErrUnauthorized = apperrors.New(apperrors.Unauthorized, "credentials rejected")
	// ErrInvalidRequest matches requests rejected locally or with 400.
	ErrInvalidRequest = apperrors.New(apperrors.InvalidInput, "invalid request")
	// ErrExchangeFailed matches every other failed exchange.
	ErrExchangeFailed = apperrors.New(apperrors.ExchangeFailed, "exchange failed")
)

// Client implements API over REST.
type Client struct {
	http      *resty.Client
	endpoints Endpoints
	validate  *validator.Validate
	log       *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option { return func(c *Client) { c.http.SetTimeout(d) } }

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option { return func(c *Client) { c.http.SetHeader("User-Agent", ua) } }

// New creates a client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	hc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(10*time.Second).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "gpai-cli").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)

	c := &Client{
		http:      hc,
		endpoints: DefaultEndpoints(),
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		log:       zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Login exchanges email/password for tokens.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*Result, error) {
	return c.exchange(ctx, c.endpoints.Login, req, true)
}

// Register creates an account. Services that sign the user in immediately
// return tokens; others return only a confirmation, in which case the Result
// carries no tokens.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*Result, error) {
	return c.exchange(ctx, c.endpoints.Register, req, false)
}

// GoogleOAuth exchanges a Google ID token for service tokens.
func (c *Client) GoogleOAuth(ctx context.Context, req OAuthRequest) (*Result, error) {
	return c.exchange(ctx, c.endpoints.GoogleOAuth, req, true)
}

// Refresh exchanges a refresh token. The service may not rotate the refresh
// token, so Result.RefreshToken can be empty.
func (c *Client) Refresh(ctx context.Context, req RefreshRequest) (*Result, error) {
	return c.exchange(ctx, c.endpoints.Refresh, req, true)
}

// UpdateProfile changes profile fields with the session's access token.
// The service answers with a confirmation, so the Result usually carries
// neither tokens nor profile.
func (c *Client) UpdateProfile(ctx context.Context, accessToken string, req UpdateProfileRequest) (*Result, error) {
	if accessToken == "" {
		return nil, apperrors.New(apperrors.Unauthorized, "no access token")
	}
	return c.send(ctx, call{
		method: resty.MethodPut,
		path:   c.endpoints.Profile,
		bearer: accessToken,
		body:   req,
	})
}

// call describes one request to the service.
type call struct {
	method     string
	path       string
	bearer     string
	body       any
	needTokens bool
}

func (c *Client) exchange(ctx context.Context, path string, body any, needTokens bool) (*Result, error) {
	return c.send(ctx, call{method: resty.MethodPost, path: path, body: body, needTokens: needTokens})
}

func (c *Client) send(ctx context.Context, cl call) (*Result, error) {
	if err := c.validate.Struct(cl.body); err != nil {
		return nil, apperrors.Wrap(apperrors.InvalidInput, describeValidation(err), err)
	}

	r := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(cl.body)
	if cl.bearer != "" {
		r.SetAuthToken(cl.bearer)
	}

	start := time.Now()
	resp, err := r.Execute(cl.method, cl.path)
	if err != nil {
		c.log.Debug("auth request failed", zap.String("method", cl.method), zap.String("path", cl.path), zap.Error(err))
		return nil, apperrors.Wrap(apperrors.ExchangeFailed, strings.ToLower(cl.method)+" "+cl.path, err)
	}
	c.log.Debug("auth request",
		zap.String("method", cl.method),
		zap.String("path", cl.path),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("elapsed", time.Since(start)),
	)

	if !resp.IsSuccess() {
		return nil, statusError(cl.method, cl.path, resp.StatusCode(), resp.String())
	}

	res := parseResult(resp.String())
	if cl.needTokens && !res.HasTokens() {
		return nil, apperrors.New(apperrors.ExchangeFailed, "response from "+cl.path+" carried no access token")
	}
	return res, nil
}

func statusError(method, path string, status int, body string) error {
	msg := serverMessage(body)
	if msg == "" {
		msg = http.StatusText(status)
	}
	switch status {
	case http.StatusUnauthorized:
		return apperrors.New(apperrors.Unauthorized, msg)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return apperrors.New(apperrors.InvalidInput, msg)
	default:
		return apperrors.New(apperrors.ExchangeFailed, fmt.Sprintf("%s %s: %d %s", strings.ToLower(method), path, status, msg))
	}
}

// describeValidation turns validator output into a one-line message naming
// the offending JSON fields.
func describeValidation(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %q", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}
