/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package fleet is a small client for the balena cloud API. It resolves an
// application by name and lists its devices, folding every remote failure
// into ErrAuthFailure, ErrNotFound or ErrTransientFetch.
package fleet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/cenkalti/backoff/v5"

	"github.com/carverauto/balena-sd/pkg/common"
	"github.com/carverauto/balena-sd/pkg/logger"
	"github.com/carverauto/balena-sd/pkg/models"
	"github.com/carverauto/balena-sd/pkg/version"
)

const (
	DefaultEndpoint       = "https://api.balena-cloud.com"
	DefaultPageSize       = 1000
	DefaultMaxAttempts    = 4
	DefaultInitialBackoff = 250 * time.Millisecond
	DefaultMaxBackoff     = 5 * time.Second
	DefaultHTTPTimeout    = 30 * time.Second

	whoamiPath      = "/user/v1/whoami"
	applicationPath = "/v4/application"
	devicePath      = "/v4/device"

	maxBodyBytes    = 64 << 20
	maxErrorSnippet = 512
)

// Config configures a Client.
type Config struct {
	Endpoint       string
	Token          string `sensitive:"true"`
	UserAgent      string
	PageSize       int
	MaxAttempts    uint
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// OnReauthenticate is called each time a rejected session is replaced.
	OnReauthenticate func()
}

// Client talks to the fleet API on behalf of a single API token.
type Client struct {
	endpoint   *url.URL
	config     Config
	httpClient HTTPClient
	sessions   sessionCache
	logger     logger.Logger
}

// NewClient returns a Client. A nil httpClient gets a default http.Client.
func NewClient(cfg Config, httpClient HTTPClient, log logger.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}

	endpoint, err := url.Parse(strings.TrimRight(cfg.Endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidEndpoint, err)
	}

	if (endpoint.Scheme != "http" && endpoint.Scheme != "https") || endpoint.Host == "" {
		return nil, fmt.Errorf("%w: %q", errInvalidEndpoint, cfg.Endpoint)
	}

	if cfg.UserAgent == "" {
		cfg.UserAgent = version.UserAgent()
	}

	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}

	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}

	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = DefaultInitialBackoff
	}

	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = DefaultMaxBackoff
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}

	if log == nil {
		log = logger.NewTestLogger()
	}

	return &Client{
		endpoint:   endpoint,
		config:     cfg,
		httpClient: httpClient,
		logger:     log,
	}, nil
}

// Authenticate checks the token locally, then asks the API who it belongs
// to. The resulting session is cached for later calls.
func (c *Client) Authenticate(ctx context.Context) (*Session, error) {
	session, err := c.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	c.sessions.set(session)

	return session, nil
}

// Session returns the cached session, or nil when none is held.
func (c *Client) Session() *Session {
	return c.sessions.current()
}

func (c *Client) authenticate(ctx context.Context) (*Session, error) {
	if err := validateToken(c.config.Token); err != nil {
		return nil, err
	}

	var who whoamiResponse

	err := c.getJSON(ctx, c.config.Token, whoamiPath, nil, &who)
	if errors.Is(err, errUnauthorized) {
		return nil, fmt.Errorf("%w: %w", ErrAuthFailure, err)
	}

	if err != nil {
		return nil, err
	}

	c.logger.Info().
		Int64("user_id", who.ID).
		Str("username", who.Username).
		Msg("Authenticated against fleet API")

	return &Session{
		Token:         c.config.Token,
		UserID:        who.ID,
		Username:      who.Username,
		EstablishedAt: time.Now(),
	}, nil
}

func validateToken(token string) error {
	if token == "" {
		return fmt.Errorf("%w: %w", ErrAuthFailure, errMissingToken)
	}

	for _, r := range token {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("%w: %w", ErrAuthFailure, errMalformedToken)
		}
	}

	return nil
}

// ListDevices returns every device of the named application, ordered by uuid.
func (c *Client) ListDevices(ctx context.Context, appName string) ([]models.Device, error) {
	app, err := c.findApplication(ctx, appName)
	if err != nil {
		return nil, err
	}

	devices := make([]models.Device, 0)

	for skip := 0; ; skip += c.config.PageSize {
		query := []queryParam{
			{"$select", "uuid"},
			{"$expand", "application($select=app_name)"},
			{"$filter", "application eq " + strconv.FormatInt(app.ID, 10)},
			{"$orderby", "uuid asc"},
			{"$top", strconv.Itoa(c.config.PageSize)},
			{"$skip", strconv.Itoa(skip)},
		}

		var page odataResponse[deviceRecord]
		if err := c.authorizedGet(ctx, devicePath, query, &page); err != nil {
			return nil, err
		}

		for _, rec := range page.D {
			device := models.Device{UUID: rec.UUID}
			if len(rec.Application) > 0 {
				device.ApplicationName = rec.Application[0].AppName
			}

			devices = append(devices, device)
		}

		c.logger.Debug().
			Str("app", appName).
			Int("skip", skip).
			Int("count", len(page.D)).
			Msg("Fetched device page")

		if len(page.D) < c.config.PageSize {
			break
		}
	}

	return devices, nil
}

func (c *Client) findApplication(ctx context.Context, appName string) (*applicationRecord, error) {
	query := []queryParam{
		{"$select", "id,app_name"},
		{"$filter", "app_name eq " + odataString(appName)},
	}

	var resp odataResponse[applicationRecord]
	if err := c.authorizedGet(ctx, applicationPath, query, &resp); err != nil {
		return nil, err
	}

	switch len(resp.D) {
	case 0:
		return nil, fmt.Errorf("%w: %q", ErrNotFound, appName)
	case 1:
		return &resp.D[0], nil
	default:
		// app names are unique per owner; a shared token may still see several
		c.logger.Warn().
			Str("app", appName).
			Int("matches", len(resp.D)).
			Err(errAmbiguousApplication).
			Msg("Using the first matching application")

		return &resp.D[0], nil
	}
}

// authorizedGet performs a GET with the cached session. A rejected session
// is replaced once and the call repeated; a second rejection is fatal.
func (c *Client) authorizedGet(ctx context.Context, path string, query []queryParam, out interface{}) error {
	session, err := c.sessions.get(ctx, c.authenticate)
	if err != nil {
		return err
	}

	err = c.getJSON(ctx, session.Token, path, query, out)
	if !errors.Is(err, errUnauthorized) {
		return err
	}

	c.logger.Warn().Str("path", path).Msg("Session rejected, re-authenticating")
	c.sessions.invalidate(session)

	if c.config.OnReauthenticate != nil {
		c.config.OnReauthenticate()
	}

	session, err = c.sessions.get(ctx, c.authenticate)
	if err != nil {
		return err
	}

	err = c.getJSON(ctx, session.Token, path, query, out)
	if errors.Is(err, errUnauthorized) {
		c.sessions.invalidate(session)

		return fmt.Errorf("%w: rejected again after re-authentication: %w", ErrAuthFailure, err)
	}

	return err
}

// getJSON runs one logical GET, retrying transient failures with
// exponential backoff until the attempts or the context run out.
func (c *Client) getJSON(ctx context.Context, token, path string, query []queryParam, out interface{}) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.config.InitialBackoff
	bo.MaxInterval = c.config.MaxBackoff

	operation := func() (struct{}, error) {
		return struct{}{}, c.do(ctx, token, path, query, out)
	}

	notify := func(err error, next time.Duration) {
		event := c.logger.Warn().
			Err(err).
			Str("path", path).
			Dur("retry_in", next)

		if cycleID, ok := common.GetCycleID(ctx); ok {
			event = event.Str("cycle_id", cycleID)
		}

		event.Msg("Fleet API request failed, retrying")
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(c.config.MaxAttempts),
		backoff.WithNotify(notify))
	if err == nil {
		return nil
	}

	if errors.Is(err, errUnauthorized) || errors.Is(err, ErrNotFound) {
		return err
	}

	return fmt.Errorf("%w: %s: %w", ErrTransientFetch, path, err)
}

func (c *Client) do(ctx context.Context, token, path string, query []queryParam, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(path, query), http.NoBody)
	if err != nil {
		return backoff.Permanent(err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := classifyStatus(resp, body); err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}

// classifyStatus maps an HTTP status to a retryable or permanent error.
func classifyStatus(resp *http.Response, body []byte) error {
	status := resp.StatusCode

	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return backoff.Permanent(fmt.Errorf("%w: %d", errUnauthorized, status))
	case status == http.StatusNotFound:
		return backoff.Permanent(fmt.Errorf("%w: %d", ErrNotFound, status))
	case status == http.StatusTooManyRequests:
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
			return fmt.Errorf("%w: %w", errThrottled, backoff.RetryAfter(secs))
		}

		return errThrottled
	case status >= 500:
		return fmt.Errorf("%w: %d, response: %s", errServerError, status, snippet(body))
	default:
		return backoff.Permanent(fmt.Errorf("%w: %d, response: %s", errUnexpectedStatusCode, status, snippet(body)))
	}
}

func snippet(body []byte) string {
	if len(body) > maxErrorSnippet {
		return string(body[:maxErrorSnippet]) + "..."
	}

	return string(body)
}

type queryParam struct {
	key   string
	value string
}

// buildURL keeps parameters in the given order and encodes spaces as %20,
// which OData servers expect in $filter expressions.
func (c *Client) buildURL(path string, query []queryParam) string {
	u := *c.endpoint
	u.Path = strings.TrimRight(u.Path, "/") + path

	parts := make([]string, 0, len(query))
	for _, p := range query {
		parts = append(parts, escapeQuery(p.key)+"="+escapeQuery(p.value))
	}

	u.RawQuery = strings.Join(parts, "&")

	return u.String()
}

func escapeQuery(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// odataString quotes s as an OData string literal.
func odataString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
