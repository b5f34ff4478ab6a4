package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"

	"github.com/angelmondragon/storefront/pkg/auth"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
)

const (
	defaultTimeout           = 30 * time.Second
	defaultRefreshPath       = "/auth/refresh"
	defaultRefreshSkew       = 30 * time.Second
	errorBodyReadLimit int64 = 1024
	bodyReadLimit      int64 = 4 << 20
)

var (
	errBaseURLRequired = errors.New("storefront api base url is required")
	errServerStatus    = errors.New("storefront api server error")
)

// Tokens is the bearer credential pair issued by the storefront api.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"`
}

// TokenStore persists the credential pair of one session.
type TokenStore interface {
	Tokens(ctx context.Context) (Tokens, error)
	SaveTokens(ctx context.Context, tokens Tokens) error
	ClearTokens(ctx context.Context) error
}

// Breaker is the circuit breaker type shared by every session client.
type Breaker = gobreaker.CircuitBreaker[*http.Response]

// Request describes one call against the storefront api.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	Header http.Header
	// Resource labels metrics and logs, e.g. "cart" or "orders".
	Resource string
	// Anonymous requests carry no bearer token and never trigger a refresh.
	Anonymous bool
}

// Client talks to the storefront REST api on behalf of one session.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	timeout     time.Duration
	refreshPath string
	refreshSkew time.Duration
	breaker     *Breaker
	metrics     *metrics.Storefront
	logg        *logger.Logger
	now         func() time.Time

	tokens   TokenStore
	onLogout func(context.Context)
	refresh  *singleflight.Group
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-call deadline.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

func WithRefreshPath(path string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			c.refreshPath = trimmed
		}
	}
}

// WithRefreshSkew refreshes access tokens that expire within the window before sending.
func WithRefreshSkew(skew time.Duration) Option {
	return func(c *Client) {
		if skew >= 0 {
			c.refreshSkew = skew
		}
	}
}

func WithBreaker(breaker *Breaker) Option {
	return func(c *Client) {
		c.breaker = breaker
	}
}

func WithMetrics(m *metrics.Storefront) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) {
		c.logg = logg
	}
}

// WithTokens attaches the session credentials.
func WithTokens(tokens TokenStore) Option {
	return func(c *Client) {
		c.tokens = tokens
	}
}

// WithLogoutHook is invoked after a failed refresh has cleared the credentials.
func WithLogoutHook(fn func(context.Context)) Option {
	return func(c *Client) {
		c.onLogout = fn
	}
}

func withClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// New builds a storefront api client rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	if _, err := url.ParseRequestURI(trimmed); err != nil {
		return nil, fmt.Errorf("invalid storefront api base url: %w", err)
	}

	client := &Client{
		baseURL:     trimmed,
		timeout:     defaultTimeout,
		refreshPath: defaultRefreshPath,
		refreshSkew: defaultRefreshSkew,
		now:         time.Now,
		refresh:     &singleflight.Group{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{}
	}
	return client, nil
}

// Bind returns a copy of the client that authenticates as one session. The
// transport, breaker and metrics are shared.
func (c *Client) Bind(tokens TokenStore, onLogout func(context.Context)) *Client {
	bound := *c
	bound.tokens = tokens
	bound.onLogout = onLogout
	bound.refresh = &singleflight.Group{}
	return &bound
}

// Do sends the request and decodes a JSON response into out when non-nil.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "storefront api client not configured")
	}
	authenticated := !req.Anonymous && c.tokens != nil

	var current Tokens
	if authenticated {
		var err error
		current, err = c.currentTokens(ctx)
		if err != nil {
			return err
		}
	}

	res, err := c.send(ctx, req, current.AccessToken)
	if err != nil {
		return err
	}

	if res.status == http.StatusUnauthorized && authenticated {
		refreshed, refreshErr := c.refreshTokens(ctx, current.AccessToken)
		if refreshErr != nil {
			c.forceLogout(ctx, refreshErr)
			return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, refreshErr, "session expired")
		}
		res, err = c.send(ctx, req, refreshed.AccessToken)
		if err != nil {
			return err
		}
		if res.status == http.StatusUnauthorized {
			c.forceLogout(ctx, errors.New("unauthorized after token refresh"))
			return pkgerrors.New(pkgerrors.CodeUnauthorized, upstreamMessage(res.status, res.body))
		}
	}

	if res.status < 200 || res.status > 299 {
		return errorFromResponse(res.status, res.body)
	}
	if out == nil || len(bytes.TrimSpace(res.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(res.body, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode %s response", resourceLabel(req)))
	}
	return nil
}

// currentTokens loads the session credentials, refreshing them first when the
// access token is about to expire.
func (c *Client) currentTokens(ctx context.Context) (Tokens, error) {
	current, err := c.tokens.Tokens(ctx)
	if err != nil {
		return Tokens{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load session tokens")
	}
	if current.AccessToken == "" || current.RefreshToken == "" {
		return current, nil
	}
	if !auth.ExpiresWithin(current.AccessToken, c.now(), c.refreshSkew) {
		return current, nil
	}
	refreshed, err := c.refreshTokens(ctx, current.AccessToken)
	if err != nil {
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "proactive token refresh failed")
		return current, nil
	}
	return refreshed, nil
}

// refreshTokens exchanges the refresh token once per stale access token;
// concurrent callers share the exchange.
func (c *Client) refreshTokens(ctx context.Context, stale string) (Tokens, error) {
	v, err, _ := c.refresh.Do("refresh", func() (any, error) {
		current, err := c.tokens.Tokens(ctx)
		if err != nil {
			return Tokens{}, fmt.Errorf("load session tokens: %w", err)
		}
		if current.AccessToken != "" && current.AccessToken != stale {
			return current, nil
		}
		if current.RefreshToken == "" {
			return Tokens{}, errors.New("no refresh token")
		}

		res, err := c.send(ctx, Request{
			Method:    http.MethodPost,
			Path:      c.refreshPath,
			Body:      map[string]string{"refresh_token": current.RefreshToken},
			Resource:  "auth",
			Anonymous: true,
		}, "")
		if err != nil {
			return Tokens{}, err
		}
		if res.status != http.StatusOK {
			return Tokens{}, fmt.Errorf("refresh rejected with status %d: %s", res.status, upstreamMessage(res.status, res.body))
		}

		var issued Tokens
		if err := json.Unmarshal(res.body, &issued); err != nil {
			return Tokens{}, fmt.Errorf("decode refresh response: %w", err)
		}
		if issued.AccessToken == "" {
			return Tokens{}, errors.New("refresh response missing access token")
		}
		if issued.RefreshToken == "" {
			issued.RefreshToken = current.RefreshToken
		}
		if err := c.tokens.SaveTokens(ctx, issued); err != nil {
			return Tokens{}, fmt.Errorf("save refreshed tokens: %w", err)
		}
		c.logg.Info(ctx, "session tokens refreshed")
		return issued, nil
	})
	if err != nil {
		return Tokens{}, err
	}
	return v.(Tokens), nil
}

func (c *Client) forceLogout(ctx context.Context, cause error) {
	c.logg.Warn(c.logg.WithField(ctx, "reason", cause.Error()), "forcing logout")
	if err := c.tokens.ClearTokens(ctx); err != nil {
		c.logg.Error(ctx, "failed to clear session tokens", err)
	}
	if c.onLogout != nil {
		c.onLogout(ctx)
	}
}

type response struct {
	status int
	body   []byte
}

// send performs a single attempt under the per-call timeout. Transport
// failures, timeouts and an open breaker come back as retryable dependency errors.
func (c *Client) send(ctx context.Context, req Request, accessToken string) (response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := c.buildRequest(ctx, req, accessToken)
	if err != nil {
		return response{}, err
	}

	start := c.now()
	resp, err := c.execute(httpReq)
	if resp == nil {
		c.observe(req, outcomeFor(0, err), start)
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return response{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storefront api temporarily unavailable")
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return response{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("%s request timed out", resourceLabel(req)))
		}
		return response{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("execute %s request", resourceLabel(req)))
	}
	defer func() { _ = resp.Body.Close() }()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, bodyReadLimit))
	c.observe(req, outcomeFor(resp.StatusCode, readErr), start)
	if readErr != nil {
		return response{}, pkgerrors.Wrap(pkgerrors.CodeDependency, readErr, fmt.Sprintf("read %s response", resourceLabel(req)))
	}
	return response{status: resp.StatusCode, body: body}, nil
}

func (c *Client) execute(httpReq *http.Request) (*http.Response, error) {
	do := func() (*http.Response, error) {
		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return resp, errServerStatus
		}
		return resp, nil
	}
	if c.breaker == nil {
		return do()
	}
	return c.breaker.Execute(do)
}

func (c *Client) buildRequest(ctx context.Context, req Request, accessToken string) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("marshal %s request", resourceLabel(req)))
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.buildURL(req.Path, req.Query), body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("build %s request", resourceLabel(req)))
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if !req.Anonymous && accessToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	}
	return httpReq, nil
}

func (c *Client) buildURL(path string, query url.Values) string {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) observe(req Request, outcome string, start time.Time) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	c.metrics.ObserveUpstream(resourceLabel(req), method, outcome, c.now().Sub(start))
}

func outcomeFor(status int, err error) string {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "breaker_open"
	case status == 0:
		return "transport_error"
	case err != nil && !errors.Is(err, errServerStatus):
		return "transport_error"
	case status >= 500:
		return "server_error"
	case status >= 400:
		return "client_error"
	default:
		return "ok"
	}
}

func resourceLabel(req Request) string {
	if req.Resource != "" {
		return req.Resource
	}
	trimmed := strings.Trim(req.Path, "/")
	if idx := strings.Index(trimmed, "/"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	if trimmed == "" {
		return "root"
	}
	return trimmed
}
