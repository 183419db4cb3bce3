package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/client/apierr"
	"github.com/dmitrijs2005/cardkeeper/internal/client/signing"
	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/dmitrijs2005/cardkeeper/internal/client/client"

// TokenFunc returns the bearer credential to send; empty means none.
type TokenFunc func() string

// HTTPClient implements Client over the JSON HTTP API.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	token      TokenFunc
	signer     *signing.Engine
	tracer     trace.Tracer
}

type Option func(*HTTPClient)

func WithHTTPClient(h *http.Client) Option {
	return func(c *HTTPClient) { c.httpClient = h }
}

// WithTimeout bounds every request; zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.timeout = d }
}

func WithToken(fn TokenFunc) Option {
	return func(c *HTTPClient) { c.token = fn }
}

// WithSigner enables signing of sensitive mutations.
func WithSigner(e *signing.Engine) Option {
	return func(c *HTTPClient) { c.signer = e }
}

func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		timeout:    10 * time.Second,
		token:      func() string { return "" },
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type request struct {
	method string
	path   string
	body   any
	token  string
	signed bool
}

func (c *HTTPClient) ResolveSession(ctx context.Context, token string) (*UserProfile, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	var out struct {
		User UserProfile `json:"user"`
	}
	if _, err := c.do(ctx, request{method: http.MethodGet, path: "/api/auth/session", token: token}, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *HTTPClient) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	var out LoginResult
	if _, err := c.do(ctx, request{method: http.MethodPost, path: "/api/auth/login", body: creds}, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, &apierr.ServerError{StatusCode: http.StatusOK, Code: "NO_TOKEN", Message: "Sign-in response did not include a session."}
	}
	return &out, nil
}

func (c *HTTPClient) Logout(ctx context.Context) error {
	_, err := c.do(ctx, request{method: http.MethodPost, path: "/api/auth/logout"}, nil)
	return err
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	if _, err := c.do(ctx, request{method: http.MethodGet, path: "/api/health"}, &out); err != nil {
		return err
	}
	if !strings.EqualFold(out.Status, "ok") {
		return ErrUnavailable
	}
	return nil
}

func (c *HTTPClient) ListCards(ctx context.Context, page, limit int) (*ListResponse[Card], error) {
	return list[Card](ctx, c, "/api/cards", page, limit)
}

func (c *HTTPClient) ListTransactions(ctx context.Context, page, limit int) (*ListResponse[Transaction], error) {
	return list[Transaction](ctx, c, "/api/transactions", page, limit)
}

func (c *HTTPClient) ListInvoices(ctx context.Context, page, limit int) (*ListResponse[Invoice], error) {
	return list[Invoice](ctx, c, "/api/invoices", page, limit)
}

func (c *HTTPClient) Balance(ctx context.Context) (*Balance, error) {
	var out Balance
	if _, err := c.do(ctx, request{method: http.MethodGet, path: "/api/account/balance"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Renewal(ctx context.Context) (*RenewalInfo, error) {
	var out RenewalInfo
	if _, err := c.do(ctx, request{method: http.MethodGet, path: "/api/billing/renewal"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) UnreadCount(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if _, err := c.do(ctx, request{method: http.MethodGet, path: "/api/notifications/unread-count"}, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (c *HTTPClient) FreezeCard(ctx context.Context, id string) (signing.Outcome, error) {
	path := "/api/cards/" + url.PathEscape(id) + "/freeze"
	return c.do(ctx, request{method: http.MethodPost, path: path, signed: true}, nil)
}

func (c *HTTPClient) DeleteCard(ctx context.Context, id string) (signing.Outcome, error) {
	path := "/api/cards/" + url.PathEscape(id)
	return c.do(ctx, request{method: http.MethodDelete, path: path, signed: true}, nil)
}

func list[T any](ctx context.Context, c *HTTPClient, path string, page, limit int) (*ListResponse[T], error) {
	v := url.Values{}
	if page > 0 {
		v.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
	if enc := v.Encode(); enc != "" {
		path += "?" + enc
	}

	var out ListResponse[T]
	if _, err := c.do(ctx, request{method: http.MethodGet, path: path}, &out); err != nil {
		return nil, err
	}
	if out.Items == nil {
		out.Items = []T{}
	}
	return &out, nil
}

// do sends one request and decodes a 2xx JSON body into out (when non-nil).
// Transport failures wrap ErrUnavailable; other statuses become
// *apierr.ServerError.
func (c *HTTPClient) do(ctx context.Context, r request, out any) (outcome signing.Outcome, err error) {
	ctx, span := c.tracer.Start(ctx, "api "+r.method, trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("http.method", r.method), attribute.String("url.path", r.path)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
		}
		span.End()
	}()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body []byte
	if r.body != nil {
		body, err = json.Marshal(r.body)
		if err != nil {
			return signing.OutcomeUnsigned, fmt.Errorf("encode %s %s: %w", r.method, r.path, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, bytes.NewReader(body))
	if err != nil {
		return signing.OutcomeUnsigned, fmt.Errorf("build %s %s: %w", r.method, r.path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(common.RequestIDHeaderName, "req_"+uuid.NewString())
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}

	token := r.token
	if token == "" {
		token = c.token()
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, "Bearer "+token)
	}

	if r.signed && c.signer != nil {
		outcome, err = c.signer.Apply(req, body)
		if err != nil {
			return signing.OutcomeUnsigned, err
		}
		span.SetAttributes(attribute.String("request.signing", outcome.String()))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return outcome, fmt.Errorf("%w: %s %s: %w", ErrUnavailable, r.method, r.path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return outcome, fmt.Errorf("%w: read %s %s: %w", ErrUnavailable, r.method, r.path, err)
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return outcome, apierr.ParseEnvelope(resp.StatusCode, respBody)
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return outcome, nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return outcome, fmt.Errorf("decode %s %s: %w", r.method, r.path, err)
	}
	return outcome, nil
}
