package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-appclient/core"
	glog "github.com/goliatone/go-logger/glog"
)

// DefaultHeaders are sent when a request carries no headers of its own.
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Accept":       contentTypeJSON,
		"Content-Type": contentTypeJSON,
	}
}

type DispatcherOption func(*Dispatcher)

func WithLogger(logger core.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithTokenProvider attaches bearer tokens to requests whose TokenType is not
// none.
func WithTokenProvider(provider core.TokenProvider) DispatcherOption {
	return func(d *Dispatcher) {
		d.tokens = provider
	}
}

// WithDefaultTimeout applies timeout to requests that carry none.
func WithDefaultTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		d.defaultTimeout = timeout
	}
}

// Dispatcher sends requests and classifies their responses. It keeps no state
// between calls.
type Dispatcher struct {
	caller         *Caller
	logger         core.Logger
	tokens         core.TokenProvider
	defaultTimeout time.Duration
}

func NewDispatcher(caller *Caller, opts ...DispatcherOption) *Dispatcher {
	if caller == nil {
		caller = NewCaller(nil)
	}
	d := &Dispatcher{caller: caller}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(d)
	}
	d.logger = glog.Ensure(d.logger)
	if d.defaultTimeout < 0 {
		d.defaultTimeout = 0
	}
	return d
}

// Fetch performs req and returns the JSON body of a successful response, or
// nil when the response was empty.
func (d *Dispatcher) Fetch(ctx context.Context, req core.Request) (json.RawMessage, error) {
	if d == nil {
		return nil, core.NewInternalError("transport: dispatcher is nil")
	}
	method, url := normalizeTarget(req)
	res, err := d.perform(ctx, req)
	if err != nil {
		d.logger.Warn("request failed", "method", method, "url", url, "error", err)
		return nil, err
	}

	result := Classify(res)
	d.logger.Debug("response classified", "method", method, "url", url, "status", res.StatusCode, "kind", string(result.Kind))
	switch result.Kind {
	case core.ResultEmpty:
		return nil, nil
	case core.ResultJSON:
		return result.Value, nil
	default:
		err := classificationError(method, url, result)
		d.logger.Warn("request rejected", "method", method, "url", url, "status", res.StatusCode, "error", err)
		return nil, err
	}
}

// FetchAndParse performs req and decodes a JSON success body into T. An empty
// success yields the zero value of T.
func FetchAndParse[T any](ctx context.Context, d *Dispatcher, req core.Request) (T, error) {
	var out T
	raw, err := d.Fetch(ctx, req)
	if err != nil {
		return out, err
	}
	if raw == nil {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		method, url := normalizeTarget(req)
		var zero T
		return zero, core.WrapTransportError(fmt.Errorf("decode response: %w", err), method, url, nil)
	}
	return out, nil
}

func (d *Dispatcher) perform(ctx context.Context, req core.Request) (Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	method, url := normalizeTarget(req)
	req.Method = method
	req.URL = url
	if req.Timeout <= 0 && d.defaultTimeout > 0 {
		req.Timeout = d.defaultTimeout
	}

	headers, err := d.resolveHeaders(ctx, req)
	if err != nil {
		return Response{}, core.WrapTransportError(err, method, url, nil)
	}

	d.logger.Debug("dispatching request",
		"method", method,
		"url", url,
		"token_type", string(req.TokenType),
		"timeout", req.Timeout.String(),
		"headers", core.RedactHeaders(headers),
	)
	return d.caller.Do(ctx, req, headers)
}

func (d *Dispatcher) resolveHeaders(ctx context.Context, req core.Request) (map[string]string, error) {
	headers := DefaultHeaders()
	if len(req.Headers) > 0 {
		headers = make(map[string]string, len(req.Headers))
		for key, value := range req.Headers {
			headers[key] = value
		}
	}

	if d.tokens == nil || req.TokenType == "" || req.TokenType == core.TokenTypeNone {
		return headers, nil
	}
	token, err := d.tokens.BearerToken(ctx, req.User, req.TokenType)
	if err != nil {
		return nil, fmt.Errorf("resolve %s token: %w", req.TokenType, err)
	}
	if token = strings.TrimSpace(token); token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	return headers, nil
}

func normalizeTarget(req core.Request) (string, string) {
	return strings.TrimSpace(strings.ToUpper(req.Method)), strings.TrimSpace(req.URL)
}
