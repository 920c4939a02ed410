package transport

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

	"github.com/goliatone/go-appclient/core"
)

const defaultCallerClientTimeout = 60 * time.Second
const defaultResponseBodyLimit int64 = 10 << 20 // 10 MiB

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	StatusText string
	Header     http.Header
	Body       []byte
}

func (r Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode <= 299
}

// Raw flattens the response for callers that parse it themselves.
func (r Response) Raw() core.RawResponse {
	return core.RawResponse{
		StatusCode: r.StatusCode,
		StatusText: r.StatusText,
		Headers:    flattenHeaders(r.Header),
		Body:       string(r.Body),
	}
}

// Caller performs a single HTTP exchange. It arms the request timeout and
// releases it on every exit path, after the body has been read.
type Caller struct {
	Client               core.HTTPDoer
	MaxResponseBodyBytes int64
}

func NewCaller(client core.HTTPDoer) *Caller {
	if client == nil {
		client = &http.Client{Timeout: defaultCallerClientTimeout}
	}
	return &Caller{
		Client:               client,
		MaxResponseBodyBytes: defaultResponseBodyLimit,
	}
}

// Do sends req with the given headers. Every failure is returned as a
// transport error annotated with method and URL.
func (c *Caller) Do(ctx context.Context, req core.Request, headers map[string]string) (Response, error) {
	method := strings.TrimSpace(strings.ToUpper(req.Method))
	rawURL := strings.TrimSpace(req.URL)
	if c == nil || c.Client == nil {
		return Response{}, core.NewTransportError(method, rawURL, "http client is not configured", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if method == "" {
		return Response{}, core.NewTransportError(method, rawURL, "request method is required", nil)
	}
	parsedURL, err := url.Parse(rawURL)
	if err != nil || rawURL == "" {
		if err == nil {
			err = fmt.Errorf("request url is required")
		}
		return Response{}, core.WrapTransportError(err, method, rawURL, nil)
	}

	body, err := encodeBody(req.Body)
	if err != nil {
		return Response{}, core.WrapTransportError(err, method, rawURL, nil)
	}

	requestCtx := ctx
	cancel := func() {}
	if req.Timeout > 0 {
		requestCtx, cancel = context.WithTimeout(ctx, req.Timeout)
	}
	defer cancel()

	httpReq, err := http.NewRequestWithContext(requestCtx, method, parsedURL.String(), body)
	if err != nil {
		return Response{}, core.WrapTransportError(err, method, rawURL, nil)
	}
	for key, value := range headers {
		if strings.TrimSpace(key) == "" {
			continue
		}
		httpReq.Header.Set(strings.TrimSpace(key), value)
	}

	httpRes, err := c.Client.Do(httpReq)
	if err != nil {
		return Response{}, core.WrapTransportError(err, method, rawURL, nil)
	}
	defer httpRes.Body.Close()

	limit := c.MaxResponseBodyBytes
	if limit <= 0 {
		limit = defaultResponseBodyLimit
	}
	payload, err := io.ReadAll(io.LimitReader(httpRes.Body, limit+1))
	if err != nil {
		return Response{}, core.WrapTransportError(err, method, rawURL, map[string]any{
			"status_code": httpRes.StatusCode,
		})
	}
	if int64(len(payload)) > limit {
		return Response{}, core.NewTransportError(method, rawURL,
			fmt.Sprintf("response body exceeds limit of %d bytes", limit),
			map[string]any{"status_code": httpRes.StatusCode, "response_limit_b": limit},
		)
	}

	return Response{
		StatusCode: httpRes.StatusCode,
		StatusText: statusText(httpRes),
		Header:     httpRes.Header.Clone(),
		Body:       payload,
	}, nil
}

func encodeBody(body any) (io.Reader, error) {
	switch typed := body.(type) {
	case nil:
		return http.NoBody, nil
	case string:
		return strings.NewReader(typed), nil
	case []byte:
		return bytes.NewReader(typed), nil
	case json.RawMessage:
		return bytes.NewReader(typed), nil
	default:
		encoded, err := json.Marshal(typed)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		return bytes.NewReader(encoded), nil
	}
}

func statusText(res *http.Response) string {
	text := strings.TrimSpace(res.Status)
	text = strings.TrimSpace(strings.TrimPrefix(text, strconv.Itoa(res.StatusCode)))
	if text == "" {
		text = http.StatusText(res.StatusCode)
	}
	return text
}

func flattenHeaders(headers http.Header) map[string]string {
	if len(headers) == 0 {
		return map[string]string{}
	}
	flat := make(map[string]string, len(headers))
	for key, values := range headers {
		if len(values) == 0 {
			flat[strings.ToLower(key)] = ""
			continue
		}
		flat[strings.ToLower(key)] = strings.Join(values, ",")
	}
	return flat
}
