package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-appclient/core"
	goerrors "github.com/goliatone/go-errors"
)

func newTestDispatcher(t *testing.T, handler http.HandlerFunc, opts ...DispatcherOption) (*Dispatcher, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewDispatcher(NewCaller(server.Client()), opts...), server
}

func TestFetchAndParse_JSONSuccess(t *testing.T) {
	dispatcher, server := newTestDispatcher(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"a":1}`))
	})

	got, err := FetchAndParse[map[string]any](context.Background(), dispatcher, core.Request{
		Method: http.MethodGet,
		URL:    server.URL + "/y",
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 1 || got["a"] != float64(1) {
		t.Fatalf("unexpected body: %#v", got)
	}
}

func TestFetchAndParse_DecodesIntoStruct(t *testing.T) {
	dispatcher, server := newTestDispatcher(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`{"name":"app","count":3}`))
	})

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	got, err := FetchAndParse[payload](context.Background(), dispatcher, core.Request{Method: "get", URL: server.URL})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got.Name != "app" || got.Count != 3 {
		t.Fatalf("unexpected body: %#v", got)
	}
}

func TestFetch_EmptySuccessWithoutContentType(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusNoContent, http.StatusAccepted} {
		dispatcher, server := newTestDispatcher(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		})
		raw, err := dispatcher.Fetch(context.Background(), core.Request{Method: http.MethodDelete, URL: server.URL})
		if err != nil {
			t.Fatalf("status %d: expected empty success, got %v", status, err)
		}
		if raw != nil {
			t.Fatalf("status %d: expected nil value, got %q", status, string(raw))
		}
	}
}

func TestFetch_APIErrorCarriesStatusAndPayload(t *testing.T) {
	dispatcher, server := newTestDispatcher(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid session"}`))
	})

	_, err := dispatcher.Fetch(context.Background(), core.Request{Method: http.MethodGet, URL: server.URL + "/y"})
	var apiErr *core.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected api error, got %T %v", err, err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized || apiErr.StatusText != "Unauthorized" {
		t.Fatalf("unexpected status: %d %q", apiErr.StatusCode, apiErr.StatusText)
	}
	if apiErr.Method != http.MethodGet || apiErr.URL != server.URL+"/y" {
		t.Fatalf("unexpected target: %s %s", apiErr.Method, apiErr.URL)
	}
	payload, ok := apiErr.Payload.(map[string]any)
	if !ok || payload["error"] != "invalid session" {
		t.Fatalf("unexpected payload: %#v", apiErr.Payload)
	}
	if core.IsTransportError(err) {
		t.Fatalf("api error must not be classified as transport error")
	}
}

func TestFetch_NonJSONFailureIsTransportErrorWithStatus(t *testing.T) {
	dispatcher, server := newTestDispatcher(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("<html>down</html>"))
	})

	_, err := dispatcher.Fetch(context.Background(), core.Request{Method: http.MethodGet, URL: server.URL})
	if !core.IsTransportError(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if !strings.Contains(err.Error(), "503") {
		t.Fatalf("expected status code in message, got %q", err.Error())
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.Metadata["status_code"] != http.StatusServiceUnavailable {
		t.Fatalf("expected status metadata, got %#v", rich)
	}
}

func TestFetch_SuccessWithUnexpectedContentType(t *testing.T) {
	dispatcher, server := newTestDispatcher(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("hello"))
	})

	_, err := dispatcher.Fetch(context.Background(), core.Request{Method: http.MethodGet, URL: server.URL})
	if !core.IsTransportError(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if !strings.Contains(err.Error(), "expected empty or JSON response") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestFetch_MalformedJSONIsTransportError(t *testing.T) {
	dispatcher, server := newTestDispatcher(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"a":`))
	})

	_, err := dispatcher.Fetch(context.Background(), core.Request{Method: http.MethodGet, URL: server.URL})
	if !core.IsTransportError(err) {
		t.Fatalf("expected transport error for malformed json, got %v", err)
	}
}

func TestFetch_TimeoutAbortsCallAsTransportError(t *testing.T) {
	release := make(chan struct{})
	dispatcher, server := newTestDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	})
	defer close(release)

	started := time.Now()
	_, err := dispatcher.Fetch(context.Background(), core.Request{
		Method:  http.MethodGet,
		URL:     server.URL,
		Timeout: 50 * time.Millisecond,
	})
	if !core.IsTransportError(err) {
		t.Fatalf("expected transport error on timeout, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded cause, got %v", err)
	}
	if elapsed := time.Since(started); elapsed > 2*time.Second {
		t.Fatalf("timeout did not abort promptly: %s", elapsed)
	}
}

func TestFetch_CompletesBeforeTimeout(t *testing.T) {
	dispatcher, server := newTestDispatcher(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`true`))
	})

	raw, err := dispatcher.Fetch(context.Background(), core.Request{
		Method:  http.MethodGet,
		URL:     server.URL,
		Timeout: time.Second,
	})
	if err != nil || string(raw) != "true" {
		t.Fatalf("expected success, got %q %v", string(raw), err)
	}
}

// contextCapturingDoer records the context of every request it serves.
type contextCapturingDoer struct {
	status int
	body   string
	err    error
	ctxs   []context.Context
}

func (d *contextCapturingDoer) Do(r *http.Request) (*http.Response, error) {
	d.ctxs = append(d.ctxs, r.Context())
	if d.err != nil {
		return nil, d.err
	}
	return &http.Response{
		StatusCode: d.status,
		Status:     http.StatusText(d.status),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(d.body)),
		Request:    r,
	}, nil
}

func TestFetch_ReleasesTimeoutWhenCallSettles(t *testing.T) {
	cases := []struct {
		name  string
		doer  *contextCapturingDoer
		check func(t *testing.T, err error)
	}{
		{
			name: "success",
			doer: &contextCapturingDoer{status: http.StatusOK, body: `{"ok":true}`},
			check: func(t *testing.T, err error) {
				if err != nil {
					t.Fatalf("expected success, got %v", err)
				}
			},
		},
		{
			name: "api error",
			doer: &contextCapturingDoer{status: http.StatusUnauthorized, body: `{"error":"invalid session"}`},
			check: func(t *testing.T, err error) {
				if !core.IsAPIError(err) {
					t.Fatalf("expected api error, got %v", err)
				}
			},
		},
		{
			name: "transport error",
			doer: &contextCapturingDoer{err: errors.New("connection reset")},
			check: func(t *testing.T, err error) {
				if !core.IsTransportError(err) {
					t.Fatalf("expected transport error, got %v", err)
				}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dispatcher := NewDispatcher(NewCaller(tc.doer))
			_, err := dispatcher.Fetch(context.Background(), core.Request{
				Method:  http.MethodGet,
				URL:     "https://api.example.com/me",
				Timeout: time.Hour,
			})
			tc.check(t, err)

			if len(tc.doer.ctxs) != 1 {
				t.Fatalf("expected one request, got %d", len(tc.doer.ctxs))
			}
			requestCtx := tc.doer.ctxs[0]
			if _, ok := requestCtx.Deadline(); !ok {
				t.Fatalf("expected request context to carry the timeout")
			}
			if got := requestCtx.Err(); got != context.Canceled {
				t.Fatalf("expected timer to be released once the call settled, ctx err = %v", got)
			}
		})
	}
}

func TestFetch_NetworkFailureIsAnnotatedTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	target := server.URL + "/gone"
	server.Close()

	dispatcher := NewDispatcher(NewCaller(&http.Client{Timeout: time.Second}))
	_, err := dispatcher.Fetch(context.Background(), core.Request{Method: http.MethodPost, URL: target})
	if !core.IsTransportError(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if !strings.Contains(err.Error(), "POST "+target) {
		t.Fatalf("expected method and url in message, got %q", err.Error())
	}
}

func TestFetch_DefaultHeadersAndBodyEncoding(t *testing.T) {
	dispatcher, server := newTestDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("expected default accept header, got %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("expected default content-type header, got %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"echo":` + string(body) + `}`))
	})

	got, err := FetchAndParse[map[string]any](context.Background(), dispatcher, core.Request{
		Method: http.MethodPost,
		URL:    server.URL,
		Body:   map[string]any{"username": "a"},
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	echo, ok := got["echo"].(map[string]any)
	if !ok || echo["username"] != "a" {
		t.Fatalf("expected json encoded body to round trip, got %#v", got)
	}
}

func TestFetch_StringBodyAndCustomHeadersPassThrough(t *testing.T) {
	dispatcher, server := newTestDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Content-Type"); got != "text/plain" {
			t.Errorf("expected custom content-type, got %q", got)
		}
		if got := r.Header.Get("Accept"); got != "" {
			t.Errorf("expected defaults to be replaced, got accept %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `"already encoded"` {
			t.Errorf("expected verbatim body, got %q", string(body))
		}
		w.WriteHeader(http.StatusNoContent)
	})

	_, err := dispatcher.Fetch(context.Background(), core.Request{
		Method:  http.MethodPut,
		URL:     server.URL,
		Body:    `"already encoded"`,
		Headers: map[string]string{"Content-Type": "text/plain"},
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
}

func TestFetch_AttachesBearerTokenForTokenType(t *testing.T) {
	seen := make(chan string, 3)
	provider := core.TokenProviderFunc(func(_ context.Context, user *core.UserRef, kind core.TokenType) (string, error) {
		if user == nil || user.ID != "u1" {
			return "", errors.New("unknown user")
		}
		return string(kind) + "-token", nil
	})
	dispatcher, server := newTestDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}, WithTokenProvider(provider))

	user := &core.UserRef{ID: "u1"}
	for _, kind := range []core.TokenType{core.TokenTypeAccess, core.TokenTypeRefresh, core.TokenTypeNone} {
		if _, err := dispatcher.Fetch(context.Background(), core.Request{
			Method:    http.MethodGet,
			URL:       server.URL,
			TokenType: kind,
			User:      user,
		}); err != nil {
			t.Fatalf("fetch %s: %v", kind, err)
		}
	}
	if got := <-seen; got != "Bearer access-token" {
		t.Fatalf("unexpected access authorization %q", got)
	}
	if got := <-seen; got != "Bearer refresh-token" {
		t.Fatalf("unexpected refresh authorization %q", got)
	}
	if got := <-seen; got != "" {
		t.Fatalf("expected no authorization for token type none, got %q", got)
	}

	_, err := dispatcher.Fetch(context.Background(), core.Request{
		Method:    http.MethodGet,
		URL:       server.URL,
		TokenType: core.TokenTypeAccess,
	})
	if !core.IsTransportError(err) {
		t.Fatalf("expected token resolution failure as transport error, got %v", err)
	}
}

func TestCaller_ResponseLimitReturnsTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("12345"))
	}))
	defer server.Close()

	caller := NewCaller(server.Client())
	caller.MaxResponseBodyBytes = 4

	_, err := caller.Do(context.Background(), core.Request{Method: http.MethodGet, URL: server.URL}, nil)
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.TextCode != core.ErrorTextTransport || rich.Category != goerrors.CategoryExternal {
		t.Fatalf("unexpected envelope %q %q", rich.TextCode, rich.Category)
	}
}

func TestCaller_RejectsMissingMethodAndURL(t *testing.T) {
	caller := NewCaller(nil)
	if _, err := caller.Do(context.Background(), core.Request{URL: "https://x"}, nil); !core.IsTransportError(err) {
		t.Fatalf("expected transport error for missing method, got %v", err)
	}
	if _, err := caller.Do(context.Background(), core.Request{Method: "GET"}, nil); !core.IsTransportError(err) {
		t.Fatalf("expected transport error for missing url, got %v", err)
	}
}
