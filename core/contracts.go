package core

import (
	"context"
	"net/http"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

// HTTPDoer is the HTTP capability the dispatcher performs calls with.
// *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Storage is a shared key/value capability. Implementations must be safe for
// concurrent use; callers must not assume exclusive access.
type Storage interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value string) error
	Remove(ctx context.Context, key string) error
}

// AppURLSupplier resolves the application's base URL. It may perform a network
// round-trip and is invoked on every login.
type AppURLSupplier interface {
	AppURL(ctx context.Context) (string, error)
}

type AppURLFunc func(ctx context.Context) (string, error)

func (fn AppURLFunc) AppURL(ctx context.Context) (string, error) {
	if fn == nil {
		return "", nil
	}
	url, err := fn(ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(strings.TrimSpace(url), "/"), nil
}

type StaticAppURL string

func (u StaticAppURL) AppURL(context.Context) (string, error) {
	return strings.TrimRight(strings.TrimSpace(string(u)), "/"), nil
}

// TokenProvider returns the bearer token a request should carry for user.
type TokenProvider interface {
	BearerToken(ctx context.Context, user *UserRef, kind TokenType) (string, error)
}

type TokenProviderFunc func(ctx context.Context, user *UserRef, kind TokenType) (string, error)

func (fn TokenProviderFunc) BearerToken(ctx context.Context, user *UserRef, kind TokenType) (string, error) {
	if fn == nil {
		return "", nil
	}
	return fn(ctx, user, kind)
}

// Navigator sends the user agent to the provider URL of an OAuth2 redirect
// flow. Opening browsers or windows is left to the implementation.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

type NavigatorFunc func(ctx context.Context, url string) error

func (fn NavigatorFunc) Navigate(ctx context.Context, url string) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, url)
}
