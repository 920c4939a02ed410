package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/goliatone/go-appclient/core"
	"github.com/goliatone/go-appclient/querycodec"
	glog "github.com/goliatone/go-logger/glog"
)

// Fetcher performs a classified request. *transport.Dispatcher satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, req core.Request) (json.RawMessage, error)
}

type AuthenticatorOption func(*Authenticator)

func WithAuthenticatorLogger(logger core.Logger) AuthenticatorOption {
	return func(a *Authenticator) {
		a.logger = logger
	}
}

// WithRedirectFlow enables the OAuth2 browser redirect path.
func WithRedirectFlow(flow *RedirectFlow) AuthenticatorOption {
	return func(a *Authenticator) {
		a.flow = flow
	}
}

// Authenticator turns credentials into a session.
type Authenticator struct {
	fetcher Fetcher
	appURL  core.AppURLSupplier
	flow    *RedirectFlow
	logger  core.Logger
}

func NewAuthenticator(fetcher Fetcher, appURL core.AppURLSupplier, opts ...AuthenticatorOption) *Authenticator {
	a := &Authenticator{
		fetcher: fetcher,
		appURL:  appURL,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(a)
	}
	a.logger = glog.Ensure(a.logger)
	return a
}

// Authenticate logs in with creds. When link is set the new identity is linked
// to that user and the request is authorized with the user's access token.
//
// OAuth2 credentials carrying a string redirectUrl run the redirect flow and
// never issue a direct login request.
func (a *Authenticator) Authenticate(ctx context.Context, creds core.Credentials, link *core.UserRef) (core.AuthResponse, error) {
	if a == nil {
		return core.AuthResponse{}, core.NewInternalError("auth: authenticator is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if _, ok := creds.OAuth2RedirectURL(); ok {
		if a.flow == nil {
			return core.AuthResponse{}, core.NewInternalError("auth: oauth2 redirect flow is not configured")
		}
		a.logger.Debug("authenticating through oauth2 redirect", "provider", creds.Name())
		return a.flow.Run(ctx, creds, link)
	}
	return a.login(ctx, creds, link)
}

func (a *Authenticator) login(ctx context.Context, creds core.Credentials, link *core.UserRef) (core.AuthResponse, error) {
	if a.fetcher == nil {
		return core.AuthResponse{}, core.NewInternalError("auth: fetcher is not configured")
	}
	if a.appURL == nil {
		return core.AuthResponse{}, core.NewInternalError("auth: app url supplier is not configured")
	}
	name := creds.Name()
	if name == "" {
		return core.AuthResponse{}, core.NewBadInputError("auth: credentials provider type is required")
	}

	baseURL, err := a.appURL.AppURL(ctx)
	if err != nil {
		return core.AuthResponse{}, core.WrapTransportError(err, "", "", map[string]any{"stage": "resolve_app_url"})
	}
	if strings.TrimSpace(baseURL) == "" {
		return core.AuthResponse{}, core.NewBadInputError("auth: app url is required")
	}

	params := map[string]any{}
	tokenType := core.TokenTypeNone
	if link != nil {
		params["link"] = true
		tokenType = core.TokenTypeAccess
	}
	loginURL := querycodec.EncodeURL(providerLoginURL(baseURL, name), params)

	body := creds.Payload
	if body == nil {
		body = map[string]any{}
	}
	a.logger.Debug("logging in", "provider", name, "url", loginURL, "payload", core.RedactSensitiveMap(body))
	raw, err := a.fetcher.Fetch(ctx, core.Request{
		Method:    http.MethodPost,
		URL:       loginURL,
		Body:      body,
		TokenType: tokenType,
		User:      link,
	})
	if err != nil {
		return core.AuthResponse{}, err
	}

	session, err := DecodeSession(raw)
	if err != nil {
		return core.AuthResponse{}, core.NewTransportError(http.MethodPost, loginURL, err.Error(), nil)
	}
	a.logger.Info("authenticated", "provider", name, "user_id", session.UserID, "linked", link != nil)
	return session, nil
}
