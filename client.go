package appclient

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/goliatone/go-appclient/auth"
	"github.com/goliatone/go-appclient/command"
	"github.com/goliatone/go-appclient/core"
	"github.com/goliatone/go-appclient/transport"
	glog "github.com/goliatone/go-logger/glog"
)

type Config = core.Config

type Request = core.Request
type RawResponse = core.RawResponse
type AuthResponse = core.AuthResponse
type Credentials = core.Credentials
type UserRef = core.UserRef
type APIError = core.APIError

func DefaultConfig() Config {
	return core.DefaultConfig()
}

// Client is the authenticated request pipeline: a dispatcher for classified
// calls, an authenticator for logins, and the OAuth2 redirect flow.
type Client struct {
	config        Config
	logger        core.Logger
	storage       core.Storage
	dispatcher    *transport.Dispatcher
	authenticator *auth.Authenticator
	flow          *auth.RedirectFlow
	sessions      *auth.SessionTokens
	commands      Commands
}

// Commands exposes the client operations as go-command handlers.
type Commands struct {
	Authenticate     *command.AuthenticateCommand
	CompleteRedirect *command.CompleteRedirectCommand
	Fetch            *command.FetchCommand
}

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	builder := clientBuilder{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	resolved, err := core.LoadConfig(context.Background(), cfg, builder.configProvider, builder.optionsResolver)
	if err != nil {
		return nil, err
	}

	provider, logger := glog.Resolve("appclient", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger(resolved.ClientName); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.httpClient == nil {
		builder.httpClient = &http.Client{}
	}
	if builder.storage == nil {
		builder.storage = core.NewMemoryStorage(resolved.OAuth.FlowTimeout())
	}
	if builder.appURL == nil {
		builder.appURL = core.StaticAppURL(resolved.BaseURL)
	}

	sessions := auth.NewSessionTokens()
	tokens := builder.tokens
	if tokens == nil {
		tokens = sessions
	}

	caller := transport.NewCaller(builder.httpClient)
	caller.MaxResponseBodyBytes = resolved.MaxResponseBodyBytes
	dispatcher := transport.NewDispatcher(caller,
		transport.WithLogger(logger),
		transport.WithTokenProvider(tokens),
		transport.WithDefaultTimeout(resolved.RequestTimeout()),
	)

	flowOpts := []auth.RedirectFlowOption{auth.WithRedirectFlowLogger(logger)}
	if builder.navigator != nil {
		flowOpts = append(flowOpts, auth.WithNavigator(builder.navigator))
	}
	flow := auth.NewRedirectFlow(builder.storage, builder.appURL, auth.RedirectFlowConfig{
		PollInterval: resolved.OAuth.PollInterval(),
		Timeout:      resolved.OAuth.FlowTimeout(),
		KeyPrefix:    resolved.OAuth.Prefix(),
	}, flowOpts...)

	authenticator := auth.NewAuthenticator(dispatcher, builder.appURL,
		auth.WithAuthenticatorLogger(logger),
		auth.WithRedirectFlow(flow),
	)

	client := &Client{
		config:        resolved,
		logger:        logger,
		storage:       builder.storage,
		dispatcher:    dispatcher,
		authenticator: authenticator,
		flow:          flow,
		sessions:      sessions,
	}
	client.commands = Commands{
		Authenticate:     command.NewAuthenticateCommand(authenticator, sessions),
		CompleteRedirect: command.NewCompleteRedirectCommand(flow),
		Fetch:            command.NewFetchCommand(dispatcher),
	}
	return client, nil
}

func (c *Client) Config() Config {
	if c == nil {
		return Config{}
	}
	return c.config
}

// Fetch performs req and returns the JSON value of a successful response, nil
// for an empty one.
func (c *Client) Fetch(ctx context.Context, req Request) (json.RawMessage, error) {
	if c == nil || c.dispatcher == nil {
		return nil, core.NewInternalError("appclient: client is not configured")
	}
	return c.dispatcher.Fetch(ctx, req)
}

// FetchWithCallbacks performs req in the background and reports the raw
// response, or the failure, to handler exactly once.
func (c *Client) FetchWithCallbacks(ctx context.Context, req Request, handler transport.CallbackHandler) {
	if c == nil || c.dispatcher == nil {
		if handler != nil {
			go handler.OnError(core.NewInternalError("appclient: client is not configured"))
		}
		return
	}
	c.dispatcher.FetchWithCallbacks(ctx, req, handler)
}

// Authenticate logs in and records the session so later requests for the
// user can carry its tokens.
func (c *Client) Authenticate(ctx context.Context, creds Credentials, link *UserRef) (AuthResponse, error) {
	if c == nil || c.authenticator == nil {
		return AuthResponse{}, core.NewInternalError("appclient: client is not configured")
	}
	session, err := c.authenticator.Authenticate(ctx, creds, link)
	if err != nil {
		return AuthResponse{}, err
	}
	c.sessions.Put(session)
	return session, nil
}

// CompleteRedirect hands the identity provider's callback URL to the waiting
// redirect flow and returns the state it completed.
func (c *Client) CompleteRedirect(ctx context.Context, callbackURL string) (string, error) {
	if c == nil || c.flow == nil {
		return "", core.NewInternalError("appclient: client is not configured")
	}
	return c.flow.Complete(ctx, callbackURL)
}

func (c *Client) Sessions() *auth.SessionTokens {
	if c == nil {
		return nil
	}
	return c.sessions
}

func (c *Client) Commands() Commands {
	if c == nil {
		return Commands{}
	}
	return c.commands
}

// FetchAndParse performs req and decodes the successful JSON value into T.
func FetchAndParse[T any](ctx context.Context, c *Client, req Request) (T, error) {
	var zero T
	if c == nil || c.dispatcher == nil {
		return zero, core.NewInternalError("appclient: client is not configured")
	}
	return transport.FetchAndParse[T](ctx, c.dispatcher, req)
}
