package command

import (
	"context"
	"encoding/json"

	"github.com/goliatone/go-appclient/core"
	gocmd "github.com/goliatone/go-command"
)

type Authenticator interface {
	Authenticate(ctx context.Context, creds core.Credentials, link *core.UserRef) (core.AuthResponse, error)
}

type RedirectCompleter interface {
	Complete(ctx context.Context, callbackURL string) (string, error)
}

type Fetcher interface {
	Fetch(ctx context.Context, req core.Request) (json.RawMessage, error)
}

// SessionRecorder receives every session a successful AuthenticateCommand
// produces.
type SessionRecorder interface {
	Put(session core.AuthResponse)
}

type AuthenticateCommand struct {
	authenticator Authenticator
	sessions      SessionRecorder
}

func NewAuthenticateCommand(authenticator Authenticator, sessions SessionRecorder) *AuthenticateCommand {
	return &AuthenticateCommand{authenticator: authenticator, sessions: sessions}
}

func (c *AuthenticateCommand) Execute(ctx context.Context, msg AuthenticateMessage) error {
	if c == nil || c.authenticator == nil {
		return commandDependencyError("command: authenticator is required")
	}
	if err := gocmd.ValidateMessage(msg); err != nil {
		return err
	}
	out, err := c.authenticator.Authenticate(ctx, msg.Credentials, msg.Link)
	if err != nil {
		return err
	}
	if c.sessions != nil {
		c.sessions.Put(out)
	}
	storeResult(ctx, out)
	return nil
}

type CompleteRedirectCommand struct {
	completer RedirectCompleter
}

func NewCompleteRedirectCommand(completer RedirectCompleter) *CompleteRedirectCommand {
	return &CompleteRedirectCommand{completer: completer}
}

func (c *CompleteRedirectCommand) Execute(ctx context.Context, msg CompleteRedirectMessage) error {
	if c == nil || c.completer == nil {
		return commandDependencyError("command: redirect flow is required")
	}
	if err := gocmd.ValidateMessage(msg); err != nil {
		return err
	}
	state, err := c.completer.Complete(ctx, msg.CallbackURL)
	if err != nil {
		return err
	}
	storeResult(ctx, RedirectCompletion{State: state})
	return nil
}

type FetchCommand struct {
	fetcher Fetcher
}

func NewFetchCommand(fetcher Fetcher) *FetchCommand {
	return &FetchCommand{fetcher: fetcher}
}

func (c *FetchCommand) Execute(ctx context.Context, msg FetchMessage) error {
	if c == nil || c.fetcher == nil {
		return commandDependencyError("command: fetcher is required")
	}
	if err := gocmd.ValidateMessage(msg); err != nil {
		return err
	}
	out, err := c.fetcher.Fetch(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
