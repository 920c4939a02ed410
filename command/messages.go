package command

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/goliatone/go-appclient/core"
)

const (
	TypeAuthenticate     = "appclient.command.authenticate"
	TypeCompleteRedirect = "appclient.command.oauth2.complete_redirect"
	TypeFetch            = "appclient.command.fetch"
)

// AuthenticateMessage logs in with Credentials. A non-nil Link links the new
// identity to that user.
type AuthenticateMessage struct {
	Credentials core.Credentials
	Link        *core.UserRef
}

func (AuthenticateMessage) Type() string { return TypeAuthenticate }

func (m AuthenticateMessage) Validate() error {
	if strings.TrimSpace(m.Credentials.ProviderType) == "" {
		return commandValidationError("credentials.provider_type", "provider type is required")
	}
	if m.Link != nil && strings.TrimSpace(m.Link.ID) == "" {
		return commandValidationError("link.id", "link user id is required")
	}
	return nil
}

// CompleteRedirectMessage carries the URL the identity provider redirected the
// user agent back to.
type CompleteRedirectMessage struct {
	CallbackURL string
}

func (CompleteRedirectMessage) Type() string { return TypeCompleteRedirect }

func (m CompleteRedirectMessage) Validate() error {
	raw := strings.TrimSpace(m.CallbackURL)
	if raw == "" {
		return commandValidationError("callback_url", "callback url is required")
	}
	if _, err := url.Parse(raw); err != nil {
		return commandValidationError("callback_url", "callback url is invalid")
	}
	return nil
}

type FetchMessage struct {
	Request core.Request
}

func (FetchMessage) Type() string { return TypeFetch }

func (m FetchMessage) Validate() error {
	if strings.TrimSpace(m.Request.URL) == "" {
		return commandValidationError("request.url", "request url is required")
	}
	method := strings.ToUpper(strings.TrimSpace(m.Request.Method))
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions:
		return nil
	default:
		return commandValidationError("request.method", "request method is not supported")
	}
}

// RedirectCompletion reports which pending flow a callback completed.
type RedirectCompletion struct {
	State string
}
