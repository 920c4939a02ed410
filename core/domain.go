package core

import (
	"encoding/json"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

type TokenType string

const (
	TokenTypeNone    TokenType = "none"
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// UserRef identifies the user whose token a request should be authorized with.
type UserRef struct {
	ID string
}

// Request describes one outbound call. Body strings and byte slices are sent
// verbatim, nil sends no body, and any other value is JSON encoded. A zero
// Timeout arms no cancellation timer.
type Request struct {
	Method    string
	URL       string
	Body      any
	Headers   map[string]string
	Timeout   time.Duration
	TokenType TokenType
	User      *UserRef
}

// RawResponse is the unclassified wire-level result of a call.
type RawResponse struct {
	StatusCode int
	StatusText string
	Headers    map[string]string
	Body       string
}

type ResultKind string

const (
	ResultEmpty          ResultKind = "empty"
	ResultJSON           ResultKind = "json"
	ResultAPIError       ResultKind = "api_error"
	ResultTransportError ResultKind = "transport_error"
)

// Classification is the outcome of inspecting a response. Only the fields
// belonging to Kind are populated.
type Classification struct {
	Kind       ResultKind
	Value      json.RawMessage
	StatusCode int
	StatusText string
	Payload    any
	Message    string
}

// AuthResponse is a session. UserID and AccessToken are always non-empty on a
// successful login; an empty RefreshToken means the service issued none.
type AuthResponse struct {
	UserID       string
	AccessToken  string
	RefreshToken string
	DeviceID     string
}

func (r AuthResponse) HasRefreshToken() bool {
	return strings.TrimSpace(r.RefreshToken) != ""
}

func (r AuthResponse) OAuth2Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		TokenType:    "Bearer",
	}
}

const (
	ProviderTypeOAuth2Prefix = "oauth2"
	PayloadKeyRedirectURL    = "redirectUrl"
)

// Credentials pairs a provider type tag with provider specific payload.
// ProviderName selects the login route and defaults to ProviderType.
type Credentials struct {
	ProviderType string
	ProviderName string
	Payload      map[string]any
}

func (c Credentials) Name() string {
	if name := strings.TrimSpace(c.ProviderName); name != "" {
		return name
	}
	return strings.TrimSpace(c.ProviderType)
}

// OAuth2RedirectURL reports whether the credentials select the browser
// redirect flow: the provider type is in the oauth2 family (prefix match, so
// namespaced sub-providers qualify) and the payload carries a string
// redirectUrl.
func (c Credentials) OAuth2RedirectURL() (string, bool) {
	if !strings.HasPrefix(c.ProviderType, ProviderTypeOAuth2Prefix) {
		return "", false
	}
	redirectURL, ok := c.Payload[PayloadKeyRedirectURL].(string)
	if !ok {
		return "", false
	}
	return redirectURL, true
}
