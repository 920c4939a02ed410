package auth

import (
	"strings"

	"github.com/goliatone/go-appclient/core"
)

const (
	ProviderTypeAnonymous    = "anon-user"
	ProviderTypeUserPassword = "local-userpass"
	ProviderTypeAPIKey       = "api-key"
	ProviderTypeCustomToken  = "custom-token"
	ProviderTypeFunction     = "custom-function"
)

func NewAnonymousCredentials() core.Credentials {
	return core.Credentials{
		ProviderType: ProviderTypeAnonymous,
		ProviderName: ProviderTypeAnonymous,
		Payload:      map[string]any{},
	}
}

func NewUsernamePasswordCredentials(username string, password string) core.Credentials {
	return core.Credentials{
		ProviderType: ProviderTypeUserPassword,
		ProviderName: ProviderTypeUserPassword,
		Payload: map[string]any{
			"username": username,
			"password": password,
		},
	}
}

func NewAPIKeyCredentials(key string) core.Credentials {
	return core.Credentials{
		ProviderType: ProviderTypeAPIKey,
		ProviderName: ProviderTypeAPIKey,
		Payload:      map[string]any{"key": key},
	}
}

func NewCustomTokenCredentials(token string) core.Credentials {
	return core.Credentials{
		ProviderType: ProviderTypeCustomToken,
		ProviderName: ProviderTypeCustomToken,
		Payload:      map[string]any{"token": token},
	}
}

// NewFunctionCredentials sends payload to a server-side authentication
// function.
func NewFunctionCredentials(payload map[string]any) core.Credentials {
	return core.Credentials{
		ProviderType: ProviderTypeFunction,
		ProviderName: ProviderTypeFunction,
		Payload:      cloneMetadata(payload),
	}
}

// NewOAuth2RedirectCredentials selects the browser redirect flow for provider
// (for example "google" or "apple"); redirectURL is the page the identity
// provider returns to.
func NewOAuth2RedirectCredentials(provider string, redirectURL string) core.Credentials {
	name := oauth2ProviderName(provider)
	return core.Credentials{
		ProviderType: name,
		ProviderName: name,
		Payload:      map[string]any{core.PayloadKeyRedirectURL: redirectURL},
	}
}

// NewOAuth2AuthCodeCredentials exchanges an authorization code obtained out
// of band through the direct login path.
func NewOAuth2AuthCodeCredentials(provider string, authCode string) core.Credentials {
	name := oauth2ProviderName(provider)
	return core.Credentials{
		ProviderType: name,
		ProviderName: name,
		Payload:      map[string]any{"authCode": authCode},
	}
}

func oauth2ProviderName(provider string) string {
	provider = strings.TrimSpace(provider)
	if strings.HasPrefix(provider, core.ProviderTypeOAuth2Prefix) {
		return provider
	}
	return core.ProviderTypeOAuth2Prefix + "-" + provider
}
