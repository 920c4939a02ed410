package core

import "testing"

func TestCredentials_OAuth2RedirectURLUsesPrefixMatch(t *testing.T) {
	cases := []struct {
		name     string
		creds    Credentials
		redirect string
		ok       bool
	}{
		{
			name:     "oauth2 google with redirect",
			creds:    Credentials{ProviderType: "oauth2-google", Payload: map[string]any{"redirectUrl": "https://app/cb"}},
			redirect: "https://app/cb",
			ok:       true,
		},
		{
			name:     "namespaced sub provider",
			creds:    Credentials{ProviderType: "oauth2/custom/tenant", Payload: map[string]any{"redirectUrl": ""}},
			redirect: "",
			ok:       true,
		},
		{
			name:  "oauth2 without redirect uses auth code",
			creds: Credentials{ProviderType: "oauth2-google", Payload: map[string]any{"authCode": "c"}},
		},
		{
			name:  "redirect with wrong type",
			creds: Credentials{ProviderType: "oauth2-apple", Payload: map[string]any{"redirectUrl": 42}},
		},
		{
			name:  "non oauth2 provider with redirect",
			creds: Credentials{ProviderType: "local-userpass", Payload: map[string]any{"redirectUrl": "https://app/cb"}},
		},
		{
			name:  "prefix is case sensitive",
			creds: Credentials{ProviderType: "OAuth2-google", Payload: map[string]any{"redirectUrl": "https://app/cb"}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			redirect, ok := tc.creds.OAuth2RedirectURL()
			if ok != tc.ok || redirect != tc.redirect {
				t.Fatalf("expected (%q, %v), got (%q, %v)", tc.redirect, tc.ok, redirect, ok)
			}
		})
	}
}

func TestCredentials_NameDefaultsToProviderType(t *testing.T) {
	if got := (Credentials{ProviderType: "anon-user"}).Name(); got != "anon-user" {
		t.Fatalf("expected provider type fallback, got %q", got)
	}
	if got := (Credentials{ProviderType: "oauth2-google", ProviderName: "google"}).Name(); got != "google" {
		t.Fatalf("expected explicit provider name, got %q", got)
	}
}

func TestAuthResponse_OAuth2Token(t *testing.T) {
	token := AuthResponse{UserID: "u1", AccessToken: "tok", RefreshToken: "ref"}.OAuth2Token()
	if token.AccessToken != "tok" || token.RefreshToken != "ref" || token.Type() != "Bearer" {
		t.Fatalf("unexpected token %#v", token)
	}
	if (AuthResponse{}).HasRefreshToken() {
		t.Fatalf("expected empty refresh token to report absent")
	}
}
