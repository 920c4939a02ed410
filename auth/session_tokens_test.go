package auth

import (
	"context"
	"testing"

	"github.com/goliatone/go-appclient/core"
)

func TestSessionTokensServeBearerTokens(t *testing.T) {
	tokens := NewSessionTokens()
	tokens.Put(core.AuthResponse{UserID: "u1", AccessToken: "a1", RefreshToken: "r1"})
	user := &core.UserRef{ID: "u1"}
	ctx := context.Background()

	access, err := tokens.BearerToken(ctx, user, core.TokenTypeAccess)
	if err != nil || access != "a1" {
		t.Fatalf("access token = %q, %v", access, err)
	}
	refresh, err := tokens.BearerToken(ctx, user, core.TokenTypeRefresh)
	if err != nil || refresh != "r1" {
		t.Fatalf("refresh token = %q, %v", refresh, err)
	}
	none, err := tokens.BearerToken(ctx, nil, core.TokenTypeNone)
	if err != nil || none != "" {
		t.Fatalf("none token = %q, %v", none, err)
	}
}

func TestSessionTokensMissingSession(t *testing.T) {
	tokens := NewSessionTokens()
	tokens.Put(core.AuthResponse{UserID: "u1", AccessToken: "a1"})
	ctx := context.Background()

	if _, err := tokens.BearerToken(ctx, &core.UserRef{ID: "u2"}, core.TokenTypeAccess); err == nil {
		t.Fatalf("expected error for unknown user")
	}
	if _, err := tokens.BearerToken(ctx, &core.UserRef{ID: "u1"}, core.TokenTypeRefresh); err == nil {
		t.Fatalf("expected error when no refresh token was issued")
	}
	if _, err := tokens.BearerToken(ctx, nil, core.TokenTypeAccess); err == nil {
		t.Fatalf("expected error without user")
	}

	tokens.Remove("u1")
	if _, ok := tokens.Get("u1"); ok {
		t.Fatalf("expected session to be removed")
	}
}

func TestSessionTokensTokenSource(t *testing.T) {
	tokens := NewSessionTokens()
	tokens.Put(core.AuthResponse{UserID: "u1", AccessToken: "a1", RefreshToken: "r1"})

	token, err := tokens.TokenSource("u1").Token()
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if token.AccessToken != "a1" || token.RefreshToken != "r1" || token.Type() != "Bearer" {
		t.Fatalf("unexpected token %#v", token)
	}
	if _, err := tokens.TokenSource("missing").Token(); err == nil {
		t.Fatalf("expected error for missing session")
	}
}
