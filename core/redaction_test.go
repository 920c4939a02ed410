package core

import "testing"

func TestRedactSensitiveMapMasksCredentialPayload(t *testing.T) {
	redacted := RedactSensitiveMap(map[string]any{
		"username":    "ada",
		"password":    "hunter2",
		"redirectUrl": "https://myapp.example.com/cb",
		"authCode":    "code-1",
		"key":         "api-key-1",
		"nested":      map[string]any{"refresh_token": "refresh", "user_id": "u1"},
		"events":      []any{map[string]any{"token": "t1"}, map[string]any{"state": "s1"}},
	})

	if redacted["username"] != "ada" {
		t.Fatalf("expected username to remain visible, got %#v", redacted["username"])
	}
	if redacted["redirectUrl"] != "https://myapp.example.com/cb" {
		t.Fatalf("expected redirectUrl to remain visible, got %#v", redacted["redirectUrl"])
	}
	for _, key := range []string{"password", "authCode", "key"} {
		if redacted[key] != RedactedValue {
			t.Fatalf("expected %s to be redacted, got %#v", key, redacted[key])
		}
	}
	nested, ok := redacted["nested"].(map[string]any)
	if !ok {
		t.Fatalf("expected nested redacted map")
	}
	if nested["refresh_token"] != RedactedValue || nested["user_id"] != "u1" {
		t.Fatalf("unexpected nested redaction %#v", nested)
	}
	events, ok := redacted["events"].([]any)
	if !ok || events[0].(map[string]any)["token"] != RedactedValue || events[1].(map[string]any)["state"] != "s1" {
		t.Fatalf("unexpected list redaction %#v", redacted["events"])
	}
}

func TestRedactHeadersMasksAuthorization(t *testing.T) {
	headers := map[string]string{
		"Authorization": "Bearer tok",
		"Content-Type":  "application/json",
		"X-Api-Key":     "k",
	}
	redacted := RedactHeaders(headers)
	if redacted["Authorization"] != RedactedValue || redacted["X-Api-Key"] != RedactedValue {
		t.Fatalf("expected secrets to be redacted, got %#v", redacted)
	}
	if redacted["Content-Type"] != "application/json" {
		t.Fatalf("expected content type to remain visible")
	}
	if headers["Authorization"] != "Bearer tok" {
		t.Fatalf("redaction mutated the input headers")
	}
}
