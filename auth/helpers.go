package auth

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-appclient/core"
)

func providerLoginURL(baseURL string, providerName string) string {
	return strings.TrimRight(baseURL, "/") + "/auth/providers/" + url.PathEscape(providerName) + "/login"
}

// DecodeSession validates a login response body. user_id and access_token
// must be non-empty strings; refresh_token and device_id are optional.
func DecodeSession(raw []byte) (core.AuthResponse, error) {
	var fields map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &fields); err != nil {
			return core.AuthResponse{}, fmt.Errorf("%s: %w", core.ErrorMessageSessionRequired, err)
		}
	}
	userID, okUser := readString(fields, "user_id")
	accessToken, okAccess := readString(fields, "access_token")
	if !okUser || !okAccess {
		return core.AuthResponse{}, fmt.Errorf("%s", core.ErrorMessageSessionRequired)
	}
	refreshToken, _ := readString(fields, "refresh_token")
	deviceID, _ := readString(fields, "device_id")
	return core.AuthResponse{
		UserID:       userID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		DeviceID:     deviceID,
	}, nil
}

func readString(fields map[string]any, key string) (string, bool) {
	value, ok := fields[key]
	if !ok || value == nil {
		return "", false
	}
	typed, ok := value.(string)
	if !ok || typed == "" {
		return "", false
	}
	return typed, true
}

func cloneMetadata(metadata map[string]any) map[string]any {
	if len(metadata) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(metadata))
	for key, value := range metadata {
		out[key] = value
	}
	return out
}
