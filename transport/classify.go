package transport

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-appclient/core"
)

const contentTypeJSON = "application/json"

// Classify maps a response onto exactly one outcome. Precedence:
//
//	2xx, no content-type        -> empty
//	2xx, application/json       -> json (malformed body -> transport error)
//	2xx, other content-type     -> transport error
//	non-2xx, application/json   -> api error with decoded payload
//	non-2xx, other/no type      -> transport error with status
func Classify(res Response) core.Classification {
	contentType := strings.TrimSpace(res.Header.Get("Content-Type"))
	isJSON := strings.HasPrefix(strings.ToLower(contentType), contentTypeJSON)

	if res.OK() {
		switch {
		case contentType == "":
			return core.Classification{Kind: core.ResultEmpty, StatusCode: res.StatusCode}
		case isJSON:
			if !json.Valid(res.Body) {
				return core.Classification{
					Kind:       core.ResultTransportError,
					StatusCode: res.StatusCode,
					Message:    "malformed JSON response",
				}
			}
			return core.Classification{
				Kind:       core.ResultJSON,
				StatusCode: res.StatusCode,
				Value:      json.RawMessage(append([]byte(nil), res.Body...)),
			}
		default:
			return core.Classification{
				Kind:       core.ResultTransportError,
				StatusCode: res.StatusCode,
				Message:    fmt.Sprintf("expected empty or JSON response, got %q", contentType),
			}
		}
	}

	if isJSON {
		var payload any
		if err := json.Unmarshal(res.Body, &payload); err != nil {
			return core.Classification{
				Kind:       core.ResultTransportError,
				StatusCode: res.StatusCode,
				StatusText: res.StatusText,
				Message:    fmt.Sprintf("%s: malformed JSON error response: %v", statusSummary(res.StatusCode, res.StatusText), err),
			}
		}
		return core.Classification{
			Kind:       core.ResultAPIError,
			StatusCode: res.StatusCode,
			StatusText: res.StatusText,
			Payload:    payload,
		}
	}

	return core.Classification{
		Kind:       core.ResultTransportError,
		StatusCode: res.StatusCode,
		StatusText: res.StatusText,
		Message:    statusSummary(res.StatusCode, res.StatusText),
	}
}
