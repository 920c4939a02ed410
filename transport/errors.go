package transport

import (
	"fmt"
	"net/http"

	"github.com/goliatone/go-appclient/core"
)

// classificationError converts a failed classification into the error the
// caller receives: an *core.APIError for JSON error bodies, a transport error
// otherwise.
func classificationError(method string, url string, result core.Classification) error {
	switch result.Kind {
	case core.ResultAPIError:
		return &core.APIError{
			Method:     method,
			URL:        url,
			StatusCode: result.StatusCode,
			StatusText: result.StatusText,
			Payload:    result.Payload,
		}
	case core.ResultTransportError:
		metadata := map[string]any{}
		if result.StatusCode != 0 {
			metadata["status_code"] = result.StatusCode
		}
		return core.NewTransportError(method, url, result.Message, metadata)
	default:
		return core.NewTransportError(method, url,
			fmt.Sprintf("unexpected classification %q", result.Kind),
			map[string]any{"status_code": result.StatusCode},
		)
	}
}

func statusSummary(code int, text string) string {
	if text == "" {
		text = http.StatusText(code)
	}
	if text == "" {
		return fmt.Sprintf("%d", code)
	}
	return fmt.Sprintf("%d %s", code, text)
}
