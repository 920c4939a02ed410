package core

import (
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorTextAPI                = "APPCLIENT_API_ERROR"
	ErrorTextTransport          = "APPCLIENT_TRANSPORT_ERROR"
	ErrorTextFlowIncomplete     = "APPCLIENT_AUTH_FLOW_INCOMPLETE"
	ErrorTextFlowRejected       = "APPCLIENT_AUTH_FLOW_REJECTED"
	ErrorTextFlowFailed         = "APPCLIENT_AUTH_FLOW_FAILED"
	ErrorTextBadInput           = "APPCLIENT_BAD_INPUT"
	ErrorTextInternal           = "APPCLIENT_INTERNAL_ERROR"
	ErrorMessageFlowIncomplete  = "authentication was not completed"
	ErrorMessageSessionRequired = "expected a user id and access token in the response"
)

// APIError is a non-success response that carried a JSON error body. Payload
// is the decoded body, passed through uninterpreted.
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	StatusText string
	Payload    any
}

func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	status := fmt.Sprintf("%d", e.StatusCode)
	if text := strings.TrimSpace(e.StatusText); text != "" {
		status += " " + text
	}
	message := ""
	if payload, ok := e.Payload.(map[string]any); ok {
		if value, ok := payload["error"].(string); ok {
			message = value
		}
	}
	if message == "" {
		return fmt.Sprintf("request failed: %s %s: %s", e.Method, e.URL, status)
	}
	return fmt.Sprintf("request failed: %s %s: %s (status %s)", e.Method, e.URL, message, status)
}

// Envelope maps the API error onto a go-errors envelope for callers that
// render or log rich errors.
func (e *APIError) Envelope() *goerrors.Error {
	if e == nil {
		return nil
	}
	return goerrors.New(e.Error(), apiErrorCategory(e.StatusCode)).
		WithCode(e.StatusCode).
		WithTextCode(ErrorTextAPI).
		WithMetadata(map[string]any{
			"method":      e.Method,
			"url":         e.URL,
			"status_code": e.StatusCode,
			"status_text": e.StatusText,
			"payload":     e.Payload,
		})
}

func apiErrorCategory(status int) goerrors.Category {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return goerrors.CategoryBadInput
	case http.StatusUnauthorized:
		return goerrors.CategoryAuth
	case http.StatusForbidden:
		return goerrors.CategoryAuthz
	case http.StatusNotFound:
		return goerrors.CategoryNotFound
	case http.StatusConflict:
		return goerrors.CategoryConflict
	case http.StatusTooManyRequests:
		return goerrors.CategoryRateLimit
	default:
		return goerrors.CategoryExternal
	}
}

// NewTransportError builds a transport error annotated with method and URL.
func NewTransportError(method string, url string, message string, metadata map[string]any) error {
	err := goerrors.New(transportMessage(method, url, message), goerrors.CategoryExternal).
		WithCode(http.StatusBadGateway).
		WithTextCode(ErrorTextTransport)
	err.WithMetadata(transportMetadata(method, url, metadata))
	return err
}

// WrapTransportError wraps any failure that is not already an API error. API
// errors are returned unchanged.
func WrapTransportError(source error, method string, url string, metadata map[string]any) error {
	if source == nil {
		return nil
	}
	var apiErr *APIError
	if goerrors.As(source, &apiErr) {
		return source
	}
	err := goerrors.Wrap(source, goerrors.CategoryExternal, transportWrapMessage(source, method, url)).
		WithCode(http.StatusBadGateway).
		WithTextCode(ErrorTextTransport)
	err.Category = goerrors.CategoryExternal
	err.WithMetadata(transportMetadata(method, url, metadata))
	return err
}

func transportMessage(method string, url string, message string) string {
	return transportPrefix(method, url) + ": " + message
}

// transportWrapMessage builds the message handed to goerrors.Wrap. When the
// chain already holds a *goerrors.Error, Wrap appends that error's message
// itself, so only the context around it is kept here.
func transportWrapMessage(source error, method string, url string) string {
	var rich *goerrors.Error
	if !goerrors.As(source, &rich) {
		return transportMessage(method, url, source.Error())
	}
	full := source.Error()
	if !strings.HasSuffix(full, rich.Error()) {
		return transportPrefix(method, url)
	}
	outer := strings.TrimSuffix(strings.TrimSpace(strings.TrimSuffix(full, rich.Error())), ":")
	if outer == "" {
		return transportPrefix(method, url)
	}
	return transportMessage(method, url, outer)
}

func transportPrefix(method string, url string) string {
	method = strings.TrimSpace(method)
	url = strings.TrimSpace(url)
	if method == "" && url == "" {
		return "request failed"
	}
	return fmt.Sprintf("request failed: %s %s", method, url)
}

func transportMetadata(method string, url string, extra map[string]any) map[string]any {
	metadata := map[string]any{}
	if method != "" {
		metadata["method"] = method
	}
	if url != "" {
		metadata["url"] = url
	}
	for key, value := range extra {
		metadata[key] = value
	}
	return metadata
}

// NewFlowIncompleteError reports an OAuth2 redirect flow that never completed.
func NewFlowIncompleteError(state string, source error) error {
	var err *goerrors.Error
	if source != nil {
		err = goerrors.Wrap(source, goerrors.CategoryOperation, ErrorMessageFlowIncomplete)
		err.Category = goerrors.CategoryOperation
	} else {
		err = goerrors.New(ErrorMessageFlowIncomplete, goerrors.CategoryOperation)
	}
	return err.
		WithCode(http.StatusRequestTimeout).
		WithTextCode(ErrorTextFlowIncomplete).
		WithMetadata(map[string]any{"state": state})
}

// NewFlowRejectedError reports a provider that redirected back with an error.
func NewFlowRejectedError(state string, reason string) error {
	return goerrors.New("authentication was rejected: "+reason, goerrors.CategoryOperation).
		WithCode(http.StatusUnauthorized).
		WithTextCode(ErrorTextFlowRejected).
		WithMetadata(map[string]any{"state": state, "reason": reason})
}

// NewFlowFailedError reports a redirect flow that could not be driven, such as
// a navigator that failed to open the provider URL.
func NewFlowFailedError(state string, message string, source error) error {
	var err *goerrors.Error
	if source != nil {
		err = goerrors.Wrap(source, goerrors.CategoryOperation, message)
		err.Category = goerrors.CategoryOperation
	} else {
		err = goerrors.New(message, goerrors.CategoryOperation)
	}
	return err.
		WithCode(http.StatusInternalServerError).
		WithTextCode(ErrorTextFlowFailed).
		WithMetadata(map[string]any{"state": state})
}

func NewBadInputError(message string) error {
	return goerrors.New(message, goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(ErrorTextBadInput)
}

func NewInternalError(message string) error {
	return goerrors.New(message, goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(ErrorTextInternal)
}

// WrapInternalError keeps source reachable through errors.Is/As. Storage
// failures surface this way.
func WrapInternalError(source error, message string, metadata map[string]any) error {
	if source == nil {
		return nil
	}
	err := goerrors.Wrap(source, goerrors.CategoryInternal, message)
	err.Category = goerrors.CategoryInternal
	err = err.
		WithCode(http.StatusInternalServerError).
		WithTextCode(ErrorTextInternal)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func IsAPIError(err error) bool {
	var apiErr *APIError
	return goerrors.As(err, &apiErr)
}

func IsTransportError(err error) bool {
	return hasTextCode(err, ErrorTextTransport)
}

func IsFlowError(err error) bool {
	return hasTextCode(err, ErrorTextFlowIncomplete) ||
		hasTextCode(err, ErrorTextFlowRejected) ||
		hasTextCode(err, ErrorTextFlowFailed)
}

func IsInternalError(err error) bool {
	return hasTextCode(err, ErrorTextInternal)
}

func hasTextCode(err error, code string) bool {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return false
	}
	return rich.TextCode == code
}
