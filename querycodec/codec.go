// Package querycodec encodes scalar parameter maps into URL query strings and
// decodes query strings and redirect fragments back into flat maps.
package querycodec

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Encode renders params as "k=v" pairs joined with "&". Keys are sorted so the
// output is deterministic. Entries whose value is nil, or whose key is empty,
// are omitted entirely.
func Encode(params map[string]any) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for key, value := range params {
		if value == nil || key == "" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, escape(key)+"="+escape(formatScalar(params[key])))
	}
	return strings.Join(parts, "&")
}

// EncodeURL appends the encoded params to base. An empty parameter set returns
// base unmodified.
func EncodeURL(base string, params map[string]any) string {
	encoded := Encode(params)
	if encoded == "" {
		return base
	}
	separator := "?"
	if strings.Contains(base, "?") {
		separator = "&"
		if strings.HasSuffix(base, "?") || strings.HasSuffix(base, "&") {
			separator = ""
		}
	}
	return base + separator + encoded
}

// Decode parses a query string or URL fragment. A leading "?" or "#" is
// ignored. Keys without "=" decode to the empty string, and segments that are
// not valid percent-encoding are kept verbatim.
func Decode(raw string) map[string]string {
	out := map[string]string{}
	raw = strings.TrimLeft(raw, "?#")
	if raw == "" {
		return out
	}
	for _, segment := range strings.Split(raw, "&") {
		if segment == "" {
			continue
		}
		key, value, _ := strings.Cut(segment, "=")
		key = unescape(key)
		if key == "" {
			continue
		}
		out[key] = unescape(value)
	}
	return out
}

func escape(value string) string {
	return strings.ReplaceAll(url.QueryEscape(value), "+", "%20")
}

func unescape(value string) string {
	decoded, err := url.QueryUnescape(value)
	if err != nil {
		return value
	}
	return decoded
}

func formatScalar(value any) string {
	switch typed := value.(type) {
	case string:
		return typed
	case bool:
		return strconv.FormatBool(typed)
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	case int32:
		return strconv.FormatInt(int64(typed), 10)
	case uint:
		return strconv.FormatUint(uint64(typed), 10)
	case uint64:
		return strconv.FormatUint(typed, 10)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(typed), 'f', -1, 32)
	case fmt.Stringer:
		return typed.String()
	default:
		return fmt.Sprint(typed)
	}
}
