package apierr

import (
	"encoding/json"
	"strings"
)

// ParseEnvelope decodes an HTTP error response body. It understands
// {"error":{"message":..}}, {"error":"..."} and {"message":..}. A body that
// is not JSON yields a ServerError without a message, which Normalize
// reports as FallbackMessage.
func ParseEnvelope(statusCode int, body []byte) *ServerError {
	out := &ServerError{StatusCode: statusCode}

	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		return out
	}

	out.RequestID = stringField(obj, "request_id")

	switch inner := obj["error"].(type) {
	case map[string]any:
		obj = inner
	case string:
		out.Message = strings.TrimSpace(inner)
		out.Code = stringField(obj, "code")
		return out
	}

	out.Message = stringField(obj, "message")
	out.Code = stringField(obj, "code")
	if out.Code == "" {
		out.Code = stringField(obj, "error_code")
	}
	if out.RequestID == "" {
		out.RequestID = stringField(obj, "request_id")
	}
	return out
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return strings.TrimSpace(s)
}
