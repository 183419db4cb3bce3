package signing

import (
	"fmt"
	"net/http"
)

// Apply signs req and sets the signature, timestamp and nonce headers.
// body is the exact request body that will be sent (nil for none). The
// request is otherwise left untouched.
func (e *Engine) Apply(req *http.Request, body []byte) (Outcome, error) {
	var payload any
	if len(body) > 0 {
		payload = body
	}

	env, outcome, err := e.Sign(req.Context(), req.Method, req.URL.RequestURI(), payload)
	if err != nil {
		return OutcomeUnsigned, fmt.Errorf("sign request: %w", err)
	}
	if outcome == OutcomeSigned {
		for k, v := range env.Headers() {
			req.Header.Set(k, v)
		}
	}
	return outcome, nil
}
