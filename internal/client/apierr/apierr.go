package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/dmitrijs2005/cardkeeper/internal/logging"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FallbackMessage is shown when no server-declared message is available.
const FallbackMessage = "Network error. Please check your connection and try again."

type Kind int

const (
	KindTransport Kind = iota + 1
	KindServerRejection
	KindValidation
	KindSilentBackground
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindServerRejection:
		return "server_rejection"
	case KindValidation:
		return "validation"
	case KindSilentBackground:
		return "silent_background"
	default:
		return "unknown"
	}
}

// ServerError is a structured rejection returned by the remote API.
type ServerError struct {
	StatusCode int
	Code       string
	Message    string
	RequestID  string
}

func (e *ServerError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("api error: status=%d code=%s message=%s", e.StatusCode, e.Code, e.Message)
}

// ValidationError reports malformed user input before any call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Validation builds a ValidationError.
func Validation(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

type backgroundError struct {
	err error
}

func (e *backgroundError) Error() string { return "background: " + e.err.Error() }
func (e *backgroundError) Unwrap() error { return e.err }

// Background marks err as the failure of a best-effort call. Nil stays nil.
func Background(err error) error {
	if err == nil {
		return nil
	}
	return &backgroundError{err: err}
}

// Classify places err in the taxonomy. Nil errors have no kind (0).
func Classify(err error) Kind {
	if err == nil {
		return 0
	}

	var bg *backgroundError
	if errors.As(err, &bg) {
		return KindSilentBackground
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return KindValidation
	}

	var se *ServerError
	if errors.As(err, &se) {
		return KindServerRejection
	}

	if _, ok := rpcRejection(err); ok {
		return KindServerRejection
	}

	return KindTransport
}

// Normalize returns the single user-facing message for err.
func Normalize(err error) (msg string) {
	if err == nil {
		return ""
	}

	defer func() {
		if recover() != nil {
			msg = FallbackMessage
		}
	}()

	var se *ServerError
	if errors.As(err, &se) && se != nil {
		if m := strings.TrimSpace(se.Message); m != "" {
			return m
		}
		return FallbackMessage
	}

	var ve *ValidationError
	if errors.As(err, &ve) && ve != nil && ve.Message != "" {
		return ve.Message
	}

	if st, ok := rpcRejection(err); ok {
		return st.Message()
	}

	return FallbackMessage
}

// Report applies the propagation policy: background failures are noted at
// debug level and swallowed, everything else is logged and its normalized
// message returned with surface set to true.
func Report(ctx context.Context, log logging.Logger, err error) (msg string, surface bool) {
	if err == nil {
		return "", false
	}

	kind := Classify(err)
	if kind == KindSilentBackground {
		log.Debug(ctx, "background call failed", "error", err)
		return "", false
	}

	log.Warn(ctx, "call failed", "kind", kind.String(), "error", err)
	return Normalize(err), true
}

// IsUnauthorized reports whether err means the credential was rejected.
func IsUnauthorized(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, common.ErrorUnauthorized) || errors.Is(err, common.ErrInvalidToken) || errors.Is(err, common.ErrTokenExpired) {
		return true
	}

	var se *ServerError
	if errors.As(err, &se) && se != nil {
		return se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden
	}

	if st, ok := status.FromError(err); ok {
		return st.Code() == codes.Unauthenticated || st.Code() == codes.PermissionDenied
	}
	return false
}

// rpcRejection returns the gRPC status of err when it is a server-side
// rejection with a message, as opposed to a transport-level code.
func rpcRejection(err error) (*status.Status, bool) {
	st, ok := status.FromError(err)
	if !ok || st == nil {
		return nil, false
	}
	switch st.Code() {
	case codes.OK, codes.Unavailable, codes.DeadlineExceeded, codes.Canceled, codes.Unknown:
		return nil, false
	}
	if strings.TrimSpace(st.Message()) == "" {
		return nil, false
	}
	return st, true
}
