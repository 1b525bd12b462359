package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel kinds. Callers classify failures with errors.Is so that an invalid
// proof or a bad OAuth code is distinguishable from a transient upstream
// outage.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrVerificationFailed  = errors.New("verification failed")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrUpstreamRejected    = errors.New("upstream rejected")
	ErrNotFound            = errors.New("not found")
)

// InvalidInputf reports a malformed or missing caller-supplied field.
func InvalidInputf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// VerificationFailedf reports a proof that did validate as false, where the
// caller asked for an error form rather than a boolean.
func VerificationFailedf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrVerificationFailed, fmt.Sprintf(format, args...))
}

// UpstreamUnavailable wraps a network/RPC/API transport failure. Retryable.
func UpstreamUnavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUpstreamUnavailable, op, err)
}

// UpstreamRejected reports an explicit upstream refusal, such as a provider
// declining an authorization code. Not retryable without new input.
func UpstreamRejected(op string, detail string) error {
	return fmt.Errorf("%w: %s: %s", ErrUpstreamRejected, op, detail)
}

// NotFoundf reports an absent referenced record.
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// StatusCode maps an error to the HTTP status the handlers respond with.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrVerificationFailed):
		return http.StatusUnauthorized
	case errors.Is(err, ErrUpstreamRejected):
		return http.StatusBadGateway
	case errors.Is(err, ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
