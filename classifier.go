package goSession

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// StatusError is a structured non-2xx backend response. restapi.Client
// produces these; the classifier consumes them ahead of any message
// inspection.
type StatusError struct {
	Code    int
	Message string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend status %d", e.Code)
	}
	return fmt.Sprintf("backend status %d: %s", e.Code, e.Message)
}

// connectivity keywords retained as a compatibility shim for errors that
// arrive without structured evidence (wrapped transport internals, legacy
// backends). Structured classification always runs first.
var networkKeywords = []string{"network", "timeout", "connection", "offline"}

// Classify maps an arbitrary failure to exactly one [ErrorKind]. It is a
// pure function: no side effects, and repeated calls with the same input
// return the same kind.
//
// Priority: structured network evidence (sentinel, net.Error, context
// deadline), then structured HTTP status (401, 5xx), then the message
// keyword shim, then [KindUnknown].
func Classify(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}

	if errors.Is(err, ErrNetworkUnavailable) || errors.Is(err, context.DeadlineExceeded) {
		return KindNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetwork
	}

	var status *StatusError
	if errors.As(err, &status) {
		switch {
		case status.Code == 401:
			return KindTokenInvalid
		case status.Code >= 500:
			return KindServer
		}
	}
	if errors.Is(err, ErrTokenInvalid) {
		return KindTokenInvalid
	}
	if errors.Is(err, ErrServerError) {
		return KindServer
	}

	msg := strings.ToLower(err.Error())
	for _, kw := range networkKeywords {
		if strings.Contains(msg, kw) {
			return KindNetwork
		}
	}

	return KindUnknown
}

// kindError maps a classification back to the package sentinel so callers
// can use errors.Is on mutator results.
func kindError(kind ErrorKind, err error) error {
	switch kind {
	case KindNetwork:
		return fmt.Errorf("%w: %v", ErrNetworkUnavailable, err)
	case KindTokenInvalid:
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	case KindServer:
		return fmt.Errorf("%w: %v", ErrServerError, err)
	default:
		return err
	}
}
