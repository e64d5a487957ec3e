package client

import (
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/forttask/internal/errors"
)

var (
	// ErrNetwork is a transport or I/O failure before a response was read.
	ErrNetwork = errors.New("network failure")
	// ErrProtocol is a response that breaks the handshake contract: missing
	// csrf token or cookie, or a non-2xx status on the csrf endpoint.
	ErrProtocol = errors.New("protocol failure")
	// ErrAuthRejected is a credentials POST that did not yield a session.
	ErrAuthRejected = errors.New("authentication rejected")
	// ErrDataUnavailable is a non-2xx status on a protected GET.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrParse is a body that could not be decoded.
	ErrParse = errors.New("malformed response")

	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
)

// StatusError carries a non-2xx response. It matches Kind with errors.Is,
// and ErrUnauthorized too for 401 and 403.
type StatusError struct {
	Kind error
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d - %s", e.Kind, e.Code, e.Body)
}

func (e *StatusError) Is(target error) bool {
	if target == e.Kind {
		return true
	}
	if target == ErrUnauthorized {
		return e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden
	}
	if target == ErrUnavailable {
		return e.Code >= http.StatusInternalServerError
	}
	return false
}
