package fetch

import (
	"errors"
	"fmt"
	"net"
)

// ErrorKind classifies a fetch failure.
type ErrorKind string

const (
	KindTimeout ErrorKind = "timeout"
	KindBlocked ErrorKind = "blocked"
	KindNetwork ErrorKind = "network"
)

// Error is a fetch failure with its classification. All kinds are
// retryable; the distinction is surfaced in run reports.
type Error struct {
	Kind ErrorKind
	URL  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s (%s): %v", e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch %s (%s)", e.URL, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Kind extracts the fetch error kind from an error chain, or "" if the
// chain holds no fetch error.
func Kind(err error) ErrorKind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// IsRetryable reports whether the error is a fetch error; every fetch
// error kind is transient from the pipeline's point of view.
func IsRetryable(err error) bool {
	var fe *Error
	return errors.As(err, &fe)
}

// classify wraps a transport-level error with a kind derived from its
// cause: timeouts are distinguished from generic network failures.
func classify(url string, err error) *Error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, URL: url, Err: err}
	}
	return &Error{Kind: KindNetwork, URL: url, Err: err}
}
