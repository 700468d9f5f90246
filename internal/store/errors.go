package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

// ErrNotFound indicates that the referenced row does not exist. It is
// returned by lookups for unknown ids and by CreatePost when the target
// user is absent.
var ErrNotFound = errors.New("store: record not found")

// ErrUnavailable indicates that the backing store could not be reached.
// Request-time operations fail with it immediately; only startup schema
// initialization retries (see Init).
var ErrUnavailable = errors.New("store: backing store unavailable")

// wrapQueryErr classifies a driver error. Connectivity failures are folded
// into ErrUnavailable so callers can map them to a server-error response;
// everything else is passed through wrapped.
func wrapQueryErr(op string, err error) error {
	if err == nil {
		return nil
	}
	// Already classified further down the call chain.
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnavailable) {
		return err
	}
	if isConnErr(err) {
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
	}
	return fmt.Errorf("store: %s: %w", op, err)
}

func isConnErr(err error) bool {
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	// database/sql reports a closed pool with a plain error value.
	return err.Error() == "sql: database is closed"
}
