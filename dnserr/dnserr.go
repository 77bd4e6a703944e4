// Package dnserr defines the error taxonomy surfaced to callers of the
// resolver, per spec.md §7. It follows the sentinel-error-plus-wrapping
// style the teacher corpus uses throughout (dns.go's ErrNameNotFound /
// ErrServerFailed): plain errors.New sentinels, with typed wrappers for
// the kinds that carry a server or code.
package dnserr

import (
	"errors"
	"fmt"
)

// Sentinel errors with no associated data.
var (
	// ErrNoServerAlive is returned when the pool is exhausted during
	// failover: every nameserver has been marked dead for this lookup.
	ErrNoServerAlive = errors.New("dnserr: no server alive")

	// ErrTooManyHops is returned when a referral chain would exceed
	// spec.md's 10-hop bound.
	ErrTooManyHops = errors.New("dnserr: too many referral hops")

	// ErrInvalidResponse is returned for parse failures: QDCOUNT != 1,
	// a section count above 128, or an unrecognized RR type in the
	// answer section.
	ErrInvalidResponse = errors.New("dnserr: invalid response")
)

// ConnectionRefused reports that the named server refused the TCP
// connection. Surfaced to the caller only when the pool had a single
// server; otherwise failover consumes it.
type ConnectionRefused struct {
	Server string
}

func (e *ConnectionRefused) Error() string {
	return fmt.Sprintf("dnserr: connection refused by %s", e.Server)
}

// Timeout reports that connecting to the named server exceeded the
// configured connect timeout.
type Timeout struct {
	Server string
}

func (e *Timeout) Error() string {
	return fmt.Sprintf("dnserr: timeout connecting to %s", e.Server)
}

// ServerError reports any other I/O error while talking to the named
// server.
type ServerError struct {
	Server string
	Code   string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("dnserr: server error from %s: %s", e.Server, e.Code)
}

// IncompleteResponse reports that the named server closed the connection
// before a fully framed response arrived. Fatal to the whole lookup: the
// driver does not try another server (spec.md §4.4).
type IncompleteResponse struct {
	Server string
}

func (e *IncompleteResponse) Error() string {
	return fmt.Sprintf("dnserr: incomplete response from %s", e.Server)
}
