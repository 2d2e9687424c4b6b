package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// CallQuery bounds one call listing request.
type CallQuery struct {
	Limit int
	// CreatedBefore is an inclusive upper bound; zero means now.
	CreatedBefore time.Time
	// CreatedAfter is an inclusive lower bound; zero means unbounded.
	CreatedAfter time.Time
}

// MessageQuery bounds one message listing request. Offset must be a multiple
// of Limit for providers that page by index.
type MessageQuery struct {
	Limit      int
	Offset     int
	DateAfter  time.Time
	DateBefore time.Time
}

// CallLister lists raw call records newest first.
type CallLister interface {
	ListCalls(ctx context.Context, q CallQuery) ([][]byte, error)
}

// MessageLister lists raw message records newest first.
type MessageLister interface {
	ListMessages(ctx context.Context, q MessageQuery) ([][]byte, error)
}

// Client lists both record kinds.
type Client interface {
	CallLister
	MessageLister
}

// Pair combines separate call and message listers into a Client.
type Pair struct {
	Calls    CallLister
	Messages MessageLister
}

func (p Pair) ListCalls(ctx context.Context, q CallQuery) ([][]byte, error) {
	return p.Calls.ListCalls(ctx, q)
}

func (p Pair) ListMessages(ctx context.Context, q MessageQuery) ([][]byte, error) {
	return p.Messages.ListMessages(ctx, q)
}

// StatusError is a non-2xx provider response.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Temporary reports whether retrying the request can succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode == http.StatusRequestTimeout ||
		e.StatusCode >= 500
}

// IsPermanent reports errors that will fail the same way on retry: client
// errors other than throttling/timeouts and context cancellation.
func IsPermanent(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return !se.Temporary()
	}
	return false
}
