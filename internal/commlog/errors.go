package commlog

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPageRequest is returned before any provider call when page or
	// pageSize are out of range.
	ErrInvalidPageRequest = errors.New("invalid page request")
	// ErrInvalidFilter is returned when a filter expression does not compile.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrUpstreamUnavailable matches *UpstreamUnavailableError.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// NormalizationError reports a single malformed provider record. It is
// recovered locally: the record is dropped and the walk continues.
type NormalizationError struct {
	Kind   Kind
	ID     string
	Field  string
	Reason string
}

func (e *NormalizationError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("normalize %s %s: %s: %s", e.Kind, e.ID, e.Field, e.Reason)
	}
	return fmt.Sprintf("normalize %s: %s: %s", e.Kind, e.Field, e.Reason)
}

// ProviderPageError is a single failed page fetch.
type ProviderPageError struct {
	Kind     Kind
	Cursor   string
	Attempts int
	Err      error
}

func (e *ProviderPageError) Error() string {
	return fmt.Sprintf("fetch %s page at %s (attempts=%d): %v", e.Kind, e.Cursor, e.Attempts, e.Err)
}

func (e *ProviderPageError) Unwrap() error { return e.Err }

// UpstreamUnavailableError is surfaced when a walk could not complete. Any
// records fetched before the failure are attached to the accompanying result.
type UpstreamUnavailableError struct {
	Kind Kind
	// Fetched counts normalized records retrieved before the failure.
	Fetched int
	Err     error
}

func (e *UpstreamUnavailableError) Error() string {
	return fmt.Sprintf("%s provider unavailable after %d records: %v", e.Kind, e.Fetched, e.Err)
}

func (e *UpstreamUnavailableError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrUpstreamUnavailable) match.
func (e *UpstreamUnavailableError) Is(target error) bool { return target == ErrUpstreamUnavailable }
