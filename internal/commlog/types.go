package commlog

import (
	"fmt"
	"time"
)

// Kind tags a LogEntry as a call or an SMS message.
type Kind string

const (
	KindCall    Kind = "call"
	KindMessage Kind = "message"
)

// ParseKind accepts singular and plural spellings.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "call", "calls":
		return KindCall, nil
	case "message", "messages", "sms":
		return KindMessage, nil
	default:
		return "", fmt.Errorf("unknown log kind %q", s)
	}
}

// Direction of a call or message relative to the account.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
	DirectionUnknown  Direction = "unknown"
)

// ParseDirection maps free-form provider values onto Direction.
// Anything unrecognised is DirectionUnknown.
func ParseDirection(s string) Direction {
	switch {
	case len(s) >= 7 && s[:7] == "inbound":
		return DirectionInbound
	case len(s) >= 8 && s[:8] == "outbound":
		return DirectionOutbound
	default:
		return DirectionUnknown
	}
}

// UnknownCarrier is the sentinel used when a provider omits carrier data.
const UnknownCarrier = "Unknown"

// LogEntry is the canonical, provider independent record.
type LogEntry struct {
	ID                 string    `json:"id"`
	Kind               Kind      `json:"kind"`
	Direction          Direction `json:"direction"`
	CounterpartyNumber string    `json:"counterpartyNumber"`
	OwnNumber          string    `json:"ownNumber"`
	Timestamp          time.Time `json:"timestamp"`

	Call    *CallDetails    `json:"call,omitempty"`
	Message *MessageDetails `json:"message,omitempty"`
}

// CallDetails is the call-specific payload.
type CallDetails struct {
	Status          string  `json:"status"`
	EndedReason     string  `json:"endedReason,omitempty"`
	DurationSeconds float64 `json:"durationSeconds"`
	Cost            float64 `json:"cost,omitempty"`
	RecordingURL    string  `json:"recordingUrl,omitempty"`
	Transcript      string  `json:"transcript,omitempty"`
	Summary         string  `json:"summary,omitempty"`
	AssistantID     string  `json:"assistantId,omitempty"`
	Carrier         string  `json:"carrier"`
}

// MessageDetails is the SMS-specific payload.
type MessageDetails struct {
	Body      string `json:"body"`
	Status    string `json:"status"`
	Segments  int    `json:"segments"`
	Price     string `json:"price,omitempty"`
	ErrorCode int    `json:"errorCode,omitempty"`
	Carrier   string `json:"carrier"`
}

// Filters narrow a log listing. Since/Until bound the provider query; the
// remaining fields are post-fetch predicates.
type Filters struct {
	Number    string    `json:"number,omitempty"`
	Since     time.Time `json:"since,omitempty"`
	Until     time.Time `json:"until,omitempty"`
	Direction Direction `json:"direction,omitempty"`
	// Expr is a CEL expression evaluated per entry.
	Expr string `json:"expr,omitempty"`
}

// HasPredicates reports whether any post-fetch predicate is set. Predicated
// listings cannot know their match count without walking the provider.
func (f Filters) HasPredicates() bool {
	return f.Number != "" || f.Direction != "" || f.Expr != ""
}

// Key is a stable identity for caching walks over the same filters.
func (f Filters) Key() string {
	return fmt.Sprintf("n=%s|s=%d|u=%d|d=%s|e=%s", f.Number, f.Since.UnixMilli(), f.Until.UnixMilli(), f.Direction, f.Expr)
}

// PageRequest asks for one page window.
type PageRequest struct {
	Page     int
	PageSize int
	Filters  Filters
}

// Validate enforces Page >= 1, PageSize >= 1 and PageSize <= maxPageSize
// (when maxPageSize > 0).
func (r PageRequest) Validate(maxPageSize int) error {
	if r.Page < 1 {
		return fmt.Errorf("%w: page must be >= 1, got %d", ErrInvalidPageRequest, r.Page)
	}
	if r.PageSize < 1 {
		return fmt.Errorf("%w: pageSize must be >= 1, got %d", ErrInvalidPageRequest, r.PageSize)
	}
	if maxPageSize > 0 && r.PageSize > maxPageSize {
		return fmt.Errorf("%w: pageSize must be <= %d, got %d", ErrInvalidPageRequest, maxPageSize, r.PageSize)
	}
	return nil
}

// Offset is the zero-based index of the first entry of the page.
func (r PageRequest) Offset() int { return (r.Page - 1) * r.PageSize }

// PageResult is one served page window.
//
// When IsEstimatedTotal is false, len(Entries) equals
// min(PageSize, max(0, TotalCount-(Page-1)*PageSize)). When true, TotalCount
// is a placeholder and only HasNextPage is reliable.
type PageResult struct {
	Entries          []LogEntry `json:"entries"`
	TotalCount       int        `json:"totalCount"`
	IsEstimatedTotal bool       `json:"isEstimatedTotal"`
	Page             int        `json:"page"`
	PageSize         int        `json:"pageSize"`
	HasNextPage      bool       `json:"hasNextPage"`
	// Partial is set when the provider failed mid-walk and Entries were
	// derived from the records fetched before the failure.
	Partial bool `json:"partial,omitempty"`
}
