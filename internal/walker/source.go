package walker

import (
	"context"
	"fmt"
	"time"

	"github.com/rzbill/commlog/internal/commlog"
	"github.com/rzbill/commlog/internal/provider"
)

// Source adapts one provider listing endpoint to the walker.
type Source interface {
	Kind() commlog.Kind
	// Start is the cursor of the first page.
	Start() Cursor
	// Fetch returns at most limit raw records at c, newest first.
	Fetch(ctx context.Context, c Cursor, limit int) ([][]byte, error)
	// Advance computes the cursor following page p fetched at c.
	Advance(c Cursor, p Page) Cursor
}

// Seeker is implemented by sources that can start a walk part way through
// the listing without fetching the skipped records.
type Seeker interface {
	// Seek returns a cursor positioned at most skip records into the listing
	// and the number of records it actually skips. Positions are aligned to
	// multiples of limit.
	Seek(skip, limit int) (Cursor, int)
}

// CallSource walks calls backward in time. The provider bound is inclusive,
// so records on a page boundary are fetched twice and removed by the walk's
// seen set.
type CallSource struct {
	Lister provider.CallLister
	// Since is passed to the provider as the lower creation bound.
	Since time.Time
	// Until is the first upper bound; zero means now.
	Until time.Time
	// Now defaults to time.Now.
	Now func() time.Time
}

var _ Source = (*CallSource)(nil)

func (s *CallSource) Kind() commlog.Kind { return commlog.KindCall }

func (s *CallSource) Start() Cursor {
	if !s.Until.IsZero() {
		return TimeCursor{Before: s.Until.UTC()}
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return TimeCursor{Before: now().UTC()}
}

func (s *CallSource) Fetch(ctx context.Context, c Cursor, limit int) ([][]byte, error) {
	tc, ok := c.(TimeCursor)
	if !ok {
		return nil, fmt.Errorf("call source: unexpected cursor %T", c)
	}
	return s.Lister.ListCalls(ctx, provider.CallQuery{Limit: limit, CreatedBefore: tc.Before, CreatedAfter: s.Since})
}

// Advance moves the bound to the oldest timestamp on the page. It never
// moves the bound forward in time.
func (s *CallSource) Advance(c Cursor, p Page) Cursor {
	tc, _ := c.(TimeCursor)
	if p.Oldest.IsZero() || !p.Oldest.Before(tc.Before) {
		return tc
	}
	return TimeCursor{Before: p.Oldest}
}

// MessageSource walks messages by offset with constant date bounds.
type MessageSource struct {
	Lister provider.MessageLister
	Since  time.Time
	Until  time.Time
}

var (
	_ Source = (*MessageSource)(nil)
	_ Seeker = (*MessageSource)(nil)
)

func (s *MessageSource) Kind() commlog.Kind { return commlog.KindMessage }

func (s *MessageSource) Start() Cursor { return OffsetCursor{} }

func (s *MessageSource) Fetch(ctx context.Context, c Cursor, limit int) ([][]byte, error) {
	oc, ok := c.(OffsetCursor)
	if !ok {
		return nil, fmt.Errorf("message source: unexpected cursor %T", c)
	}
	return s.Lister.ListMessages(ctx, provider.MessageQuery{Limit: limit, Offset: oc.Offset, DateAfter: s.Since, DateBefore: s.Until})
}

func (s *MessageSource) Advance(c Cursor, p Page) Cursor {
	oc, _ := c.(OffsetCursor)
	return OffsetCursor{Offset: oc.Offset + p.Raw}
}

func (s *MessageSource) Seek(skip, limit int) (Cursor, int) {
	if skip <= 0 || limit <= 0 {
		return OffsetCursor{}, 0
	}
	n := (skip / limit) * limit
	return OffsetCursor{Offset: n}, n
}

// NewSource builds the source for kind over the given client.
func NewSource(kind commlog.Kind, client provider.Client, f commlog.Filters) (Source, error) {
	switch kind {
	case commlog.KindCall:
		return &CallSource{Lister: client, Since: f.Since, Until: f.Until}, nil
	case commlog.KindMessage:
		return &MessageSource{Lister: client, Since: f.Since, Until: f.Until}, nil
	default:
		return nil, fmt.Errorf("no source for kind %q", kind)
	}
}
