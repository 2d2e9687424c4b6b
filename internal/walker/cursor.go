package walker

import (
	"fmt"
	"time"
)

// Cursor marks where the next page starts. It is either TimeCursor or
// OffsetCursor.
type Cursor interface {
	fmt.Stringer
	isCursor()
}

// TimeCursor selects records created at or before Before.
type TimeCursor struct {
	Before time.Time
}

func (TimeCursor) isCursor() {}

func (c TimeCursor) String() string {
	return "before=" + c.Before.UTC().Format(time.RFC3339Nano)
}

// OffsetCursor selects records starting at a zero-based index.
type OffsetCursor struct {
	Offset int
}

func (OffsetCursor) isCursor() {}

func (c OffsetCursor) String() string { return fmt.Sprintf("offset=%d", c.Offset) }

// sameCursor reports whether two cursors point at the same position.
func sameCursor(a, b Cursor) bool {
	switch x := a.(type) {
	case TimeCursor:
		y, ok := b.(TimeCursor)
		return ok && x.Before.Equal(y.Before)
	case OffsetCursor:
		y, ok := b.(OffsetCursor)
		return ok && x.Offset == y.Offset
	}
	return false
}

// stepPast moves a cursor that failed to advance by the smallest unit.
func stepPast(c Cursor) Cursor {
	switch x := c.(type) {
	case TimeCursor:
		return TimeCursor{Before: x.Before.Add(-time.Millisecond)}
	case OffsetCursor:
		return OffsetCursor{Offset: x.Offset + 1}
	}
	return c
}
