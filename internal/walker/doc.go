// Package walker drives provider pagination one page at a time.
//
// A Source hides the pagination paradigm of one provider endpoint behind a
// Cursor, which is either a TimeCursor (walk backward in time with an
// inclusive upper bound) or an OffsetCursor (index paging). A Walk fetches a
// page, normalizes every raw record, sorts the page newest first and drops
// IDs already seen during the walk, then decides whether to continue.
//
// Walks are sequential and finite: they stop when the provider is exhausted,
// when a record or page cap is reached, when the caller's predicate is
// satisfied, when a page fails twice, or when the context is done. Records
// fetched before a failure are kept and reported as partial.
package walker
