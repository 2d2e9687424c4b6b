package filter

import (
	"time"

	"github.com/samber/lo"

	"github.com/rzbill/commlog/internal/commlog"
	"github.com/rzbill/commlog/internal/normalize"
)

// Predicate reports whether an entry is kept.
type Predicate func(commlog.LogEntry) bool

// Apply keeps entries matching every predicate, preserving order. The result
// is never nil.
func Apply(entries []commlog.LogEntry, preds ...Predicate) []commlog.LogEntry {
	preds = lo.Filter(preds, func(p Predicate, _ int) bool { return p != nil })
	out := lo.Filter(entries, func(e commlog.LogEntry, _ int) bool {
		return All(preds...)(e)
	})
	if out == nil {
		out = []commlog.LogEntry{}
	}
	return out
}

// All combines predicates with logical AND.
func All(preds ...Predicate) Predicate {
	return func(e commlog.LogEntry) bool {
		for _, p := range preds {
			if p != nil && !p(e) {
				return false
			}
		}
		return true
	}
}

// Count returns how many entries match.
func Count(entries []commlog.LogEntry, pred Predicate) int {
	if pred == nil {
		return len(entries)
	}
	return lo.CountBy(entries, func(e commlog.LogEntry) bool { return pred(e) })
}

// ByNumber matches the counterparty number ignoring formatting and the NANP
// country code. A key without digits matches nothing.
func ByNumber(key string) Predicate {
	want := normalize.ComparableDigits(key)
	return func(e commlog.LogEntry) bool {
		return want != "" && normalize.ComparableDigits(e.CounterpartyNumber) == want
	}
}

// ByDirection matches entries with direction d.
func ByDirection(d commlog.Direction) Predicate {
	return func(e commlog.LogEntry) bool { return e.Direction == d }
}

// InWindow keeps entries with since <= Timestamp <= until. Zero bounds are
// open. Entries without a timestamp only pass an unbounded window.
func InWindow(since, until time.Time) Predicate {
	return func(e commlog.LogEntry) bool {
		if since.IsZero() && until.IsZero() {
			return true
		}
		if e.Timestamp.IsZero() {
			return false
		}
		if !since.IsZero() && e.Timestamp.Before(since) {
			return false
		}
		if !until.IsZero() && e.Timestamp.After(until) {
			return false
		}
		return true
	}
}

// FromFilters builds the post-fetch predicate for f. It fails with
// commlog.ErrInvalidFilter when f.Expr does not compile.
func FromFilters(f commlog.Filters) (Predicate, error) {
	var preds []Predicate
	if f.Number != "" {
		preds = append(preds, ByNumber(f.Number))
	}
	if f.Direction != "" {
		preds = append(preds, ByDirection(f.Direction))
	}
	if !f.Since.IsZero() || !f.Until.IsZero() {
		preds = append(preds, InWindow(f.Since, f.Until))
	}
	if f.Expr != "" {
		p, err := ByExpr(f.Expr)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return All(preds...), nil
}
