// Package window cuts page windows out of a materialized entry list.
package window

import (
	"github.com/rzbill/commlog/internal/commlog"
)

// Total describes how much of the listing is known.
type Total struct {
	Count int
	// Estimated marks Count as a placeholder rather than an exact total.
	Estimated bool
	// HasMore reports records beyond the materialized ones. Only consulted
	// when Estimated is set.
	HasMore bool
}

// Slice returns the page window of req. entries start at listing index base
// (non-zero when a walk skipped ahead). A page past the end yields an empty,
// non-nil Entries slice and leaves the total untouched.
func Slice(entries []commlog.LogEntry, req commlog.PageRequest, base int, total Total) commlog.PageResult {
	start := req.Offset() - base
	end := start + req.PageSize
	start = clamp(start, 0, len(entries))
	end = clamp(end, start, len(entries))

	out := make([]commlog.LogEntry, end-start)
	copy(out, entries[start:end])

	res := commlog.PageResult{
		Entries:          out,
		TotalCount:       total.Count,
		IsEstimatedTotal: total.Estimated,
		Page:             req.Page,
		PageSize:         req.PageSize,
	}
	if total.Estimated {
		res.HasNextPage = total.HasMore
	} else {
		res.HasNextPage = req.Offset()+req.PageSize < total.Count
	}
	return res
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
