// Package logsvc answers paged call and SMS log queries over providers that
// only offer cursor or offset pagination.
//
// FetchLogs walks the provider just far enough to fill the requested window
// plus one lookahead entry. Queries with post-fetch predicates (number,
// direction, expression) keep walking until enough matches exist or the
// provider is exhausted; the total is exact only in the latter case.
// Unfiltered queries over seekable sources skip straight to the provider
// page holding the window. When the walk cannot reach the end of the listing
// the reported total is a placeholder and IsEstimatedTotal is set.
//
// Completed walks may be cached in memory for CacheTTL so that paging
// through the same query does not re-walk the provider.
package logsvc
