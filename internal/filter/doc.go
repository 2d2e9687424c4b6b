// Package filter narrows normalized, deduplicated log entries with
// composable predicates: counterparty number, direction, time window and
// CEL expressions.
package filter
