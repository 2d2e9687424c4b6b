// Package provider declares the upstream listing contracts consumed by the
// cursor walker and shared helpers for HTTP provider clients.
//
// Calls are listed newest first with a time bound (CallQuery.CreatedBefore);
// messages are listed newest first with offset paging and optional date
// bounds. Each returned record is the provider's raw JSON object.
package provider
