// Package commlog defines the canonical call/SMS log model shared by the
// normalizer, cursor walker, filter stage, page windower and the logs service.
//
// A LogEntry is kind-tagged: Call carries CallDetails, Message carries
// MessageDetails. Entries are ephemeral per request; nothing here persists.
package commlog
