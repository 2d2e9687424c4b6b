// Package localstore is the sandbox provider: a Pebble-backed store of raw
// provider records that serves the call and message listing contracts with
// the same paging semantics as the remote APIs.
//
// Keyspace (byte-wise sortable):
//
//	log/{kind}/{ts_ms_be8}/{id}   record envelope (see record.go)
//	idx/{kind}/{id}               ts_ms_be8 of the current log key
//
// Records are re-keyed on import, so importing an export twice replaces
// rather than duplicates.
package localstore
