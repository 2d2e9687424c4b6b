// Package pebblestore wraps Pebble with an fsync policy, a metrics hook and
// prefix scans. It backs the sandbox provider store.
//
// Usage:
//
//	db, err := pebblestore.Open(pebblestore.Options{DataDir: "./data"})
//	if err != nil { /* handle */ }
//	defer db.Close()
//
//	b := db.NewBatch()
//	_ = b.Set([]byte("k"), []byte("v"), nil)
//	_ = db.CommitBatch(ctx, b)
//	b.Close()
//
//	_ = db.Scan([]byte("log/"), pebblestore.ScanOptions{Reverse: true}, func(k, v []byte) bool {
//		return true
//	})
package pebblestore
