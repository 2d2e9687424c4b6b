package localstore

import (
	"encoding/binary"
	"time"

	"github.com/rzbill/commlog/internal/commlog"
)

var (
	sep       = byte('/')
	logPrefix = []byte("log/")
	idxPrefix = []byte("idx/")
)

func appendBE8(dst []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(dst, b[:]...)
}

// tsMillis maps a timestamp onto the key ordering. Zero and pre-epoch times
// sort first.
func tsMillis(t time.Time) uint64 {
	if t.IsZero() || t.UnixMilli() < 0 {
		return 0
	}
	return uint64(t.UnixMilli())
}

// keyLogPrefix is log/{kind}/.
func keyLogPrefix(kind commlog.Kind) []byte {
	k := make([]byte, 0, len(logPrefix)+len(kind)+1)
	k = append(k, logPrefix...)
	k = append(k, kind...)
	return append(k, sep)
}

// keyLogAt is log/{kind}/{ts}; every record at ts sorts at or after it.
func keyLogAt(kind commlog.Kind, ms uint64) []byte {
	return appendBE8(keyLogPrefix(kind), ms)
}

func keyLogEntry(kind commlog.Kind, ms uint64, id string) []byte {
	k := keyLogAt(kind, ms)
	k = append(k, sep)
	return append(k, id...)
}

// tsFromLogKey extracts the timestamp of a log entry key.
func tsFromLogKey(kind commlog.Kind, key []byte) (uint64, bool) {
	n := len(logPrefix) + len(kind) + 1
	if len(key) < n+8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(key[n : n+8]), true
}

func keyIndexPrefix(kind commlog.Kind) []byte {
	k := make([]byte, 0, len(idxPrefix)+len(kind)+1)
	k = append(k, idxPrefix...)
	k = append(k, kind...)
	return append(k, sep)
}

func keyIndex(kind commlog.Kind, id string) []byte {
	return append(keyIndexPrefix(kind), id...)
}
