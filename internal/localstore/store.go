package localstore

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/rzbill/commlog/internal/commlog"
	"github.com/rzbill/commlog/internal/normalize"
	"github.com/rzbill/commlog/internal/provider"
	pebblestore "github.com/rzbill/commlog/internal/storage/pebble"
	logpkg "github.com/rzbill/commlog/pkg/log"
)

// Store serves imported provider records.
type Store struct {
	db     *pebblestore.DB
	norm   *normalize.Normalizer
	codec  *codec
	logger logpkg.Logger
}

var _ provider.Client = (*Store)(nil)

// New wraps an open database. Close releases the codec, not the database.
func New(db *pebblestore.DB, logger logpkg.Logger) (*Store, error) {
	if db == nil {
		return nil, errors.New("localstore: nil db")
	}
	if logger == nil {
		logger = logpkg.NewLogger().With(logpkg.Component("localstore"))
	}
	c, err := newCodec()
	if err != nil {
		return nil, err
	}
	return &Store{db: db, norm: normalize.New(), codec: c, logger: logger}, nil
}

// Close releases compression resources.
func (s *Store) Close() error {
	s.codec.close()
	return nil
}

// ImportStats summarises an import.
type ImportStats struct {
	Imported int `json:"imported"`
	Replaced int `json:"replaced"`
	Skipped  int `json:"skipped"`
}

// Append stores raw records of kind in one batch. Records that fail
// normalization are skipped and counted; an existing record with the same
// id is replaced.
func (s *Store) Append(ctx context.Context, kind commlog.Kind, raws [][]byte) (ImportStats, error) {
	var st ImportStats
	b := s.db.NewBatch()
	defer b.Close()
	// ids staged in this batch; the index is not visible until commit
	staged := make(map[string]uint64, len(raws))
	for _, raw := range raws {
		id, ts, err := s.norm.IdentityOf(raw, kind)
		if err != nil {
			st.Skipped++
			s.logger.Debug("skipping record", logpkg.Str("kind", string(kind)), logpkg.Err(err))
			continue
		}
		ms := tsMillis(ts)
		prev, seen := staged[id]
		if !seen {
			if v, err := s.db.Get(keyIndex(kind, id)); err == nil && len(v) == 8 {
				prev, seen = binary.BigEndian.Uint64(v), true
			} else if err != nil && !errors.Is(err, pebblestore.ErrNotFound) {
				return st, err
			}
		}
		if seen {
			st.Replaced++
			if prev != ms {
				if err := b.Delete(keyLogEntry(kind, prev, id), nil); err != nil {
					return st, err
				}
			}
		} else {
			st.Imported++
		}
		if err := b.Set(keyLogEntry(kind, ms, id), s.codec.encode(raw), nil); err != nil {
			return st, err
		}
		if err := b.Set(keyIndex(kind, id), appendBE8(nil, ms), nil); err != nil {
			return st, err
		}
		staged[id] = ms
	}
	if err := s.db.CommitBatch(ctx, b); err != nil {
		return st, err
	}
	s.logger.Info("records imported",
		logpkg.Str("kind", string(kind)),
		logpkg.Int("imported", st.Imported),
		logpkg.Int("replaced", st.Replaced),
		logpkg.Int("skipped", st.Skipped))
	return st, nil
}

// Import reads a provider export (a JSON array, or an object holding the
// array under "calls", "messages" or "results") and appends it.
func (s *Store) Import(ctx context.Context, kind commlog.Kind, r io.Reader) (ImportStats, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return ImportStats{}, err
	}
	raws, err := provider.SplitRecords(body, "calls", "messages", "results")
	if err != nil {
		return ImportStats{}, fmt.Errorf("import %s: %w", kind, err)
	}
	return s.Append(ctx, kind, raws)
}

// Count returns the number of stored records of kind.
func (s *Store) Count(kind commlog.Kind) (int, error) {
	n := 0
	err := s.db.Scan(keyIndexPrefix(kind), pebblestore.ScanOptions{}, func(_, _ []byte) bool {
		n++
		return true
	})
	return n, err
}

// Reset deletes every record of kind.
func (s *Store) Reset(kind commlog.Kind) error {
	for _, prefix := range [][]byte{keyLogPrefix(kind), keyIndexPrefix(kind)} {
		end := pebblestore.PrefixEnd(prefix)
		if err := s.db.DeleteRange(prefix, end); err != nil {
			return err
		}
		if err := s.db.CompactRange(prefix, end); err != nil {
			return err
		}
	}
	return nil
}

// ListCalls returns up to q.Limit calls newest first with
// CreatedAfter <= ts <= CreatedBefore at millisecond precision.
func (s *Store) ListCalls(ctx context.Context, q provider.CallQuery) ([][]byte, error) {
	var upper []byte
	if !q.CreatedBefore.IsZero() {
		upper = keyLogAt(commlog.KindCall, tsMillis(q.CreatedBefore)+1)
	}
	return s.scan(ctx, commlog.KindCall, upper, tsMillis(q.CreatedAfter), 0, q.Limit)
}

// ListMessages returns one offset page of messages newest first within the
// date bounds.
func (s *Store) ListMessages(ctx context.Context, q provider.MessageQuery) ([][]byte, error) {
	var upper []byte
	if !q.DateBefore.IsZero() {
		upper = keyLogAt(commlog.KindMessage, tsMillis(q.DateBefore)+1)
	}
	return s.scan(ctx, commlog.KindMessage, upper, tsMillis(q.DateAfter), q.Offset, q.Limit)
}

func (s *Store) scan(ctx context.Context, kind commlog.Kind, upper []byte, minMs uint64, skip, limit int) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := [][]byte{}
	if limit <= 0 {
		return out, nil
	}
	var decodeErr error
	err := s.db.Scan(keyLogPrefix(kind), pebblestore.ScanOptions{Upper: upper, Reverse: true}, func(k, v []byte) bool {
		if ms, ok := tsFromLogKey(kind, k); ok && ms < minMs {
			return false
		}
		if skip > 0 {
			skip--
			return true
		}
		raw, err := s.codec.decode(v)
		if err != nil {
			decodeErr = fmt.Errorf("%w at %q", err, k)
			return false
		}
		out = append(out, raw)
		return len(out) < limit
	})
	if err != nil {
		return nil, err
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	return out, nil
}
