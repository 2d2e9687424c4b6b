package logsvc

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/rzbill/commlog/internal/commlog"
	"github.com/rzbill/commlog/internal/filter"
	"github.com/rzbill/commlog/internal/runtime"
	"github.com/rzbill/commlog/internal/walker"
	"github.com/rzbill/commlog/internal/window"
	logpkg "github.com/rzbill/commlog/pkg/log"
)

// Service serves paged log listings.
type Service struct {
	rt     *runtime.Runtime
	logger logpkg.Logger
	cache  *ttlcache.Cache[string, walker.Result]
}

// New returns a Service using a default logger.
func New(rt *runtime.Runtime) *Service {
	return NewWithLogger(rt, nil)
}

// NewWithLogger returns a Service using the provided logger.
func NewWithLogger(rt *runtime.Runtime, logger logpkg.Logger) *Service {
	if logger == nil {
		logger = logpkg.NewLogger().With(logpkg.Component("logs"))
	}
	s := &Service{rt: rt, logger: logger}
	if ttl := rt.Config().CacheTTL.D(); ttl > 0 {
		s.cache = ttlcache.New[string, walker.Result](
			ttlcache.WithTTL[string, walker.Result](ttl),
			ttlcache.WithDisableTouchOnHit[string, walker.Result](),
			ttlcache.WithCapacity[string, walker.Result](256),
		)
	}
	return s
}

// FetchLogs returns page (1-based) of size pageSize of kind's entries
// matching filters, newest first.
//
// Invalid paging or filter expressions fail before any provider call. When
// the provider fails mid-walk, the window computed from the records fetched
// so far is returned with Partial set, together with an error matching
// commlog.ErrUpstreamUnavailable.
func (s *Service) FetchLogs(ctx context.Context, kind commlog.Kind, filters commlog.Filters, page, pageSize int) (commlog.PageResult, error) {
	req := commlog.PageRequest{Page: page, PageSize: pageSize, Filters: filters}
	if err := req.Validate(s.rt.Config().Paging.MaxPageSize); err != nil {
		return commlog.PageResult{}, err
	}
	pred, err := filter.FromFilters(filters)
	if err != nil {
		return commlog.PageResult{}, err
	}
	src, err := s.rt.Source(kind, filters)
	if err != nil {
		return commlog.PageResult{}, err
	}

	started := time.Now()
	need := req.Offset() + req.PageSize + 1
	var (
		res     walker.Result
		entries []commlog.LogEntry
	)
	if filters.HasPredicates() || coarseWindow(kind, filters) {
		res = s.collect(ctx, src, filters, walker.Options{}, func(r walker.Result) bool {
			return filter.Count(r.Entries, pred) >= need
		})
		entries = filter.Apply(res.Entries, pred)
	} else {
		enough := func(r walker.Result) bool { return r.Skipped+len(r.Entries) >= need }
		res = s.collect(ctx, src, filters, walker.Options{Skip: req.Offset()}, enough)
		if res.Err == nil && res.Skipped > 0 && len(res.Entries) == 0 {
			// seek overshot the listing; walk from the start for an exact total
			res = s.collect(ctx, src, filters, walker.Options{}, enough)
		}
		entries = slices.Clone(res.Entries)
	}
	sortEntries(entries)

	available := res.Skipped + len(entries)
	total := window.Total{Count: available}
	if !res.Exhausted() {
		hasMore := available > req.Offset()+req.PageSize
		total = window.Total{Count: available, Estimated: true, HasMore: hasMore}
		if hasMore {
			total.Count = max(s.rt.Config().Paging.EstimatedTotal, available+1)
		}
	}
	out := window.Slice(entries, req, res.Skipped, total)

	fields := []logpkg.Field{
		logpkg.Str("kind", string(kind)),
		logpkg.Int("page", page),
		logpkg.Int("page_size", pageSize),
		logpkg.Int("pages_fetched", res.Pages),
		logpkg.Int("materialized", available),
		logpkg.Str("stop", string(res.Stop)),
		logpkg.Dur("took", time.Since(started)),
	}
	if res.Err != nil {
		out.Partial = true
		s.logger.WithContext(ctx).Warn("log walk incomplete", append(fields, logpkg.Err(res.Err))...)
		return out, res.Err
	}
	s.logger.WithContext(ctx).Debug("logs fetched", fields...)
	return out, nil
}

// coarseWindow reports whether the provider bounds a window of kind more
// loosely than requested. Message date bounds are whole days, so the window
// has to be re-applied to every entry.
func coarseWindow(kind commlog.Kind, f commlog.Filters) bool {
	return kind == commlog.KindMessage && (!f.Since.IsZero() || !f.Until.IsZero())
}

// collect walks src until enough(result) holds, reusing a cached walk when
// it already satisfies the request.
func (s *Service) collect(ctx context.Context, src walker.Source, filters commlog.Filters, opts walker.Options, enough func(walker.Result) bool) walker.Result {
	key := cacheKey(src.Kind(), filters, opts.Skip, s.rt.Walker().Config().PageSize)
	if s.cache != nil {
		if it := s.cache.Get(key); it != nil {
			if r := it.Value(); r.Exhausted() || enough(r) {
				return r
			}
		}
	}

	var wk *walker.Walk
	opts.Until = func(es []commlog.LogEntry) bool {
		return enough(walker.Result{Entries: es, Skipped: wk.Skipped()})
	}
	wk = s.rt.Walker().Start(ctx, src, opts)
	for wk.Next() {
	}
	res := wk.Result()
	if s.cache != nil && res.Err == nil {
		s.cache.Set(key, res, ttlcache.DefaultTTL)
	}
	return res
}

// cacheKey identifies a walk. Predicated walks always start at offset zero
// so their skip is zero; unpredicated walks share a key per provider page.
func cacheKey(kind commlog.Kind, f commlog.Filters, skip, pageSize int) string {
	if pageSize > 0 {
		skip = skip / pageSize * pageSize
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%s|skip=%d", kind, f.Key(), skip)
	return b.String()
}

// sortEntries orders by timestamp descending, then id ascending, so repeated
// queries return identical windows.
func sortEntries(es []commlog.LogEntry) {
	slices.SortStableFunc(es, func(a, b commlog.LogEntry) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// IsUpstreamError reports whether err came from a failed provider walk.
func IsUpstreamError(err error) bool { return errors.Is(err, commlog.ErrUpstreamUnavailable) }
