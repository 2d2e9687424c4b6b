package walker

import (
	"context"
	"slices"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/rzbill/commlog/internal/commlog"
	"github.com/rzbill/commlog/internal/normalize"
	"github.com/rzbill/commlog/internal/provider"
	logpkg "github.com/rzbill/commlog/pkg/log"
)

// Stop names the condition that ended a walk.
type Stop string

const (
	StopNone      Stop = ""
	StopExhausted Stop = "exhausted"
	StopCap       Stop = "cap"
	StopPredicate Stop = "predicate"
	StopError     Stop = "error"
	StopCancelled Stop = "cancelled"
)

// Config bounds every walk started by a Walker.
type Config struct {
	// PageSize is the provider page size requested per fetch.
	PageSize   int
	MaxRecords int
	MaxPages   int
	// RetryBackoff is the wait before the single retry of a failed fetch.
	RetryBackoff time.Duration
	// FetchTimeout bounds each fetch attempt; zero disables it.
	FetchTimeout time.Duration
}

// DefaultConfig mirrors the service defaults.
func DefaultConfig() Config {
	return Config{PageSize: 100, MaxRecords: 5000, MaxPages: 100, RetryBackoff: 250 * time.Millisecond, FetchTimeout: 10 * time.Second}
}

// Options tune a single walk.
type Options struct {
	// Until stops the walk once it returns true for the accumulated entries.
	Until func(entries []commlog.LogEntry) bool
	// Skip asks Seeker sources to start this many records in.
	Skip int
}

// Page is one fetched provider page after normalization and dedupe.
type Page struct {
	Index  int
	Cursor Cursor
	// Raw is the number of records the provider returned.
	Raw int
	// Entries are the records not seen earlier in the walk, newest first.
	Entries    []commlog.LogEntry
	Dropped    int
	Duplicates int
	// Oldest is the oldest non-zero timestamp on the page, duplicates included.
	Oldest time.Time
}

// Result summarises a completed walk.
type Result struct {
	Entries []commlog.LogEntry
	// Skipped counts records a Seeker skipped before the first page.
	Skipped int
	Pages   int
	Stop    Stop
	Partial bool
	Err     error
}

// Exhausted reports whether the provider had no further records.
func (r Result) Exhausted() bool { return r.Stop == StopExhausted }

// Walker starts walks with shared limits, normalizer and telemetry.
type Walker struct {
	cfg    Config
	norm   *normalize.Normalizer
	logger logpkg.Logger
	obs    Observer
}

// Option configures a Walker.
type Option func(*Walker)

func WithLogger(l logpkg.Logger) Option {
	return func(w *Walker) {
		if l != nil {
			w.logger = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(w *Walker) {
		if o != nil {
			w.obs = o
		}
	}
}

func WithNormalizer(n *normalize.Normalizer) Option {
	return func(w *Walker) {
		if n != nil {
			w.norm = n
		}
	}
}

// New returns a Walker. Non-positive limits fall back to DefaultConfig.
func New(cfg Config, opts ...Option) *Walker {
	def := DefaultConfig()
	if cfg.PageSize <= 0 {
		cfg.PageSize = def.PageSize
	}
	if cfg.MaxRecords <= 0 {
		cfg.MaxRecords = def.MaxRecords
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = def.MaxPages
	}
	if cfg.RetryBackoff < 0 {
		cfg.RetryBackoff = 0
	}
	w := &Walker{
		cfg:    cfg,
		norm:   normalize.New(),
		logger: logpkg.NewLogger().With(logpkg.Component("walker")),
		obs:    NoopObserver{},
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Config returns the effective limits.
func (w *Walker) Config() Config { return w.cfg }

// Walk is a lazy, finite, non-restartable sequence of pages.
type Walk struct {
	w    *Walker
	ctx  context.Context
	src  Source
	opts Options

	cursor  Cursor
	seen    map[string]struct{}
	entries []commlog.LogEntry
	skipped int
	pages   int
	page    Page

	done bool
	stop Stop
	err  error
}

// Start prepares a walk over src. No request is made until Next.
func (w *Walker) Start(ctx context.Context, src Source, opts Options) *Walk {
	wk := &Walk{w: w, ctx: ctx, src: src, opts: opts, cursor: src.Start(), seen: make(map[string]struct{})}
	if sk, ok := src.(Seeker); ok && opts.Skip > 0 {
		wk.cursor, wk.skipped = sk.Seek(opts.Skip, w.cfg.PageSize)
	}
	return wk
}

// Collect drives a walk until it stops.
func (w *Walker) Collect(ctx context.Context, src Source, opts Options) Result {
	wk := w.Start(ctx, src, opts)
	for wk.Next() {
	}
	return wk.Result()
}

// Next fetches the next page. It returns false once the walk has stopped;
// Err and Result then describe why.
func (wk *Walk) Next() bool {
	if wk.done {
		return false
	}
	if err := wk.ctx.Err(); err != nil {
		wk.finish(StopCancelled, err)
		return false
	}
	if wk.pages >= wk.w.cfg.MaxPages || len(wk.entries) >= wk.w.cfg.MaxRecords {
		wk.finish(StopCap, nil)
		return false
	}

	kind := wk.src.Kind()
	limit := wk.w.cfg.PageSize
	started := time.Now()
	raw, attempts, err := wk.fetch(limit)
	if err != nil {
		if ctxErr := wk.ctx.Err(); ctxErr != nil {
			wk.finish(StopCancelled, ctxErr)
			return false
		}
		perr := &commlog.ProviderPageError{Kind: kind, Cursor: wk.cursor.String(), Attempts: attempts, Err: err}
		wk.w.logger.Warn("page fetch failed",
			logpkg.Str("kind", string(kind)),
			logpkg.Str("cursor", wk.cursor.String()),
			logpkg.Int("attempts", attempts),
			logpkg.Int("fetched", len(wk.entries)),
			logpkg.Err(err))
		wk.finish(StopError, &commlog.UpstreamUnavailableError{Kind: kind, Fetched: len(wk.entries), Err: perr})
		return false
	}
	wk.w.obs.PageFetched(kind, len(raw), time.Since(started))

	p := wk.buildPage(raw)
	wk.pages++
	wk.entries = append(wk.entries, p.Entries...)
	wk.page = p

	next := wk.src.Advance(wk.cursor, p)
	if len(p.Entries) == 0 && sameCursor(next, wk.cursor) && len(raw) >= limit {
		next = stepPast(wk.cursor)
		wk.w.logger.Warn("cursor did not advance; stepping past boundary",
			logpkg.Str("kind", string(kind)),
			logpkg.Str("cursor", wk.cursor.String()),
			logpkg.Str("next", next.String()))
	}
	wk.cursor = next

	switch {
	case len(raw) < limit:
		wk.finish(StopExhausted, nil)
	case wk.opts.Until != nil && wk.opts.Until(wk.entries):
		wk.finish(StopPredicate, nil)
	case wk.pages >= wk.w.cfg.MaxPages || len(wk.entries) >= wk.w.cfg.MaxRecords:
		wk.finish(StopCap, nil)
	}
	return true
}

func (wk *Walk) fetch(limit int) ([][]byte, int, error) {
	kind := wk.src.Kind()
	attempts := 0
	var raw [][]byte
	op := func() error {
		attempts++
		ctx := wk.ctx
		if t := wk.w.cfg.FetchTimeout; t > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, t)
			defer cancel()
		}
		recs, err := wk.src.Fetch(ctx, wk.cursor, limit)
		if err != nil {
			if provider.IsPermanent(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		raw = recs
		return nil
	}
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = wk.w.cfg.RetryBackoff
	eb.RandomizationFactor = 0
	eb.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(eb, 1), wk.ctx)
	err := backoff.RetryNotify(op, b, func(err error, d time.Duration) {
		wk.w.obs.PageRetried(kind)
		wk.w.logger.Debug("retrying page fetch",
			logpkg.Str("kind", string(kind)),
			logpkg.Str("cursor", wk.cursor.String()),
			logpkg.Dur("wait", d),
			logpkg.Err(err))
	})
	return raw, attempts, err
}

func (wk *Walk) buildPage(raw [][]byte) Page {
	kind := wk.src.Kind()
	p := Page{Index: wk.pages, Cursor: wk.cursor, Raw: len(raw)}
	norm := make([]commlog.LogEntry, 0, len(raw))
	for _, r := range raw {
		e, err := wk.w.norm.Normalize(r, kind)
		if err != nil {
			p.Dropped++
			wk.w.obs.RecordDropped(kind)
			wk.w.logger.Warn("dropping malformed record", logpkg.Str("kind", string(kind)), logpkg.Err(err))
			continue
		}
		if !e.Timestamp.IsZero() && (p.Oldest.IsZero() || e.Timestamp.Before(p.Oldest)) {
			p.Oldest = e.Timestamp
		}
		norm = append(norm, e)
	}
	slices.SortStableFunc(norm, func(a, b commlog.LogEntry) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	p.Entries = make([]commlog.LogEntry, 0, len(norm))
	for _, e := range norm {
		if _, dup := wk.seen[e.ID]; dup {
			p.Duplicates++
			continue
		}
		wk.seen[e.ID] = struct{}{}
		p.Entries = append(p.Entries, e)
	}
	return p
}

func (wk *Walk) finish(stop Stop, err error) {
	wk.done = true
	wk.stop = stop
	wk.err = err
	wk.w.obs.WalkFinished(wk.src.Kind(), stop, len(wk.entries))
}

// Page returns the page fetched by the last successful Next.
func (wk *Walk) Page() Page { return wk.page }

// Skipped returns how many records a Seeker skipped before the first page.
func (wk *Walk) Skipped() int { return wk.skipped }

// Entries returns everything accumulated so far, in page order.
func (wk *Walk) Entries() []commlog.LogEntry { return wk.entries }

// Err is non-nil when the walk ended on a provider failure or cancellation.
// Provider failures match commlog.ErrUpstreamUnavailable.
func (wk *Walk) Err() error { return wk.err }

// Result snapshots the walk. Call it after Next returned false.
func (wk *Walk) Result() Result {
	return Result{
		Entries: wk.entries,
		Skipped: wk.skipped,
		Pages:   wk.pages,
		Stop:    wk.stop,
		Partial: wk.stop == StopError || wk.stop == StopCancelled,
		Err:     wk.err,
	}
}
