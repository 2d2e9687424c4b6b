package walker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/rzbill/commlog/internal/commlog"
	"github.com/rzbill/commlog/internal/provider"
	"github.com/rzbill/commlog/internal/provider/providertest"
	logpkg "github.com/rzbill/commlog/pkg/log"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type countingObserver struct {
	mu      sync.Mutex
	pages   int
	retries int
	drops   int
	stops   []Stop
}

func (o *countingObserver) PageFetched(commlog.Kind, int, time.Duration) {
	o.mu.Lock()
	o.pages++
	o.mu.Unlock()
}

func (o *countingObserver) PageRetried(commlog.Kind) {
	o.mu.Lock()
	o.retries++
	o.mu.Unlock()
}

func (o *countingObserver) RecordDropped(commlog.Kind) {
	o.mu.Lock()
	o.drops++
	o.mu.Unlock()
}

func (o *countingObserver) WalkFinished(_ commlog.Kind, s Stop, _ int) {
	o.mu.Lock()
	o.stops = append(o.stops, s)
	o.mu.Unlock()
}

func newWalker(pageSize int, obs Observer) *Walker {
	return New(Config{PageSize: pageSize, MaxRecords: 10000, MaxPages: 1000}, WithLogger(logpkg.NewNop()), WithObserver(obs))
}

func seedMessages(f *providertest.Fake, n int) {
	for i := 0; i < n; i++ {
		f.AddMessages(providertest.Record{
			ID:        fmt.Sprintf("SM%04d", i),
			Number:    "+15551230000",
			Direction: "outbound",
			At:        base.Add(-time.Duration(i) * time.Minute),
		})
	}
}

func ids(es []commlog.LogEntry) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.ID
	}
	return out
}

func TestCollectMessagesUntilExhausted(t *testing.T) {
	f := providertest.New()
	seedMessages(f, 250)
	obs := &countingObserver{}

	res := newWalker(100, obs).Collect(context.Background(), &MessageSource{Lister: f}, Options{})
	require.NoError(t, res.Err)
	assert.Equal(t, StopExhausted, res.Stop)
	assert.True(t, res.Exhausted())
	assert.False(t, res.Partial)
	assert.Len(t, res.Entries, 250)
	assert.Equal(t, 3, res.Pages)
	assert.Equal(t, "SM0000", res.Entries[0].ID)
	assert.Equal(t, "SM0249", res.Entries[249].ID)
	assert.Equal(t, []Stop{StopExhausted}, obs.stops)
}

func TestCallWalkDedupesOverlappingWindows(t *testing.T) {
	f := providertest.New()
	t1 := base.Add(-time.Minute)
	f.AddCalls(
		providertest.Record{ID: "c0", Number: "+15550000001", At: base},
		providertest.Record{ID: "c1", Number: "+15550000002", At: t1},
		providertest.Record{ID: "c2", Number: "+15550000003", At: t1},
		providertest.Record{ID: "c3", Number: "+15550000004", At: base.Add(-2 * time.Minute)},
		providertest.Record{ID: "c4", Number: "+15550000005", At: base.Add(-3 * time.Minute)},
	)
	src := &CallSource{Lister: f, Until: base}

	res := newWalker(2, NoopObserver{}).Collect(context.Background(), src, Options{})
	require.NoError(t, res.Err)
	assert.Equal(t, StopExhausted, res.Stop)
	assert.ElementsMatch(t, []string{"c0", "c1", "c2", "c3", "c4"}, ids(res.Entries))

	seen := map[string]bool{}
	for _, e := range res.Entries {
		assert.False(t, seen[e.ID], "duplicate %s", e.ID)
		seen[e.ID] = true
	}
}

func TestCallWalkReportsDuplicatesPerPage(t *testing.T) {
	f := providertest.New()
	f.AddCalls(
		providertest.Record{ID: "a", Number: "+15550000001", At: base},
		providertest.Record{ID: "b", Number: "+15550000002", At: base.Add(-time.Second)},
		providertest.Record{ID: "c", Number: "+15550000003", At: base.Add(-2 * time.Second)},
	)
	wk := newWalker(2, NoopObserver{}).Start(context.Background(), &CallSource{Lister: f, Until: base}, Options{})

	require.True(t, wk.Next())
	assert.Equal(t, []string{"a", "b"}, ids(wk.Page().Entries))
	next, ok := wk.src.Advance(wk.Page().Cursor, wk.Page()).(TimeCursor)
	require.True(t, ok)
	assert.True(t, next.Before.Equal(base.Add(-time.Second)))

	require.True(t, wk.Next())
	assert.Equal(t, []string{"c"}, ids(wk.Page().Entries))
	assert.Equal(t, 1, wk.Page().Duplicates)

	// the short tail page re-fetches the inclusive boundary record only
	require.True(t, wk.Next())
	assert.Empty(t, wk.Page().Entries)
	assert.Equal(t, 1, wk.Page().Duplicates)

	assert.False(t, wk.Next())
	assert.NoError(t, wk.Err())
	assert.Len(t, wk.Entries(), 3)
}

func TestPartialFailureOnThirdPage(t *testing.T) {
	f := providertest.New()
	seedMessages(f, 50)
	f.FailMessages = func(_ int, q provider.MessageQuery) error {
		if q.Offset == 20 {
			return &provider.StatusError{Provider: "fake", StatusCode: 503}
		}
		return nil
	}
	obs := &countingObserver{}

	res := newWalker(10, obs).Collect(context.Background(), &MessageSource{Lister: f}, Options{})
	assert.Equal(t, StopError, res.Stop)
	assert.True(t, res.Partial)
	assert.Len(t, res.Entries, 20)
	require.Error(t, res.Err)
	assert.True(t, errors.Is(res.Err, commlog.ErrUpstreamUnavailable))

	var perr *commlog.ProviderPageError
	require.ErrorAs(t, res.Err, &perr)
	assert.Equal(t, 2, perr.Attempts)
	assert.Equal(t, "offset=20", perr.Cursor)

	var uerr *commlog.UpstreamUnavailableError
	require.ErrorAs(t, res.Err, &uerr)
	assert.Equal(t, 20, uerr.Fetched)
	assert.Equal(t, 1, obs.retries)
}

func TestRetryRecoversTransientFailure(t *testing.T) {
	f := providertest.New()
	seedMessages(f, 15)
	f.FailMessages = func(n int, _ provider.MessageQuery) error {
		if n == 2 {
			return errors.New("connection reset")
		}
		return nil
	}
	obs := &countingObserver{}

	res := newWalker(10, obs).Collect(context.Background(), &MessageSource{Lister: f}, Options{})
	require.NoError(t, res.Err)
	assert.Len(t, res.Entries, 15)
	assert.Equal(t, 1, obs.retries)
	_, reqs := f.Requests()
	assert.Equal(t, 3, reqs)
}

func TestPermanentErrorIsNotRetried(t *testing.T) {
	f := providertest.New()
	seedMessages(f, 5)
	f.FailMessages = func(int, provider.MessageQuery) error {
		return &provider.StatusError{Provider: "fake", StatusCode: 401, Body: "bad credentials"}
	}

	res := newWalker(10, NoopObserver{}).Collect(context.Background(), &MessageSource{Lister: f}, Options{})
	var perr *commlog.ProviderPageError
	require.ErrorAs(t, res.Err, &perr)
	assert.Equal(t, 1, perr.Attempts)
	assert.Empty(t, res.Entries)
	_, reqs := f.Requests()
	assert.Equal(t, 1, reqs)
}

func TestPageCap(t *testing.T) {
	f := providertest.New()
	seedMessages(f, 100)
	w := New(Config{PageSize: 10, MaxPages: 2, MaxRecords: 1000}, WithLogger(logpkg.NewNop()))

	res := w.Collect(context.Background(), &MessageSource{Lister: f}, Options{})
	assert.Equal(t, StopCap, res.Stop)
	assert.False(t, res.Partial)
	assert.Len(t, res.Entries, 20)
}

func TestRecordCap(t *testing.T) {
	f := providertest.New()
	seedMessages(f, 100)
	w := New(Config{PageSize: 10, MaxPages: 100, MaxRecords: 25}, WithLogger(logpkg.NewNop()))

	res := w.Collect(context.Background(), &MessageSource{Lister: f}, Options{})
	assert.Equal(t, StopCap, res.Stop)
	assert.Len(t, res.Entries, 30)
}

func TestPredicateStop(t *testing.T) {
	f := providertest.New()
	seedMessages(f, 100)

	res := newWalker(10, NoopObserver{}).Collect(context.Background(), &MessageSource{Lister: f}, Options{
		Until: func(es []commlog.LogEntry) bool { return len(es) >= 15 },
	})
	assert.Equal(t, StopPredicate, res.Stop)
	assert.Len(t, res.Entries, 20)
	assert.Equal(t, 2, res.Pages)
}

func TestExhaustionWinsOverPredicate(t *testing.T) {
	f := providertest.New()
	seedMessages(f, 5)

	res := newWalker(10, NoopObserver{}).Collect(context.Background(), &MessageSource{Lister: f}, Options{
		Until: func([]commlog.LogEntry) bool { return true },
	})
	assert.Equal(t, StopExhausted, res.Stop)
}

func TestCancelledBeforeFirstPage(t *testing.T) {
	f := providertest.New()
	seedMessages(f, 5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := newWalker(10, NoopObserver{}).Collect(ctx, &MessageSource{Lister: f}, Options{})
	assert.Equal(t, StopCancelled, res.Stop)
	assert.True(t, res.Partial)
	assert.ErrorIs(t, res.Err, context.Canceled)
	_, reqs := f.Requests()
	assert.Zero(t, reqs)
}

func TestMalformedRecordsAreDropped(t *testing.T) {
	f := providertest.New()
	seedMessages(f, 3)
	f.AddRawMessage(base.Add(time.Hour), []byte(`{"direction":"inbound","from":"+15550001111"}`))
	f.AddRawMessage(base.Add(2*time.Hour), []byte(`not json`))
	obs := &countingObserver{}

	res := newWalker(10, obs).Collect(context.Background(), &MessageSource{Lister: f}, Options{})
	require.NoError(t, res.Err)
	assert.Len(t, res.Entries, 3)
	assert.Equal(t, 2, obs.drops)
}

func TestSeekSkipsWholePages(t *testing.T) {
	f := providertest.New()
	seedMessages(f, 50)

	res := newWalker(10, NoopObserver{}).Collect(context.Background(), &MessageSource{Lister: f}, Options{Skip: 25})
	require.NoError(t, res.Err)
	assert.Equal(t, 20, res.Skipped)
	assert.Len(t, res.Entries, 30)
	assert.Equal(t, "SM0020", res.Entries[0].ID)
}

func TestStalledCursorStepsPastBoundary(t *testing.T) {
	f := providertest.New()
	for i := 0; i < 3; i++ {
		f.AddCalls(providertest.Record{ID: fmt.Sprintf("tie%d", i), Number: "+15550000001", At: base})
	}
	f.AddCalls(providertest.Record{ID: "older", Number: "+15550000002", At: base.Add(-time.Hour)})

	res := newWalker(2, NoopObserver{}).Collect(context.Background(), &CallSource{Lister: f, Until: base}, Options{})
	require.NoError(t, res.Err)
	assert.Equal(t, StopExhausted, res.Stop)
	assert.Contains(t, ids(res.Entries), "older")
}

func TestCursorHelpers(t *testing.T) {
	assert.True(t, sameCursor(OffsetCursor{Offset: 3}, OffsetCursor{Offset: 3}))
	assert.False(t, sameCursor(OffsetCursor{Offset: 3}, TimeCursor{}))
	assert.Equal(t, TimeCursor{Before: base.Add(-time.Millisecond)}, stepPast(TimeCursor{Before: base}))
	assert.Equal(t, OffsetCursor{Offset: 4}, stepPast(OffsetCursor{Offset: 3}))
	assert.Equal(t, "offset=3", OffsetCursor{Offset: 3}.String())
	assert.Equal(t, "before=2024-05-01T12:00:00Z", TimeCursor{Before: base}.String())
}
