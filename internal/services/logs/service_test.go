package logsvc

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzbill/commlog/internal/commlog"
	cfgpkg "github.com/rzbill/commlog/internal/config"
	"github.com/rzbill/commlog/internal/provider"
	"github.com/rzbill/commlog/internal/provider/providertest"
	"github.com/rzbill/commlog/internal/runtime"
	logpkg "github.com/rzbill/commlog/pkg/log"
)

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

const target = "+15557778888"

func newService(t *testing.T, fake *providertest.Fake, tweak func(*cfgpkg.Config)) *Service {
	t.Helper()
	cfg := cfgpkg.Default()
	cfg.Walk.RetryBackoff = 0
	if tweak != nil {
		tweak(&cfg)
	}
	rt, err := runtime.Open(runtime.Options{Config: cfg, Logger: logpkg.NewNop(), Client: fake})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })
	return NewWithLogger(rt, logpkg.NewNop())
}

// seedCalls adds n calls one minute apart; indices in match use target.
func seedCalls(f *providertest.Fake, n int, match map[int]bool) {
	for i := 0; i < n; i++ {
		num := fmt.Sprintf("+1555000%04d", i)
		if match[i] {
			num = target
		}
		f.AddCalls(providertest.Record{ID: fmt.Sprintf("c%03d", i), Number: num, Direction: "inbound", At: base.Add(-time.Duration(i) * time.Minute)})
	}
}

func seedMessages(f *providertest.Fake, n int, inbound func(int) bool) {
	for i := 0; i < n; i++ {
		dir := "outbound"
		if inbound != nil && inbound(i) {
			dir = "inbound"
		}
		f.AddMessages(providertest.Record{ID: fmt.Sprintf("SM%03d", i), Number: "+15550001111", Direction: dir, At: base.Add(-time.Duration(i) * time.Minute)})
	}
}

func ids(es []commlog.LogEntry) []string {
	out := make([]string, 0, len(es))
	for _, e := range es {
		out = append(out, e.ID)
	}
	return out
}

var sevenMatches = map[int]bool{3: true, 57: true, 101: true, 150: true, 199: true, 220: true, 249: true}

func TestNumberLookupWalksUntilExhausted(t *testing.T) {
	f := providertest.New()
	seedCalls(f, 250, sevenMatches)
	svc := newService(t, f, nil)

	res, err := svc.FetchLogs(context.Background(), commlog.KindCall, commlog.Filters{Number: "(555) 777-8888"}, 1, 30)
	require.NoError(t, err)
	assert.Equal(t, []string{"c003", "c057", "c101", "c150", "c199", "c220", "c249"}, ids(res.Entries))
	assert.Equal(t, 7, res.TotalCount)
	assert.False(t, res.IsEstimatedTotal)
	assert.False(t, res.HasNextPage)
	assert.False(t, res.Partial)
	for _, e := range res.Entries {
		assert.Equal(t, target, e.CounterpartyNumber)
	}
	calls, _ := f.Requests()
	assert.Equal(t, 3, calls)
}

func TestUnfilteredMessagesPageTwoEstimated(t *testing.T) {
	f := providertest.New()
	seedMessages(f, 500, nil)
	svc := newService(t, f, nil)

	res, err := svc.FetchLogs(context.Background(), commlog.KindMessage, commlog.Filters{}, 2, 30)
	require.NoError(t, err)
	require.Len(t, res.Entries, 30)
	assert.Equal(t, "SM030", res.Entries[0].ID)
	assert.Equal(t, "SM059", res.Entries[29].ID)
	assert.True(t, res.IsEstimatedTotal)
	assert.Equal(t, 1000, res.TotalCount)
	assert.True(t, res.HasNextPage)
	_, msgs := f.Requests()
	assert.Equal(t, 1, msgs)
}

func TestUnfilteredSeekSkipsProviderPages(t *testing.T) {
	f := providertest.New()
	seedMessages(f, 500, nil)
	svc := newService(t, f, func(c *cfgpkg.Config) { c.Walk.PageSize = 50 })

	res, err := svc.FetchLogs(context.Background(), commlog.KindMessage, commlog.Filters{}, 5, 30)
	require.NoError(t, err)
	require.Len(t, res.Entries, 30)
	assert.Equal(t, "SM120", res.Entries[0].ID)
	assert.True(t, res.HasNextPage)
	_, msgs := f.Requests()
	assert.Equal(t, 2, msgs)
}

func TestUnfilteredExhaustedIsExact(t *testing.T) {
	f := providertest.New()
	seedMessages(f, 45, nil)
	svc := newService(t, f, nil)

	res, err := svc.FetchLogs(context.Background(), commlog.KindMessage, commlog.Filters{}, 2, 30)
	require.NoError(t, err)
	assert.Len(t, res.Entries, 15)
	assert.Equal(t, 45, res.TotalCount)
	assert.False(t, res.IsEstimatedTotal)
	assert.False(t, res.HasNextPage)
}

func TestSeekOvershootFallsBackToExactTotal(t *testing.T) {
	f := providertest.New()
	seedMessages(f, 50, nil)
	svc := newService(t, f, func(c *cfgpkg.Config) { c.Walk.PageSize = 10 })

	res, err := svc.FetchLogs(context.Background(), commlog.KindMessage, commlog.Filters{}, 7, 10)
	require.NoError(t, err)
	assert.NotNil(t, res.Entries)
	assert.Empty(t, res.Entries)
	assert.Equal(t, 50, res.TotalCount)
	assert.False(t, res.IsEstimatedTotal)
}

func TestFetchLogsIsIdempotent(t *testing.T) {
	f := providertest.New()
	seedCalls(f, 250, sevenMatches)
	svc := newService(t, f, nil)
	ctx := context.Background()

	for _, filters := range []commlog.Filters{{}, {Number: target}, {Direction: commlog.DirectionInbound, Expr: `ts_ms > 0`}} {
		first, err := svc.FetchLogs(ctx, commlog.KindCall, filters, 2, 20)
		require.NoError(t, err)
		second, err := svc.FetchLogs(ctx, commlog.KindCall, filters, 2, 20)
		require.NoError(t, err)
		if diff := cmp.Diff(first, second); diff != "" {
			t.Fatalf("results differ for %+v (-first +second):\n%s", filters, diff)
		}
	}
}

func TestPageBeyondData(t *testing.T) {
	f := providertest.New()
	seedCalls(f, 250, sevenMatches)
	svc := newService(t, f, nil)

	res, err := svc.FetchLogs(context.Background(), commlog.KindCall, commlog.Filters{Number: target}, 5, 30)
	require.NoError(t, err)
	assert.NotNil(t, res.Entries)
	assert.Empty(t, res.Entries)
	assert.Equal(t, 7, res.TotalCount)
	assert.False(t, res.HasNextPage)
	assert.Equal(t, 5, res.Page)
}

func TestInvalidRequestsMakeNoProviderCall(t *testing.T) {
	f := providertest.New()
	seedCalls(f, 10, nil)
	svc := newService(t, f, nil)
	ctx := context.Background()

	for _, tc := range []struct{ page, size int }{{0, 30}, {-1, 30}, {1, 0}, {1, 501}} {
		_, err := svc.FetchLogs(ctx, commlog.KindCall, commlog.Filters{}, tc.page, tc.size)
		assert.ErrorIs(t, err, commlog.ErrInvalidPageRequest, "page=%d size=%d", tc.page, tc.size)
	}
	_, err := svc.FetchLogs(ctx, commlog.KindCall, commlog.Filters{Expr: "kind =="}, 1, 30)
	assert.ErrorIs(t, err, commlog.ErrInvalidFilter)

	calls, msgs := f.Requests()
	assert.Zero(t, calls)
	assert.Zero(t, msgs)
}

func TestPartialFailureOnThirdOfFivePages(t *testing.T) {
	f := providertest.New()
	seedMessages(f, 500, func(i int) bool { return i%10 == 0 })
	f.FailMessages = func(_ int, q provider.MessageQuery) error {
		if q.Offset == 200 {
			return &provider.StatusError{Provider: "fake", StatusCode: 502}
		}
		return nil
	}
	svc := newService(t, f, nil)

	res, err := svc.FetchLogs(context.Background(), commlog.KindMessage, commlog.Filters{Direction: commlog.DirectionInbound}, 1, 30)
	require.Error(t, err)
	assert.ErrorIs(t, err, commlog.ErrUpstreamUnavailable)
	assert.True(t, IsUpstreamError(err))
	assert.True(t, res.Partial)
	assert.True(t, res.IsEstimatedTotal)
	require.Len(t, res.Entries, 20)
	assert.Equal(t, "SM000", res.Entries[0].ID)
	assert.Equal(t, "SM190", res.Entries[19].ID)
}

func TestCallWindowFilters(t *testing.T) {
	f := providertest.New()
	seedCalls(f, 20, nil)
	svc := newService(t, f, nil)

	res, err := svc.FetchLogs(context.Background(), commlog.KindCall, commlog.Filters{
		Since: base.Add(-5 * time.Minute),
		Until: base.Add(-2 * time.Minute),
	}, 1, 30)
	require.NoError(t, err)
	assert.Equal(t, []string{"c002", "c003", "c004", "c005"}, ids(res.Entries))
	assert.Equal(t, 4, res.TotalCount)
	assert.False(t, res.IsEstimatedTotal)
}

// dayBounds widens message date bounds to whole UTC days, as the hosted
// provider does.
type dayBounds struct{ *providertest.Fake }

func (d dayBounds) ListMessages(ctx context.Context, q provider.MessageQuery) ([][]byte, error) {
	if !q.DateAfter.IsZero() {
		q.DateAfter = q.DateAfter.UTC().Truncate(24 * time.Hour)
	}
	if !q.DateBefore.IsZero() {
		q.DateBefore = q.DateBefore.UTC().Truncate(24 * time.Hour).Add(24*time.Hour - time.Nanosecond)
	}
	return d.Fake.ListMessages(ctx, q)
}

func TestMessageWindowNarrowsDayBounds(t *testing.T) {
	f := providertest.New()
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i, at := range []time.Duration{10*time.Hour + 30*time.Minute, 12*time.Hour + 30*time.Minute, 15*time.Hour + 30*time.Minute} {
		f.AddMessages(providertest.Record{ID: fmt.Sprintf("SM%03d", i), Number: "+15550001111", Direction: "inbound", At: day.Add(at)})
	}
	cfg := cfgpkg.Default()
	cfg.Walk.RetryBackoff = 0
	rt, err := runtime.Open(runtime.Options{
		Config: cfg,
		Logger: logpkg.NewNop(),
		Client: provider.Pair{Calls: f, Messages: dayBounds{f}},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })
	svc := NewWithLogger(rt, logpkg.NewNop())

	res, err := svc.FetchLogs(context.Background(), commlog.KindMessage, commlog.Filters{
		Since: day.Add(12 * time.Hour),
		Until: day.Add(13 * time.Hour),
	}, 1, 30)
	require.NoError(t, err)
	assert.Equal(t, []string{"SM001"}, ids(res.Entries))
	assert.Equal(t, 1, res.TotalCount)
	assert.False(t, res.IsEstimatedTotal)
	assert.False(t, res.HasNextPage)
}

func TestCacheReusesCompletedWalk(t *testing.T) {
	f := providertest.New()
	seedCalls(f, 250, sevenMatches)
	svc := newService(t, f, func(c *cfgpkg.Config) { c.CacheTTL = cfgpkg.Duration(time.Minute) })
	ctx := context.Background()

	_, err := svc.FetchLogs(ctx, commlog.KindCall, commlog.Filters{Number: target}, 1, 5)
	require.NoError(t, err)
	before, _ := f.Requests()

	res, err := svc.FetchLogs(ctx, commlog.KindCall, commlog.Filters{Number: target}, 2, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"c220", "c249"}, ids(res.Entries))
	after, _ := f.Requests()
	assert.Equal(t, before, after)
}

func TestSortEntriesBreaksTiesById(t *testing.T) {
	es := []commlog.LogEntry{
		{ID: "b", Timestamp: base},
		{ID: "c", Timestamp: base.Add(time.Second)},
		{ID: "a", Timestamp: base},
		{ID: "z"},
	}
	sortEntries(es)
	assert.Equal(t, []string{"c", "a", "b", "z"}, ids(es))
}
