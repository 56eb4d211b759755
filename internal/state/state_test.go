package state

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/region-weather/internal/domain"
)

func testSnapshot(codes ...string) *domain.Snapshot {
	readings := make(map[string]domain.Reading, len(codes))
	for i, c := range codes {
		readings[c] = domain.Reading{Temperature: float64(i)}
	}
	return domain.NewSnapshot("2024-05-01", "14:00", codes, readings)
}

// --- generation ---

func TestGeneration_NextSupersedes(t *testing.T) {
	var g Generation
	assert.Zero(t, g.Current())

	first, ctx1 := g.Next(context.Background())
	assert.True(t, g.IsCurrent(first))

	second, ctx2 := g.Next(context.Background())
	assert.Greater(t, second, first)
	assert.False(t, g.IsCurrent(first))
	assert.True(t, g.IsCurrent(second))

	assert.ErrorIs(t, ctx1.Err(), context.Canceled, "superseded request is cancelled")
	assert.NoError(t, ctx2.Err())

	g.Done(second)
	assert.ErrorIs(t, ctx2.Err(), context.Canceled, "done releases the context")
	assert.True(t, g.IsCurrent(second), "done does not advance the counter")
}

func TestGeneration_DoneOnStaleTicketKeepsCurrentContext(t *testing.T) {
	var g Generation
	first, _ := g.Next(context.Background())
	_, ctx2 := g.Next(context.Background())

	g.Done(first)
	assert.NoError(t, ctx2.Err())
}

func TestGeneration_ConcurrentNextIsMonotonic(t *testing.T) {
	var g Generation
	var wg sync.WaitGroup
	seen := make(chan uint64, 100)
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticket, _ := g.Next(context.Background())
			seen <- ticket
		}()
	}
	wg.Wait()
	close(seen)

	unique := map[uint64]bool{}
	for ticket := range seen {
		unique[ticket] = true
	}
	assert.Len(t, unique, 100)
	assert.Equal(t, uint64(100), g.Current())
}

// --- store ---

func TestStore_InitAndReset(t *testing.T) {
	s := New()
	s.Init(Selection{Date: "2024-05-01", Time: "14:00", EndDate: "2024-05-01", Region: "34"})
	require.True(t, s.ApplySnapshot(Always, testSnapshot("34")))
	s.SetError(domain.SnapshotEmptyError())

	s.Init(Selection{Date: "2024-05-02", Time: "09:00"})
	v := s.View()
	assert.Equal(t, "2024-05-02", v.Selection.Date)
	assert.Nil(t, v.Snapshot)
	assert.Nil(t, v.Err)

	s.Reset()
	assert.Equal(t, Selection{}, s.Selection())
}

func TestStore_ApplySnapshotRespectsGuard(t *testing.T) {
	s := New()
	first := testSnapshot("34")
	require.True(t, s.ApplySnapshot(Always, first))

	stale := func() bool { return false }
	assert.False(t, s.ApplySnapshot(stale, testSnapshot("06")))
	assert.False(t, s.FailSnapshot(stale, domain.SnapshotEmptyError()))

	assert.Same(t, first, s.Snapshot())
	assert.Nil(t, s.Err())
}

func TestStore_FailSnapshotKeepsLastKnownGood(t *testing.T) {
	s := New()
	good := testSnapshot("34", "06")
	require.True(t, s.ApplySnapshot(Always, good))
	s.BeginSnapshot(Always)
	assert.True(t, s.View().SnapshotLoading)

	require.True(t, s.FailSnapshot(Always, domain.SnapshotEmptyError()))

	v := s.View()
	assert.Same(t, good, v.Snapshot)
	require.NotNil(t, v.Err)
	assert.Equal(t, domain.MsgSnapshotEmpty, v.Err.Message)
	assert.False(t, v.SnapshotLoading)

	require.True(t, s.ApplySnapshot(Always, testSnapshot("35")))
	assert.Nil(t, s.Err(), "successful apply clears the error")
}

func TestStore_BeginDetailDiscardsOtherKey(t *testing.T) {
	s := New()
	key := domain.NewSeriesKey("34", "2024-05-01", "")
	require.True(t, s.ApplySeries(Always, domain.DetailSeries{SeriesKey: key, Source: domain.SourceAuthoritative}, true))

	require.True(t, s.BeginDetail(Always, key))
	assert.NotNil(t, s.Series(), "same key keeps the displayed series")

	require.True(t, s.BeginDetail(Always, domain.NewSeriesKey("06", "2024-05-01", "")))
	assert.Nil(t, s.Series())
	assert.True(t, s.View().DetailLoading)
}

func TestStore_OfferFallback(t *testing.T) {
	s := New()
	s.Init(Selection{Date: "2024-05-01", Time: "14:00", Region: "34"})
	key := domain.NewSeriesKey("34", "2024-05-01", "")
	fallback := domain.DetailSeries{SeriesKey: key, Source: domain.SourceFallback}

	assert.True(t, s.OfferFallback(fallback))
	assert.Equal(t, domain.SourceFallback, s.Series().Source)

	require.True(t, s.ApplySeries(Always, domain.DetailSeries{SeriesKey: key, Source: domain.SourceAuthoritative}, true))
	assert.False(t, s.OfferFallback(fallback), "never replaces authoritative data")

	other := domain.DetailSeries{SeriesKey: domain.NewSeriesKey("06", "2024-05-01", ""), Source: domain.SourceFallback}
	assert.False(t, s.OfferFallback(other), "key must match the selection")
}

func TestStore_SettleDetail(t *testing.T) {
	key := domain.NewSeriesKey("34", "2024-05-01", "")

	s := New()
	fallback, ok := s.SettleDetail(Always, key, domain.DetailFetchError(nil))
	require.True(t, ok)
	assert.False(t, fallback)
	require.NotNil(t, s.Err())

	fallback, ok = s.SettleDetail(func() bool { return false }, key, nil)
	assert.False(t, ok)
	assert.False(t, fallback)
	assert.NotNil(t, s.Err(), "stale settle leaves the error alone")
}

func TestStore_SettleDetailKeepsDisplayedFallback(t *testing.T) {
	key := domain.NewSeriesKey("34", "2024-05-01", "")
	s := New()
	s.Init(Selection{Date: "2024-05-01", Time: "12:00", EndDate: "2024-05-01", Region: "34"})
	require.True(t, s.OfferFallback(domain.DetailSeries{SeriesKey: key, Source: domain.SourceFallback}))

	fallback, ok := s.SettleDetail(Always, key, domain.DetailFetchError(nil))
	require.True(t, ok)
	assert.True(t, fallback)
	assert.Nil(t, s.Err())
	assert.False(t, s.View().DetailLoading)

	other := domain.NewSeriesKey("06", "2024-05-01", "")
	fallback, _ = s.SettleDetail(Always, other, domain.DetailFetchError(nil))
	assert.False(t, fallback, "a fallback for another key does not silence the error")
	assert.NotNil(t, s.Err())
}

func TestStore_OfferFallbackClearsDetailError(t *testing.T) {
	key := domain.NewSeriesKey("34", "2024-05-01", "")
	s := New()
	s.Init(Selection{Date: "2024-05-01", Time: "12:00", EndDate: "2024-05-01", Region: "34"})
	s.SetError(domain.DetailFetchError(nil))

	require.True(t, s.OfferFallback(domain.DetailSeries{SeriesKey: key, Source: domain.SourceFallback}))
	assert.Nil(t, s.Err())

	s.SetError(domain.SnapshotEmptyError())
	require.True(t, s.OfferFallback(domain.DetailSeries{SeriesKey: key, Source: domain.SourceFallback}))
	assert.NotNil(t, s.Err(), "snapshot errors stay visible")
}

func TestStore_CheckReadiness(t *testing.T) {
	s := New()
	require.Error(t, s.CheckReadiness(context.Background()))
	s.ApplySnapshot(Always, testSnapshot("34"))
	assert.NoError(t, s.CheckReadiness(context.Background()))
}

func TestStore_GuardEvaluatedUnderLock(t *testing.T) {
	s := New()
	var g Generation
	ticket, _ := g.Next(context.Background())
	guard := g.Guard(ticket)

	g.Next(context.Background())
	assert.False(t, s.ApplySnapshot(guard, testSnapshot("34")))
	assert.Nil(t, s.Snapshot())
}
