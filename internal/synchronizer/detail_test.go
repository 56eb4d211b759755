package synchronizer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/region-weather/internal/domain"
	"github.com/couchcryptid/region-weather/internal/observability"
	"github.com/couchcryptid/region-weather/internal/state"
)

type detailResult struct {
	resp domain.DetailResponse
	err  error
}

// gatedDetails blocks each fetch until the test releases a result for its code.
type gatedDetails struct {
	mu    sync.Mutex
	gates map[string]chan detailResult
}

func newGatedDetails() *gatedDetails {
	return &gatedDetails{gates: map[string]chan detailResult{}}
}

func (g *gatedDetails) gate(code string) chan detailResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[code]
	if !ok {
		ch = make(chan detailResult, 1)
		g.gates[code] = ch
	}
	return ch
}

func (g *gatedDetails) release(code string, resp domain.DetailResponse, err error) {
	g.gate(code) <- detailResult{resp: resp, err: err}
}

func (g *gatedDetails) FetchDetail(_ context.Context, req domain.DetailRequest) (domain.DetailResponse, error) {
	r := <-g.gate(req.Code)
	return r.resp, r.err
}

func detailResponse(code string, temps ...float64) domain.DetailResponse {
	resp := domain.DetailResponse{PlateCode: domain.FlexString(code), Timezone: domain.DefaultTimezone}
	hourly := &domain.HourlyArrays{}
	for i, temp := range temps {
		hourly.Time = append(hourly.Time, "2024-05-01T"+twoDigits(i)+":00")
		hourly.Temperature = append(hourly.Temperature, domain.Float(temp))
	}
	resp.Data.Hourly = hourly
	return resp
}

func twoDigits(i int) string {
	return string([]byte{byte('0' + i/10), byte('0' + i%10)})
}

type detailFixture struct {
	sync    *DetailSeriesSynchronizer
	fetcher *gatedDetails
	store   *state.Store
	metrics *observability.Metrics
}

func newDetailFixture(t *testing.T) detailFixture {
	t.Helper()
	f := detailFixture{
		fetcher: newGatedDetails(),
		store:   state.New(),
		metrics: observability.NewMetricsForTesting(),
	}
	f.sync = NewDetailSeriesSynchronizer(f.fetcher, f.store, fullCatalog(t), testClock(t), discardLogger(), f.metrics)
	return f
}

// withSnapshot installs a live snapshot containing code.
func (f detailFixture) withSnapshot(code string, r domain.Reading) {
	snap := domain.NewSnapshot("2024-05-01", "12:00", []string{code}, map[string]domain.Reading{code: r})
	f.store.ApplySnapshot(state.Always, snap)
}

func TestDetailRefresh_AppliesAuthoritativeSeries(t *testing.T) {
	f := newDetailFixture(t)
	f.store.SetError(domain.DetailFetchError(nil))
	f.fetcher.release("06", detailResponse("06", 10, 11, 12), nil)

	assert.Equal(t, OutcomeApplied, f.sync.Refresh(context.Background(), "06", "2024-04-20", "2024-04-21"))

	series := f.store.Series()
	require.NotNil(t, series)
	assert.Equal(t, domain.SourceAuthoritative, series.Source)
	assert.Equal(t, domain.SeriesKey{Code: "06", Start: "2024-04-20", End: "2024-04-21"}, series.Key())
	assert.Len(t, series.Hourly, 3)
	assert.Equal(t, "İl 06", series.Name, "catalog name fills a nameless payload")
	assert.Nil(t, f.store.Err())
	assert.False(t, f.store.View().DetailLoading)
}

func TestDetailRefresh_FallbackShownImmediatelyForToday(t *testing.T) {
	f := newDetailFixture(t)
	f.store.Init(state.Selection{Date: "2024-05-01", Time: "12:00", Region: "34"})
	f.withSnapshot("34", domain.Reading{Temperature: 17, ApparentTemperature: 16, Humidity: 70, WeatherCode: 2})

	run := f.sync.Issue(context.Background(), "34", "2024-05-01", "")

	series := f.store.Series()
	require.NotNil(t, series, "fallback applied before the fetch completes")
	assert.Equal(t, domain.SourceFallback, series.Source)
	require.Len(t, series.Hourly, 1)
	assert.Equal(t, "2024-05-01T12:00:00", series.Hourly[0].Time)
	assert.InDelta(t, 17.0, series.Hourly[0].Temperature, 1e-9)

	f.fetcher.release("34", detailResponse("34", 15, 16), nil)
	assert.Equal(t, OutcomeApplied, run())
	assert.Equal(t, domain.SourceAuthoritative, f.store.Series().Source)
}

func TestDetailRefresh_FailureKeepsFallbackSilently(t *testing.T) {
	f := newDetailFixture(t)
	f.store.Init(state.Selection{Date: "2024-05-01", Time: "12:00", Region: "34"})
	f.withSnapshot("34", domain.Reading{Temperature: 17})
	f.fetcher.release("34", domain.DetailResponse{}, errors.New("status 503"))

	assert.Equal(t, OutcomeFallback, f.sync.Refresh(context.Background(), "34", "2024-05-01", "2024-05-01"))

	series := f.store.Series()
	require.NotNil(t, series)
	assert.Equal(t, domain.SourceFallback, series.Source)
	assert.Nil(t, f.store.Err())
}

func TestDetailRefresh_FailureKeepsFallbackOfferedAfterIssue(t *testing.T) {
	f := newDetailFixture(t)
	f.store.Init(state.Selection{Date: "2024-05-01", Time: "12:00", EndDate: "2024-05-01", Region: "34"})

	run := f.sync.Issue(context.Background(), "34", "2024-05-01", "2024-05-01")
	assert.Nil(t, f.store.Series(), "no snapshot yet, so no fallback")

	f.withSnapshot("34", domain.Reading{Temperature: 17})
	require.True(t, f.sync.OfferFallback("34", "2024-05-01", "2024-05-01"))

	f.fetcher.release("34", domain.DetailResponse{}, errors.New("status 503"))
	assert.Equal(t, OutcomeFallback, run())

	series := f.store.Series()
	require.NotNil(t, series)
	assert.Equal(t, domain.SourceFallback, series.Source)
	assert.Nil(t, f.store.Err())
	assert.False(t, f.store.View().DetailLoading)
}

func TestDetailRefresh_FallbackUsesSnapshotTime(t *testing.T) {
	f := newDetailFixture(t)
	f.store.Init(state.Selection{Date: "2024-05-01", Time: "15:00", Region: "34"})
	f.withSnapshot("34", domain.Reading{Temperature: 17})

	run := f.sync.Issue(context.Background(), "34", "2024-05-01", "")
	series := f.store.Series()
	require.NotNil(t, series)
	require.Len(t, series.Hourly, 1)
	assert.Equal(t, "2024-05-01T12:00:00", series.Hourly[0].Time)

	f.fetcher.release("34", detailResponse("34", 15), nil)
	run()
}

func TestDetailRefresh_NoFallbackForPastDates(t *testing.T) {
	f := newDetailFixture(t)
	f.withSnapshot("34", domain.Reading{Temperature: 17})
	f.fetcher.release("34", domain.DetailResponse{}, errors.New("status 503"))

	assert.Equal(t, OutcomeFailed, f.sync.Refresh(context.Background(), "34", "2024-04-30", ""))

	assert.Nil(t, f.store.Series())
	require.NotNil(t, f.store.Err())
	assert.Equal(t, domain.MsgDetailFailed, f.store.Err().Message)
	assert.ErrorIs(t, f.store.Err(), domain.ErrDetailUnavailable)
}

func TestDetailRefresh_EmptyPayloadIsFailure(t *testing.T) {
	f := newDetailFixture(t)
	f.fetcher.release("34", domain.DetailResponse{PlateCode: "34"}, nil)

	assert.Equal(t, OutcomeFailed, f.sync.Refresh(context.Background(), "34", "2024-04-30", ""))
	assert.ErrorIs(t, f.store.Err(), domain.ErrEmptySeries)
}

func TestDetailRefresh_KeyChangeDiscardsDisplayedSeries(t *testing.T) {
	f := newDetailFixture(t)
	f.fetcher.release("34", detailResponse("34", 10), nil)
	require.Equal(t, OutcomeApplied, f.sync.Refresh(context.Background(), "34", "2024-04-30", ""))

	run := f.sync.Issue(context.Background(), "06", "2024-04-30", "")
	assert.Nil(t, f.store.Series(), "discarded at issue, before the new fetch completes")

	f.fetcher.release("06", detailResponse("06", 11), nil)
	assert.Equal(t, OutcomeApplied, run())
	assert.Equal(t, "06", f.store.Series().Code)
}

func TestDetailRefresh_StaleResultNeverApplied(t *testing.T) {
	f := newDetailFixture(t)

	runA := f.sync.Issue(context.Background(), "34", "2024-04-30", "")
	runB := f.sync.Issue(context.Background(), "06", "2024-04-30", "")
	outA, outB := async(runA), async(runB)

	f.fetcher.release("06", detailResponse("06", 11), nil)
	assert.Equal(t, OutcomeApplied, <-outB)

	f.fetcher.release("34", detailResponse("34", 10), nil)
	assert.Equal(t, OutcomeStale, <-outA)

	assert.Equal(t, "06", f.store.Series().Code)
	assert.InDelta(t, 1.0, testutil.ToFloat64(f.metrics.Refreshes.WithLabelValues("detail", "stale")), 0)
}

func TestDetailRefresh_StaleFailureNeverReported(t *testing.T) {
	f := newDetailFixture(t)

	runA := f.sync.Issue(context.Background(), "34", "2024-04-30", "")
	runB := f.sync.Issue(context.Background(), "06", "2024-04-30", "")
	outA, outB := async(runA), async(runB)

	f.fetcher.release("06", detailResponse("06", 11), nil)
	require.Equal(t, OutcomeApplied, <-outB)
	f.fetcher.release("34", domain.DetailResponse{}, errors.New("timeout"))
	assert.Equal(t, OutcomeStale, <-outA)

	assert.Nil(t, f.store.Err())
}

func TestDetailRefresh_CancelSupersedesInFlight(t *testing.T) {
	f := newDetailFixture(t)
	out := async(f.sync.Issue(context.Background(), "34", "2024-04-30", ""))

	f.sync.Cancel()
	f.fetcher.release("34", detailResponse("34", 10), nil)

	assert.Equal(t, OutcomeStale, <-out)
	assert.Nil(t, f.store.Series())
}

func TestDetailOfferFallback(t *testing.T) {
	f := newDetailFixture(t)
	f.store.Init(state.Selection{Date: "2024-05-01", Time: "12:00", Region: "34"})

	assert.False(t, f.sync.OfferFallback("34", "2024-05-01", ""), "no snapshot yet")

	f.withSnapshot("34", domain.Reading{Temperature: 17, ResolvedTime: "2024-05-01T12:00"})
	assert.True(t, f.sync.OfferFallback("34", "2024-05-01", ""))
	assert.Equal(t, "2024-05-01T12:00", f.store.Series().Hourly[0].Time)

	assert.False(t, f.sync.OfferFallback("34", "2024-04-30", ""), "only today qualifies")
}
