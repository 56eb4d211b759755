package synchronizer

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/region-weather/internal/domain"
	"github.com/couchcryptid/region-weather/internal/observability"
	"github.com/couchcryptid/region-weather/internal/state"
)

// DetailSeriesSynchronizer refreshes the hourly/daily series of the selected
// province. For today's date it shows a single-point series built from the
// live snapshot until the backend answers.
type DetailSeriesSynchronizer struct {
	fetcher domain.DetailFetcher
	store   *state.Store
	catalog *domain.Catalog
	clock   *domain.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
	gen     state.Generation
}

func NewDetailSeriesSynchronizer(
	fetcher domain.DetailFetcher,
	store *state.Store,
	catalog *domain.Catalog,
	clock *domain.Clock,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *DetailSeriesSynchronizer {
	return &DetailSeriesSynchronizer{
		fetcher: fetcher,
		store:   store,
		catalog: catalog,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
	}
}

// Refresh fetches the series for code over [start, end] and waits for the result.
func (d *DetailSeriesSynchronizer) Refresh(ctx context.Context, code, start, end string) Outcome {
	return d.Issue(ctx, code, start, end)()
}

// Issue takes a generation ticket, discards a displayed series for another
// key, applies the same-day fallback when one is available, and returns a
// function that performs the fetch.
func (d *DetailSeriesSynchronizer) Issue(ctx context.Context, code, start, end string) func() Outcome {
	key := domain.NewSeriesKey(code, start, end)

	ticket, reqCtx := d.gen.Next(ctx)
	current := d.gen.Guard(ticket)
	d.store.BeginDetail(current, key)

	if fallback, ok := d.fallback(key); ok {
		d.store.ApplySeries(current, fallback, false)
	}

	return func() Outcome {
		defer d.gen.Done(ticket)
		outcome := d.run(reqCtx, current, ticket, key)
		d.metrics.Refreshes.WithLabelValues("detail", string(outcome)).Inc()
		return outcome
	}
}

// Cancel supersedes any in-flight request without issuing a new one.
func (d *DetailSeriesSynchronizer) Cancel() {
	ticket, _ := d.gen.Next(context.Background())
	d.gen.Done(ticket)
}

// OfferFallback shows a snapshot-derived series for key unless authoritative
// data is already displayed. It is called after a new snapshot is applied.
func (d *DetailSeriesSynchronizer) OfferFallback(code, start, end string) bool {
	fallback, ok := d.fallback(domain.NewSeriesKey(code, start, end))
	if !ok {
		return false
	}
	return d.store.OfferFallback(fallback)
}

func (d *DetailSeriesSynchronizer) run(ctx context.Context, current state.Guard, ticket uint64, key domain.SeriesKey) Outcome {
	resp, err := d.fetcher.FetchDetail(ctx, domain.DetailRequest{
		Code:      key.Code,
		StartDate: key.Start,
		EndDate:   key.End,
		Hourly:    true,
	})
	var series domain.DetailSeries
	if err == nil {
		series, err = resp.Series(key)
	}
	if err == nil {
		if series.Name == "" {
			series.Name = d.catalog.Name(key.Code)
		}
		if !d.store.ApplySeries(current, series, true) {
			d.logger.Debug("stale detail series dropped", "generation", ticket, "code", key.Code)
			return OutcomeStale
		}
		d.logger.Debug("detail series applied", "code", key.Code, "start", key.Start, "end", key.End,
			"hourly", len(series.Hourly), "daily", len(series.Daily))
		return OutcomeApplied
	}

	// The fallback may have appeared after Issue, once a snapshot was applied.
	fallback, ok := d.store.SettleDetail(current, key, domain.DetailFetchError(err))
	if !ok {
		d.logger.Debug("stale detail failure dropped", "generation", ticket, "code", key.Code)
		return OutcomeStale
	}
	if fallback {
		d.logger.Warn("detail fetch failed, keeping snapshot fallback", "code", key.Code, "error", err)
		return OutcomeFallback
	}
	d.logger.Error("detail fetch failed", "code", key.Code, "start", key.Start, "end", key.End, "error", err)
	return OutcomeFailed
}

// fallback synthesizes a series from the applied snapshot. Only a range
// starting today qualifies.
func (d *DetailSeriesSynchronizer) fallback(key domain.SeriesKey) (domain.DetailSeries, bool) {
	if key.Start != d.clock.Today() {
		return domain.DetailSeries{}, false
	}
	view := d.store.View()
	reading, ok := view.Snapshot.Get(key.Code)
	if !ok {
		return domain.DetailSeries{}, false
	}
	name := d.catalog.Name(key.Code)
	if name == "" {
		name = domain.LocalizeRegionName(reading.Name)
	}
	// The reading belongs to the snapshot's instant, not the live selection.
	hhmm := view.Snapshot.Time
	if hhmm == "" {
		hhmm = view.Selection.Time
	}
	return domain.FallbackSeries(key, name, hhmm, d.clock.Location().String(), reading), true
}
