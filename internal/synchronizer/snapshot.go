// Package synchronizer reconciles asynchronous weather fetches with the
// state store. Every request takes a ticket from its synchronizer's
// generation counter; a result is applied only while its ticket is still the
// latest, so the last-issued request always wins regardless of completion order.
package synchronizer

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/region-weather/internal/domain"
	"github.com/couchcryptid/region-weather/internal/observability"
	"github.com/couchcryptid/region-weather/internal/state"
)

// Outcome describes how a refresh ended.
type Outcome string

const (
	OutcomeApplied  Outcome = "applied"
	OutcomePartial  Outcome = "partial"
	OutcomeEmpty    Outcome = "empty"
	OutcomeFailed   Outcome = "failed"
	OutcomeStale    Outcome = "stale"
	OutcomeFallback Outcome = "fallback"
)

// SnapshotPublisher is notified after a snapshot has been applied.
type SnapshotPublisher interface {
	PublishSnapshot(ctx context.Context, snap *domain.Snapshot) error
}

// SnapshotSynchronizer refreshes the all-province snapshot.
type SnapshotSynchronizer struct {
	fetcher   domain.SnapshotFetcher
	store     *state.Store
	catalog   *domain.Catalog
	clock     *domain.Clock
	publisher SnapshotPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	gen       state.Generation
}

// NewSnapshotSynchronizer creates a synchronizer. publisher may be nil.
func NewSnapshotSynchronizer(
	fetcher domain.SnapshotFetcher,
	store *state.Store,
	catalog *domain.Catalog,
	clock *domain.Clock,
	publisher SnapshotPublisher,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *SnapshotSynchronizer {
	return &SnapshotSynchronizer{
		fetcher:   fetcher,
		store:     store,
		catalog:   catalog,
		clock:     clock,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
	}
}

// Refresh fetches the snapshot for date and hhmm and waits for the result.
func (s *SnapshotSynchronizer) Refresh(ctx context.Context, date, hhmm string) Outcome {
	return s.Issue(ctx, date, hhmm)()
}

// Issue validates the selection and takes a generation ticket immediately,
// returning a function that performs the fetch and applies the result. Issue
// order, not completion order, decides which result wins.
//
// An invalid date or time is replaced with the current time in the reference
// timezone; the correction is logged, written back to the selection, and not
// surfaced as an error.
func (s *SnapshotSynchronizer) Issue(ctx context.Context, date, hhmm string) func() Outcome {
	if !s.clock.ValidSelection(date, hhmm) {
		nowDate, nowTime := s.clock.NowSelection()
		s.logger.Warn("invalid snapshot selection, using current time",
			"date", date, "time", hhmm, "corrected_date", nowDate, "corrected_time", nowTime)
		s.metrics.SelectionCorrections.Inc()
		s.store.UpdateSelection(func(sel *state.Selection) {
			if sel.Date == date && sel.Time == hhmm {
				sel.Date, sel.Time = nowDate, nowTime
				if sel.EndDate < nowDate {
					sel.EndDate = nowDate
				}
			}
		})
		date, hhmm = nowDate, nowTime
	}

	ticket, reqCtx := s.gen.Next(ctx)
	current := s.gen.Guard(ticket)
	s.store.BeginSnapshot(current)

	return func() Outcome {
		defer s.gen.Done(ticket)
		outcome := s.run(reqCtx, current, ticket, date, hhmm)
		s.metrics.Refreshes.WithLabelValues("snapshot", string(outcome)).Inc()
		return outcome
	}
}

func (s *SnapshotSynchronizer) run(ctx context.Context, current state.Guard, ticket uint64, date, hhmm string) Outcome {
	resp, err := s.fetcher.FetchSnapshot(ctx, domain.SnapshotRequest{Date: date, Time: hhmm})
	if err != nil {
		if !s.store.FailSnapshot(current, domain.SnapshotFetchError(err)) {
			s.logger.Debug("stale snapshot failure dropped", "generation", ticket, "error", err)
			return OutcomeStale
		}
		s.logger.Error("snapshot fetch failed", "date", date, "time", hhmm, "error", err)
		return OutcomeFailed
	}

	snap, dropped := domain.BuildSnapshot(resp, date, hhmm, s.clock.Now())
	if dropped > 0 {
		s.metrics.DroppedEntries.Add(float64(dropped))
		s.logger.Debug("snapshot entries dropped", "dropped", dropped, "date", date, "time", hhmm)
	}

	resolved := snap.Len()
	expected := s.expected(resp, resolved)
	snap.Expected = expected

	if resolved == 0 {
		if !s.store.FailSnapshot(current, domain.SnapshotEmptyError()) {
			s.logger.Debug("stale empty snapshot dropped", "generation", ticket)
			return OutcomeStale
		}
		s.metrics.SnapshotCoverage.Set(0)
		s.logger.Warn("snapshot resolved no provinces, keeping previous data",
			"date", date, "time", hhmm, "expected", expected)
		return OutcomeEmpty
	}

	if !s.store.ApplySnapshot(current, snap) {
		s.logger.Debug("stale snapshot dropped", "generation", ticket, "date", date, "time", hhmm)
		return OutcomeStale
	}

	coverage := domain.Coverage(resolved, expected)
	s.metrics.SnapshotCoverage.Set(coverage)
	s.metrics.SnapshotRegions.Set(float64(resolved))
	s.publish(ctx, snap)

	if resolved < expected {
		s.logger.Warn("partial snapshot coverage",
			"date", date, "time", hhmm, "resolved", resolved, "expected", expected, "coverage", coverage)
		return OutcomePartial
	}
	s.logger.Info("snapshot applied", "date", date, "time", hhmm, "resolved", resolved)
	return OutcomeApplied
}

// expected is the server total when positive, else the catalog size, else resolved.
func (s *SnapshotSynchronizer) expected(resp domain.SnapshotResponse, resolved int) int {
	if resp.Coverage.Total > 0 {
		return resp.Coverage.Total
	}
	if n := s.catalog.Len(); n > 0 {
		return n
	}
	return resolved
}

func (s *SnapshotSynchronizer) publish(ctx context.Context, snap *domain.Snapshot) {
	if s.publisher == nil {
		return
	}
	// The request context is released once the refresh returns.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.publisher.PublishSnapshot(pubCtx, snap); err != nil {
		s.metrics.PublishErrors.Inc()
		s.logger.Warn("snapshot notification failed", "date", snap.Date, "time", snap.Time, "error", err)
	}
}
