// Package selection owns the user's date, time, range and region selection
// and triggers the synchronizers whenever it changes.
package selection

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/couchcryptid/region-weather/internal/domain"
	"github.com/couchcryptid/region-weather/internal/state"
	"github.com/couchcryptid/region-weather/internal/synchronizer"
)

// SnapshotIssuer starts snapshot refreshes.
type SnapshotIssuer interface {
	Issue(ctx context.Context, date, hhmm string) func() synchronizer.Outcome
}

// DetailIssuer starts detail refreshes.
type DetailIssuer interface {
	Issue(ctx context.Context, code, start, end string) func() synchronizer.Outcome
	OfferFallback(code, start, end string) bool
	Cancel()
}

// RegionMatcher resolves a plate code or province name.
type RegionMatcher interface {
	Match(query string) (string, bool)
}

// Change is a partial selection update. Nil fields are left unchanged; an
// empty Region clears the region.
type Change struct {
	Date    *string `json:"date,omitempty"`
	Time    *string `json:"time,omitempty"`
	EndDate *string `json:"end_date,omitempty"`
	Region  *string `json:"region,omitempty"`
}

// Controller serializes selection changes so that the order in which
// requests are issued matches the order of the changes. Refreshes then run
// in the background; Wait blocks until they finish.
type Controller struct {
	ctx       context.Context
	store     *state.Store
	snapshots SnapshotIssuer
	details   DetailIssuer
	matcher   RegionMatcher
	clock     *domain.Clock
	minDate   string
	logger    *slog.Logger

	mu sync.Mutex
	wg sync.WaitGroup
}

// New creates a Controller. ctx bounds every refresh it starts.
func New(
	ctx context.Context,
	store *state.Store,
	snapshots SnapshotIssuer,
	details DetailIssuer,
	matcher RegionMatcher,
	clock *domain.Clock,
	minDate string,
	logger *slog.Logger,
) *Controller {
	if minDate == "" {
		minDate = domain.MinDate
	}
	return &Controller{
		ctx:       ctx,
		store:     store,
		snapshots: snapshots,
		details:   details,
		matcher:   matcher,
		clock:     clock,
		minDate:   minDate,
		logger:    logger,
	}
}

// DefaultRegion returns preferred when the catalog has it, else the first
// catalog region, else "".
func DefaultRegion(catalog *domain.Catalog, preferred string) string {
	if code, ok := domain.NormalizeCode(preferred); ok {
		if _, known := catalog.Lookup(code); known {
			return code
		}
	}
	if all := catalog.All(); len(all) > 0 {
		return all[0].Code
	}
	return ""
}

// Init resets the store to the current time with region selected and
// triggers the first refresh.
func (c *Controller) Init(region string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	date, hhmm := c.clock.NowSelection()
	sel := state.Selection{Date: date, Time: hhmm, EndDate: date, Region: region}
	c.store.Init(sel)
	c.logger.Info("selection initialized", "date", date, "time", hhmm, "region", region)
	c.trigger(sel)
}

// Apply validates and applies a partial change. An unknown region leaves the
// selection untouched and returns a *domain.UserError that is also stored as
// the current error. Out-of-range dates and times are clamped.
func (c *Controller) Apply(ch Change) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.store.Selection()
	sel := prev
	today := c.clock.Today()

	if ch.Region != nil {
		query := strings.TrimSpace(*ch.Region)
		if query == "" {
			sel.Region = ""
		} else {
			code, ok := c.matcher.Match(query)
			if !ok {
				uerr := domain.RegionNotFoundError(query)
				c.store.SetError(uerr)
				c.logger.Warn("region selection did not match", "query", query)
				return uerr
			}
			sel.Region = code
		}
	}
	if ch.Date != nil {
		sel.Date = domain.ClampDate(*ch.Date, c.minDate, today)
	}
	if ch.EndDate != nil {
		sel.EndDate = domain.ClampDate(*ch.EndDate, c.minDate, today)
	}
	if ch.Time != nil {
		hhmm, ok := domain.NormalizeClockTime(*ch.Time)
		if !ok {
			_, hhmm = c.clock.NowSelection()
			c.logger.Warn("unparseable time, using current time", "time", *ch.Time, "corrected_time", hhmm)
		}
		sel.Time = hhmm
	}
	if sel.EndDate < sel.Date {
		sel.EndDate = sel.Date
	}

	c.store.UpdateSelection(func(s *state.Selection) { *s = sel })
	c.logger.Debug("selection changed", "date", sel.Date, "time", sel.Time,
		"end_date", sel.EndDate, "region", sel.Region)
	if prev.Region != "" && sel.Region == "" {
		c.details.Cancel()
		c.store.ClearSeries()
	}
	c.trigger(sel)
	return nil
}

// SetDate selects a single day.
func (c *Controller) SetDate(date string) error {
	return c.Apply(Change{Date: &date, EndDate: &date})
}

// SetTime selects the time of day.
func (c *Controller) SetTime(hhmm string) error {
	return c.Apply(Change{Time: &hhmm})
}

// SetDateRange selects a range; the snapshot follows the start date.
func (c *Controller) SetDateRange(start, end string) error {
	return c.Apply(Change{Date: &start, EndDate: &end})
}

// SelectRegion selects a province by plate code or name.
func (c *Controller) SelectRegion(query string) error {
	return c.Apply(Change{Region: &query})
}

// ClearRegion deselects the province.
func (c *Controller) ClearRegion() error {
	empty := ""
	return c.Apply(Change{Region: &empty})
}

// Now moves the selection to the current date and time in the reference timezone.
func (c *Controller) Now() error {
	date, hhmm := c.clock.NowSelection()
	return c.Apply(Change{Date: &date, Time: &hhmm, EndDate: &date})
}

// Retry re-issues the refreshes for the current selection.
func (c *Controller) Retry() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trigger(c.store.Selection())
}

// Wait blocks until every refresh started so far has finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// trigger issues the refreshes for sel. Callers hold c.mu so tickets are
// taken in change order.
func (c *Controller) trigger(sel state.Selection) {
	runSnapshot := c.snapshots.Issue(c.ctx, sel.Date, sel.Time)
	var runDetail func() synchronizer.Outcome
	if sel.Region != "" {
		runDetail = c.details.Issue(c.ctx, sel.Region, sel.Date, sel.EndDate)
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		switch runSnapshot() {
		case synchronizer.OutcomeApplied, synchronizer.OutcomePartial:
			if sel.Region != "" {
				c.details.OfferFallback(sel.Region, sel.Date, sel.EndDate)
			}
		}
	}()

	if runDetail != nil {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			runDetail()
		}()
	}
}
