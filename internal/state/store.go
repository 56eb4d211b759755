// Package state holds the explorer's shared, mutable view: the selection, the
// applied snapshot, the detail series and the single user-facing error.
//
// Writes that complete an asynchronous request take a Guard. The guard is
// evaluated while the store's lock is held, so checking the request
// generation and applying its result are one atomic step.
package state

import (
	"context"
	"errors"
	"sync"

	"github.com/couchcryptid/region-weather/internal/domain"
)

// Guard reports whether the request performing a write is still current.
type Guard func() bool

// Always is a guard for writes that are not tied to a request.
func Always() bool { return true }

// Selection is the user's current date, time, range end and region.
type Selection struct {
	Date    string `json:"date"`
	Time    string `json:"time"`
	EndDate string `json:"end_date"`
	Region  string `json:"region,omitempty"`
}

// SeriesKey returns the detail key for the selection, or ok=false without a region.
func (s Selection) SeriesKey() (domain.SeriesKey, bool) {
	if s.Region == "" {
		return domain.SeriesKey{}, false
	}
	return domain.NewSeriesKey(s.Region, s.Date, s.EndDate), true
}

// View is a consistent copy of the store. Snapshot and Series point at
// immutable values and must not be modified.
type View struct {
	Selection       Selection
	Snapshot        *domain.Snapshot
	Series          *domain.DetailSeries
	Err             *domain.UserError
	SnapshotLoading bool
	DetailLoading   bool
}

// Store is safe for concurrent use. The zero value is not usable; call New.
type Store struct {
	mu              sync.RWMutex
	selection       Selection
	snapshot        *domain.Snapshot
	series          *domain.DetailSeries
	err             *domain.UserError
	snapshotLoading bool
	detailLoading   bool
}

func New() *Store {
	return &Store{}
}

// Init resets the store and installs the initial selection.
func (s *Store) Init(sel Selection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	s.selection = sel
}

// Reset clears all state, including the selection.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func (s *Store) reset() {
	s.selection = Selection{}
	s.snapshot = nil
	s.series = nil
	s.err = nil
	s.snapshotLoading = false
	s.detailLoading = false
}

func (s *Store) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return View{
		Selection:       s.selection,
		Snapshot:        s.snapshot,
		Series:          s.series,
		Err:             s.err,
		SnapshotLoading: s.snapshotLoading,
		DetailLoading:   s.detailLoading,
	}
}

func (s *Store) Selection() Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selection
}

// UpdateSelection applies fn to the selection under the lock and returns the result.
func (s *Store) UpdateSelection(fn func(*Selection)) Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.selection)
	return s.selection
}

func (s *Store) Snapshot() *domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

func (s *Store) Series() *domain.DetailSeries {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.series
}

func (s *Store) Err() *domain.UserError {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// SetError replaces the current error. A nil err clears it.
func (s *Store) SetError(err *domain.UserError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// CheckReadiness returns nil once a snapshot has been applied.
func (s *Store) CheckReadiness(_ context.Context) error {
	if s.Snapshot() == nil {
		return errors.New("no snapshot applied yet")
	}
	return nil
}

// --- snapshot writes ---

// BeginSnapshot marks a snapshot request as in flight.
func (s *Store) BeginSnapshot(current Guard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current() {
		s.snapshotLoading = true
	}
}

// ApplySnapshot swaps in snap and clears the error.
func (s *Store) ApplySnapshot(current Guard, snap *domain.Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !current() {
		return false
	}
	s.snapshot = snap
	s.err = nil
	s.snapshotLoading = false
	return true
}

// FailSnapshot surfaces err and keeps the last applied snapshot.
func (s *Store) FailSnapshot(current Guard, err *domain.UserError) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !current() {
		return false
	}
	s.err = err
	s.snapshotLoading = false
	return true
}

// --- detail writes ---

// BeginDetail marks a detail request for key as in flight and discards a
// displayed series that answers a different key.
func (s *Store) BeginDetail(current Guard, key domain.SeriesKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !current() {
		return false
	}
	if s.series != nil && s.series.Key() != key {
		s.series = nil
	}
	s.detailLoading = true
	return true
}

// ApplySeries installs series. With clearErr the current error is cleared too.
func (s *Store) ApplySeries(current Guard, series domain.DetailSeries, clearErr bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !current() {
		return false
	}
	s.series = &series
	if clearErr {
		s.err = nil
	}
	if series.Source == domain.SourceAuthoritative {
		s.detailLoading = false
	}
	return true
}

// OfferFallback installs a fallback series unless an authoritative series
// for the same key is already displayed or the selection moved on. A detail
// error raised before the fallback existed is cleared.
func (s *Store) OfferFallback(series domain.DetailSeries) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.selection.SeriesKey()
	if !ok || key != series.Key() {
		return false
	}
	if s.series != nil && s.series.Key() == key && s.series.Source == domain.SourceAuthoritative {
		return false
	}
	s.series = &series
	if s.err != nil && errors.Is(s.err, domain.ErrDetailUnavailable) {
		s.err = nil
	}
	return true
}

// SettleDetail ends a failed detail request for key. While a fallback series
// for key is displayed the error is cleared instead of raised and fallback is
// true. ok is false when the request is no longer current.
func (s *Store) SettleDetail(current Guard, key domain.SeriesKey, err *domain.UserError) (fallback, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !current() {
		return false, false
	}
	fallback = s.series != nil && s.series.Source == domain.SourceFallback && s.series.Key() == key
	if fallback {
		s.err = nil
	} else {
		s.err = err
	}
	s.detailLoading = false
	return fallback, true
}

// ClearSeries drops the displayed series, e.g. when the region is deselected.
func (s *Store) ClearSeries() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.series = nil
	s.detailLoading = false
}
