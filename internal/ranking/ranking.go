// Package ranking derives leaderboards and the selected-province comparison
// from a snapshot. All functions are pure and never mutate the snapshot.
package ranking

import (
	"fmt"
	"sort"

	"github.com/couchcryptid/region-weather/internal/domain"
)

// Entry is one row of a leaderboard.
type Entry struct {
	Code  string  `json:"code"`
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Leaderboards holds every metric in both directions.
type Leaderboards struct {
	Hottest    []Entry `json:"hottest"`
	Coldest    []Entry `json:"coldest"`
	Wettest    []Entry `json:"wettest"`
	Driest     []Entry `json:"driest"`
	MostHumid  []Entry `json:"most_humid"`
	LeastHumid []Entry `json:"least_humid"`
}

// Comparison places one province against the rest of the snapshot.
type Comparison struct {
	Code            string  `json:"code"`
	Name            string  `json:"name"`
	Temperature     float64 `json:"temperature"`
	Rank            int     `json:"rank"`
	Total           int     `json:"total"`
	Average         float64 `json:"average"`
	DiffFromAverage float64 `json:"diff_from_average"`
	DiffFromHottest float64 `json:"diff_from_hottest"`
	DiffFromColdest float64 `json:"diff_from_coldest"`
	Hottest         Entry   `json:"hottest"`
	Coldest         Entry   `json:"coldest"`
}

// Engine names entries from the catalog.
type Engine struct {
	catalog *domain.Catalog
}

func NewEngine(catalog *domain.Catalog) *Engine {
	return &Engine{catalog: catalog}
}

type metric func(domain.Reading) float64

func temperature(r domain.Reading) float64   { return r.Temperature }
func precipitation(r domain.Reading) float64 { return r.Precipitation }
func humidity(r domain.Reading) float64      { return r.Humidity }

// Leaderboards sorts the snapshot by temperature, precipitation and humidity.
// Sorting is stable, so ties keep snapshot order in both directions.
func (e *Engine) Leaderboards(snap *domain.Snapshot) Leaderboards {
	return Leaderboards{
		Hottest:    e.rank(snap, temperature, true),
		Coldest:    e.rank(snap, temperature, false),
		Wettest:    e.rank(snap, precipitation, true),
		Driest:     e.rank(snap, precipitation, false),
		MostHumid:  e.rank(snap, humidity, true),
		LeastHumid: e.rank(snap, humidity, false),
	}
}

func (e *Engine) rank(snap *domain.Snapshot, m metric, descending bool) []Entry {
	entries := make([]Entry, 0, snap.Len())
	snap.Each(func(code string, r domain.Reading) {
		entries = append(entries, Entry{Code: code, Name: e.name(code, r), Value: m(r)})
	})
	sort.SliceStable(entries, func(i, j int) bool {
		if descending {
			return entries[i].Value > entries[j].Value
		}
		return entries[i].Value < entries[j].Value
	})
	return entries
}

// Compare ranks code by descending temperature. ok is false when the
// snapshot is empty or has no entry for code.
func (e *Engine) Compare(snap *domain.Snapshot, code string) (Comparison, bool) {
	selected, ok := snap.Get(code)
	if !ok || snap.Len() == 0 {
		return Comparison{}, false
	}
	sorted := e.rank(snap, temperature, true)

	sum := 0.0
	rank := 0
	for i, entry := range sorted {
		sum += entry.Value
		if entry.Code == code {
			rank = i + 1
		}
	}
	mean := sum / float64(len(sorted))
	hottest, coldest := sorted[0], sorted[len(sorted)-1]

	total := e.catalog.Len()
	if total == 0 {
		total = snap.Len()
	}

	return Comparison{
		Code:            code,
		Name:            e.name(code, selected),
		Temperature:     selected.Temperature,
		Rank:            rank,
		Total:           total,
		Average:         mean,
		DiffFromAverage: selected.Temperature - mean,
		DiffFromHottest: hottest.Value - selected.Temperature,
		DiffFromColdest: selected.Temperature - coldest.Value,
		Hottest:         hottest,
		Coldest:         coldest,
	}, true
}

func (e *Engine) name(code string, r domain.Reading) string {
	if name := e.catalog.Name(code); name != "" {
		return name
	}
	if r.Name != "" {
		return domain.LocalizeRegionName(r.Name)
	}
	return fmt.Sprintf("İl %s", code)
}
