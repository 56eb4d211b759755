package domain

import (
	"encoding/json"
	"time"
)

// Reading is one province's weather at the selected instant.
type Reading struct {
	Temperature         float64 `json:"temperature"`
	ApparentTemperature float64 `json:"apparent_temperature"`
	Precipitation       float64 `json:"precipitation"`
	Humidity            float64 `json:"humidity"`
	WindSpeed           float64 `json:"wind_speed"`
	WindDirection       float64 `json:"wind_direction_10m"`
	Pressure            float64 `json:"pressure_msl"`
	Visibility          float64 `json:"visibility"`
	CloudCover          float64 `json:"cloud_cover"`
	WeatherCode         int     `json:"weather_code"`
	ResolvedTime        string  `json:"resolved_time,omitempty"`
	Name                string  `json:"name,omitempty"`
}

// RawReading is the lenient wire form of a snapshot entry.
type RawReading struct {
	PlateCode           FlexString `json:"plate_code"`
	Name                string     `json:"name"`
	Temperature         FlexFloat  `json:"temperature"`
	ApparentTemperature FlexFloat  `json:"apparent_temperature"`
	Precipitation       FlexFloat  `json:"precipitation"`
	Humidity            FlexFloat  `json:"humidity"`
	WindSpeed           FlexFloat  `json:"wind_speed"`
	WindDirection       FlexFloat  `json:"wind_direction_10m"`
	Pressure            FlexFloat  `json:"pressure_msl"`
	Visibility          FlexFloat  `json:"visibility"`
	CloudCover          FlexFloat  `json:"cloud_cover"`
	WeatherCode         FlexFloat  `json:"weather_code"`
	ResolvedTime        string     `json:"resolved_time"`
}

// Normalize returns the canonical code and reading. ok is false when the code
// is missing or malformed or the temperature is not a finite number.
func (r RawReading) Normalize() (string, Reading, bool) {
	code, ok := NormalizeCode(r.PlateCode.String())
	if !ok || !r.Temperature.Valid {
		return "", Reading{}, false
	}
	return code, Reading{
		Temperature:         r.Temperature.Value,
		ApparentTemperature: r.ApparentTemperature.Or(r.Temperature.Value),
		Precipitation:       r.Precipitation.Or(0),
		Humidity:            r.Humidity.Or(0),
		WindSpeed:           r.WindSpeed.Or(0),
		WindDirection:       r.WindDirection.Or(0),
		Pressure:            r.Pressure.Or(0),
		Visibility:          r.Visibility.Or(0),
		CloudCover:          r.CloudCover.Or(0),
		WeatherCode:         int(r.WeatherCode.Or(0)),
		ResolvedTime:        r.ResolvedTime,
		Name:                r.Name,
	}, true
}

// SnapshotCoverage is the server-reported coverage block.
type SnapshotCoverage struct {
	Available int `json:"available"`
	Total     int `json:"total"`
}

// SnapshotResponse is the decoded snapshot endpoint payload.
type SnapshotResponse struct {
	RequestedDate string           `json:"requested_date"`
	RequestedTime string           `json:"requested_time"`
	Coverage      SnapshotCoverage `json:"coverage"`
	Entries       []RawReading     `json:"provinces"`
}

// Snapshot is an immutable code-keyed set of readings for one date-time.
// It keeps response order so rankings can break ties stably.
type Snapshot struct {
	Date      string
	Time      string
	Expected  int
	AppliedAt time.Time

	readings map[string]Reading
	order    []string
}

// BuildSnapshot keys the usable entries of resp by canonical code and returns
// the number of entries dropped. A repeated code keeps its first position and
// its last value.
func BuildSnapshot(resp SnapshotResponse, date, hhmm string, at time.Time) (*Snapshot, int) {
	s := &Snapshot{
		Date:      date,
		Time:      hhmm,
		AppliedAt: at,
		readings:  make(map[string]Reading, len(resp.Entries)),
		order:     make([]string, 0, len(resp.Entries)),
	}
	dropped := 0
	for _, raw := range resp.Entries {
		code, reading, ok := raw.Normalize()
		if !ok {
			dropped++
			continue
		}
		if _, seen := s.readings[code]; !seen {
			s.order = append(s.order, code)
		}
		s.readings[code] = reading
	}
	return s, dropped
}

// NewSnapshot builds a snapshot from already-normalized readings in order.
func NewSnapshot(date, hhmm string, codes []string, readings map[string]Reading) *Snapshot {
	s := &Snapshot{
		Date:     date,
		Time:     hhmm,
		readings: make(map[string]Reading, len(codes)),
		order:    make([]string, 0, len(codes)),
	}
	for _, code := range codes {
		r, ok := readings[code]
		if !ok {
			continue
		}
		if _, seen := s.readings[code]; !seen {
			s.order = append(s.order, code)
		}
		s.readings[code] = r
	}
	return s
}

// Get returns the reading for code.
func (s *Snapshot) Get(code string) (Reading, bool) {
	if s == nil {
		return Reading{}, false
	}
	r, ok := s.readings[code]
	return r, ok
}

func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Codes returns the codes in response order.
func (s *Snapshot) Codes() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Each calls fn for every entry in response order.
func (s *Snapshot) Each(fn func(code string, r Reading)) {
	if s == nil {
		return
	}
	for _, code := range s.order {
		fn(code, s.readings[code])
	}
}

// MarshalJSON encodes the snapshot as a code-keyed object.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.readings)
}

// Coverage returns resolved/expected, or 0 when expected is not positive.
func Coverage(resolved, expected int) float64 {
	if expected <= 0 {
		return 0
	}
	return float64(resolved) / float64(expected)
}
