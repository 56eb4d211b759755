package resolver

import (
	"math"

	"github.com/couchcryptid/region-weather/internal/domain"
)

// ColorMode selects fixed buckets or the continuous ramp.
type ColorMode string

const (
	ColorBuckets ColorMode = "buckets"
	ColorScale   ColorMode = "scale"
)

// FeatureView is a province polygon joined with its live reading.
type FeatureView struct {
	Code      string           `json:"code,omitempty"`
	Name      string           `json:"name"`
	Resolved  bool             `json:"resolved"`
	Color     string           `json:"color"`
	Reading   *domain.Reading  `json:"reading,omitempty"`
	Condition string           `json:"condition,omitempty"`
	Icon      string           `json:"icon,omitempty"`
	Events    []Event          `json:"events,omitempty"`
	Geometry  *domain.Geometry `json:"geometry,omitempty"`
}

// Features joins the province polygons of fc with snap. Non-province features
// are skipped; unresolved ones are kept with the no-data color.
func (r *Resolver) Features(fc domain.FeatureCollection, snap *domain.Snapshot, mode ColorMode) []FeatureView {
	lo, hi, hasRange := TemperatureRange(snap)
	views := make([]FeatureView, 0, len(fc.Features))
	for _, f := range fc.Features {
		if !IsRegionPolygon(f) {
			continue
		}
		v := FeatureView{Name: r.DisplayName(f), Color: NoDataColor, Geometry: f.Geometry}
		code, ok := r.ResolveCode(f)
		if !ok {
			views = append(views, v)
			continue
		}
		v.Code, v.Resolved = code, true
		if reading, ok := snap.Get(code); ok {
			v.Reading = &reading
			v.Condition = WeatherLabel(reading.WeatherCode)
			v.Icon = WeatherIcon(reading.WeatherCode)
			v.Events = EventsFor(reading)
			if mode == ColorScale && hasRange {
				v.Color = ScaleColor(reading.Temperature, lo, hi)
			} else {
				v.Color = ColorFor(reading.Temperature)
			}
		}
		views = append(views, v)
	}
	return views
}

// TemperatureRange returns the coldest and hottest temperature in snap.
func TemperatureRange(snap *domain.Snapshot) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	snap.Each(func(_ string, r domain.Reading) {
		lo = math.Min(lo, r.Temperature)
		hi = math.Max(hi, r.Temperature)
	})
	if snap.Len() == 0 {
		return 0, 0, false
	}
	return lo, hi, true
}
