package domain

import (
	"errors"
	"fmt"
)

// SeriesSource tells whether a detail series came from the backend or was
// synthesized from the live snapshot.
type SeriesSource string

const (
	SourceAuthoritative SeriesSource = "authoritative"
	SourceFallback      SeriesSource = "fallback"
)

// ErrEmptySeries is returned when a detail payload has neither hourly nor daily points.
var ErrEmptySeries = errors.New("detail series has no points")

// HourlyPoint is one hour of a detail series.
type HourlyPoint struct {
	Time                string  `json:"time"`
	Temperature         float64 `json:"temperature"`
	ApparentTemperature float64 `json:"apparent_temperature"`
	Precipitation       float64 `json:"precipitation"`
	WindSpeed           float64 `json:"wind_speed"`
	WindDirection       float64 `json:"wind_direction"`
	Humidity            float64 `json:"humidity"`
	Pressure            float64 `json:"pressure"`
	Visibility          float64 `json:"visibility"`
	CloudCover          float64 `json:"cloud_cover"`
	WeatherCode         int     `json:"weather_code"`
}

// DailyPoint is one day of a detail series.
type DailyPoint struct {
	Date             string  `json:"date"`
	TempMax          float64 `json:"temp_max"`
	TempMin          float64 `json:"temp_min"`
	PrecipitationSum float64 `json:"precipitation_sum"`
	WeatherCode      int     `json:"weather_code"`
}

// SeriesKey identifies a detail request.
type SeriesKey struct {
	Code  string `json:"code"`
	Start string `json:"start_date"`
	End   string `json:"end_date"`
}

// NewSeriesKey builds a key, correcting an empty or earlier end date to start.
func NewSeriesKey(code, start, end string) SeriesKey {
	if end == "" || end < start {
		end = start
	}
	return SeriesKey{Code: code, Start: start, End: end}
}

// DetailSeries is the hourly and daily series for one region and date range.
type DetailSeries struct {
	SeriesKey
	Name     string        `json:"name"`
	Timezone string        `json:"timezone"`
	Source   SeriesSource  `json:"source"`
	Hourly   []HourlyPoint `json:"hourly"`
	Daily    []DailyPoint  `json:"daily"`
}

// Key returns the request key the series answers.
func (s DetailSeries) Key() SeriesKey {
	return s.SeriesKey
}

// FallbackSeries synthesizes a single-point series from a snapshot reading.
// The point's time is the reading's resolved time, else date+"T"+hhmm+":00".
func FallbackSeries(key SeriesKey, name, hhmm, timezone string, r Reading) DetailSeries {
	ts := r.ResolvedTime
	if ts == "" {
		ts = key.Start + "T" + hhmm + ":00"
	}
	return DetailSeries{
		SeriesKey: key,
		Name:      name,
		Timezone:  timezone,
		Source:    SourceFallback,
		Hourly: []HourlyPoint{{
			Time:                ts,
			Temperature:         r.Temperature,
			ApparentTemperature: r.ApparentTemperature,
			Precipitation:       r.Precipitation,
			WindSpeed:           r.WindSpeed,
			WindDirection:       r.WindDirection,
			Humidity:            r.Humidity,
			Pressure:            r.Pressure,
			Visibility:          r.Visibility,
			CloudCover:          r.CloudCover,
			WeatherCode:         r.WeatherCode,
		}},
	}
}

// HourlyArrays is the column-oriented hourly block of a detail payload.
type HourlyArrays struct {
	Time                []string    `json:"time"`
	Temperature         []FlexFloat `json:"temperature_2m"`
	ApparentTemperature []FlexFloat `json:"apparent_temperature"`
	Precipitation       []FlexFloat `json:"precipitation"`
	WindSpeed           []FlexFloat `json:"wind_speed_10m"`
	WindDirection       []FlexFloat `json:"wind_direction_10m"`
	Humidity            []FlexFloat `json:"relative_humidity_2m"`
	Pressure            []FlexFloat `json:"pressure_msl"`
	Visibility          []FlexFloat `json:"visibility"`
	CloudCover          []FlexFloat `json:"cloud_cover"`
	WeatherCode         []FlexFloat `json:"weather_code"`
}

// DailyArrays is the column-oriented daily block of a detail payload.
type DailyArrays struct {
	Time             []string    `json:"time"`
	TempMax          []FlexFloat `json:"temperature_2m_max"`
	TempMin          []FlexFloat `json:"temperature_2m_min"`
	PrecipitationSum []FlexFloat `json:"precipitation_sum"`
	WeatherCode      []FlexFloat `json:"weather_code"`
}

// DetailResponse is the decoded detail endpoint payload.
type DetailResponse struct {
	Province    string      `json:"province"`
	PlateCode   FlexString  `json:"plate_code"`
	Coordinates Coordinates `json:"coordinates"`
	Timezone    string      `json:"timezone"`
	Data        struct {
		Hourly *HourlyArrays `json:"hourly"`
		Daily  *DailyArrays  `json:"daily"`
	} `json:"data"`
}

// Series converts the payload into an authoritative series for key. Hourly
// points without a finite temperature are skipped.
func (r DetailResponse) Series(key SeriesKey) (DetailSeries, error) {
	if code, ok := NormalizeCode(r.PlateCode.String()); ok && code != key.Code {
		return DetailSeries{}, fmt.Errorf("detail payload for %s, requested %s", code, key.Code)
	}
	s := DetailSeries{
		SeriesKey: key,
		Name:      LocalizeRegionName(r.Province),
		Timezone:  r.Timezone,
		Source:    SourceAuthoritative,
	}
	if h := r.Data.Hourly; h != nil {
		for i, ts := range h.Time {
			temp := cell(h.Temperature, i)
			if !temp.Valid {
				continue
			}
			s.Hourly = append(s.Hourly, HourlyPoint{
				Time:                ts,
				Temperature:         temp.Value,
				ApparentTemperature: cell(h.ApparentTemperature, i).Or(temp.Value),
				Precipitation:       cell(h.Precipitation, i).Or(0),
				WindSpeed:           cell(h.WindSpeed, i).Or(0),
				WindDirection:       cell(h.WindDirection, i).Or(0),
				Humidity:            cell(h.Humidity, i).Or(0),
				Pressure:            cell(h.Pressure, i).Or(0),
				Visibility:          cell(h.Visibility, i).Or(0),
				CloudCover:          cell(h.CloudCover, i).Or(0),
				WeatherCode:         int(cell(h.WeatherCode, i).Or(0)),
			})
		}
	}
	if d := r.Data.Daily; d != nil {
		for i, day := range d.Time {
			s.Daily = append(s.Daily, DailyPoint{
				Date:             day,
				TempMax:          cell(d.TempMax, i).Or(0),
				TempMin:          cell(d.TempMin, i).Or(0),
				PrecipitationSum: cell(d.PrecipitationSum, i).Or(0),
				WeatherCode:      int(cell(d.WeatherCode, i).Or(0)),
			})
		}
	}
	if len(s.Hourly) == 0 && len(s.Daily) == 0 {
		return DetailSeries{}, ErrEmptySeries
	}
	return s, nil
}

// cell returns column[i], or an invalid value when the column is short.
func cell(column []FlexFloat, i int) FlexFloat {
	if i >= len(column) {
		return FlexFloat{}
	}
	return column[i]
}
