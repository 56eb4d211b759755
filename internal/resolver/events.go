package resolver

import "github.com/couchcryptid/region-weather/internal/domain"

// EventKind names a critical weather condition.
type EventKind string

const (
	EventStorm    EventKind = "storm"
	EventSnow     EventKind = "snow"
	EventRain     EventKind = "rain"
	EventWind     EventKind = "wind"
	EventHeat     EventKind = "heat"
	EventCold     EventKind = "cold"
	EventHumidity EventKind = "humidity"
)

// Thresholds for critical events. Units: mm, km/h, °C, %.
const (
	SnowPrecipitationMin   = 0.8
	RainPrecipitationMin   = 1.0
	HeavyRainPrecipitation = 3.0
	WindSpeedMin           = 40.0
	HeatTemperatureMin     = 35.0
	ColdTemperatureMax     = -10.0
	HumidityMin            = 90.0
)

// Event is one critical condition flagged for a region.
type Event struct {
	Kind  EventKind `json:"kind"`
	Label string    `json:"label"`
	Icon  string    `json:"icon"`
}

// EventsFor evaluates every predicate independently. Any number of events may
// fire for one reading; the result is ordered storm, snow, rain, wind, heat,
// cold, humidity.
func EventsFor(r domain.Reading) []Event {
	var events []Event
	code := r.WeatherCode
	if isStorm(code) {
		events = append(events, Event{Kind: EventStorm, Label: "Fırtına", Icon: "⛈️"})
	}
	if isSnow(code) && r.Precipitation >= SnowPrecipitationMin {
		events = append(events, Event{Kind: EventSnow, Label: "Kar yağışı", Icon: "🌨️"})
	}
	if isRain(code) && r.Precipitation >= RainPrecipitationMin {
		ev := Event{Kind: EventRain, Label: "Yağış", Icon: "🌦️"}
		if r.Precipitation >= HeavyRainPrecipitation {
			ev.Label, ev.Icon = "Kuvvetli yağış", "🌧️"
		}
		events = append(events, ev)
	}
	if r.WindSpeed >= WindSpeedMin {
		events = append(events, Event{Kind: EventWind, Label: "Kuvvetli rüzgar", Icon: "💨"})
	}
	if r.Temperature >= HeatTemperatureMin {
		events = append(events, Event{Kind: EventHeat, Label: "Aşırı sıcak", Icon: "🔥"})
	}
	if r.Temperature <= ColdTemperatureMax {
		events = append(events, Event{Kind: EventCold, Label: "Aşırı soğuk", Icon: "🥶"})
	}
	if r.Humidity >= HumidityMin {
		events = append(events, Event{Kind: EventHumidity, Label: "Yüksek nem", Icon: "💧"})
	}
	return events
}

func isStorm(code int) bool { return code >= 95 && code <= 99 }

func isSnow(code int) bool { return (code >= 71 && code <= 77) || code == 85 || code == 86 }

func isRain(code int) bool { return (code >= 51 && code <= 67) || (code >= 80 && code <= 82) }
