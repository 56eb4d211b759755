package resolver

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// NoDataColor fills regions without a reading.
const NoDataColor = "#CBD5E1"

// Band is one fixed temperature bucket. Min is inclusive, Max exclusive.
type Band struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Color string  `json:"color"`
	Label string  `json:"label"`
}

var bands = []Band{
	{Min: math.Inf(-1), Max: -10, Color: "#1e3a8a", Label: "Çok Soğuk (<-10°C)"},
	{Min: -10, Max: 0, Color: "#3b82f6", Label: "Soğuk (-10 - 0°C)"},
	{Min: 0, Max: 10, Color: "#22c55e", Label: "Serin (0 - 10°C)"},
	{Min: 10, Max: 18, Color: "#84cc16", Label: "İdeal (10 - 18°C)"},
	{Min: 18, Max: 25, Color: "#fbbf24", Label: "Ilıman (18 - 25°C)"},
	{Min: 25, Max: 30, Color: "#f97316", Label: "Sıcak (25 - 30°C)"},
	{Min: 30, Max: 35, Color: "#ef4444", Label: "Çok Sıcak (30 - 35°C)"},
	{Min: 35, Max: math.Inf(1), Color: "#991b1b", Label: "Aşırı Sıcak (>35°C)"},
}

// MarshalJSON encodes open ends as null.
func (b Band) MarshalJSON() ([]byte, error) {
	type wire struct {
		Min   *float64 `json:"min"`
		Max   *float64 `json:"max"`
		Color string   `json:"color"`
		Label string   `json:"label"`
	}
	w := wire{Color: b.Color, Label: b.Label}
	if finite(b.Min) {
		w.Min = &b.Min
	}
	if finite(b.Max) {
		w.Max = &b.Max
	}
	return json.Marshal(w)
}

var scaleStops = []string{"#1d4ed8", "#0ea5e9", "#22c55e", "#facc15", "#f97316", "#dc2626"}

// Legend returns the fixed buckets in ascending order.
func Legend() []Band {
	out := make([]Band, len(bands))
	copy(out, bands)
	return out
}

// ColorFor returns the bucket color for temp.
func ColorFor(temp float64) string {
	if math.IsNaN(temp) {
		return NoDataColor
	}
	for _, b := range bands {
		if temp < b.Max {
			return b.Color
		}
	}
	return bands[len(bands)-1].Color
}

// ScaleColor interpolates temp across the continuous ramp between lo and hi.
// It falls back to ColorFor when the domain is unusable.
func ScaleColor(temp, lo, hi float64) string {
	if math.IsNaN(temp) {
		return NoDataColor
	}
	if !finite(lo) || !finite(hi) || lo == hi {
		return ColorFor(temp)
	}
	ratio := (temp - lo) / (hi - lo)
	ratio = math.Max(0, math.Min(1, ratio))
	segments := len(scaleStops) - 1
	width := 1 / float64(segments)
	i := min(int(math.Floor(ratio/width)), segments-1)
	local := (ratio - float64(i)*width) / width
	return interpolate(scaleStops[i], scaleStops[i+1], local)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func interpolate(from, to string, ratio float64) string {
	a, b := parseHex(from), parseHex(to)
	var out [3]uint8
	for i := range out {
		v := float64(a[i]) + (float64(b[i])-float64(a[i]))*ratio
		out[i] = uint8(math.Round(math.Max(0, math.Min(255, v))))
	}
	return fmt.Sprintf("#%02x%02x%02x", out[0], out[1], out[2])
}

func parseHex(hex string) [3]uint8 {
	v, _ := strconv.ParseUint(hex[1:], 16, 32)
	return [3]uint8{uint8(v >> 16), uint8(v >> 8), uint8(v)}
}
