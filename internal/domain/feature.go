package domain

import "encoding/json"

// Geometry keeps the raw coordinates so features can be re-emitted unchanged.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates,omitempty"`
}

// FeatureProperties holds the loosely-typed properties the resolver reads.
// Every field is optional and may arrive as a string or a number.
type FeatureProperties struct {
	PlateCode  FlexString `json:"plate_code"`
	Name       FlexString `json:"name"`
	NameTR     FlexString `json:"name:tr"`
	AdminLevel FlexString `json:"admin_level"`
}

// GeoFeature is one polygon of the boundary dataset.
type GeoFeature struct {
	Type       string            `json:"type"`
	Properties FeatureProperties `json:"properties"`
	Geometry   *Geometry         `json:"geometry"`
}

// GeometryType returns the geometry type, or "" for a feature without geometry.
func (f GeoFeature) GeometryType() string {
	if f.Geometry == nil {
		return ""
	}
	return f.Geometry.Type
}

// FeatureCollection is a GeoJSON FeatureCollection.
type FeatureCollection struct {
	Type     string       `json:"type"`
	Features []GeoFeature `json:"features"`
}
