package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// Region is a province from the static catalog.
type Region struct {
	Code       string      `json:"plate_code"`
	Name       string      `json:"name"`
	NameEN     string      `json:"name_en,omitempty"`
	GeoRegion  string      `json:"region,omitempty"`
	Population int         `json:"population,omitempty"`
	AreaKm2    float64     `json:"area_km2,omitempty"`
	Elevation  float64     `json:"elevation,omitempty"`
	Centroid   Coordinates `json:"coordinates"`
}

// NormalizeCode returns the zero-padded two-digit form of a plate code given
// as one or two ASCII digits. "0" and "00" are rejected.
func NormalizeCode(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if len(s) == 0 || len(s) > 2 {
		return "", false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	n, _ := strconv.Atoi(s)
	if n == 0 {
		return "", false
	}
	return fmt.Sprintf("%02d", n), true
}

// Catalog is the immutable, code-indexed province list.
type Catalog struct {
	regions []Region
	byCode  map[string]int
}

// NewCatalog validates and indexes regions. Codes are normalized, names are
// localized, and duplicate or malformed codes are rejected.
func NewCatalog(regions []Region) (*Catalog, error) {
	c := &Catalog{
		regions: make([]Region, 0, len(regions)),
		byCode:  make(map[string]int, len(regions)),
	}
	for i, r := range regions {
		code, ok := NormalizeCode(r.Code)
		if !ok {
			return nil, fmt.Errorf("region %d: invalid plate code %q", i, r.Code)
		}
		if _, dup := c.byCode[code]; dup {
			return nil, fmt.Errorf("region %d: duplicate plate code %s", i, code)
		}
		r.Code = code
		r.Name = LocalizeRegionName(r.Name)
		if r.Name == "" {
			return nil, fmt.Errorf("region %s: missing name", code)
		}
		c.byCode[code] = len(c.regions)
		c.regions = append(c.regions, r)
	}
	return c, nil
}

// Lookup returns the region with the given canonical code.
func (c *Catalog) Lookup(code string) (Region, bool) {
	if c == nil {
		return Region{}, false
	}
	i, ok := c.byCode[code]
	if !ok {
		return Region{}, false
	}
	return c.regions[i], true
}

// Name returns the region name for code, or "" when unknown.
func (c *Catalog) Name(code string) string {
	r, _ := c.Lookup(code)
	return r.Name
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.regions)
}

// All returns a copy of the regions in catalog order.
func (c *Catalog) All() []Region {
	if c == nil {
		return nil
	}
	out := make([]Region, len(c.regions))
	copy(out, c.regions)
	return out
}

// RegionRecord is the lenient wire form of a Region. The plate code may be a
// string or a number and coordinates may be nested or flat.
type RegionRecord struct {
	Code       FlexString   `json:"plate_code"`
	Name       string       `json:"name"`
	NameEN     string       `json:"name_en"`
	GeoRegion  string       `json:"region"`
	Population FlexFloat    `json:"population"`
	AreaKm2    FlexFloat    `json:"area_km2"`
	Elevation  FlexFloat    `json:"elevation"`
	Coords     *Coordinates `json:"coordinates"`
	Latitude   FlexFloat    `json:"latitude"`
	Longitude  FlexFloat    `json:"longitude"`
}

// Region converts the record. Validation happens in NewCatalog.
func (r RegionRecord) Region() Region {
	out := Region{
		Code:       r.Code.String(),
		Name:       r.Name,
		NameEN:     r.NameEN,
		GeoRegion:  r.GeoRegion,
		Population: int(r.Population.Or(0)),
		AreaKm2:    r.AreaKm2.Or(0),
		Elevation:  r.Elevation.Or(0),
	}
	switch {
	case r.Coords != nil:
		out.Centroid = *r.Coords
	case r.Latitude.Valid && r.Longitude.Valid:
		out.Centroid = Coordinates{Lat: r.Latitude.Value, Lon: r.Longitude.Value}
	}
	return out
}

// RegionList is the catalog response envelope.
type RegionList struct {
	Regions []RegionRecord `json:"provinces"`
	Total   int            `json:"total"`
}

// ToRegions converts every record.
func (l RegionList) ToRegions() []Region {
	out := make([]Region, 0, len(l.Regions))
	for _, r := range l.Regions {
		out = append(out, r.Region())
	}
	return out
}
