// Package resolver maps noisy boundary features to canonical province codes
// and derives the per-province presentation values: fill color, condition
// label and critical events.
package resolver

import (
	"strings"

	"github.com/couchcryptid/region-weather/internal/domain"
)

// UnknownName is shown for features that carry no usable name.
const UnknownName = "Bilinmiyor"

// regionAdminLevel is the OSM admin_level of Turkish provinces.
const regionAdminLevel = "4"

// aliases cover boundary names that do not match the catalog spelling.
// They apply only where the catalog has no entry for the normalized key.
var aliases = map[string]string{
	"bilecik":   "11",
	"sanliurfa": "63",
	"kirikkale": "71",
	"osmaniye":  "80",
	"aksaray":   "68",
}

// Resolver is read-only after construction and safe for concurrent use.
type Resolver struct {
	catalog *domain.Catalog
	byName  map[string]string
}

// New builds the name table from catalog. A nil or empty catalog leaves only
// direct plate codes and the alias table.
func New(catalog *domain.Catalog) *Resolver {
	r := &Resolver{catalog: catalog, byName: make(map[string]string, catalog.Len()+len(aliases))}
	for _, region := range catalog.All() {
		if key := domain.NormalizeName(region.Name); key != "" {
			r.byName[key] = region.Code
		}
		if key := domain.NormalizeName(region.NameEN); key != "" {
			if _, taken := r.byName[key]; !taken {
				r.byName[key] = region.Code
			}
		}
	}
	for key, code := range aliases {
		if _, ok := r.byName[key]; !ok {
			r.byName[key] = code
		}
	}
	return r
}

// ResolveCode returns the canonical code for a feature. It tries the direct
// plate code, then the Turkish name, then the generic name.
func (r *Resolver) ResolveCode(f domain.GeoFeature) (string, bool) {
	p := f.Properties
	if code, ok := r.directCode(p.PlateCode.String()); ok {
		return code, true
	}
	for _, name := range []domain.FlexString{p.NameTR, p.Name} {
		if code, ok := r.ResolveName(name.String()); ok {
			return code, true
		}
	}
	return "", false
}

// ResolveName matches a free-form province name.
func (r *Resolver) ResolveName(name string) (string, bool) {
	key := domain.NormalizeName(name)
	if key == "" {
		return "", false
	}
	code, ok := r.byName[key]
	return code, ok
}

// Match resolves a user query that may be a plate code or a province name.
func (r *Resolver) Match(query string) (string, bool) {
	if code, ok := r.directCode(query); ok {
		return code, true
	}
	return r.ResolveName(query)
}

func (r *Resolver) directCode(raw string) (string, bool) {
	code, ok := domain.NormalizeCode(raw)
	if !ok {
		return "", false
	}
	if r.catalog.Len() == 0 {
		return code, true
	}
	if _, known := r.catalog.Lookup(code); !known {
		return "", false
	}
	return code, true
}

// DisplayName prefers the catalog name of the resolved region, then the
// feature's Turkish name, then its generic name.
func (r *Resolver) DisplayName(f domain.GeoFeature) string {
	if code, ok := r.ResolveCode(f); ok {
		if name := r.catalog.Name(code); name != "" {
			return name
		}
	}
	if name := f.Properties.NameTR.String(); name != "" {
		return name
	}
	if name := f.Properties.Name.String(); name != "" {
		return name
	}
	return UnknownName
}

// IsRegionPolygon reports whether the feature is a province-level polygon.
func IsRegionPolygon(f domain.GeoFeature) bool {
	switch f.GeometryType() {
	case "Polygon", "MultiPolygon":
	default:
		return false
	}
	return strings.TrimSpace(f.Properties.AdminLevel.String()) == regionAdminLevel
}
