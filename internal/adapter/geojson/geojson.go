// Package geojson loads the static province catalog and the province
// boundary feature collection from JSON files.
package geojson

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/region-weather/internal/domain"
)

// LoadRegions decodes a province list. Both the {"provinces": [...]}
// envelope served by the backend and a bare array are accepted.
func LoadRegions(r io.Reader) ([]domain.Region, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read regions: %w", err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errors.New("read regions: empty input")
	}

	if raw[0] == '[' {
		var records []domain.RegionRecord
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, fmt.Errorf("decode regions: %w", err)
		}
		return domain.RegionList{Regions: records}.ToRegions(), nil
	}

	var list domain.RegionList
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode regions: %w", err)
	}
	return list.ToRegions(), nil
}

// LoadRegionsFile reads a province list from path.
func LoadRegionsFile(path string) ([]domain.Region, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open regions: %w", err)
	}
	defer f.Close()
	return LoadRegions(f)
}

// RegionFile serves the province catalog from a local file.
type RegionFile struct {
	Path string
}

// FetchRegions implements domain.RegionSource.
func (f RegionFile) FetchRegions(ctx context.Context) ([]domain.Region, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return LoadRegionsFile(f.Path)
}

// LoadFeatures decodes a GeoJSON FeatureCollection.
func LoadFeatures(r io.Reader) (domain.FeatureCollection, error) {
	var fc domain.FeatureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return domain.FeatureCollection{}, fmt.Errorf("decode features: %w", err)
	}
	if fc.Type != "" && fc.Type != "FeatureCollection" {
		return domain.FeatureCollection{}, fmt.Errorf("decode features: unexpected type %q", fc.Type)
	}
	return fc, nil
}

// LoadFeaturesFile reads a GeoJSON FeatureCollection from path.
func LoadFeaturesFile(path string) (domain.FeatureCollection, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.FeatureCollection{}, fmt.Errorf("open features: %w", err)
	}
	defer f.Close()
	return LoadFeatures(f)
}
