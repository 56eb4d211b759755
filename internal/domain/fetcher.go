package domain

import "context"

// SnapshotRequest selects one date-time for all provinces.
type SnapshotRequest struct {
	Date string
	Time string
}

// DetailRequest selects a series for one province.
type DetailRequest struct {
	Code      string
	StartDate string
	EndDate   string
	Hourly    bool
}

// SnapshotFetcher retrieves snapshot payloads. Implementations own retries and timeouts.
type SnapshotFetcher interface {
	FetchSnapshot(ctx context.Context, req SnapshotRequest) (SnapshotResponse, error)
}

// DetailFetcher retrieves detail payloads.
type DetailFetcher interface {
	FetchDetail(ctx context.Context, req DetailRequest) (DetailResponse, error)
}

// RegionSource retrieves the province catalog.
type RegionSource interface {
	FetchRegions(ctx context.Context) ([]Region, error)
}
