//go:build smoke

package weatherapi

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/region-weather/internal/domain"
	"github.com/couchcryptid/region-weather/internal/observability"
)

// These tests hit a running weather backend at WEATHER_API_URL.
// Run with: go test -tags=smoke ./internal/adapter/weatherapi/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	baseURL := os.Getenv("WEATHER_API_URL")
	if baseURL == "" {
		t.Fatal("WEATHER_API_URL must be set to run smoke tests")
	}
	return NewClient(baseURL, 10*time.Second, 1,
		slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())
}

func TestSmoke_FetchRegions(t *testing.T) {
	regions, err := smokeClient(t).FetchRegions(context.Background())
	require.NoError(t, err)

	catalog, err := domain.NewCatalog(regions)
	require.NoError(t, err)
	assert.Equal(t, 81, catalog.Len())
}

func TestSmoke_FetchSnapshot(t *testing.T) {
	clock, err := domain.LoadClock(domain.DefaultTimezone)
	require.NoError(t, err)
	date, _ := clock.NowSelection()

	resp, err := smokeClient(t).FetchSnapshot(context.Background(), domain.SnapshotRequest{Date: date, Time: "12:00"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Entries)
}
