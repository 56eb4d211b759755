package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/couchcryptid/region-weather/internal/domain"
	"github.com/couchcryptid/region-weather/internal/ranking"
	"github.com/couchcryptid/region-weather/internal/resolver"
	"github.com/couchcryptid/region-weather/internal/selection"
	"github.com/couchcryptid/region-weather/internal/state"
)

// SelectionController applies selection changes.
type SelectionController interface {
	Apply(ch selection.Change) error
	Now() error
	Retry()
	Wait()
}

// API serves the explorer's read model and accepts selection changes.
type API struct {
	store    *state.Store
	ctrl     SelectionController
	catalog  *domain.Catalog
	resolver *resolver.Resolver
	ranking  *ranking.Engine
	features domain.FeatureCollection
	logger   *slog.Logger
}

func NewAPI(
	store *state.Store,
	ctrl SelectionController,
	catalog *domain.Catalog,
	res *resolver.Resolver,
	engine *ranking.Engine,
	features domain.FeatureCollection,
	logger *slog.Logger,
) *API {
	return &API{
		store:    store,
		ctrl:     ctrl,
		catalog:  catalog,
		resolver: res,
		ranking:  engine,
		features: features,
		logger:   logger,
	}
}

// RegisterRoutes mounts the explorer endpoints onto r.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Get("/state", a.handleState)
	r.Get("/snapshot", a.handleSnapshot)
	r.Get("/detail", a.handleDetail)
	r.Get("/rankings", a.handleRankings)
	r.Get("/features", a.handleFeatures)
	r.Get("/legend", a.handleLegend)
	r.Get("/regions", a.handleRegions)
	r.Post("/selection", a.handleSelection)
	r.Post("/selection/now", a.handleNow)
	r.Post("/refresh", a.handleRefresh)
}

// --- response types ---

type errorBody struct {
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

type snapshotMeta struct {
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	Resolved  int       `json:"resolved"`
	Expected  int       `json:"expected"`
	Coverage  float64   `json:"coverage"`
	AppliedAt time.Time `json:"applied_at"`
}

type detailMeta struct {
	Code   string              `json:"code"`
	Start  string              `json:"start_date"`
	End    string              `json:"end_date"`
	Source domain.SeriesSource `json:"source"`
}

type stateResponse struct {
	Selection       state.Selection `json:"selection"`
	Error           *errorBody      `json:"error"`
	Snapshot        *snapshotMeta   `json:"snapshot"`
	Detail          *detailMeta     `json:"detail"`
	SnapshotLoading bool            `json:"snapshot_loading"`
	DetailLoading   bool            `json:"detail_loading"`
}

type snapshotResponse struct {
	snapshotMeta
	Readings *domain.Snapshot `json:"readings"`
}

type detailResponse struct {
	Series  *domain.DetailSeries `json:"series"`
	Loading bool                 `json:"loading"`
}

type rankingsResponse struct {
	Leaderboards ranking.Leaderboards `json:"leaderboards"`
	Comparison   *ranking.Comparison  `json:"comparison"`
}

type featuresResponse struct {
	Mode     resolver.ColorMode     `json:"mode"`
	Features []resolver.FeatureView `json:"features"`
}

// --- handlers ---

func (a *API) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, buildState(a.store.View()))
}

func (a *API) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	snap := a.store.Snapshot()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "snapshot_unavailable", "no snapshot applied yet", true)
		return
	}
	writeJSON(w, http.StatusOK, snapshotResponse{snapshotMeta: metaOf(snap), Readings: snap})
}

func (a *API) handleDetail(w http.ResponseWriter, _ *http.Request) {
	v := a.store.View()
	writeJSON(w, http.StatusOK, detailResponse{Series: v.Series, Loading: v.DetailLoading})
}

func (a *API) handleRankings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := parseLimit(q.Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "limit must be a non-negative integer", false)
		return
	}

	v := a.store.View()
	resp := rankingsResponse{Leaderboards: truncate(a.ranking.Leaderboards(v.Snapshot), limit)}

	code := v.Selection.Region
	if raw := q.Get("code"); raw != "" {
		matched, ok := a.resolver.Match(raw)
		if !ok {
			writeError(w, http.StatusNotFound, errorKind(domain.ErrRegionNotFound), domain.MsgRegionNotFound, false)
			return
		}
		code = matched
	}
	if code != "" {
		if cmp, ok := a.ranking.Compare(v.Snapshot, code); ok {
			resp.Comparison = &cmp
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleFeatures(w http.ResponseWriter, r *http.Request) {
	mode := resolver.ColorMode(r.URL.Query().Get("color"))
	switch mode {
	case "":
		mode = resolver.ColorBuckets
	case resolver.ColorBuckets, resolver.ColorScale:
	default:
		writeError(w, http.StatusBadRequest, "invalid_request", "color must be buckets or scale", false)
		return
	}
	views := a.resolver.Features(a.features, a.store.Snapshot(), mode)
	writeJSON(w, http.StatusOK, featuresResponse{Mode: mode, Features: views})
}

func (a *API) handleLegend(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"bands":   resolver.Legend(),
		"no_data": resolver.NoDataColor,
	})
}

func (a *API) handleRegions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusOK, map[string]any{"regions": a.catalog.All(), "total": a.catalog.Len()})
		return
	}
	code, ok := a.resolver.Match(query)
	if !ok {
		writeError(w, http.StatusNotFound, errorKind(domain.ErrRegionNotFound), domain.MsgRegionNotFound, false)
		return
	}
	region, _ := a.catalog.Lookup(code)
	writeJSON(w, http.StatusOK, region)
}

func (a *API) handleSelection(w http.ResponseWriter, r *http.Request) {
	var ch selection.Change
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid selection body: "+err.Error(), false)
		return
	}
	if err := a.ctrl.Apply(ch); err != nil {
		a.writeApplyError(w, err)
		return
	}
	a.respondState(w, r)
}

func (a *API) handleNow(w http.ResponseWriter, r *http.Request) {
	if err := a.ctrl.Now(); err != nil {
		a.writeApplyError(w, err)
		return
	}
	a.respondState(w, r)
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	a.ctrl.Retry()
	a.respondState(w, r)
}

// respondState writes the current state. With ?wait=true it first waits for
// the refreshes started by the request to settle.
func (a *API) respondState(w http.ResponseWriter, r *http.Request) {
	status := http.StatusAccepted
	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		a.ctrl.Wait()
		status = http.StatusOK
	}
	writeJSON(w, status, buildState(a.store.View()))
}

func (a *API) writeApplyError(w http.ResponseWriter, err error) {
	var uerr *domain.UserError
	if errors.As(err, &uerr) && errors.Is(err, domain.ErrRegionNotFound) {
		writeError(w, http.StatusNotFound, errorKind(uerr.Kind), uerr.Message, uerr.Retryable)
		return
	}
	a.logger.Error("selection change failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal", "selection change failed", true)
}

// --- helpers ---

func buildState(v state.View) stateResponse {
	resp := stateResponse{
		Selection:       v.Selection,
		SnapshotLoading: v.SnapshotLoading,
		DetailLoading:   v.DetailLoading,
	}
	if v.Err != nil {
		resp.Error = &errorBody{Kind: errorKind(v.Err.Kind), Message: v.Err.Message, Retryable: v.Err.Retryable}
	}
	if v.Snapshot != nil {
		meta := metaOf(v.Snapshot)
		resp.Snapshot = &meta
	}
	if v.Series != nil {
		resp.Detail = &detailMeta{Code: v.Series.Code, Start: v.Series.Start, End: v.Series.End, Source: v.Series.Source}
	}
	return resp
}

func metaOf(snap *domain.Snapshot) snapshotMeta {
	return snapshotMeta{
		Date:      snap.Date,
		Time:      snap.Time,
		Resolved:  snap.Len(),
		Expected:  snap.Expected,
		Coverage:  domain.Coverage(snap.Len(), snap.Expected),
		AppliedAt: snap.AppliedAt,
	}
}

func errorKind(kind error) string {
	switch {
	case errors.Is(kind, domain.ErrSnapshotUnavailable):
		return "snapshot_unavailable"
	case errors.Is(kind, domain.ErrDetailUnavailable):
		return "detail_unavailable"
	case errors.Is(kind, domain.ErrRegionNotFound):
		return "region_not_found"
	default:
		return "internal"
	}
}

func writeError(w http.ResponseWriter, status int, kind, message string, retryable bool) {
	writeJSON(w, status, map[string]errorBody{
		"error": {Kind: kind, Message: message, Retryable: retryable},
	})
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("invalid limit")
	}
	return n, nil
}

// truncate keeps the first n entries of every list; n == 0 keeps all.
func truncate(lb ranking.Leaderboards, n int) ranking.Leaderboards {
	if n == 0 {
		return lb
	}
	cut := func(entries []ranking.Entry) []ranking.Entry {
		if len(entries) > n {
			return entries[:n]
		}
		return entries
	}
	return ranking.Leaderboards{
		Hottest:    cut(lb.Hottest),
		Coldest:    cut(lb.Coldest),
		Wettest:    cut(lb.Wettest),
		Driest:     cut(lb.Driest),
		MostHumid:  cut(lb.MostHumid),
		LeastHumid: cut(lb.LeastHumid),
	}
}
