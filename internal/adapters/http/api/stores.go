package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	service "github.com/okian/lottoheat/internal/app"
	"github.com/okian/lottoheat/internal/domain/model"
)

type upsertStoresResponse struct {
	Received int `json:"received"`
	Added    int `json:"added"`
}

// handleUpsertStores handles PUT /stores with a JSON array of locations.
func (s *Server) handleUpsertStores(w http.ResponseWriter, r *http.Request) {
	var stores []model.StoreLocation
	if err := decodeBody(w, r, &stores); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	added, err := s.svc.UpsertStores(r.Context(), stores)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, upsertStoresResponse{Received: len(stores), Added: added})
}

// handleStoreHeat handles GET /stores/{storeID}/heat.
func (s *Server) handleStoreHeat(w http.ResponseWriter, r *http.Request) {
	h, err := s.svc.StoreHeat(r.Context(), chi.URLParam(r, "storeID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

// handleStoreRank handles GET /stores/{storeID}/rank.
func (s *Server) handleStoreRank(w http.ResponseWriter, r *http.Request) {
	row, err := s.svc.StoreRank(r.Context(), chi.URLParam(r, "storeID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

// handleHotStores handles GET /stores/hot?limit=N[&lat=&lon=&radius_km=].
func (s *Server) handleHotStores(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := defaultHotLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: limit must be a positive integer", ErrBadRequest))
			return
		}
		limit = n
	}
	if limit > s.maxHotLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", fmt.Errorf("%w: limit above %d", ErrBadRequest, s.maxHotLimit))
		return
	}

	near, err := parseGeoFilter(q.Get("lat"), q.Get("lon"), q.Get("radius_km"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	rows, err := s.svc.HotStores(r.Context(), limit, near)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// parseGeoFilter returns nil when no geo parameter is given. A partial set
// is an error.
func parseGeoFilter(lat, lon, radius string) (*service.GeoFilter, error) {
	if lat == "" && lon == "" && radius == "" {
		return nil, nil //nolint:nilnil // absent filter
	}
	if lat == "" || lon == "" || radius == "" {
		return nil, fmt.Errorf("%w: lat, lon and radius_km go together", ErrBadRequest)
	}
	var (
		g   service.GeoFilter
		err error
	)
	if g.Latitude, err = strconv.ParseFloat(lat, 64); err != nil {
		return nil, fmt.Errorf("%w: lat %q", ErrBadRequest, lat)
	}
	if g.Longitude, err = strconv.ParseFloat(lon, 64); err != nil {
		return nil, fmt.Errorf("%w: lon %q", ErrBadRequest, lon)
	}
	if g.RadiusKM, err = strconv.ParseFloat(radius, 64); err != nil {
		return nil, fmt.Errorf("%w: radius_km %q", ErrBadRequest, radius)
	}
	return &g, nil
}
