package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/advyta/dashboard/internal/apperror"
	"github.com/advyta/dashboard/internal/dashboard"
	"github.com/advyta/dashboard/internal/model"
)

// WidgetHandler serves the dashboard data endpoints: weather, news, reverse
// geocoding, trending repositories and the aggregate snapshot.
type WidgetHandler struct {
	widgets *dashboard.Service
	logger  *slog.Logger
}

func NewWidgetHandler(widgets *dashboard.Service, logger *slog.Logger) *WidgetHandler {
	return &WidgetHandler{widgets: widgets, logger: logger}
}

// parseCoords pulls lat/lon from the query. Both must be present and
// numeric.
func parseCoords(r *http.Request) (lat, lon float64, err error) {
	latStr := r.URL.Query().Get("lat")
	lonStr := r.URL.Query().Get("lon")
	if latStr == "" || lonStr == "" {
		return 0, 0, apperror.ValidationFailed("coords", "Missing coordinates")
	}
	lat, err = strconv.ParseFloat(latStr, 64)
	if err != nil {
		return 0, 0, apperror.ValidationFailed("lat", "Missing coordinates")
	}
	lon, err = strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return 0, 0, apperror.ValidationFailed("lon", "Missing coordinates")
	}
	return lat, lon, nil
}

// HandleWeather returns the weather snapshot for a coordinate pair or a
// city name. Exactly one addressing mode is required.
//
// HTTP: GET /api/users/weather?lat=..&lon=..  or  ?city=..
func (h *WidgetHandler) HandleWeather(w http.ResponseWriter, r *http.Request) {
	var key dashboard.WeatherKey
	if city := r.URL.Query().Get("city"); city != "" {
		key = dashboard.WeatherKey{City: city}
	} else {
		lat, lon, err := parseCoords(r)
		if err != nil {
			writeError(w, err)
			return
		}
		key = dashboard.WeatherKey{Lat: lat, Lon: lon, Coords: true}
	}

	data, err := h.widgets.Weather(r.Context(), key)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// HandleNews returns up to five deduplicated headlines for a country code,
// defaulting to "us".
//
// HTTP: GET /api/users/news?country=..
func (h *WidgetHandler) HandleNews(w http.ResponseWriter, r *http.Request) {
	articles, err := h.widgets.News(r.Context(), r.URL.Query().Get("country"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, articles)
}

// HandleGeocode resolves coordinates to an uppercase ISO country code.
//
// HTTP: GET /api/users/geocode?lat=..&lon=..
func (h *WidgetHandler) HandleGeocode(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := parseCoords(r)
	if err != nil {
		writeError(w, err)
		return
	}

	code, err := h.widgets.Country(r.Context(), lat, lon)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"countryCode": code})
}

// HandleTrending returns the cached trending-repositories feed.
//
// HTTP: GET /api/github/trending
func (h *WidgetHandler) HandleTrending(w http.ResponseWriter, r *http.Request) {
	result, err := h.widgets.Trending(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleDashboard returns every widget in one aggregate payload, built in
// parallel with per-widget failure isolation. Optional lat/lon localize
// weather and news.
//
// HTTP: GET /api/dashboard
func (h *WidgetHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	var loc model.Location
	if lat, lon, err := parseCoords(r); err == nil {
		loc = model.Location{Lat: &lat, Lon: &lon}
	}

	snap := h.widgets.BuildSnapshot(r.Context(), loc)
	writeJSON(w, http.StatusOK, snap)
}
