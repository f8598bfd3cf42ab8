package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/osavchenko/ecoroute/internal/apperrors"
	"github.com/osavchenko/ecoroute/internal/handlers/render"
	"github.com/osavchenko/ecoroute/internal/handlers/userctx"
	"github.com/osavchenko/ecoroute/internal/logger"
	"github.com/osavchenko/ecoroute/internal/models"
	"github.com/osavchenko/ecoroute/internal/service/search"
)

type locationResponse struct {
	Name        string    `json:"name"`
	Coordinates []float64 `json:"coordinates"`
}

type routeInfoResponse struct {
	DistanceKm     float64         `json:"distance_km"`
	DurationHours  float64         `json:"duration_hours"`
	CO2EmissionsKg float64         `json:"co2_emissions_kg"`
	Geometry       models.Geometry `json:"geometry"`
}

type searchResponse struct {
	ID             string            `json:"id"`
	Origin         locationResponse  `json:"origin"`
	Destination    locationResponse  `json:"destination"`
	CargoWeightKg  float64           `json:"cargo_weight_kg"`
	TransportMode  string            `json:"transport_mode"`
	ShortestRoute  routeInfoResponse `json:"shortest_route"`
	EfficientRoute routeInfoResponse `json:"efficient_route"`
	CreatedAt      time.Time         `json:"created_at"`
}

func newSearchResponse(s models.Search) searchResponse {
	asLocation := func(l models.Location) locationResponse {
		return locationResponse{Name: l.Name, Coordinates: l.Coordinates}
	}
	asRouteInfo := func(ri models.RouteInfo) routeInfoResponse {
		return routeInfoResponse{
			DistanceKm:     ri.DistanceKm,
			DurationHours:  ri.DurationHours,
			CO2EmissionsKg: ri.CO2EmissionsKg,
			Geometry:       ri.Geometry,
		}
	}

	return searchResponse{
		ID:             s.ID,
		Origin:         asLocation(s.Origin),
		Destination:    asLocation(s.Destination),
		CargoWeightKg:  s.CargoWeightKg,
		TransportMode:  string(s.TransportMode),
		ShortestRoute:  asRouteInfo(s.ShortestRoute),
		EfficientRoute: asRouteInfo(s.EfficientRoute),
		CreatedAt:      s.CreatedAt,
	}
}

func handleListSearches(ss searchService, logger logger.Logger) http.Handler {
	type response struct {
		Searches   []searchResponse `json:"searches"`
		Page       int64            `json:"page"`
		Limit      int64            `json:"limit"`
		Total      int64            `json:"total"`
		TotalPages int64            `json:"total_pages"`
		HasNext    bool             `json:"has_next"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := userctx.FromContext(r.Context())

		req := search.ListRequest{
			Page:  queryInt64(r, "page"),
			Limit: queryInt64(r, "limit"),
			Sort:  r.URL.Query().Get("sort"),
			Mode:  models.TransportMode(r.URL.Query().Get("mode")),
		}

		page, err := ss.List(r.Context(), user.ID, req)
		if err != nil {
			renderStoreError(w, err, logger, "Failed to list searches")
			return
		}

		searches := make([]searchResponse, 0, len(page.Searches))
		for _, s := range page.Searches {
			searches = append(searches, newSearchResponse(s))
		}

		render.JSON(w, response{
			Searches:   searches,
			Page:       page.Page,
			Limit:      page.Limit,
			Total:      page.Total,
			TotalPages: page.TotalPages,
			HasNext:    page.HasNext,
		})
	})
}

func handleGetSearch(ss searchService, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := userctx.FromContext(r.Context())

		s, err := ss.Get(r.Context(), r.PathValue("id"), user.ID)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrSearchNotFound):
				render.ServiceError(w, "Search not found", http.StatusNotFound)
			default:
				renderStoreError(w, err, logger, "Failed to get search")
			}
			return
		}

		render.JSON(w, newSearchResponse(s))
	})
}

func handleDeleteSearch(ss searchService, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := userctx.FromContext(r.Context())

		err := ss.Delete(r.Context(), r.PathValue("id"), user.ID)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrSearchNotFound):
				render.ServiceError(w, "Search not found", http.StatusNotFound)
			default:
				renderStoreError(w, err, logger, "Failed to delete search")
			}
			return
		}

		w.WriteHeader(http.StatusNoContent)
	})
}

func handleSearchStats(ss searchService, logger logger.Logger) http.Handler {
	type response struct {
		TotalSearches    int64   `json:"total_searches"`
		TotalCO2SavedKg  float64 `json:"total_co2_saved_kg"`
		AvgCargoWeightKg float64 `json:"avg_cargo_weight_kg"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := userctx.FromContext(r.Context())

		stats, err := ss.Stats(r.Context(), user.ID)
		if err != nil {
			renderStoreError(w, err, logger, "Failed to aggregate stats")
			return
		}

		render.JSON(w, response{
			TotalSearches:    stats.TotalSearches,
			TotalCO2SavedKg:  stats.TotalCO2SavedKg,
			AvgCargoWeightKg: stats.AvgCargoWeightKg,
		})
	})
}

func queryInt64(r *http.Request, name string) int64 {
	v, err := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func renderStoreError(w http.ResponseWriter, err error, logger logger.Logger, msg string) {
	switch {
	case errors.Is(err, apperrors.ErrStoreUnavailable):
		render.ServiceError(w, "Service temporarily unavailable", http.StatusServiceUnavailable)
	default:
		logger.Error(msg, "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}
