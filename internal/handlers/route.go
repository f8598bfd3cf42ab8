package handlers

import (
	"errors"
	"net/http"

	"github.com/osavchenko/ecoroute/internal/apperrors"
	"github.com/osavchenko/ecoroute/internal/handlers/render"
	"github.com/osavchenko/ecoroute/internal/handlers/userctx"
	"github.com/osavchenko/ecoroute/internal/logger"
	"github.com/osavchenko/ecoroute/internal/models"
	"github.com/osavchenko/ecoroute/internal/service/route"
)

func handleCalculateRoute(rs routeService, logger logger.Logger) http.Handler {
	type location struct {
		Name        string    `json:"name" validate:"required"`
		Coordinates []float64 `json:"coordinates" validate:"required,len=2"`
	}
	type request struct {
		Origin        location `json:"origin" validate:"required"`
		Destination   location `json:"destination" validate:"required"`
		CargoWeightKg float64  `json:"cargo_weight_kg" validate:"required,gt=0"`
		TransportMode string   `json:"transport_mode" validate:"required,oneof=land sea air"`
	}
	type response struct {
		Search            searchResponse `json:"search"`
		CO2SavingsKg      float64        `json:"co2_savings_kg"`
		CO2SavingsPercent float64        `json:"co2_savings_percent"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		user, _ := userctx.FromContext(r.Context())

		comparison, err := rs.Calculate(r.Context(), user.ID, route.CalculateRequest{
			Origin:        models.Location{Name: data.Origin.Name, Coordinates: data.Origin.Coordinates},
			Destination:   models.Location{Name: data.Destination.Name, Coordinates: data.Destination.Coordinates},
			CargoWeightKg: data.CargoWeightKg,
			TransportMode: models.TransportMode(data.TransportMode),
		})
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrNoRoutesFound):
				render.ServiceError(w, "No routes found between the given points", http.StatusUnprocessableEntity)
			case errors.Is(err, apperrors.ErrStoreUnavailable):
				render.ServiceError(w, "Service temporarily unavailable", http.StatusServiceUnavailable)
			default:
				logger.Error("Failed to calculate route", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, response{
			Search:            newSearchResponse(comparison.Search),
			CO2SavingsKg:      comparison.CO2SavingsKg,
			CO2SavingsPercent: comparison.CO2SavingsPercent,
		})
	})
}
