// Package route calculates freight routes and their CO2 footprint.
package route

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/osavchenko/ecoroute/internal/apperrors"
	"github.com/osavchenko/ecoroute/internal/logger"
	"github.com/osavchenko/ecoroute/internal/models"
	"github.com/osavchenko/ecoroute/internal/repository"
	"github.com/osavchenko/ecoroute/internal/service/mapbox"
)

const (
	metersPerKm    = 1000
	secondsPerHour = 3600

	apiVersion        = "v1"
	calculationMethod = "mapbox/driving-traffic"
)

// DirectionsAPI is the slice of the Mapbox client the calculator needs.
type DirectionsAPI interface {
	Directions(ctx context.Context, origin []float64, destination []float64) ([]mapbox.Route, error)
}

type CalculateRequest struct {
	Origin        models.Location
	Destination   models.Location
	CargoWeightKg float64
	TransportMode models.TransportMode
}

// Comparison is the persisted search plus what picking the efficient
// alternative over the shortest one saves.
type Comparison struct {
	Search models.Search

	CO2SavingsKg      float64
	CO2SavingsPercent float64
}

type Config struct {
	Logger logger.Logger
}

type RouteService struct {
	directions DirectionsAPI
	searches   repository.SearchRepo
	logger     logger.Logger
}

func NewService(cfg Config, directions DirectionsAPI, searches repository.SearchRepo) (*RouteService, error) {
	if directions == nil {
		return nil, errors.New("directions api is required")
	}
	if searches == nil {
		return nil, errors.New("search repo is required")
	}

	log := cfg.Logger
	if log == nil {
		log = logger.NewNoOp()
	}

	return &RouteService{directions: directions, searches: searches, logger: log}, nil
}

// Calculate fetches the route alternatives, scores each by CO2 emissions,
// picks the shortest and the most efficient one and persists the result as a
// search history entry for the user.
func (s *RouteService) Calculate(ctx context.Context, userID string, req CalculateRequest) (Comparison, error) {
	routes, err := s.directions.Directions(ctx, req.Origin.Coordinates, req.Destination.Coordinates)
	if err != nil {
		var de *mapbox.DirectionsError
		if errors.As(err, &de) && de.Code == mapbox.CodeNoRoute {
			return Comparison{}, fmt.Errorf("%w: %s to %s", apperrors.ErrNoRoutesFound, req.Origin.Name, req.Destination.Name)
		}
		return Comparison{}, fmt.Errorf("fetch directions: %w", err)
	}
	if len(routes) == 0 {
		return Comparison{}, fmt.Errorf("%w: %s to %s", apperrors.ErrNoRoutesFound, req.Origin.Name, req.Destination.Name)
	}

	alternatives := make([]models.RouteInfo, 0, len(routes))
	for _, r := range routes {
		info, err := s.scoreRoute(r, req)
		if err != nil {
			return Comparison{}, err
		}
		alternatives = append(alternatives, info)
	}

	shortest := alternatives[0]
	efficient := alternatives[0]
	for _, alt := range alternatives[1:] {
		if alt.DistanceKm < shortest.DistanceKm {
			shortest = alt
		}
		if alt.CO2EmissionsKg < efficient.CO2EmissionsKg {
			efficient = alt
		}
	}

	savingsKg, savingsPercent := savings(shortest.CO2EmissionsKg, efficient.CO2EmissionsKg)

	search := models.Search{
		UserID:         userID,
		Origin:         req.Origin,
		Destination:    req.Destination,
		CargoWeightKg:  req.CargoWeightKg,
		TransportMode:  req.TransportMode,
		ShortestRoute:  shortest,
		EfficientRoute: efficient,
		Metadata: models.SearchMetadata{
			APIVersion:        apiVersion,
			CalculationMethod: calculationMethod,
		},
	}

	saved, err := s.searches.SaveSearch(ctx, search)
	if err != nil {
		return Comparison{}, fmt.Errorf("save search: %w", err)
	}

	s.logger.Info("Route calculated",
		"user_id", userID,
		"origin", req.Origin.Name,
		"destination", req.Destination.Name,
		"alternatives", len(alternatives),
		"co2_savings_kg", savingsKg,
	)

	return Comparison{
		Search:            saved,
		CO2SavingsKg:      savingsKg,
		CO2SavingsPercent: savingsPercent,
	}, nil
}

func (s *RouteService) scoreRoute(r mapbox.Route, req CalculateRequest) (models.RouteInfo, error) {
	distanceKm := round2(r.DistanceMeters / metersPerKm)
	durationHours := round2(r.DurationSeconds / secondsPerHour)

	co2, err := CO2EmissionsKg(req.TransportMode, distanceKm, req.CargoWeightKg)
	if err != nil {
		return models.RouteInfo{}, err
	}

	return models.RouteInfo{
		DistanceKm:     distanceKm,
		DurationHours:  durationHours,
		CO2EmissionsKg: co2,
		Geometry:       r.Geometry,
	}, nil
}

func savings(shortestKg float64, efficientKg float64) (kg float64, percent float64) {
	saved := decimal.NewFromFloat(shortestKg).Sub(decimal.NewFromFloat(efficientKg))
	if saved.IsNegative() || shortestKg == 0 {
		return 0, 0
	}

	p := saved.Div(decimal.NewFromFloat(shortestKg)).Mul(decimal.NewFromInt(100))
	return saved.Round(2).InexactFloat64(), p.Round(2).InexactFloat64()
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
