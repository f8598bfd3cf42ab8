package mongostore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/osavchenko/ecoroute/internal/apperrors"
	"github.com/osavchenko/ecoroute/internal/models"
	"github.com/osavchenko/ecoroute/internal/repository"
)

type SearchRepo struct {
	searches *mongo.Collection
}

type locationDoc struct {
	Name        string    `bson:"name"`
	Coordinates []float64 `bson:"coordinates"`
}

type routeInfoDoc struct {
	DistanceKm     float64         `bson:"distance_km"`
	DurationHours  float64         `bson:"duration_hours"`
	CO2EmissionsKg float64         `bson:"co2_emissions_kg"`
	Geometry       models.Geometry `bson:"geometry"`
}

type metadataDoc struct {
	APIVersion        string `bson:"api_version"`
	CalculationMethod string `bson:"calculation_method"`
}

type searchDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	UserID         primitive.ObjectID `bson:"user_id"`
	Origin         locationDoc        `bson:"origin"`
	Destination    locationDoc        `bson:"destination"`
	CargoWeightKg  float64            `bson:"cargo_weight_kg"`
	TransportMode  string             `bson:"transport_mode"`
	ShortestRoute  routeInfoDoc       `bson:"shortest_route"`
	EfficientRoute routeInfoDoc       `bson:"efficient_route"`
	Metadata       metadataDoc        `bson:"metadata"`
	CreatedAt      time.Time          `bson:"created_at"`
}

func toLocationDoc(l models.Location) locationDoc {
	return locationDoc{Name: l.Name, Coordinates: l.Coordinates}
}

func toRouteInfoDoc(r models.RouteInfo) routeInfoDoc {
	return routeInfoDoc{
		DistanceKm:     r.DistanceKm,
		DurationHours:  r.DurationHours,
		CO2EmissionsKg: r.CO2EmissionsKg,
		Geometry:       r.Geometry,
	}
}

func (d routeInfoDoc) toModel() models.RouteInfo {
	return models.RouteInfo{
		DistanceKm:     d.DistanceKm,
		DurationHours:  d.DurationHours,
		CO2EmissionsKg: d.CO2EmissionsKg,
		Geometry:       d.Geometry,
	}
}

func (d searchDoc) toModel() models.Search {
	return models.Search{
		ID:             d.ID.Hex(),
		UserID:         d.UserID.Hex(),
		Origin:         models.Location{Name: d.Origin.Name, Coordinates: d.Origin.Coordinates},
		Destination:    models.Location{Name: d.Destination.Name, Coordinates: d.Destination.Coordinates},
		CargoWeightKg:  d.CargoWeightKg,
		TransportMode:  models.TransportMode(d.TransportMode),
		ShortestRoute:  d.ShortestRoute.toModel(),
		EfficientRoute: d.EfficientRoute.toModel(),
		Metadata:       models.SearchMetadata(d.Metadata),
		CreatedAt:      d.CreatedAt,
	}
}

func (r *SearchRepo) SaveSearch(ctx context.Context, s models.Search) (models.Search, error) {
	userID, err := primitive.ObjectIDFromHex(s.UserID)
	if err != nil {
		return models.Search{}, fmt.Errorf("bad user id %q: %w", s.UserID, err)
	}

	doc := searchDoc{
		UserID:         userID,
		Origin:         toLocationDoc(s.Origin),
		Destination:    toLocationDoc(s.Destination),
		CargoWeightKg:  s.CargoWeightKg,
		TransportMode:  string(s.TransportMode),
		ShortestRoute:  toRouteInfoDoc(s.ShortestRoute),
		EfficientRoute: toRouteInfoDoc(s.EfficientRoute),
		Metadata:       metadataDoc(s.Metadata),
		CreatedAt:      time.Now().UTC().Truncate(time.Millisecond),
	}

	res, err := r.searches.InsertOne(ctx, doc)
	if err != nil {
		return models.Search{}, fmt.Errorf("%w: mongo insert: %v", apperrors.ErrStoreUnavailable, err)
	}

	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toModel(), nil
}

func (r *SearchRepo) ListSearches(ctx context.Context, userID string, p repository.ListSearchesParams) ([]models.Search, int64, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, 0, fmt.Errorf("bad user id %q: %w", userID, err)
	}

	filter := bson.M{"user_id": uid}
	if p.Mode != "" {
		filter["transport_mode"] = string(p.Mode)
	}

	total, err := r.searches.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: mongo count: %v", apperrors.ErrStoreUnavailable, err)
	}

	sortField, direction := parseSort(p.Sort)
	opts := options.Find().
		SetSort(bson.D{{Key: sortField, Value: direction}}).
		SetSkip((p.Page - 1) * p.Limit).
		SetLimit(p.Limit)

	cursor, err := r.searches.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: mongo find: %v", apperrors.ErrStoreUnavailable, err)
	}

	var docs []searchDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("%w: mongo cursor: %v", apperrors.ErrStoreUnavailable, err)
	}

	searches := make([]models.Search, 0, len(docs))
	for _, doc := range docs {
		searches = append(searches, doc.toModel())
	}

	return searches, total, nil
}

func (r *SearchRepo) GetSearch(ctx context.Context, id string, userID string) (models.Search, error) {
	filter, err := ownedFilter(id, userID)
	if err != nil {
		return models.Search{}, apperrors.ErrSearchNotFound
	}

	var doc searchDoc
	err = r.searches.FindOne(ctx, filter).Decode(&doc)

	switch {
	case err == nil:
		return doc.toModel(), nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return models.Search{}, apperrors.ErrSearchNotFound
	default:
		return models.Search{}, fmt.Errorf("%w: mongo find: %v", apperrors.ErrStoreUnavailable, err)
	}
}

func (r *SearchRepo) DeleteSearch(ctx context.Context, id string, userID string) error {
	filter, err := ownedFilter(id, userID)
	if err != nil {
		return apperrors.ErrSearchNotFound
	}

	res, err := r.searches.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("%w: mongo delete: %v", apperrors.ErrStoreUnavailable, err)
	}
	if res.DeletedCount == 0 {
		return apperrors.ErrSearchNotFound
	}

	return nil
}

func (r *SearchRepo) SearchStats(ctx context.Context, userID string) (models.SearchStats, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return models.SearchStats{}, fmt.Errorf("bad user id %q: %w", userID, err)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": uid}}},
		{{Key: "$group", Value: bson.M{
			"_id":              nil,
			"total_searches":   bson.M{"$sum": 1},
			"avg_cargo_weight": bson.M{"$avg": "$cargo_weight_kg"},
			"total_co2_saved": bson.M{"$sum": bson.M{"$subtract": bson.A{
				"$shortest_route.co2_emissions_kg",
				"$efficient_route.co2_emissions_kg",
			}}},
		}}},
	}

	cursor, err := r.searches.Aggregate(ctx, pipeline)
	if err != nil {
		return models.SearchStats{}, fmt.Errorf("%w: mongo aggregate: %v", apperrors.ErrStoreUnavailable, err)
	}

	var rows []struct {
		TotalSearches  int64   `bson:"total_searches"`
		AvgCargoWeight float64 `bson:"avg_cargo_weight"`
		TotalCO2Saved  float64 `bson:"total_co2_saved"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return models.SearchStats{}, fmt.Errorf("%w: mongo cursor: %v", apperrors.ErrStoreUnavailable, err)
	}

	// no searches yet: aggregation returns no rows at all
	if len(rows) == 0 {
		return models.SearchStats{}, nil
	}

	return models.SearchStats{
		TotalSearches:    rows[0].TotalSearches,
		TotalCO2SavedKg:  rows[0].TotalCO2Saved,
		AvgCargoWeightKg: rows[0].AvgCargoWeight,
	}, nil
}

func ownedFilter(id string, userID string) (bson.M, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, err
	}
	return bson.M{"_id": oid, "user_id": uid}, nil
}

// parseSort understands the "-created_at" convention: leading '-' means
// descending. Defaults to newest first.
func parseSort(sort string) (field string, direction int) {
	if sort == "" {
		return "created_at", -1
	}

	direction = 1
	if strings.HasPrefix(sort, "-") {
		direction = -1
		sort = strings.TrimPrefix(sort, "-")
	}

	return sort, direction
}
