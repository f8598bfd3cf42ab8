package models

import (
	"time"
)

type TransportMode string

const (
	TransportLand TransportMode = "land"
	TransportSea  TransportMode = "sea"
	TransportAir  TransportMode = "air"
)

// Location is a named point, coordinates in GeoJSON order: [longitude, latitude]
type Location struct {
	Name        string
	Coordinates []float64
}

// Geometry is a GeoJSON LineString of the route path
type Geometry struct {
	Type        string      `json:"type" bson:"type"`
	Coordinates [][]float64 `json:"coordinates" bson:"coordinates"`
}

type RouteInfo struct {
	DistanceKm     float64
	DurationHours  float64
	CO2EmissionsKg float64
	Geometry       Geometry
}

type SearchMetadata struct {
	APIVersion        string
	CalculationMethod string
}

// Search is one persisted route calculation: the user's request plus the
// shortest and the most CO2-efficient alternatives that were found.
type Search struct {
	ID             string
	UserID         string
	Origin         Location
	Destination    Location
	CargoWeightKg  float64
	TransportMode  TransportMode
	ShortestRoute  RouteInfo
	EfficientRoute RouteInfo
	Metadata       SearchMetadata
	CreatedAt      time.Time
}

type SearchStats struct {
	TotalSearches    int64
	TotalCO2SavedKg  float64
	AvgCargoWeightKg float64
}
