package route

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/osavchenko/ecoroute/internal/apperrors"
	"github.com/osavchenko/ecoroute/internal/models"
)

// Emission factors in kg CO2 per tonne-kilometer, EEA freight averages.
var emissionFactors = map[models.TransportMode]decimal.Decimal{
	models.TransportLand: decimal.NewFromFloat(0.105),
	models.TransportSea:  decimal.NewFromFloat(0.016),
	models.TransportAir:  decimal.NewFromFloat(0.602),
}

const kgPerTonne = 1000

// CO2EmissionsKg returns the emissions for hauling cargoWeightKg over
// distanceKm with the given mode, rounded to two decimal places.
func CO2EmissionsKg(mode models.TransportMode, distanceKm float64, cargoWeightKg float64) (float64, error) {
	factor, ok := emissionFactors[mode]
	if !ok {
		return 0, fmt.Errorf("%w: %q", apperrors.ErrTransportModeUnknown, mode)
	}

	distance := decimal.NewFromFloat(distanceKm)
	tonnes := decimal.NewFromFloat(cargoWeightKg).Div(decimal.NewFromInt(kgPerTonne))

	kg := distance.Mul(tonnes).Mul(factor).Round(2)
	return kg.InexactFloat64(), nil
}
