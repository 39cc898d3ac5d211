// Package lookup holds the static categorical tables the estimator and the
// recommender read from. The tables are package-level values that are never
// mutated; accessor functions return copies of slices so callers cannot
// alias them.
package lookup

import (
	"slices"

	"github.com/threadher/threadher/pkg/types"
)

// FallbackFootprintKg is returned when neither the garment type nor the
// default row yields a value.
const FallbackFootprintKg = 10.0

// DefaultLifespanYears is the recommended lifespan for unknown garment types.
const DefaultLifespanYears = 3.0

// footprints is kg CO2e per item, keyed by garment type then material.
// Every row carries a "default" material.
var footprints = map[string]map[string]float64{
	"tshirt":  {"cotton": 7.0, "polyester": 5.5, "organic_cotton": 3.5, "default": 6.0},
	"jeans":   {"cotton": 33.4, "denim": 33.4, "organic_cotton": 20.0, "default": 33.4},
	"dress":   {"cotton": 12.0, "polyester": 10.0, "silk": 15.0, "default": 12.0},
	"jacket":  {"leather": 50.0, "polyester": 25.0, "wool": 35.0, "default": 30.0},
	"sweater": {"wool": 20.0, "cotton": 12.0, "acrylic": 15.0, "default": 15.0},
	"shoes":   {"leather": 30.0, "synthetic": 20.0, "default": 25.0},
	"default": {"default": FallbackFootprintKg},
}

var lifespans = map[string]float64{
	"tshirt":  2,
	"jeans":   5,
	"dress":   3,
	"jacket":  7,
	"sweater": 5,
	"shoes":   3,
	"default": DefaultLifespanYears,
}

// Footprint returns the production footprint for a garment type and material.
// Unknown garment types use the "default" row; unknown materials use the
// row's own "default" entry.
func Footprint(garmentType, material string) float64 {
	row, ok := footprints[types.NormalizeKey(garmentType)]
	if !ok {
		row = footprints[types.DefaultKey]
	}
	if v, ok := row[types.NormalizeKey(material)]; ok {
		return v
	}
	if v, ok := row[types.DefaultKey]; ok {
		return v
	}
	return FallbackFootprintKg
}

// RecommendedLifespan returns the recommended years of use for a garment type.
func RecommendedLifespan(garmentType string) float64 {
	if v, ok := lifespans[types.NormalizeKey(garmentType)]; ok {
		return v
	}
	return DefaultLifespanYears
}

// FootprintPair is one tabulated (garment type, material) entry.
type FootprintPair struct {
	GarmentType string
	Material    string
	Kg          float64
}

// FootprintPairs lists every tabulated entry, sorted by garment type then
// material.
func FootprintPairs() []FootprintPair {
	var out []FootprintPair
	for g, row := range footprints {
		for m, kg := range row {
			out = append(out, FootprintPair{GarmentType: g, Material: m, Kg: kg})
		}
	}
	slices.SortFunc(out, func(a, b FootprintPair) int {
		if a.GarmentType != b.GarmentType {
			if a.GarmentType < b.GarmentType {
				return -1
			}
			return 1
		}
		if a.Material < b.Material {
			return -1
		}
		if a.Material > b.Material {
			return 1
		}
		return 0
	})
	return out
}
