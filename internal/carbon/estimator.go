// Package carbon estimates a garment's production footprint, its
// annualized footprint, the carbon saved by keeping it for its recommended
// lifespan, and a 0-100 sustainability score.
package carbon

import (
	"context"
	"log"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/threadher/threadher/internal/lookup"
	"github.com/threadher/threadher/internal/storage"
	"github.com/threadher/threadher/pkg/types"
)

// DefaultTable is the result table used when none is configured.
const DefaultTable = "ThreadHerCalculations"

// KeyAttr is the primary key of persisted reports.
const KeyAttr = "calculation_id"

// Report is the result of one calculation. Derived values are never
// mutated after Estimate returns.
type Report struct {
	TotalFootprintKg          float64   `json:"total_carbon_footprint_kg"`
	FootprintPerYearKg        float64   `json:"carbon_per_year_kg"`
	PotentialSavingsKg        float64   `json:"potential_savings_kg"`
	RemainingRecommendedYears float64   `json:"remaining_recommended_years"`
	RecommendedLifespanYears  float64   `json:"recommended_lifespan_years"`
	SustainabilityScore       float64   `json:"sustainability_score"`
	CalculatedAt              time.Time `json:"calculated_at"`

	GarmentType       string  `json:"garment_type"`
	Material          string  `json:"material"`
	Origin            string  `json:"origin"`
	EstimatedAgeYears float64 `json:"estimated_age_years"`
}

// Score bounds.
const (
	baseScore        = 50.0
	maxLongevity     = 40.0
	longevityPerLife = 20.0
	earlyPenalty     = 5.0
	organicBonus     = 10.0
	fiberBonus       = 8.0
)

var bonusFibers = []string{"recycled", "hemp", "linen"}

// Estimate computes a Report for d. It reads only the lookup tables and
// the supplied clock value, so equal inputs give equal numbers.
func Estimate(d types.GarmentDescriptor, now time.Time) Report {
	age := d.EstimatedAgeYears
	if math.IsNaN(age) || math.IsInf(age, 0) {
		age = 0
	}

	total := lookup.Footprint(d.GarmentType, d.Material)
	recommended := lookup.RecommendedLifespan(d.GarmentType)

	perYear := total / math.Max(age, 1)
	remaining := math.Max(0, recommended-age)
	var savings float64
	if remaining > 0 {
		savings = perYear * remaining
	}
	// Extreme but finite ages can overflow the products.
	perYear, remaining, savings = finite(perYear), finite(remaining), finite(savings)

	return Report{
		TotalFootprintKg:          total,
		FootprintPerYearKg:        perYear,
		PotentialSavingsKg:        savings,
		RemainingRecommendedYears: remaining,
		RecommendedLifespanYears:  recommended,
		SustainabilityScore:       Score(age, recommended, d.Material),
		CalculatedAt:              now.UTC(),
		GarmentType:               d.GarmentType,
		Material:                  d.Material,
		Origin:                    d.OriginLocation,
		EstimatedAgeYears:         age,
	}
}

// finite returns v, or 0 when v is NaN or infinite.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Score returns the sustainability score in [0, 100]. Keeping a garment
// past its recommended lifespan earns up to 40 points; retiring it early
// costs 5 points per missing year. Organic materials add 10, and recycled,
// hemp or linen add 8.
func Score(age, recommended float64, material string) float64 {
	score := baseScore
	if recommended > 0 && age >= recommended {
		score += math.Min(maxLongevity, age/recommended*longevityPerLife)
	} else {
		score -= (recommended - age) * earlyPenalty
	}

	m := strings.ToLower(material)
	switch {
	case strings.Contains(m, "organic"):
		score += organicBonus
	case containsAny(m, bonusFibers):
		score += fiberBonus
	}

	if math.IsNaN(score) {
		return 0
	}
	return math.Max(0, math.Min(100, score))
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Outcome pairs a report with the result of persisting it. PersistErr is
// informational; the report is valid regardless.
type Outcome struct {
	Report        Report
	CalculationID string
	PersistErr    error
}

// Estimator computes reports and records them in a result store.
type Estimator struct {
	store storage.ResultStore
	table string
	now   func() time.Time
	newID func() string
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithStore persists every report into table. An empty table uses
// DefaultTable.
func WithStore(store storage.ResultStore, table string) Option {
	return func(e *Estimator) {
		e.store = store
		if table != "" {
			e.table = table
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Estimator) { e.now = now }
}

// WithIDGenerator overrides how calculation IDs are minted when the caller
// does not supply one.
func WithIDGenerator(newID func() string) Option {
	return func(e *Estimator) { e.newID = newID }
}

// NewEstimator returns an Estimator. Without WithStore nothing is persisted.
func NewEstimator(opts ...Option) *Estimator {
	e := &Estimator{
		table: DefaultTable,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Calculate estimates d and stores the report under calculationID (a new
// ID when empty). Storage failures are logged and reported in the Outcome.
func (e *Estimator) Calculate(ctx context.Context, d types.GarmentDescriptor, calculationID string) Outcome {
	log.Printf("carbon: calculating for %s, %s, from %s", d.GarmentType, d.Material, d.OriginLocation)

	report := Estimate(d, e.now())
	if calculationID == "" {
		calculationID = e.newID()
	}
	out := Outcome{Report: report, CalculationID: calculationID}

	if e.store == nil {
		return out
	}
	rec, err := storage.NewRecord(e.table, KeyAttr, calculationID, report)
	if err != nil {
		log.Printf("warning: could not store %s/%s: %v", e.table, calculationID, err)
		out.PersistErr = err
		return out
	}
	out.PersistErr = storage.PutBestEffort(ctx, e.store, rec)
	return out
}
