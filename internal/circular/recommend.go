// Package circular recommends circular-economy actions (repair, resale,
// donation, recycling, upcycling) for a garment from its type and
// condition. Two views of the same condition table are offered: Recommend
// returns the detailed option set, Simple returns the short option list
// the conversational agent reads back to the user.
package circular

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/threadher/threadher/internal/lookup"
	"github.com/threadher/threadher/internal/storage"
	"github.com/threadher/threadher/pkg/types"
)

// DefaultTable is the result table used when none is configured.
const DefaultTable = "ThreadHerCircularOptions"

// KeyAttr is the primary key of persisted recommendations.
const KeyAttr = "option_id"

// BaselineRegion is the region the static option tables describe. Any
// other location gets an advisory note.
const BaselineRegion = "US"

// Request is the parsed input of both views.
type Request struct {
	GarmentType  string
	Condition    string
	UserLocation string
}

// Options is the detailed option set.
type Options struct {
	RepairOptions       []lookup.RepairService   `json:"repair_options"`
	ResalePlatforms     []lookup.ResalePlatform  `json:"resale_platforms"`
	RecyclingOptions    []lookup.RecyclingOption `json:"recycling_options"`
	UpcyclingIdeas      []string                 `json:"upcycling_ideas"`
	RecommendedAction   string                   `json:"recommended_action"`
	PriorityOptions     []string                 `json:"priority_options"`
	Message             string                   `json:"message"`
	Note                string                   `json:"note,omitempty"`
	EnvironmentalImpact lookup.Impact            `json:"environmental_impact"`
}

// Recommendation is the detailed result.
type Recommendation struct {
	GarmentType     string    `json:"garment_type"`
	Condition       string    `json:"condition"`
	CircularOptions Options   `json:"circular_options"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// Recommend derives the detailed option set from req. Garment type and
// condition are lower-cased; an empty garment type is "default" and an
// empty condition "unknown".
func Recommend(req Request, now time.Time) Recommendation {
	garmentType := types.NormalizeKey(req.GarmentType)
	condition := strings.ToLower(strings.TrimSpace(req.Condition))
	if condition == "" {
		condition = "unknown"
	}

	tier := lookup.RuleFor(condition).Tier
	opts := Options{
		RepairOptions:       lookup.RepairServices(garmentType),
		ResalePlatforms:     lookup.ResalePlatforms(),
		RecyclingOptions:    lookup.RecyclingOptions(),
		UpcyclingIdeas:      lookup.UpcyclingIdeas(garmentType),
		RecommendedAction:   tier.Action,
		PriorityOptions:     tier.Priority,
		Message:             tier.Message,
		EnvironmentalImpact: lookup.ImpactFor(tier.Action),
	}
	if loc := strings.TrimSpace(req.UserLocation); loc != "" && loc != BaselineRegion {
		opts.Note = fmt.Sprintf("Options shown are general. Check local options in %s.", loc)
	}

	return Recommendation{
		GarmentType:     garmentType,
		Condition:       condition,
		CircularOptions: opts,
		GeneratedAt:     now.UTC(),
	}
}

// Outcome pairs a recommendation with the result of persisting it.
type Outcome struct {
	Recommendation Recommendation
	OptionID       string
	PersistErr     error
}

// Recommender produces detailed recommendations and records them.
type Recommender struct {
	store storage.ResultStore
	table string
	now   func() time.Time
}

// Option configures a Recommender.
type Option func(*Recommender)

// WithStore persists every recommendation into table. An empty table uses
// DefaultTable.
func WithStore(store storage.ResultStore, table string) Option {
	return func(r *Recommender) {
		r.store = store
		if table != "" {
			r.table = table
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Recommender) { r.now = now }
}

// NewRecommender returns a Recommender. Without WithStore nothing is
// persisted.
func NewRecommender(opts ...Option) *Recommender {
	r := &Recommender{table: DefaultTable, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Recommend builds the detailed recommendation for req and stores it under
// "<garment type>_<condition>_<unix seconds>".
func (r *Recommender) Recommend(ctx context.Context, req Request) Outcome {
	log.Printf("circular: getting options for %s in %s condition", req.GarmentType, req.Condition)

	now := r.now()
	rec := Recommend(req, now)
	log.Printf("circular: recommended action: %s", rec.CircularOptions.RecommendedAction)

	id := OptionID(rec.GarmentType, rec.Condition, now)
	out := Outcome{Recommendation: rec, OptionID: id}
	if r.store == nil {
		return out
	}

	record, err := storage.NewRecord(r.table, KeyAttr, id, rec)
	if err != nil {
		log.Printf("warning: could not store %s/%s: %v", r.table, id, err)
		out.PersistErr = err
		return out
	}
	out.PersistErr = storage.PutBestEffort(ctx, r.store, record)
	return out
}

// OptionID builds the storage key of a recommendation.
func OptionID(garmentType, condition string, at time.Time) string {
	secs := strconv.FormatFloat(float64(at.UnixMicro())/1e6, 'f', 6, 64)
	return garmentType + "_" + condition + "_" + secs
}
