// Package vision identifies a garment's type, material, condition and style
// from an uploaded photo by combining label detection with a model-written
// description.
package vision

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/threadher/threadher/internal/apperr"
	"github.com/threadher/threadher/internal/llm"
	"github.com/threadher/threadher/internal/recognition"
	"github.com/threadher/threadher/internal/storage"
	"github.com/threadher/threadher/pkg/types"
)

// DefaultTable is the garments table used when none is configured.
const DefaultTable = "ThreadHerGarments"

// KeyAttr is the primary key of persisted analyses.
const KeyAttr = "garment_id"

// AnonymousUser owns garments uploaded without a user id.
const AnonymousUser = "anonymous"

// maxLabels is how many detected labels an analysis keeps.
const maxLabels = 10

const unknown = "unknown"

// DefaultStyle is reported when the description names no style.
const DefaultStyle = "casual"

// GarmentPrompt asks the model for the fields the analysis reads back.
const GarmentPrompt = `Analyze this clothing item and provide:
1. Garment type (e.g., t-shirt, jeans, dress, jacket)
2. Primary material (e.g., cotton, polyester, denim, wool)
3. Condition (excellent, good, fair, poor)
4. Style category (casual, formal, athletic, etc.)
5. Estimated age/wear level
6. Any visible brand logos or tags

Respond in JSON format.`

// Request identifies the image to analyze.
type Request struct {
	ImageKey string
	Bucket   string
	UserID   string
}

// Analysis is the persisted result for one garment photo.
type Analysis struct {
	GarmentID   string         `json:"garment_id"`
	UserID      string         `json:"user_id"`
	ImageKey    string         `json:"image_s3_key"`
	AnalyzedAt  time.Time      `json:"analyzed_at"`
	Labels      []types.Label  `json:"rekognition_labels"`
	Description map[string]any `json:"claude_analysis"`
	GarmentType string         `json:"garment_type"`
	Material    string         `json:"material"`
	Condition   string         `json:"condition"`
	Style       string         `json:"style"`
}

// Analyzer fetches an image and describes the garment in it.
type Analyzer struct {
	blobs     storage.BlobStore
	labels    recognition.LabelDetector
	generator llm.VisionGenerator
	store     storage.ResultStore
	table     string
	now       func() time.Time
	newID     func() string
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLabelDetector enables label detection.
func WithLabelDetector(d recognition.LabelDetector) Option {
	return func(a *Analyzer) { a.labels = d }
}

// WithGenerator enables the model-written description.
func WithGenerator(g llm.VisionGenerator) Option {
	return func(a *Analyzer) { a.generator = g }
}

// WithStore persists every analysis into table. An empty table uses
// DefaultTable.
func WithStore(store storage.ResultStore, table string) Option {
	return func(a *Analyzer) {
		a.store = store
		if table != "" {
			a.table = table
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

// WithIDGenerator overrides how garment IDs are minted.
func WithIDGenerator(newID func() string) Option {
	return func(a *Analyzer) { a.newID = newID }
}

// NewAnalyzer returns an Analyzer reading images from blobs.
func NewAnalyzer(blobs storage.BlobStore, opts ...Option) *Analyzer {
	a := &Analyzer{
		blobs: blobs,
		table: DefaultTable,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze fetches the image, runs label detection and the description
// concurrently, and stores the combined result. Either collaborator may
// fail; the analysis then carries no labels or an empty description.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (Analysis, error) {
	key := strings.TrimSpace(req.ImageKey)
	bucket := strings.TrimSpace(req.Bucket)
	if key == "" || bucket == "" {
		return Analysis{}, apperr.Validation("vision.analyze", "image_s3_key and bucket_name are required")
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		userID = AnonymousUser
	}

	log.Printf("vision: analyzing image s3://%s/%s", bucket, key)
	image, err := a.blobs.Get(ctx, bucket, key)
	if err != nil {
		return Analysis{}, apperr.NotFound("vision.analyze", "Image not found", err)
	}

	var (
		labels      []types.Label
		description map[string]any
	)
	var g errgroup.Group
	g.Go(func() error {
		labels = a.detectLabels(ctx, recognition.Image{Bucket: bucket, Key: key, Bytes: image})
		return nil
	})
	g.Go(func() error {
		description = a.describe(ctx, image)
		return nil
	})
	_ = g.Wait()

	if len(labels) > maxLabels {
		labels = labels[:maxLabels]
	}
	if labels == nil {
		labels = []types.Label{}
	}
	if description == nil {
		description = map[string]any{}
	}

	analysis := Analysis{
		GarmentID:   a.newID(),
		UserID:      userID,
		ImageKey:    key,
		AnalyzedAt:  a.now().UTC(),
		Labels:      labels,
		Description: description,
		GarmentType: field(description, "garment_type", unknown),
		Material:    field(description, "material", unknown),
		Condition:   field(description, "condition", unknown),
		Style:       field(description, "style_category", DefaultStyle),
	}
	log.Printf("vision: analysis complete: %s, %s", analysis.GarmentType, analysis.Material)

	a.persist(ctx, analysis)
	return analysis, nil
}

func (a *Analyzer) detectLabels(ctx context.Context, img recognition.Image) []types.Label {
	if a.labels == nil {
		return nil
	}
	labels, err := a.labels.DetectLabels(ctx, img)
	if err != nil {
		log.Printf("vision: label detection error: %v", err)
		return nil
	}
	return labels
}

// describe returns the parsed description, a raw-text fallback when the
// model did not answer in JSON, or nil when the model call failed.
func (a *Analyzer) describe(ctx context.Context, image []byte) map[string]any {
	if a.generator == nil {
		return nil
	}
	text, err := a.generator.DescribeImage(ctx, GarmentPrompt, image, llm.DetectMediaType(image))
	if err != nil {
		log.Printf("vision: description error: %v", err)
		return nil
	}
	obj, err := llm.ParseObject(text)
	if err != nil {
		return map[string]any{
			"raw_analysis": text,
			"garment_type": unknown,
			"material":     unknown,
			"condition":    unknown,
		}
	}
	return obj
}

func (a *Analyzer) persist(ctx context.Context, analysis Analysis) {
	if a.store == nil {
		return
	}
	rec, err := storage.NewRecord(a.table, KeyAttr, analysis.GarmentID, analysis)
	if err != nil {
		log.Printf("warning: could not store %s/%s: %v", a.table, analysis.GarmentID, err)
		return
	}
	_ = storage.PutBestEffort(ctx, a.store, rec)
}

// field reads key from the description. Absent or null values give def;
// non-string values are formatted.
func field(m map[string]any, key, def string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
