// Package recognition detects labels in garment images.
package recognition

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	rktypes "github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/threadher/threadher/internal/breaker"
	"github.com/threadher/threadher/pkg/types"
)

// Detection defaults.
const (
	DefaultMaxLabels     = 20
	DefaultMinConfidence = 70
)

// Image identifies the picture to label. Bucket and Key address a stored
// object; Bytes carries the picture inline.
type Image struct {
	Bucket string
	Key    string
	Bytes  []byte
}

// LabelDetector returns the labels found in an image, most confident first.
type LabelDetector interface {
	DetectLabels(ctx context.Context, img Image) ([]types.Label, error)
}

// API is the subset of the Rekognition client in use.
type API interface {
	DetectLabels(ctx context.Context, in *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error)
}

// Option configures a Rekognition detector.
type Option func(*Rekognition)

// WithLimits overrides the label count and confidence floor.
func WithLimits(maxLabels int32, minConfidence float32) Option {
	return func(r *Rekognition) {
		if maxLabels > 0 {
			r.maxLabels = maxLabels
		}
		if minConfidence > 0 {
			r.minConfidence = minConfidence
		}
	}
}

// WithInlineBytes sends the image bytes instead of an S3 reference. Used when
// images live outside S3.
func WithInlineBytes() Option {
	return func(r *Rekognition) { r.inline = true }
}

// Rekognition implements LabelDetector with Amazon Rekognition.
type Rekognition struct {
	api           API
	maxLabels     int32
	minConfidence float32
	inline        bool
	breaker       *breaker.Breaker
}

// New wraps an existing Rekognition client.
func New(api API, opts ...Option) *Rekognition {
	r := &Rekognition{
		api:           api,
		maxLabels:     DefaultMaxLabels,
		minConfidence: DefaultMinConfidence,
		breaker:       breaker.New("rekognition"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewFromConfig builds a detector from an AWS configuration.
func NewFromConfig(cfg aws.Config, opts ...Option) *Rekognition {
	return New(rekognition.NewFromConfig(cfg), opts...)
}

// DetectLabels calls DetectLabels with the configured limits.
func (r *Rekognition) DetectLabels(ctx context.Context, img Image) ([]types.Label, error) {
	in := &rekognition.DetectLabelsInput{
		MaxLabels:     aws.Int32(r.maxLabels),
		MinConfidence: aws.Float32(r.minConfidence),
	}
	switch {
	case r.inline || img.Bucket == "":
		if len(img.Bytes) == 0 {
			return nil, errors.New("recognition: no image bytes")
		}
		in.Image = &rktypes.Image{Bytes: img.Bytes}
	default:
		in.Image = &rktypes.Image{S3Object: &rktypes.S3Object{
			Bucket: aws.String(img.Bucket),
			Name:   aws.String(img.Key),
		}}
	}

	out, err := breaker.Do(ctx, r.breaker, func() (*rekognition.DetectLabelsOutput, error) {
		return r.api.DetectLabels(ctx, in)
	})
	if err != nil {
		return nil, fmt.Errorf("rekognition: detect labels: %w", err)
	}

	labels := make([]types.Label, 0, len(out.Labels))
	for _, l := range out.Labels {
		labels = append(labels, types.Label{
			Name:       aws.ToString(l.Name),
			Confidence: float64(aws.ToFloat32(l.Confidence)),
		})
	}
	return labels, nil
}

var _ LabelDetector = (*Rekognition)(nil)
