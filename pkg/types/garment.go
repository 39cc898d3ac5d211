// Package types defines the value objects shared across the ThreadHer tool
// functions. None of them are persisted aggregates: each is constructed fresh
// per invocation and discarded after the response is sent.
package types

import "strings"

// DefaultKey is the fallback row name used by every lookup table.
const DefaultKey = "default"

// GarmentDescriptor describes one garment as reported by the user or by the
// image analyzer. String fields are free-form; NormalizeKey lower-cases them
// before any table lookup.
type GarmentDescriptor struct {
	GarmentType       string  `json:"garment_type"`
	Material          string  `json:"material"`
	Condition         string  `json:"condition"`
	OriginLocation    string  `json:"origin"`
	EstimatedAgeYears float64 `json:"estimated_age_years"`
}

// NormalizeKey lower-cases and trims s, returning DefaultKey when empty.
func NormalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultKey
	}
	return s
}

// Label is a single image-recognition label.
type Label struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}
