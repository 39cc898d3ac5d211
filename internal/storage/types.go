package storage

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates that the requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")
)

// Record is one result to persist. Item always contains KeyAttr=ID.
type Record struct {
	// Table is the logical table name, e.g. "ThreadHerCalculations".
	Table string

	// KeyAttr is the primary-key attribute, e.g. "calculation_id".
	KeyAttr string

	// ID is the primary-key value.
	ID string

	// Item is the JSON-compatible payload.
	Item map[string]any
}

// NewRecord converts v to a JSON-compatible item and stamps the key attribute.
func NewRecord(table, keyAttr, id string, v any) (Record, error) {
	item, err := ItemFrom(v)
	if err != nil {
		return Record{}, err
	}
	item[keyAttr] = id
	return Record{Table: table, KeyAttr: keyAttr, ID: id, Item: item}, nil
}

// ItemFrom converts a JSON-serializable value into a generic item map using
// its json tags.
func ItemFrom(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal item: %w", err)
	}
	var item map[string]any
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("%w: item must be a JSON object: %v", ErrInvalidInput, err)
	}
	if item == nil {
		item = map[string]any{}
	}
	return item, nil
}

// Validate checks the fields every backend requires.
func (r Record) Validate() error {
	if r.Table == "" {
		return fmt.Errorf("%w: table is required", ErrInvalidInput)
	}
	if r.ID == "" {
		return fmt.Errorf("%w: record ID is required", ErrInvalidInput)
	}
	if r.KeyAttr == "" {
		return fmt.Errorf("%w: key attribute is required", ErrInvalidInput)
	}
	return nil
}
