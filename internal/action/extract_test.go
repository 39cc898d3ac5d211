package action

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract_WellFormed(t *testing.T) {
	body := `{"content": {"application/json": [{"properties": [
		{"name": "a", "type": "string", "value": "1"},
		{"name": "b", "type": "string", "value": "two"}
	]}]}}`
	assert.Equal(t, ParameterSet{"a": "1", "b": "two"}, Extract(json.RawMessage(body)))
}

func TestExtract_LastWriteWins(t *testing.T) {
	body := `{"content": {
		"application/json": [
			{"properties": [{"name": "condition", "value": "good"}]},
			{"properties": [{"name": "condition", "value": "fair"}, {"name": "garment_type", "value": "jeans"}]}
		],
		"text/plain": [
			{"properties": [{"name": "condition", "value": "worn"}]}
		]
	}}`
	assert.Equal(t, ParameterSet{"condition": "worn", "garment_type": "jeans"}, Extract(json.RawMessage(body)))
}

func TestExtract_DocumentOrderNotAlphabetical(t *testing.T) {
	body := `{"content": {
		"z/type": [{"properties": [{"name": "k", "value": "first"}]}],
		"a/type": [{"properties": [{"name": "k", "value": "second"}]}]
	}}`
	assert.Equal(t, ParameterSet{"k": "second"}, Extract(json.RawMessage(body)))
}

func TestExtract_SingleGroupObject(t *testing.T) {
	body := `{"content": {"application/json": {"properties": [{"name": "garment_type", "value": "dress"}]}}}`
	assert.Equal(t, ParameterSet{"garment_type": "dress"}, Extract(json.RawMessage(body)))
}

func TestExtract_NonStringValues(t *testing.T) {
	body := `{"content": {"application/json": [{"properties": [
		{"name": "estimated_age_years", "value": 2.5},
		{"name": "flag", "value": true},
		{"name": "missing"},
		{"name": "nested", "value": {"x": [1, 2]}}
	]}]}}`
	assert.Equal(t, ParameterSet{
		"estimated_age_years": "2.5",
		"flag":                "true",
		"missing":             "",
		"nested":              `{"x":[1,2]}`,
	}, Extract(json.RawMessage(body)))
}

func TestExtract_MalformedNesting(t *testing.T) {
	cases := map[string]string{
		"empty":                  ``,
		"not json":               `{oops`,
		"array body":             `[1, 2]`,
		"no content":             `{"other": 1}`,
		"content not object":     `{"content": [1]}`,
		"media type scalar":      `{"content": {"application/json": "x"}}`,
		"missing properties key": `{"content": {"application/json": [{"props": []}]}}`,
		"properties not list":    `{"content": {"application/json": [{"properties": "nope"}]}}`,
		"property not object":    `{"content": {"application/json": [{"properties": ["a", 1]}]}}`,
		"property without name":  `{"content": {"application/json": [{"properties": [{"value": "v"}]}]}}`,
		"null":                   `null`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.Equal(t, ParameterSet{}, Extract(json.RawMessage(body)))
			})
		})
	}
}

func TestExtract_PartiallyMalformedKeepsGoodParts(t *testing.T) {
	body := `{"content": {"application/json": [
		"junk",
		{"properties": [{"value": "no name"}, {"name": "a", "value": "ok"}]}
	]}}`
	assert.Equal(t, ParameterSet{"a": "ok"}, Extract(json.RawMessage(body)))
}

func TestParameterSet_Get(t *testing.T) {
	p := ParameterSet{"a": " x ", "b": ""}
	assert.Equal(t, "x", p.Get("a", "d"))
	assert.Equal(t, "d", p.Get("b", "d"))
	assert.Equal(t, "d", p.Get("c", "d"))
}
