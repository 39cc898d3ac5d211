// Package action receives tool invocations from the conversational agent,
// flattens their parameters, dispatches them to the garment tools and
// wraps every outcome in the agent's response format.
package action

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ParameterSet maps parameter names to their string values.
type ParameterSet map[string]string

// Get returns the trimmed value of name, or def when absent or blank.
func (p ParameterSet) Get(name, def string) string {
	if v := strings.TrimSpace(p[name]); v != "" {
		return v
	}
	return def
}

// Extract flattens a request body of the form
//
//	{"content": {"<media type>": [{"properties": [{"name": ..., "value": ...}]}]}}
//
// into a ParameterSet. Media types are visited in document order, then
// groups and properties in list order; a repeated name keeps the last value.
// A media type mapped directly to a single {"properties": [...]} object is
// accepted as a one-element group list. Any level with an unexpected shape
// is skipped. Non-string values are kept as their JSON text; null becomes "".
func Extract(requestBody json.RawMessage) ParameterSet {
	params := ParameterSet{}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(requestBody, &body); err != nil {
		return params
	}
	content, ok := body["content"]
	if !ok {
		return params
	}

	for _, groups := range objectValues(content) {
		for _, group := range groupList(groups) {
			var g map[string]json.RawMessage
			if err := json.Unmarshal(group, &g); err != nil {
				continue
			}
			var props []json.RawMessage
			if err := json.Unmarshal(g["properties"], &props); err != nil {
				continue
			}
			for _, prop := range props {
				name, value, ok := property(prop)
				if ok {
					params[name] = value
				}
			}
		}
	}
	return params
}

// objectValues returns the member values of a JSON object in document
// order, or nil if data is not an object.
func objectValues(data json.RawMessage) []json.RawMessage {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil
	}

	var out []json.RawMessage
	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return out
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return out
		}
		out = append(out, v)
	}
	return out
}

func groupList(data json.RawMessage) []json.RawMessage {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(data, &list); err != nil {
			return nil
		}
		return list
	case '{':
		return []json.RawMessage{data}
	default:
		return nil
	}
}

func property(data json.RawMessage) (name, value string, ok bool) {
	var p struct {
		Name  *string         `json:"name"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Name == nil {
		return "", "", false
	}
	return *p.Name, scalarText(p.Value), true
}

func scalarText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
