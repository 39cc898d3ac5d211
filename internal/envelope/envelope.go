// Package envelope implements the Lambda-style request and response shapes
// shared by the tool entrypoints: a request carrying its payload under
// "body" (as a JSON string or an object) and a response of
// {statusCode, headers, body}.
package envelope

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/threadher/threadher/internal/apperr"
)

// DefaultHeaders are attached to every Response built by this package.
var DefaultHeaders = map[string]string{
	"Content-Type":                "application/json",
	"Access-Control-Allow-Origin": "*",
}

// Response is the uniform {statusCode, headers, body} result.
type Response struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       string            `json:"body"`
}

// OK reports whether the response carries a 200 status.
func (r Response) OK() bool { return r.StatusCode == http.StatusOK }

// DecodeBody unmarshals the JSON body into v.
func (r Response) DecodeBody(v any) error {
	if err := json.Unmarshal([]byte(r.Body), v); err != nil {
		return fmt.Errorf("envelope: body is not valid JSON: %w", err)
	}
	return nil
}

// JSON builds a response whose body is v marshalled as JSON.
func JSON(status int, v any) Response {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(map[string]string{"error": err.Error()})
	}
	headers := make(map[string]string, len(DefaultHeaders))
	for k, v := range DefaultHeaders {
		headers[k] = v
	}
	return Response{StatusCode: status, Headers: headers, Body: string(body)}
}

// ErrorBody is the body of a failed response.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

// Error builds a failure response for err with a caller-facing message.
// The status is chosen from the error kind; upstream failures, which are
// 200 for agent-routed calls, are reported as 502 on direct entrypoints.
func Error(err error, message string) Response {
	status := apperr.StatusCode(err)
	if status == http.StatusOK {
		status = http.StatusBadGateway
	}
	return JSON(status, ErrorBody{
		Error:   err.Error(),
		Message: message,
		Kind:    apperr.KindOf(err).String(),
	})
}

// Parse decodes a collaborator's raw response payload.
func Parse(payload []byte) (Response, error) {
	var r Response
	if err := json.Unmarshal(payload, &r); err != nil {
		return Response{}, fmt.Errorf("envelope: invalid response payload: %w", err)
	}
	return r, nil
}

// Fields is a decoded request body.
type Fields map[string]any

// DecodeBody extracts the request payload from a raw event. If the event has
// a "body" member it is used: a JSON string is parsed, an object is used
// as-is, and null or an empty string yield no fields. Without a "body"
// member the whole event is the payload.
func DecodeBody(event []byte) (Fields, error) {
	const op = "envelope.decode"

	event = bytes.TrimSpace(event)
	if len(event) == 0 || bytes.Equal(event, []byte("null")) {
		return Fields{}, nil
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(event, &top); err != nil {
		return nil, apperr.Validation(op, "request must be a JSON object")
	}

	raw, ok := top["body"]
	if !ok {
		return decodeObject(op, event)
	}

	raw = bytes.TrimSpace(raw)
	switch {
	case bytes.Equal(raw, []byte("null")):
		return Fields{}, nil
	case len(raw) > 0 && raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, apperr.Validation(op, "body must be a JSON string or object")
		}
		if strings.TrimSpace(s) == "" {
			return Fields{}, nil
		}
		return decodeObject(op, []byte(s))
	default:
		return decodeObject(op, raw)
	}
}

func decodeObject(op string, data []byte) (Fields, error) {
	var f Fields
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, &apperr.Error{Kind: apperr.KindValidation, Op: op, Msg: "body must be a JSON object", Err: err}
	}
	if f == nil {
		f = Fields{}
	}
	return f, nil
}

// String returns the trimmed string value of key, or def when the key is
// absent, null or blank. Numbers and booleans are formatted.
func (f Fields) String(key, def string) string {
	v, ok := f[key]
	if !ok || v == nil {
		return def
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return def
		}
		s = string(b)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}

// Float returns the numeric value of key. Numbers and numeric strings are
// accepted; anything else, including NaN and infinities, yields 0.
func (f Fields) Float(key string) float64 {
	var n float64
	switch t := f[key].(type) {
	case float64:
		n = t
	case json.Number:
		v, err := t.Float64()
		if err != nil {
			return 0
		}
		n = v
	case string:
		v, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		n = v
	case bool:
		if t {
			n = 1
		}
	default:
		return 0
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return n
}

// Marshal returns the fields as a JSON object.
func (f Fields) Marshal() ([]byte, error) {
	if f == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]any(f))
}
