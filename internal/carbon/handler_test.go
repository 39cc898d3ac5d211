package carbon

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadher/threadher/internal/envelope"
	"github.com/threadher/threadher/internal/storage/memory"
)

func newTestHandler(t *testing.T) (*Handler, *memory.ResultStore) {
	t.Helper()
	store := memory.NewResultStore()
	est := NewEstimator(
		WithStore(store, DefaultTable),
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string { return "calc-1" }),
	)
	return NewHandler(est), store
}

func TestHandler_StringBody(t *testing.T) {
	h, _ := newTestHandler(t)

	resp, err := h.Handle(context.Background(), json.RawMessage(
		`{"body": "{\"garment_type\": \"tshirt\", \"material\": \"organic_cotton\", \"estimated_age_years\": \"2\"}"}`,
	))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var r Report
	require.NoError(t, resp.DecodeBody(&r))
	assert.Equal(t, 3.5, r.TotalFootprintKg)
	assert.Equal(t, 80.0, r.SustainabilityScore)
	assert.Equal(t, "unknown", r.Origin)
	assert.Equal(t, 2.0, r.EstimatedAgeYears)
}

func TestHandler_BarePayloadDefaults(t *testing.T) {
	h, _ := newTestHandler(t)

	resp, err := h.Handle(context.Background(), json.RawMessage(`{"unrelated": true}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var r Report
	require.NoError(t, resp.DecodeBody(&r))
	assert.Equal(t, "default", r.GarmentType)
	assert.Equal(t, "default", r.Material)
	assert.Equal(t, 10.0, r.TotalFootprintKg)
	assert.Equal(t, 0.0, r.EstimatedAgeYears)
}

func TestHandler_UsesLambdaRequestID(t *testing.T) {
	h, store := newTestHandler(t)
	ctx := lambdacontext.NewContext(context.Background(), &lambdacontext.LambdaContext{AwsRequestID: "req-42"})

	_, err := h.Handle(ctx, json.RawMessage(`{"body": {"garment_type": "shoes"}}`))
	require.NoError(t, err)

	item, err := store.Get(context.Background(), DefaultTable, KeyAttr, "req-42")
	require.NoError(t, err)
	assert.Equal(t, 25.0, item["total_carbon_footprint_kg"])
}

func TestHandler_MalformedBody(t *testing.T) {
	h, _ := newTestHandler(t)

	resp, err := h.Handle(context.Background(), json.RawMessage(`{"body": "{not json"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body envelope.ErrorBody
	require.NoError(t, resp.DecodeBody(&body))
	assert.Equal(t, FailureMessage, body.Message)
	assert.NotEmpty(t, body.Error)
}

func TestHandler_ExtremeAgeStillReports(t *testing.T) {
	h, store := newTestHandler(t)

	resp, err := h.Handle(context.Background(), json.RawMessage(
		`{"garment_type": "jacket", "material": "leather", "estimated_age_years": "-1e308"}`,
	))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)

	var r Report
	require.NoError(t, resp.DecodeBody(&r))
	assert.Equal(t, -1e308, r.EstimatedAgeYears)
	assert.Zero(t, r.PotentialSavingsKg)
	assert.Zero(t, r.SustainabilityScore)
	assert.Equal(t, []string{"calc-1"}, store.IDs(DefaultTable))
}
