package action

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadher/threadher/internal/envelope"
)

func agentEvent(path, body string) Event {
	return Event{
		ActionGroup: "GarmentTools",
		APIPath:     path,
		HTTPMethod:  "POST",
		RequestBody: json.RawMessage(body),
	}
}

func TestHandle_CircularOptions(t *testing.T) {
	h := NewHandler(NewRouter(nil))

	resp, err := h.Handle(context.Background(), agentEvent(PathGetCircularOptions,
		`{"content": {"application/json": [{"properties": [
			{"name": "garment_type", "value": "sweater"},
			{"name": "condition", "value": "good"}
		]}]}}`))
	require.NoError(t, err)

	assert.Equal(t, "1.0", resp.MessageVersion)
	assert.Equal(t, "GarmentTools", resp.Response.ActionGroup)
	assert.Equal(t, PathGetCircularOptions, resp.Response.APIPath)
	assert.Equal(t, "POST", resp.Response.HTTPMethod)
	assert.Equal(t, http.StatusOK, resp.Response.HTTPStatusCode)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(resp.ResultBody()), &body))
	assert.Equal(t, "Resell", body["recommended_action"])
	assert.Nil(t, body["location_note"])
}

func TestHandle_UnknownActionIs200WithError(t *testing.T) {
	h := NewHandler(NewRouter(nil))

	resp, err := h.Handle(context.Background(), Event{ActionGroup: "g", APIPath: "/unknown-path"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Response.HTTPStatusCode)
	assert.Equal(t, "POST", resp.Response.HTTPMethod)
	assert.JSONEq(t, `{"error": "Unknown action: /unknown-path"}`, resp.ResultBody())
}

func TestHandle_UpstreamFailureIs200WithError(t *testing.T) {
	inv := &fakeInvoker{responses: map[string]envelope.Response{
		DefaultAnalyzerFunction: envelope.JSON(http.StatusNotFound, map[string]string{"error": "Image not found"}),
	}}
	h := NewHandler(NewRouter(inv))

	resp, err := h.Handle(context.Background(), agentEvent(PathAnalyzeGarment, `{}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Response.HTTPStatusCode)
	assert.JSONEq(t, `{"error": "Image analysis failed"}`, resp.ResultBody())
}

func TestHandle_RemoteBodyPassedThrough(t *testing.T) {
	inv := &fakeInvoker{responses: map[string]envelope.Response{
		DefaultCarbonFunction: envelope.JSON(http.StatusOK, map[string]any{"total_carbon_footprint_kg": 33.4}),
	}}
	h := NewHandler(NewRouter(inv))

	resp, err := h.Handle(context.Background(), agentEvent(PathCalculateCarbon,
		`{"content": {"application/json": [{"properties": [{"name": "garment_type", "value": "jeans"}]}]}}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Response.HTTPStatusCode)
	assert.JSONEq(t, `{"total_carbon_footprint_kg": 33.4}`, resp.ResultBody())
}

type panickingInvoker struct{}

func (panickingInvoker) Invoke(context.Context, string, []byte) ([]byte, error) {
	panic("invoker exploded")
}

func TestHandle_PanicIs500(t *testing.T) {
	h := NewHandler(NewRouter(panickingInvoker{}))

	resp, err := h.Handle(context.Background(), agentEvent(PathAnalyzeGarment, `{}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.Response.HTTPStatusCode)
	assert.Equal(t, "1.0", resp.MessageVersion)
	assert.Equal(t, PathAnalyzeGarment, resp.Response.APIPath)
	assert.JSONEq(t, `{"error": "invoker exploded"}`, resp.ResultBody())
}

type brokenInvoker struct{}

func (brokenInvoker) Invoke(context.Context, string, []byte) ([]byte, error) {
	return nil, errors.New("connection reset")
}

func TestHandle_InvokerErrorIs200(t *testing.T) {
	h := NewHandler(NewRouter(brokenInvoker{}))

	resp, err := h.Handle(context.Background(), agentEvent(PathCalculateCarbon, `{}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Response.HTTPStatusCode)
	assert.JSONEq(t, `{"error": "connection reset"}`, resp.ResultBody())
}

func TestResponse_JSONShape(t *testing.T) {
	resp := newResponse(Event{ActionGroup: "g", APIPath: "/p"}, "POST", 200, `{"a":1}`)
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"messageVersion": "1.0",
		"response": {
			"actionGroup": "g",
			"apiPath": "/p",
			"httpMethod": "POST",
			"httpStatusCode": 200,
			"responseBody": {"application/json": {"body": "{\"a\":1}"}}
		}
	}`, string(data))
}
