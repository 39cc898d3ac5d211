package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadher/threadher/internal/action"
	"github.com/threadher/threadher/internal/carbon"
	"github.com/threadher/threadher/internal/circular"
	"github.com/threadher/threadher/internal/config"
	"github.com/threadher/threadher/internal/envelope"
)

func TestInvoke_AgentEvent(t *testing.T) {
	localEnv(t, config.EngineMemory)
	path := writeEvent(t, `{
		"actionGroup": "GarmentTools",
		"apiPath": "/calculate-carbon",
		"httpMethod": "POST",
		"requestBody": {"content": {"application/json": {"properties": [
			{"name": "garment_type", "value": "jeans"},
			{"name": "material", "value": "cotton"}
		]}}}
	}`)

	var out bytes.Buffer
	require.NoError(t, runInvoke(context.Background(), nil, &out, path, ""))

	var resp action.Response
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, http.StatusOK, resp.Response.HTTPStatusCode)
	assert.Equal(t, "/calculate-carbon", resp.Response.APIPath)

	var report carbon.Report
	require.NoError(t, json.Unmarshal([]byte(resp.ResultBody()), &report))
	assert.Equal(t, 33.4, report.TotalFootprintKg)
}

func TestInvoke_ToolFromStdin(t *testing.T) {
	localEnv(t, config.EngineMemory)
	stdin := strings.NewReader(`{"body": {"garment_type": "jeans", "condition": "good"}}`)

	var out bytes.Buffer
	cmd := NewInvokeCmd()
	cmd.SetIn(stdin)
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--tool", "get-circular-options", "-"})
	require.NoError(t, cmd.Execute())

	var env envelope.Response
	require.NoError(t, json.Unmarshal(out.Bytes(), &env))
	assert.Equal(t, http.StatusOK, env.StatusCode)

	var rec circular.Recommendation
	require.NoError(t, env.DecodeBody(&rec))
	assert.Equal(t, "jeans", rec.GarmentType)
	assert.Equal(t, "good", rec.Condition)
}

func TestInvoke_Errors(t *testing.T) {
	localEnv(t, config.EngineMemory)
	ctx := context.Background()

	err := runInvoke(ctx, nil, &bytes.Buffer{}, writeEvent(t, `{}`), "dry-clean")
	assert.ErrorContains(t, err, `unknown tool "dry-clean"`)
	assert.ErrorContains(t, err, "analyze-garment, calculate-carbon, get-circular-options")

	err = runInvoke(ctx, nil, &bytes.Buffer{}, writeEvent(t, `{not json`), "")
	assert.ErrorContains(t, err, "invalid agent event")

	err = runInvoke(ctx, nil, &bytes.Buffer{}, "/nonexistent/event.json", "")
	assert.ErrorContains(t, err, "failed to read event")
}
