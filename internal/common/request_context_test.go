package common

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestContext_StepsAndTokens(t *testing.T) {
	rc := NewRequestContext("process")
	require.NotEmpty(t, rc.RequestID)

	rc.StartStep("normalize_input")
	rc.StartSubStep("decode_image")
	rc.EndSubStep("1024x768")
	rc.EndStep("success", nil, nil)

	rc.StartStep("model_extraction")
	rc.EndStep("success", &TokenUsage{InputTokens: 100, OutputTokens: 20, TotalTokens: 120}, nil)

	rc.StartStep("parse_response")
	rc.EndStep("failed", nil, errors.New("no JSON object"))

	require.Len(t, rc.Steps, 3)
	assert.Len(t, rc.Steps[0].SubSteps, 1)
	assert.Equal(t, "decode_image", rc.Steps[0].SubSteps[0].Name)
	assert.Equal(t, "no JSON object", rc.Steps[2].Error)
	assert.Equal(t, 120, rc.TotalTokens.TotalTokens)

	summary := rc.GetSummary()
	assert.Equal(t, rc.RequestID, summary["request_id"])
	assert.Equal(t, 3, summary["total_steps"])
}

func TestRequestContext_ContextRoundTrip(t *testing.T) {
	rc := NewRequestContext("detect")
	ctx := WithRequestContext(context.Background(), rc)

	assert.Same(t, rc, FromContext(ctx))
	assert.Nil(t, FromContext(context.Background()))
}

func TestRequestContext_NilSafe(t *testing.T) {
	var rc *RequestContext
	assert.NotPanics(t, func() {
		rc.StartStep("x")
		rc.EndStep("success", nil, nil)
		rc.AddTokens(TokenUsage{TotalTokens: 1})
		rc.LogInfo("hello %d", 1)
		rc.LogWarning("warn")
	})
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "999", formatNumber(999))
	assert.Equal(t, "12,345", formatNumber(12345))
	assert.Equal(t, "1,234,567", formatNumber(1234567))
}
