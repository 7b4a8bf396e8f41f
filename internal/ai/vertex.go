// vertex.go - Vertex AI Gemini provider (project + region credentials)

package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/vertexai/genai"
	"github.com/bosocmputer/document_gateway/internal/common"
	"google.golang.org/api/option"
)

// VertexProvider calls Gemini models through Vertex AI using application default credentials.
// The client is created once and shared by all requests.
type VertexProvider struct {
	client    *genai.Client
	modelName string
	timeout   time.Duration
	retry     RetryConfig
}

// NewVertexProvider connects to Vertex AI. A missing project id is a configuration error.
func NewVertexProvider(ctx context.Context, projectID, location, modelName string, timeout time.Duration, retry RetryConfig, opts ...option.ClientOption) (*VertexProvider, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, fmt.Errorf("%w: GCP project id is empty", ErrGatewayNotConfigured)
	}

	client, err := genai.NewClient(ctx, projectID, location, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vertex AI client: %w", err)
	}

	return &VertexProvider{
		client:    client,
		modelName: modelName,
		timeout:   timeout,
		retry:     retry,
	}, nil
}

// Name returns "vertex"
func (v *VertexProvider) Name() string {
	return "vertex"
}

// Close releases the underlying gRPC connection
func (v *VertexProvider) Close() error {
	if v == nil || v.client == nil {
		return nil
	}
	return v.client.Close()
}

func (v *VertexProvider) model() *genai.GenerativeModel {
	model := v.client.GenerativeModel(v.modelName)
	model.SetTemperature(0)
	model.SetTopP(1)
	model.SetTopK(1)
	model.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockNone},
	}
	return model
}

// Generate sends the image and prompt in a single request.
func (v *VertexProvider) Generate(ctx context.Context, image []byte, mimeType, prompt string) (string, error) {
	if v == nil || v.client == nil {
		return "", ErrGatewayNotConfigured
	}
	rc := common.FromContext(ctx)

	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	model := v.model()
	rc.StartSubStep("call_model_api")
	resp, err := callWithRetry(ctx, v.Name(), v.retry, func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		resp, err := model.GenerateContent(ctx, genai.Text(prompt), genai.Blob{MIMEType: mimeType, Data: image})
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			return nil, blockedError(vertexBlockReason(blocked))
		}
		return resp, err
	})
	if err != nil {
		rc.EndSubStep("❌ FAILED")
		return "", err
	}

	if resp.UsageMetadata != nil {
		rc.AddTokens(common.TokenUsage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:  int(resp.UsageMetadata.TotalTokenCount),
		})
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		rc.EndSubStep("no candidates")
		return "", ErrEmptyResponse
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	rc.EndSubStep(fmt.Sprintf("%s, %d chars, finish: %s", v.modelName, sb.Len(), resp.Candidates[0].FinishReason))

	if sb.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}

// vertexBlockReason prefers the readable message Vertex attaches to a blocked prompt.
func vertexBlockReason(e *genai.BlockedError) string {
	if pf := e.PromptFeedback; pf != nil {
		if pf.BlockReasonMessage != "" {
			return pf.BlockReasonMessage
		}
		return pf.BlockReason.String()
	}
	if c := e.Candidate; c != nil {
		if c.FinishMessage != "" {
			return c.FinishMessage
		}
		return c.FinishReason.String()
	}
	return ""
}
