// gemini.go - Gemini API provider (API key credentials)

package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bosocmputer/document_gateway/internal/common"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiProvider calls the Gemini API directly with an API key.
type GeminiProvider struct {
	client    *genai.Client
	modelName string
	timeout   time.Duration
	retry     RetryConfig
}

// NewGeminiProvider creates the Gemini client once for the lifetime of the process.
func NewGeminiProvider(ctx context.Context, apiKey, modelName string, timeout time.Duration, retry RetryConfig, opts ...option.ClientOption) (*GeminiProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: Gemini API key is empty", ErrGatewayNotConfigured)
	}

	client, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client:    client,
		modelName: modelName,
		timeout:   timeout,
		retry:     retry,
	}, nil
}

// Name returns "gemini"
func (g *GeminiProvider) Name() string {
	return "gemini"
}

// Close releases the underlying connection
func (g *GeminiProvider) Close() error {
	if g == nil || g.client == nil {
		return nil
	}
	return g.client.Close()
}

func (g *GeminiProvider) model() *genai.GenerativeModel {
	model := g.client.GenerativeModel(g.modelName)
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
func (g *GeminiProvider) Generate(ctx context.Context, image []byte, mimeType, prompt string) (string, error) {
	if g == nil || g.client == nil {
		return "", ErrGatewayNotConfigured
	}
	rc := common.FromContext(ctx)

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	model := g.model()
	rc.StartSubStep("call_model_api")
	resp, err := callWithRetry(ctx, g.Name(), g.retry, func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		resp, err := model.GenerateContent(ctx, genai.Text(prompt), genai.Blob{MIMEType: mimeType, Data: image})
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			return nil, blockedError(geminiBlockReason(blocked))
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
	rc.EndSubStep(fmt.Sprintf("%s, %d chars, finish: %s", g.modelName, sb.Len(), resp.Candidates[0].FinishReason))

	if sb.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}

func geminiBlockReason(e *genai.BlockedError) string {
	if pf := e.PromptFeedback; pf != nil {
		return pf.BlockReason.String()
	}
	if c := e.Candidate; c != nil {
		return c.FinishReason.String()
	}
	return ""
}
