// mistral.go - Mistral AI vision chat provider

package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bosocmputer/document_gateway/internal/common"
)

// DefaultMistralEndpoint is the chat completions API used for vision models.
const DefaultMistralEndpoint = "https://api.mistral.ai/v1/chat/completions"

// MistralProvider implements Gateway for Mistral's vision chat models (pixtral)
type MistralProvider struct {
	apiKey    string
	modelName string
	endpoint  string
	client    *http.Client
	retry     RetryConfig
}

// NewMistralProvider creates a new Mistral AI provider
func NewMistralProvider(apiKey, modelName string, timeout time.Duration, retry RetryConfig) *MistralProvider {
	return NewMistralProviderWithEndpoint(apiKey, modelName, DefaultMistralEndpoint, timeout, retry)
}

// NewMistralProviderWithEndpoint creates a provider that posts to a custom endpoint (used in tests).
func NewMistralProviderWithEndpoint(apiKey, modelName, endpoint string, timeout time.Duration, retry RetryConfig) *MistralProvider {
	return &MistralProvider{
		apiKey:    apiKey,
		modelName: modelName,
		endpoint:  endpoint,
		client: &http.Client{
			Timeout: timeout,
		},
		retry: retry,
	}
}

// Name returns "mistral"
func (m *MistralProvider) Name() string {
	return "mistral"
}

// Close is a no-op; the HTTP client holds no resources that need releasing.
func (m *MistralProvider) Close() error {
	return nil
}

type mistralContentPart struct {
	Type     string `json:"type"`                // "text" or "image_url"
	Text     string `json:"text,omitempty"`      // for type="text"
	ImageURL string `json:"image_url,omitempty"` // base64 data URL for type="image_url"
}

type mistralMessage struct {
	Role    string               `json:"role"`
	Content []mistralContentPart `json:"content"`
}

type mistralChatRequest struct {
	Model       string           `json:"model"`
	Messages    []mistralMessage `json:"messages"`
	Temperature float64          `json:"temperature"`
	TopP        float64          `json:"top_p"`
}

type mistralChatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type mistralErrorResponse struct {
	Message string `json:"message"`
	Error   struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Generate sends the prompt and the image as a base64 data URL in one user message.
func (m *MistralProvider) Generate(ctx context.Context, image []byte, mimeType, prompt string) (string, error) {
	if m == nil || m.apiKey == "" {
		return "", ErrGatewayNotConfigured
	}
	rc := common.FromContext(ctx)

	request := mistralChatRequest{
		Model: m.modelName,
		Messages: []mistralMessage{{
			Role: "user",
			Content: []mistralContentPart{
				{Type: "text", Text: prompt},
				{Type: "image_url", ImageURL: fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))},
			},
		}},
		Temperature: 0,
		TopP:        1,
	}

	rc.StartSubStep("call_model_api")
	response, err := callWithRetry(ctx, m.Name(), m.retry, func(ctx context.Context) (*mistralChatResponse, error) {
		return m.callChatAPI(ctx, request)
	})
	if err != nil {
		rc.EndSubStep("❌ FAILED")
		return "", err
	}

	rc.AddTokens(common.TokenUsage{
		InputTokens:  response.Usage.PromptTokens,
		OutputTokens: response.Usage.CompletionTokens,
		TotalTokens:  response.Usage.TotalTokens,
	})

	if len(response.Choices) == 0 {
		rc.EndSubStep("no choices")
		return "", ErrEmptyResponse
	}

	choice := response.Choices[0]
	rc.EndSubStep(fmt.Sprintf("%s, %d chars, finish: %s", response.Model, len(choice.Message.Content), choice.FinishReason))

	if choice.FinishReason == "content_filter" {
		return "", blockedError(choice.FinishReason)
	}
	if strings.TrimSpace(choice.Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	return choice.Message.Content, nil
}

// callChatAPI makes HTTP request to the Mistral chat completions API
func (m *MistralProvider) callChatAPI(ctx context.Context, request mistralChatRequest) (*mistralChatResponse, error) {
	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		detail := string(body)
		var errorResp mistralErrorResponse
		if err := json.Unmarshal(body, &errorResp); err == nil {
			switch {
			case errorResp.Error.Message != "":
				detail = errorResp.Error.Message
			case errorResp.Message != "":
				detail = errorResp.Message
			}
		}
		return nil, categorizeStatus(m.Name(), resp.StatusCode, detail)
	}

	var response mistralChatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse chat response: %w", err)
	}
	return &response, nil
}
