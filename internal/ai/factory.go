// factory.go - Model gateway factory for creating provider instances

package ai

import (
	"context"
	"fmt"
	"log"

	"github.com/bosocmputer/document_gateway/configs"
)

// NewGateway creates the provider selected by MODEL_PROVIDER.
func NewGateway(ctx context.Context, cfg *configs.Config) (Gateway, error) {
	retry := DefaultRetryConfig
	retry.MaxAttempts = cfg.ModelMaxAttempts

	switch cfg.ModelProvider {
	case configs.ProviderVertex:
		log.Printf("🔵 Creating Vertex AI provider (project: %s, region: %s, model: %s)", cfg.GCPProjectID, cfg.GCPRegion, cfg.ModelName)
		p, err := NewVertexProvider(ctx, cfg.GCPProjectID, cfg.GCPRegion, cfg.ModelName, cfg.ModelTimeout, retry)
		if err != nil {
			return nil, err
		}
		return p, nil

	case configs.ProviderGemini:
		log.Printf("🔵 Creating Gemini API provider (model: %s)", cfg.ModelName)
		p, err := NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.ModelName, cfg.ModelTimeout, retry)
		if err != nil {
			return nil, err
		}
		return p, nil

	case configs.ProviderMistral:
		log.Printf("🔷 Creating Mistral provider (model: %s)", cfg.MistralModelName)
		if cfg.MistralAPIKey == "" {
			return nil, fmt.Errorf("%w: Mistral API key is empty", ErrGatewayNotConfigured)
		}
		return NewMistralProvider(cfg.MistralAPIKey, cfg.MistralModelName, cfg.ModelTimeout, retry), nil

	default:
		return nil, fmt.Errorf("unsupported model provider: %s (supported: vertex, gemini, mistral)", cfg.ModelProvider)
	}
}
