// Package llm builds the configured model backend.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"nutrisense"
	"nutrisense/llm/bedrock"
	"nutrisense/llm/gemini"
	"nutrisense/llm/mock"
	"nutrisense/llm/ollama"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

const (
	ProviderGemini  = "gemini"
	ProviderBedrock = "bedrock"
	ProviderOllama  = "ollama"
	ProviderMock    = "mock"
)

// New returns the backend named by mc.Provider. Model calls are never
// retried, so the Bedrock SDK retryer is limited to a single attempt.
func New(ctx context.Context, mc nutrisense.ModelConfig, ac nutrisense.AgentConfig) (nutrisense.Model, error) {
	opts := mc.Options()
	provider := strings.ToLower(strings.TrimSpace(mc.Provider))
	slog.Info("SETUP: Creating model client", "provider", provider, "model", opts.ModelName, "timeout", opts.Timeout)

	switch provider {
	case ProviderGemini, "":
		client, err := gemini.NewClient(ctx, ac.GeminiAPIKey, gemini.Options{
			Model:         opts.ModelName,
			Temperature:   opts.Temperature,
			MaxTokens:     mc.MaxTokens,
			Timeout:       opts.Timeout,
			MaxToolRounds: ac.MaxToolRounds,
		})
		if err != nil {
			return nil, err
		}
		return client, nil

	case ProviderBedrock:
		awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRetryMaxAttempts(1))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		return bedrock.NewClient(bedrockruntime.NewFromConfig(awsCfg), bedrock.Options{
			ModelID:       opts.ModelName,
			MaxTokens:     mc.MaxTokens,
			Temperature:   opts.Temperature,
			TopP:          mc.TopP,
			Timeout:       opts.Timeout,
			MaxToolRounds: ac.MaxToolRounds,
		}), nil

	case ProviderOllama:
		client, err := ollama.NewClient(ollama.ClientOpts{
			BaseEndpoint:  ac.BaseOllamaEndpoint,
			ModelID:       opts.ModelName,
			HTTPClient:    http.DefaultClient,
			Temperature:   opts.Temperature,
			Timeout:       opts.Timeout,
			MaxToolRounds: ac.MaxToolRounds,
		})
		if err != nil {
			return nil, err
		}
		return client, nil

	case ProviderMock:
		return mock.NewDemo(), nil

	default:
		return nil, fmt.Errorf("unknown model provider %q", mc.Provider)
	}
}
