package llm

import (
	"context"
	"testing"

	"nutrisense"
	"nutrisense/llm/bedrock"
	"nutrisense/llm/mock"
	"nutrisense/llm/ollama"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Setenv("AWS_REGION", "us-east-1")

	tests := []struct {
		name    string
		mc      nutrisense.ModelConfig
		ac      nutrisense.AgentConfig
		check   func(t *testing.T, m nutrisense.Model)
		wantErr string
	}{
		{
			name: "mock",
			mc:   nutrisense.ModelConfig{Provider: "mock"},
			check: func(t *testing.T, m nutrisense.Model) {
				assert.IsType(t, &mock.Model{}, m)
			},
		},
		{
			name: "bedrock",
			mc:   nutrisense.ModelConfig{Provider: "Bedrock", ModelID: "us.anthropic.claude-3-7-sonnet-20250219-v1:0"},
			check: func(t *testing.T, m nutrisense.Model) {
				assert.IsType(t, &bedrock.Client{}, m)
			},
		},
		{
			name: "ollama",
			mc:   nutrisense.ModelConfig{Provider: "ollama", ModelID: "llama3.2"},
			ac:   nutrisense.AgentConfig{BaseOllamaEndpoint: "http://localhost:11434"},
			check: func(t *testing.T, m nutrisense.Model) {
				assert.IsType(t, &ollama.Client{}, m)
			},
		},
		{
			name:    "ollama without model",
			mc:      nutrisense.ModelConfig{Provider: "ollama"},
			wantErr: "ollama model id is required",
		},
		{
			name:    "gemini without key",
			mc:      nutrisense.ModelConfig{Provider: "gemini"},
			wantErr: "gemini api key is required",
		},
		{
			name:    "unknown provider",
			mc:      nutrisense.ModelConfig{Provider: "openai"},
			wantErr: `unknown model provider "openai"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New(context.Background(), tt.mc, tt.ac)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, m)
		})
	}
}
