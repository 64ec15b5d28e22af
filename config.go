package nutrisense

import "time"

// ModelConfig selects and tunes the model backend shared by every step.
type ModelConfig struct {
	Provider    string        `env:"MODEL_PROVIDER,default=gemini"`
	ModelID     string        `env:"MODEL_ID"`
	MaxTokens   int32         `env:"MAX_TOKENS,default=4096"`
	Temperature float32       `env:"TEMPERATURE,default=0.2"`
	TopP        float32       `env:"TOP_P,default=0.9"`
	Timeout     time.Duration `env:"MODEL_TIMEOUT,default=90s"`
}

// Options returns the explicit options record handed to model clients.
func (c ModelConfig) Options() ModelOptions {
	return ModelOptions{
		ModelName:   c.ModelID,
		Temperature: c.Temperature,
		Timeout:     c.Timeout,
	}
}

type AgentConfig struct {
	DatasetPath        string `env:"DATASET_PATH,default=artifacts/clean-food.csv"`
	ChartPath          string `env:"CHART_PATH,default=plot.png"`
	BaseOllamaEndpoint string `env:"BASE_OLLAMA_ENDPOINT,default=http://localhost:11434"`
	SearchEndpoint     string `env:"SEARCH_ENDPOINT,default=https://api.duckduckgo.com/"`
	SearchEnabled      bool   `env:"SEARCH_ENABLED,default=true"`
	MaxToolRounds      int    `env:"MAX_TOOL_ROUNDS,default=4"`
	GeminiAPIKey       string `env:"GEMINI_API_KEY"`
	SlackWebhookURL    string `env:"SLACK_WEBHOOK_URL"`
	SlackChannel       string `env:"SLACK_CHANNEL,default=#nutrition"`
	ArtifactsS3Bucket  string `env:"ARTIFACTS_S3_BUCKET"`
	DatasetS3Key       string `env:"DATASET_S3_KEY,default=clean-food.csv"`
	ChartS3Prefix      string `env:"CHART_S3_PREFIX,default=charts"`
}
