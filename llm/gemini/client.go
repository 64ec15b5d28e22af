// Package gemini implements nutrisense.Model on the Google GenAI SDK.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"nutrisense"
	"nutrisense/tools"

	"google.golang.org/genai"
)

const (
	defaultModel      = "gemini-2.0-flash-001"
	defaultToolRounds = 4
)

type modelsClient interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Options struct {
	Model         string
	Temperature   float32
	MaxTokens     int32
	Timeout       time.Duration
	MaxToolRounds int
}

type Client struct {
	models modelsClient
	opts   Options
}

// NewClient connects to the Gemini API with apiKey.
func NewClient(ctx context.Context, apiKey string, opts Options) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return New(client.Models, opts), nil
}

func New(models modelsClient, opts Options) *Client {
	if opts.Model == "" {
		opts.Model = defaultModel
	}
	if opts.MaxToolRounds <= 0 {
		opts.MaxToolRounds = defaultToolRounds
	}
	return &Client{models: models, opts: opts}
}

// Invoke asks for JSON output. With tools, earlier rounds allow function
// calls and the schema is stated in the system instruction; the last round
// drops tools and constrains the output format.
func (c *Client) Invoke(ctx context.Context, req nutrisense.ModelRequest) (json.RawMessage, error) {
	slog.Info("LLM_CLIENT: Invoked", "backend", "gemini", "request", req.Name, "messages_len", len(req.Messages), "tools_len", len(req.Tools))

	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	schemaJSON, err := json.Marshal(req.Schema)
	if err != nil {
		return nil, &nutrisense.ModelError{Model: req.Name, Kind: nutrisense.ModelErrorMalformed, Err: fmt.Errorf("marshal schema: %w", err)}
	}
	responseSchema, inlineSchema := responseSchemaFor(schemaJSON)

	system, contents := convertMessages(req)
	declarations := convertTools(req.Tools)

	for round := 0; ; round++ {
		withTools := len(declarations) > 0 && round < c.opts.MaxToolRounds

		temp := c.opts.Temperature
		config := &genai.GenerateContentConfig{Temperature: &temp}
		if c.opts.MaxTokens > 0 {
			config.MaxOutputTokens = c.opts.MaxTokens
		}

		instruction := system
		if withTools {
			config.Tools = declarations
			instruction = appendSchema(instruction, schemaJSON)
		} else {
			config.ResponseMIMEType = "application/json"
			if inlineSchema {
				instruction = appendSchema(instruction, schemaJSON)
			} else {
				config.ResponseSchema = responseSchema
			}
		}
		if instruction != "" {
			config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: instruction}}}
		}

		resp, err := c.models.GenerateContent(ctx, c.opts.Model, contents, config)
		if err != nil {
			slog.Error("LLM_CLIENT: Gemini invoke failed", "request", req.Name, "round", round, "error", err)
			return nil, classify(req.Name, err)
		}
		if resp.UsageMetadata != nil {
			slog.Info("LLM_CLIENT: Gemini invoke succeeded",
				"request", req.Name,
				"round", round,
				"input_tokens", resp.UsageMetadata.PromptTokenCount,
				"output_tokens", resp.UsageMetadata.CandidatesTokenCount,
			)
		}

		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			return nil, &nutrisense.ModelError{Model: req.Name, Kind: nutrisense.ModelErrorMalformed, Err: errors.New("no candidates in response")}
		}
		candidate := resp.Candidates[0]

		var calls []*genai.FunctionCall
		var text strings.Builder
		for _, part := range candidate.Content.Parts {
			if part.FunctionCall != nil {
				calls = append(calls, part.FunctionCall)
			}
			text.WriteString(part.Text)
		}

		if len(calls) == 0 || !withTools {
			out := strings.TrimSpace(text.String())
			if out == "" {
				return nil, &nutrisense.ModelError{Model: req.Name, Kind: nutrisense.ModelErrorMalformed, Err: fmt.Errorf("empty response (finish reason %s)", candidate.FinishReason)}
			}
			return json.RawMessage(out), nil
		}

		contents = append(contents, candidate.Content, functionResponses(ctx, req.Tools, calls))
	}
}

func convertMessages(req nutrisense.ModelRequest) (string, []*genai.Content) {
	system := []string{}
	if s := strings.TrimSpace(req.SystemPrompt); s != "" {
		system = append(system, s)
	}

	var contents []*genai.Content
	for _, m := range req.Messages {
		if m.Role == nutrisense.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		role := "user"
		if m.Role == nutrisense.RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{Role: role, Parts: []*genai.Part{{Text: m.Content}}})
	}
	return strings.Join(system, "\n\n"), contents
}

func convertTools(ts []tools.Tool) []*genai.Tool {
	if len(ts) == 0 {
		return nil
	}

	funcs := make([]*genai.FunctionDeclaration, 0, len(ts))
	for _, t := range ts {
		params, err := json.Marshal(t.InputSchema())
		if err != nil {
			slog.Error("LLM_CLIENT: Failed to marshal tool schema", "tool", t.Name(), "error", err)
			continue
		}
		funcs = append(funcs, &genai.FunctionDeclaration{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  convertSchema(params),
		})
	}
	return []*genai.Tool{{FunctionDeclarations: funcs}}
}

func functionResponses(ctx context.Context, available []tools.Tool, calls []*genai.FunctionCall) *genai.Content {
	content := &genai.Content{Role: "user"}
	for _, fc := range calls {
		output := tools.Execute(ctx, available, tools.Call{Name: fc.Name, Input: fc.Args, ToolUseID: fc.ID})
		content.Parts = append(content.Parts, &genai.Part{
			FunctionResponse: &genai.FunctionResponse{ID: fc.ID, Name: fc.Name, Response: output},
		})
	}
	return content
}

func appendSchema(instruction string, schemaJSON []byte) string {
	return strings.TrimSpace(instruction + "\n\nRespond only with a JSON object matching this schema:\n" + string(schemaJSON))
}

// classify maps GenAI API errors onto model error kinds.
func classify(name string, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			return &nutrisense.ModelError{Model: name, Kind: nutrisense.ModelErrorQuota, Err: err}
		case apiErr.Code == http.StatusGatewayTimeout || apiErr.Code == http.StatusRequestTimeout:
			return &nutrisense.ModelError{Model: name, Kind: nutrisense.ModelErrorTimeout, Err: err}
		}
	}
	return nutrisense.NewModelError(name, err)
}
