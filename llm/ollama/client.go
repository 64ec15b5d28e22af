// Package ollama implements nutrisense.Model on the Ollama chat API, passing
// the request schema as the structured output format.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"nutrisense"
	"nutrisense/tools"
)

const defaultToolRounds = 4

type options struct {
	Temperature   float64 `json:"temperature"`
	TopP          float64 `json:"top_p,omitempty"`
	RepeatPenalty float64 `json:"repeat_penalty,omitempty"`
	NumCtx        int     `json:"num_ctx,omitempty"`
}

type Client struct {
	endpoint   string
	model      string
	httpClient nutrisense.HTTPClient
	timeout    time.Duration
	maxRounds  int
	options    options
}

type ClientOpts struct {
	BaseEndpoint  string
	ModelID       string
	HTTPClient    nutrisense.HTTPClient
	Temperature   float32
	Timeout       time.Duration
	MaxToolRounds int
}

func NewClient(opts ClientOpts) (*Client, error) {
	if strings.TrimSpace(opts.ModelID) == "" {
		return nil, fmt.Errorf("ollama model id is required")
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.MaxToolRounds <= 0 {
		opts.MaxToolRounds = defaultToolRounds
	}

	return &Client{
		model:      opts.ModelID,
		httpClient: opts.HTTPClient,
		endpoint:   strings.TrimRight(opts.BaseEndpoint, "/") + "/api/chat",
		timeout:    opts.Timeout,
		maxRounds:  opts.MaxToolRounds,
		options: options{
			Temperature:   float64(opts.Temperature),
			TopP:          0.9,
			RepeatPenalty: 1.05,
			NumCtx:        16384, // raise if the machine can handle it
		},
	}, nil
}

type wireToolCall struct {
	Function struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"function"`
}

type wireMessage struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Name      string         `json:"name,omitempty"`
	ToolCalls []wireToolCall `json:"tool_calls,omitempty"`
}

type wireTool struct {
	Type     string       `json:"type"`
	Function wireFunction `json:"function"`
}

type wireFunction struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  any    `json:"parameters"`
}

type wireRequest struct {
	Model    string          `json:"model"`
	Messages []wireMessage   `json:"messages"`
	Tools    []wireTool      `json:"tools,omitempty"`
	Format   json.RawMessage `json:"format,omitempty"`
	Stream   bool            `json:"stream"`
	Options  options         `json:"options"`
}

type wireResponse struct {
	Message wireMessage `json:"message"`
	Done    bool        `json:"done"`
}

// Invoke posts the conversation with the schema as format. Tool calls are run
// and answered with role=tool messages until the model returns content.
func (c *Client) Invoke(ctx context.Context, req nutrisense.ModelRequest) (json.RawMessage, error) {
	slog.Info("LLM_CLIENT: Invoked", "backend", "ollama", "request", req.Name, "messages_len", len(req.Messages), "tools_len", len(req.Tools))

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var format json.RawMessage
	if req.Schema != nil {
		b, err := json.Marshal(req.Schema)
		if err != nil {
			return nil, &nutrisense.ModelError{Model: req.Name, Kind: nutrisense.ModelErrorMalformed, Err: fmt.Errorf("marshal schema: %w", err)}
		}
		format = b
	}

	msgs := buildMessages(req)
	wtools := buildTools(req.Tools)

	for round := 0; ; round++ {
		body := wireRequest{
			Model:    c.model,
			Messages: msgs,
			Format:   format,
			Stream:   false,
			Options:  c.options,
		}
		if round < c.maxRounds {
			body.Tools = wtools
		}

		wr, err := c.post(ctx, req.Name, body)
		if err != nil {
			return nil, err
		}

		if len(wr.Message.ToolCalls) == 0 || round >= c.maxRounds {
			content := strings.TrimSpace(wr.Message.Content)
			if content == "" {
				return nil, &nutrisense.ModelError{Model: req.Name, Kind: nutrisense.ModelErrorMalformed, Err: fmt.Errorf("empty response")}
			}
			slog.Info("LLM_CLIENT: Ollama returned content", "request", req.Name, "round", round, "content_len", len(content))
			return json.RawMessage(content), nil
		}

		msgs = append(msgs, wr.Message)
		for _, tc := range wr.Message.ToolCalls {
			output := tools.Execute(ctx, req.Tools, tools.Call{Name: tc.Function.Name, Input: tc.Function.Arguments})
			b, err := json.Marshal(output)
			if err != nil {
				b = []byte(`{"error":"unencodable tool output"}`)
			}
			msgs = append(msgs, wireMessage{Role: "tool", Name: tc.Function.Name, Content: string(b)})
		}
	}
}

func (c *Client) post(ctx context.Context, name string, body wireRequest) (*wireResponse, error) {
	reqBytes, err := json.Marshal(body)
	if err != nil {
		return nil, &nutrisense.ModelError{Model: name, Kind: nutrisense.ModelErrorMalformed, Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBytes))
	if err != nil {
		return nil, nutrisense.NewModelError(name, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		slog.Error("LLM_CLIENT: Ollama request failed", "request", name, "error", err)
		return nil, nutrisense.NewModelError(name, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nutrisense.NewModelError(name, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &nutrisense.ModelError{Model: name, Kind: nutrisense.ModelErrorQuota, Err: fmt.Errorf("%s: %s", resp.Status, string(data))}
	case resp.StatusCode != http.StatusOK:
		return nil, &nutrisense.ModelError{Model: name, Kind: nutrisense.ModelErrorUnavailable, Err: fmt.Errorf("%s: %s", resp.Status, string(data))}
	}

	var wr wireResponse
	if err := json.Unmarshal(data, &wr); err != nil {
		slog.Warn("LLM_CLIENT: decode failed", "error", err, "body", string(data))
		return nil, &nutrisense.ModelError{Model: name, Kind: nutrisense.ModelErrorMalformed, Err: fmt.Errorf("decode chat response: %w", err)}
	}
	return &wr, nil
}

// buildMessages converts the request into Ollama chat messages, with the
// request's system prompt first.
func buildMessages(req nutrisense.ModelRequest) []wireMessage {
	messages := make([]wireMessage, 0, len(req.Messages)+1)
	if sp := strings.TrimSpace(req.SystemPrompt); sp != "" {
		messages = append(messages, wireMessage{Role: "system", Content: sp})
	}

	for _, m := range req.Messages {
		switch m.Role {
		case nutrisense.RoleSystem, nutrisense.RoleUser, nutrisense.RoleAssistant:
			messages = append(messages, wireMessage{Role: string(m.Role), Content: m.Content})
		default:
			slog.Warn("LLM_CLIENT: unknown role, coercing to user", "role", m.Role)
			messages = append(messages, wireMessage{Role: "user", Content: m.Content})
		}
	}
	return messages
}

func buildTools(ts []tools.Tool) []wireTool {
	out := make([]wireTool, 0, len(ts))
	for _, t := range ts {
		out = append(out, wireTool{
			Type: "function",
			Function: wireFunction{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.InputSchema(),
			},
		})
	}
	return out
}
