// Package bedrock implements nutrisense.Model on the Bedrock Converse API.
// Structured output is produced by forcing a "respond" tool whose input
// schema is the request schema.
package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"nutrisense"
	"nutrisense/tools"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/modelcontextprotocol/go-sdk/jsonschema"
)

const (
	// defaultModelID is an inference profile ID, not the foundation model's ID.
	// See https://docs.aws.amazon.com/bedrock/latest/userguide/inference-profiles.html.
	defaultModelID = "us.anthropic.claude-3-7-sonnet-20250219-v1:0"

	// Diet plans run long; 4k leaves room for a week of recipes.
	defaultMaxTokens = 4096

	defaultTopP       = 0.9
	defaultToolRounds = 4

	respondTool = "respond"
)

type bedrockRuntimeClient interface {
	Converse(context.Context, *bedrockruntime.ConverseInput, ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

type Options struct {
	ModelID       string
	MaxTokens     int32
	Temperature   float32
	TopP          float32
	Timeout       time.Duration
	MaxToolRounds int
}

type Client struct {
	brc  bedrockRuntimeClient
	opts Options
}

func NewClient(brc bedrockRuntimeClient, opts Options) *Client {
	if opts.ModelID == "" {
		opts.ModelID = defaultModelID
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.TopP == 0 {
		opts.TopP = defaultTopP
	}
	if opts.MaxToolRounds <= 0 {
		opts.MaxToolRounds = defaultToolRounds
	}
	return &Client{brc: brc, opts: opts}
}

// Invoke runs a Converse loop until the model calls the respond tool. Other
// tool calls are executed and fed back, up to MaxToolRounds rounds, after
// which the respond tool is forced.
func (c *Client) Invoke(ctx context.Context, req nutrisense.ModelRequest) (json.RawMessage, error) {
	slog.Info("LLM_CLIENT: Invoked", "backend", "bedrock", "request", req.Name, "messages_len", len(req.Messages), "tools_len", len(req.Tools))

	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	sys, msgs := conversation(req)
	specs, err := toolSpecs(req)
	if err != nil {
		return nil, &nutrisense.ModelError{Model: req.Name, Kind: nutrisense.ModelErrorMalformed, Err: err}
	}

	for round := 0; ; round++ {
		forced := len(req.Tools) == 0 || round >= c.opts.MaxToolRounds
		in := &bedrockruntime.ConverseInput{
			ModelId:  aws.String(c.opts.ModelID),
			System:   sys,
			Messages: msgs,
			InferenceConfig: &types.InferenceConfiguration{
				MaxTokens:   aws.Int32(c.opts.MaxTokens),
				Temperature: aws.Float32(c.opts.Temperature),
				TopP:        aws.Float32(c.opts.TopP),
			},
			ToolConfig: &types.ToolConfiguration{Tools: specs, ToolChoice: toolChoice(forced)},
		}

		out, err := c.brc.Converse(ctx, in)
		if err != nil {
			slog.Error("LLM_CLIENT: Bedrock invoke failed", "request", req.Name, "round", round, "error", err)
			return nil, classify(req.Name, err)
		}

		logUsage(out, req.Name, round)

		switch out.StopReason {
		case types.StopReasonMaxTokens:
			return nil, &nutrisense.ModelError{Model: req.Name, Kind: nutrisense.ModelErrorMalformed, Err: errors.New("model hit MaxTokens limit")}
		case types.StopReasonGuardrailIntervened, types.StopReasonContentFiltered:
			return nil, &nutrisense.ModelError{Model: req.Name, Kind: nutrisense.ModelErrorUnavailable, Err: errors.New("response blocked by Bedrock safety filters")}
		}

		msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
		if !ok || msg == nil {
			return nil, &nutrisense.ModelError{Model: req.Name, Kind: nutrisense.ModelErrorMalformed, Err: errors.New("no message in output")}
		}

		if result, ok, err := respondInput(msg.Value); ok || err != nil {
			if err != nil {
				return nil, &nutrisense.ModelError{Model: req.Name, Kind: nutrisense.ModelErrorMalformed, Err: err}
			}
			return result, nil
		}

		calls, err := toolCalls(msg.Value)
		if err != nil {
			return nil, &nutrisense.ModelError{Model: req.Name, Kind: nutrisense.ModelErrorMalformed, Err: err}
		}
		if len(calls) == 0 {
			// Some models answer in text even when a tool is forced.
			text := textContent(msg.Value)
			if text == "" {
				return nil, &nutrisense.ModelError{Model: req.Name, Kind: nutrisense.ModelErrorMalformed, Err: errors.New("empty response")}
			}
			return json.RawMessage(text), nil
		}

		msgs = append(msgs, msg.Value, toolResults(ctx, req.Tools, calls))
	}
}

// conversation splits the request into system blocks and alternating
// user/assistant turns. Consecutive turns of the same role are merged.
func conversation(req nutrisense.ModelRequest) ([]types.SystemContentBlock, []types.Message) {
	var sys []types.SystemContentBlock
	if strings.TrimSpace(req.SystemPrompt) != "" {
		sys = append(sys, &types.SystemContentBlockMemberText{Value: req.SystemPrompt})
	}

	var msgs []types.Message
	for _, m := range req.Messages {
		if m.Role == nutrisense.RoleSystem {
			sys = append(sys, &types.SystemContentBlockMemberText{Value: m.Content})
			continue
		}
		role := types.ConversationRoleUser
		if m.Role == nutrisense.RoleAssistant {
			role = types.ConversationRoleAssistant
		}
		block := &types.ContentBlockMemberText{Value: m.Content}
		if n := len(msgs); n > 0 && msgs[n-1].Role == role {
			msgs[n-1].Content = append(msgs[n-1].Content, block)
			continue
		}
		msgs = append(msgs, types.Message{Role: role, Content: []types.ContentBlock{block}})
	}

	// Converse requires the first turn to come from the user.
	if len(msgs) > 0 && msgs[0].Role != types.ConversationRoleUser {
		msgs = append([]types.Message{{
			Role:    types.ConversationRoleUser,
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: "Continue."}},
		}}, msgs...)
	}
	return sys, msgs
}

func toolChoice(forced bool) types.ToolChoice {
	if forced {
		return &types.ToolChoiceMemberTool{Value: types.SpecificToolChoice{Name: aws.String(respondTool)}}
	}
	return &types.ToolChoiceMemberAny{Value: types.AnyToolChoice{}}
}

func toolSpecs(req nutrisense.ModelRequest) ([]types.Tool, error) {
	schema := req.Schema
	if schema == nil {
		schema = &jsonschema.Schema{Type: "object"}
	}
	respond, err := buildToolSpec(respondTool, fmt.Sprintf("Return the final %s result.", req.Name), schema)
	if err != nil {
		return nil, err
	}

	specs := []types.Tool{&types.ToolMemberToolSpec{Value: respond}}
	for _, t := range req.Tools {
		spec, err := buildToolSpec(t.Name(), t.Description(), t.InputSchema())
		if err != nil {
			slog.Error("LLM_CLIENT: Failed to build tool spec", "tool", t.Name(), "error", err)
			continue
		}
		specs = append(specs, &types.ToolMemberToolSpec{Value: spec})
	}
	return specs, nil
}

// buildToolSpec round-trips the schema through JSON so the document encoder
// sees plain maps rather than the schema's custom marshalling.
func buildToolSpec(name, description string, schema *jsonschema.Schema) (types.ToolSpecification, error) {
	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return types.ToolSpecification{}, fmt.Errorf("failed to marshal tool schema for %s: %w", name, err)
	}

	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return types.ToolSpecification{}, fmt.Errorf("failed to unmarshal tool schema for %s: %w", name, err)
	}

	return types.ToolSpecification{
		Name:        aws.String(name),
		Description: aws.String(description),
		InputSchema: &types.ToolInputSchemaMemberJson{Value: document.NewLazyDocument(schemaMap)},
	}, nil
}

// respondInput returns the JSON input of a respond tool call, if present.
func respondInput(msg types.Message) (json.RawMessage, bool, error) {
	for _, cb := range msg.Content {
		tu, ok := cb.(*types.ContentBlockMemberToolUse)
		if !ok || tu == nil || aws.ToString(tu.Value.Name) != respondTool {
			continue
		}
		if tu.Value.Input == nil {
			return nil, true, errors.New("respond tool called without input")
		}
		raw, err := tu.Value.Input.MarshalSmithyDocument()
		if err != nil {
			return nil, true, fmt.Errorf("failed to read respond input: %w", err)
		}
		return raw, true, nil
	}
	return nil, false, nil
}

// toolCalls extracts tool uses other than respond.
func toolCalls(msg types.Message) ([]tools.Call, error) {
	var calls []tools.Call
	for _, cb := range msg.Content {
		tu, ok := cb.(*types.ContentBlockMemberToolUse)
		if !ok || tu == nil {
			continue
		}

		input := map[string]any{}
		if tu.Value.Input != nil {
			raw, err := tu.Value.Input.MarshalSmithyDocument()
			if err != nil {
				return nil, fmt.Errorf("failed to read tool input for %s: %w", aws.ToString(tu.Value.Name), err)
			}
			if err := json.Unmarshal(raw, &input); err != nil {
				input = map[string]any{}
			}
		}

		normalized, _ := normalizeInput(input).(map[string]any)
		calls = append(calls, tools.Call{
			Name:      aws.ToString(tu.Value.Name),
			Input:     normalized,
			ToolUseID: aws.ToString(tu.Value.ToolUseId),
		})
	}
	return calls, nil
}

// toolResults runs every call and packs the outputs into one user turn.
func toolResults(ctx context.Context, available []tools.Tool, calls []tools.Call) types.Message {
	msg := types.Message{Role: types.ConversationRoleUser}
	for _, call := range calls {
		output := tools.Execute(ctx, available, call)
		status := types.ToolResultStatusSuccess
		if _, failed := output["error"]; failed {
			status = types.ToolResultStatusError
		}

		// Round-trip to plain JSON types for the document encoder.
		var result map[string]any
		if b, err := json.Marshal(output); err == nil {
			_ = json.Unmarshal(b, &result)
		}

		msg.Content = append(msg.Content, &types.ContentBlockMemberToolResult{Value: types.ToolResultBlock{
			ToolUseId: aws.String(call.ToolUseID),
			Status:    status,
			Content: []types.ToolResultContentBlock{
				&types.ToolResultContentBlockMemberJson{Value: document.NewLazyDocument(result)},
			},
		}})
	}
	return msg
}

// textContent returns the last JSON-looking text block, or all text joined.
func textContent(msg types.Message) string {
	var texts []string
	for _, cb := range msg.Content {
		if t, ok := cb.(*types.ContentBlockMemberText); ok && t != nil && t.Value != "" {
			texts = append(texts, t.Value)
		}
	}
	for i := len(texts) - 1; i >= 0; i-- {
		s := strings.TrimSpace(string(nutrisense.StripCodeFence([]byte(texts[i]))))
		if len(s) > 1 && s[0] == '{' && s[len(s)-1] == '}' {
			return s
		}
	}
	return strings.Join(texts, "\n")
}

// normalizeInput converts whole floats to ints and decodes stringified JSON
// objects or arrays.
func normalizeInput(val any) any {
	switch v := val.(type) {
	case float64:
		if v == float64(int(v)) {
			return int(v)
		}
		return v

	case string:
		s := strings.TrimSpace(v)
		if strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") {
			var decoded any
			if json.Unmarshal([]byte(s), &decoded) == nil {
				return normalizeInput(decoded)
			}
		}
		return v

	case []any:
		for i := range v {
			v[i] = normalizeInput(v[i])
		}
		return v

	case map[string]any:
		for key, val := range v {
			v[key] = normalizeInput(val)
		}
		return v

	default:
		return v
	}
}

// classify maps Bedrock exceptions onto model error kinds.
func classify(name string, err error) error {
	var (
		throttled *types.ThrottlingException
		quota     *types.ServiceQuotaExceededException
		timeout   *types.ModelTimeoutException
	)
	switch {
	case errors.As(err, &throttled), errors.As(err, &quota):
		return &nutrisense.ModelError{Model: name, Kind: nutrisense.ModelErrorQuota, Err: err}
	case errors.As(err, &timeout):
		return &nutrisense.ModelError{Model: name, Kind: nutrisense.ModelErrorTimeout, Err: err}
	default:
		return nutrisense.NewModelError(name, err)
	}
}

func logUsage(out *bedrockruntime.ConverseOutput, name string, round int) {
	attrs := []any{"request", name, "round", round, "stop_reason", out.StopReason}
	if out.Metrics != nil {
		attrs = append(attrs, "latency_ms", aws.ToInt64(out.Metrics.LatencyMs))
	}
	if out.Usage != nil {
		attrs = append(attrs,
			"input_tokens", aws.ToInt32(out.Usage.InputTokens),
			"output_tokens", aws.ToInt32(out.Usage.OutputTokens),
		)
	}
	slog.Info("LLM_CLIENT: Bedrock invoke succeeded", attrs...)
}
