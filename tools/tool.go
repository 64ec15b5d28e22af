package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
)

// Tool is a capability the model may call while producing a structured result.
type Tool interface {
	Name() string
	Title() string
	Description() string
	InputSchema() *jsonschema.Schema
	OutputSchema() *jsonschema.Schema
	Run(ctx context.Context, input map[string]any) (output map[string]any, err error)
}

type Call struct {
	Name      string         `json:"name"`
	Input     map[string]any `json:"input"`
	ToolUseID string         `json:"tool_use_id,omitempty"`
}

// Execute runs call against the matching tool in available. Failures are
// returned as an error output so the model can carry on without the result.
func Execute(ctx context.Context, available []Tool, call Call) map[string]any {
	for _, t := range available {
		if t.Name() != call.Name {
			continue
		}
		slog.Info("TOOL: Running", "name", call.Name, "input", call.Input)
		out, err := t.Run(ctx, call.Input)
		if err != nil {
			slog.Warn("TOOL: Failed", "name", call.Name, "error", err)
			return map[string]any{"error": err.Error()}
		}
		return out
	}
	slog.Warn("TOOL: Unknown tool requested", "name", call.Name)
	return map[string]any{"error": fmt.Sprintf("tool %q is not available", call.Name)}
}
