package nutrisense

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"nutrisense/tools"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ChatPoster delivers rendered sections to a chat surface.
type ChatPoster interface {
	PostMessage(ctx context.Context, channel string, message string) error
}

type ToolProvider interface {
	GetTools() []tools.Tool
	GetTool(name string) (tools.Tool, error)
}

// Model is a language-model backend returning a JSON document that
// conforms to the request schema.
type Model interface {
	Invoke(ctx context.Context, req ModelRequest) (json.RawMessage, error)
}

// ModelRequest is one structured invocation.
type ModelRequest struct {
	// Name identifies the structured result, e.g. "clinical_check".
	Name         string
	SystemPrompt string
	Messages     []Message
	Schema       *jsonschema.Schema
	// Tools the model may call before answering. Backends without tool
	// support ignore them.
	Tools []tools.Tool
}

// ModelOptions is the explicit configuration injected into every model client.
type ModelOptions struct {
	ModelName   string
	Temperature float32
	Timeout     time.Duration
}

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a chat turn. Name tags the step that produced it.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
}

func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func AssistantMessage(step, content string) Message {
	return Message{Role: RoleAssistant, Content: content, Name: step}
}

// Structured request names, one per result type.
const (
	RequestClinicalCheck   = "clinical_check"
	RequestIntent          = "intent"
	RequestRecipe          = "recipe"
	RequestDietPlan        = "diet_plan"
	RequestNutritionalInfo = "nutritional_info"
)
