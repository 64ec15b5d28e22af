package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
)

const (
	maxSnippets = 5

	// Instant answers are a few KB; anything past this is not one.
	maxSearchResponse = 1 << 20
)

type doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// WebSearch queries the DuckDuckGo Instant Answer API and returns text
// snippets. Results are best-effort.
type WebSearch struct {
	endpoint   string
	httpClient doer
}

func NewWebSearch(endpoint string, httpClient doer) *WebSearch {
	return &WebSearch{endpoint: endpoint, httpClient: httpClient}
}

func (t *WebSearch) Name() string  { return "web_search" }
func (t *WebSearch) Title() string { return "Web Search" }
func (t *WebSearch) Description() string {
	return "Searches the web for recipes or nutrition facts not covered by the reference dataset."
}

func (t *WebSearch) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"query": {Type: "string"},
		},
		Required: []string{"query"},
	}
}

func (t *WebSearch) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"snippet": {Type: "string"},
			"sources": {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
		},
		Required: []string{"snippet"},
	}
}

type instantAnswer struct {
	Heading       string         `json:"Heading"`
	AbstractText  string         `json:"AbstractText"`
	AbstractURL   string         `json:"AbstractURL"`
	Answer        string         `json:"Answer"`
	RelatedTopics []relatedTopic `json:"RelatedTopics"`
}

type relatedTopic struct {
	Text     string         `json:"Text"`
	FirstURL string         `json:"FirstURL"`
	Topics   []relatedTopic `json:"Topics"`
}

func (t *WebSearch) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	query, _ := input["query"].(string)
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query is required")
	}

	slog.Info("TOOL: web_search", "query", query)

	u, err := url.Parse(t.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid search endpoint: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("no_html", "1")
	q.Set("skip_disambig", "1")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search failed: %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSearchResponse+1))
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}
	if len(body) > maxSearchResponse {
		return nil, fmt.Errorf("search response exceeds %d bytes", maxSearchResponse)
	}

	var ia instantAnswer
	if err := json.Unmarshal(body, &ia); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	snippets, sources := collectSnippets(ia)
	if len(snippets) == 0 {
		return map[string]any{"snippet": "No results found.", "sources": []string{}}, nil
	}
	return map[string]any{
		"snippet": strings.Join(snippets, "\n"),
		"sources": sources,
	}, nil
}

func collectSnippets(ia instantAnswer) (snippets, sources []string) {
	if ia.Answer != "" {
		snippets = append(snippets, ia.Answer)
	}
	if ia.AbstractText != "" {
		snippets = append(snippets, ia.AbstractText)
		if ia.AbstractURL != "" {
			sources = append(sources, ia.AbstractURL)
		}
	}

	var walk func(topics []relatedTopic)
	walk = func(topics []relatedTopic) {
		for _, rt := range topics {
			if len(snippets) >= maxSnippets {
				return
			}
			if rt.Text != "" {
				snippets = append(snippets, rt.Text)
				if rt.FirstURL != "" {
					sources = append(sources, rt.FirstURL)
				}
			}
			walk(rt.Topics)
		}
	}
	walk(ia.RelatedTopics)

	if sources == nil {
		sources = []string{}
	}
	return snippets, sources
}
