package tools

import (
	"fmt"
	"sort"
)

// Registry maps tool names to implementations
type Registry map[string]Tool

// NewRegistry creates a registry holding the given tools. Nil tools are
// skipped so optional capabilities can be switched off by configuration.
func NewRegistry(tools ...Tool) (*Registry, error) {
	registry := Registry{}
	for _, t := range tools {
		if t == nil {
			continue
		}
		if _, dup := registry[t.Name()]; dup {
			return nil, fmt.Errorf("tool %q registered twice", t.Name())
		}
		registry[t.Name()] = t
	}
	return &registry, nil
}

// GetTools returns all tools sorted by name.
func (r *Registry) GetTools() []Tool {
	tools := make([]Tool, 0, len(*r))
	for _, tool := range *r {
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name() < tools[j].Name() })
	return tools
}

// GetTool retrieves a tool by name from the registry
func (r Registry) GetTool(name string) (Tool, error) {
	tool, exists := r[name]
	if !exists {
		return nil, fmt.Errorf("tool %q not found in registry", name)
	}
	return tool, nil
}
