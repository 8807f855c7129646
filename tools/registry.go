package tools

import "fmt"

// Registry maps tool names to implementations
type Registry map[string]Tool

// NewRegistry creates a registry with the primary lookup and fallback search tools.
func NewRegistry(lookup *IngredientLookup, search *IngredientSearch) (*Registry, error) {
	if lookup == nil {
		return nil, fmt.Errorf("ingredient lookup tool is required")
	}

	tools := map[string]Tool{lookup.Name(): lookup}
	if search != nil {
		tools[search.Name()] = search
	}

	registry := Registry(tools)
	return &registry, nil
}

// GetTools returns all tools in the registry as a slice
func (r *Registry) GetTools() []Tool {
	tools := make([]Tool, 0, len(*r))
	for _, tool := range *r {
		tools = append(tools, tool)
	}
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
