package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
)

const (
	LookupToolName = "ingredient_lookup"
	SearchToolName = "ingredient_search"
)

type Tool interface {
	Name() string
	Title() string
	Description() string
	InputSchema() *jsonschema.Schema
	OutputSchema() *jsonschema.Schema
	Run(ctx context.Context, input map[string]any) (output map[string]any, err error)
}
