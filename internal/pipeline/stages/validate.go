package stages

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// insightArraySchema is the expected shape of each insight sub-extraction's
// LLM response: a JSON array of {title?, content, importance?}. Validation
// failure (including non-JSON output) means that one sub-extraction is
// skipped rather than the whole stage failing.
const insightArraySchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"properties": {
			"title":      {"type": "string"},
			"content":    {"type": "string"},
			"importance": {"type": "integer"}
		},
		"required": ["content"]
	}
}`

type insightItem struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	Importance int    `json:"importance"`
}

// parseInsightItems validates raw against insightArraySchema and decodes it.
// Any failure (malformed JSON, schema mismatch) returns an error; callers
// treat that as "skip this sub-extraction" rather than failing the whole
// stage.
func parseInsightItems(raw string) ([]insightItem, error) {
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("not valid JSON: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("insight.json", bytes.NewReader([]byte(insightArraySchema))); err != nil {
		return nil, fmt.Errorf("load insight schema: %w", err)
	}
	schema, err := compiler.Compile("insight.json")
	if err != nil {
		return nil, fmt.Errorf("compile insight schema: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("response does not match expected shape: %w", err)
	}

	var items []insightItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode insight items: %w", err)
	}
	return items, nil
}
