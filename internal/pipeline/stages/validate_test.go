package stages

import "testing"

func TestParseInsightItemsValidArray(t *testing.T) {
	raw := `[{"title":"Flow state","content":"Deep focus without distraction.","importance":4},{"content":"Minimal viable habit"}]`
	items, err := parseInsightItems(raw)
	if err != nil {
		t.Fatalf("parseInsightItems: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	if items[0].Title != "Flow state" || items[0].Importance != 4 {
		t.Errorf("unexpected first item: %+v", items[0])
	}
	if items[1].Content != "Minimal viable habit" {
		t.Errorf("unexpected second item: %+v", items[1])
	}
}

func TestParseInsightItemsRejectsMalformedJSON(t *testing.T) {
	if _, err := parseInsightItems(`not json at all`); err == nil {
		t.Error("expected an error for non-JSON input")
	}
}

func TestParseInsightItemsRejectsMissingRequiredField(t *testing.T) {
	// "content" is required; an item missing it must fail schema
	// validation rather than decode into a zero-value item.
	raw := `[{"title":"No content here"}]`
	if _, err := parseInsightItems(raw); err == nil {
		t.Error("expected a schema validation error when content is missing")
	}
}

func TestParseInsightItemsRejectsNonArray(t *testing.T) {
	raw := `{"title":"Wrong shape","content":"this is an object, not an array"}`
	if _, err := parseInsightItems(raw); err == nil {
		t.Error("expected an error when the top-level shape is not an array")
	}
}

func TestParseInsightItemsEmptyArray(t *testing.T) {
	items, err := parseInsightItems(`[]`)
	if err != nil {
		t.Fatalf("parseInsightItems: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("len(items) = %d, want 0", len(items))
	}
}
