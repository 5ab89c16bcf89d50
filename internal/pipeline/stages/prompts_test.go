package stages

import (
	"strings"
	"testing"
)

func TestRenderPromptSubstitutesAllPlaceholders(t *testing.T) {
	out := renderPrompt(`Book: "{title}" by {author}\n\nExcerpt:\n{content}`, "Deep Work", "Cal Newport", "Focus is a skill.")

	for _, want := range []string{"Deep Work", "Cal Newport", "Focus is a skill."} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered prompt missing %q: %s", want, out)
		}
	}
	for _, placeholder := range []string{"{title}", "{author}", "{content}"} {
		if strings.Contains(out, placeholder) {
			t.Errorf("rendered prompt still contains placeholder %q: %s", placeholder, out)
		}
	}
}

func TestRenderPromptHandlesEmptyFields(t *testing.T) {
	out := renderPrompt(`{title}-{author}-{content}`, "", "", "")
	if out != "--" {
		t.Errorf("expected \"--\", got %q", out)
	}
}

func TestInsightPromptsCoverAllThreeTypes(t *testing.T) {
	want := map[string]bool{"key_concept": false, "framework": false, "takeaway": false}
	for _, p := range insightPrompts {
		if _, ok := want[p.insightType]; !ok {
			t.Fatalf("unexpected insight type %q", p.insightType)
		}
		want[p.insightType] = true
		if p.template == "" {
			t.Errorf("insight type %q has empty template", p.insightType)
		}
	}
	for insightType, seen := range want {
		if !seen {
			t.Errorf("insight type %q not present in insightPrompts", insightType)
		}
	}
}
