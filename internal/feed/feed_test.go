package feed

import (
	"strings"
	"testing"
)

func TestRenderTILPromptSubstitutesAllPlaceholders(t *testing.T) {
	got := renderTILPrompt("Compound growth", "Small gains add up over time.", "Atomic Habits", "James Clear")

	for _, want := range []string{"Compound growth", "Small gains add up over time.", "Atomic Habits", "James Clear"} {
		if !strings.Contains(got, want) {
			t.Errorf("rendered prompt missing %q:\n%s", want, got)
		}
	}
	for _, placeholder := range []string{"{insight_title}", "{insight_content}", "{book_title}", "{author}"} {
		if strings.Contains(got, placeholder) {
			t.Errorf("rendered prompt still contains unsubstituted placeholder %q", placeholder)
		}
	}
}
