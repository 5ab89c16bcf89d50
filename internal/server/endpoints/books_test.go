package endpoints

import (
	"strings"
	"testing"
)

func TestBookColumnsPrefixedQualifiesEveryColumn(t *testing.T) {
	got := bookColumnsPrefixed("b")

	for _, col := range strings.Split(got, ", ") {
		if !strings.HasPrefix(col, "b.") {
			t.Errorf("column %q not prefixed with alias", col)
		}
	}
	if !strings.Contains(got, "b.id") || !strings.Contains(got, "b.updated_at") {
		t.Errorf("bookColumnsPrefixed() missing expected columns: %q", got)
	}
}

func TestBookColumnsPrefixedMatchesBookColumnsCount(t *testing.T) {
	prefixed := strings.Split(bookColumnsPrefixed("x"), ", ")
	plain := strings.Split(bookColumns, ", ")
	if len(prefixed) != len(plain) {
		t.Errorf("bookColumnsPrefixed has %d columns, bookColumns has %d", len(prefixed), len(plain))
	}
}
