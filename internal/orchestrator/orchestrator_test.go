package orchestrator

import "testing"

func TestIntensityInterval(t *testing.T) {
	cases := []struct {
		i    Intensity
		want string
	}{
		{Aggressive, "1m0s"},
		{Normal, "5m0s"},
		{Idle, "30m0s"},
		{Paused, "0s"},
	}
	for _, c := range cases {
		if got := c.i.interval().String(); got != c.want {
			t.Errorf("%s.interval() = %s, want %s", c.i, got, c.want)
		}
	}
}

func TestIntensityString(t *testing.T) {
	cases := map[Intensity]string{
		Aggressive: "aggressive",
		Normal:     "normal",
		Idle:       "idle",
		Paused:     "paused",
	}
	for i, want := range cases {
		if got := i.String(); got != want {
			t.Errorf("Intensity(%d).String() = %q, want %q", i, got, want)
		}
	}
}

// TestRulePriorityOrder locks in the priority scan's rule order: the
// orchestrator dispatches the first rule that fires, so reordering this
// slice silently changes which action wins when multiple conditions hold.
func TestRulePriorityOrder(t *testing.T) {
	want := []string{
		"process_pending_book",
		"resume_stuck_book",
		"refine_insights",
		"generate_feed",
		"enrich_book",
	}
	if len(rules) != len(want) {
		t.Fatalf("len(rules) = %d, want %d", len(rules), len(want))
	}
	for i, name := range want {
		if rules[i].name != name {
			t.Errorf("rules[%d].name = %q, want %q", i, rules[i].name, name)
		}
	}
}

func TestNewDefaultsToNormalIntensity(t *testing.T) {
	b := New(nil, nil, nil, nil)
	if b.intensity != Normal {
		t.Errorf("default intensity = %v, want Normal", b.intensity)
	}
	if b.logger == nil {
		t.Error("expected New to default a nil logger to slog.Default()")
	}
}
