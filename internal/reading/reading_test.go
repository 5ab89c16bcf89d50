package reading

import "testing"

func TestProgressPercent(t *testing.T) {
	cases := []struct {
		name string
		p    Progress
		want float64
	}{
		{"unknown total", Progress{CurrentPage: 10, TotalPages: 0}, 0},
		{"halfway", Progress{CurrentPage: 50, TotalPages: 100}, 0.5},
		{"zero progress", Progress{CurrentPage: 0, TotalPages: 200}, 0},
		{"complete", Progress{CurrentPage: 200, TotalPages: 200}, 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.p.Percent(); got != c.want {
				t.Errorf("Percent() = %v, want %v", got, c.want)
			}
		})
	}
}

func TestProgressCompletedThreshold(t *testing.T) {
	cases := []struct {
		name string
		p    Progress
		want bool
	}{
		{"just under threshold", Progress{CurrentPage: 94, TotalPages: 100}, false},
		{"exactly at threshold", Progress{CurrentPage: 95, TotalPages: 100}, true},
		{"over threshold", Progress{CurrentPage: 100, TotalPages: 100}, true},
		{"unknown total pages never completes", Progress{CurrentPage: 500, TotalPages: 0}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.p.Completed(); got != c.want {
				t.Errorf("Completed() = %v, want %v", got, c.want)
			}
		})
	}
}
