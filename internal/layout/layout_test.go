package layout

import (
	"fmt"
	"testing"

	"github.com/ergomap/risk-map/internal/model"
)

func TestDistributedPosition_StaysInsideMargins(t *testing.T) {
	canvases := [][2]int{{1000, 800}, {1200, 900}, {400, 300}}
	for _, cv := range canvases {
		w, h := cv[0], cv[1]
		for total := 1; total <= 40; total++ {
			for index := 0; index < total; index++ {
				// Repeat a few times since the jitter is random.
				for i := 0; i < 5; i++ {
					x, y := DistributedPosition(index, total, w, h)
					if x < 50 || x > w-50 {
						t.Fatalf("x=%d out of [50,%d] for index=%d total=%d canvas=%dx%d", x, w-50, index, total, w, h)
					}
					if y < 50 || y > h-50 {
						t.Fatalf("y=%d out of [50,%d] for index=%d total=%d canvas=%dx%d", y, h-50, index, total, w, h)
					}
				}
			}
		}
	}
}

func TestCellCenters_PairwiseDistinct(t *testing.T) {
	for total := 1; total <= 40; total++ {
		seen := map[string]int{}
		for index := 0; index < total; index++ {
			x, y := cellCenter(index, total, 1000, 800)
			key := fmt.Sprintf("%.3f,%.3f", x, y)
			if prev, dup := seen[key]; dup {
				t.Fatalf("total=%d: index %d and %d share cell center %s", total, prev, index, key)
			}
			seen[key] = index
		}
	}
}

func TestCellCenter_FirstIndexTopLeft(t *testing.T) {
	// Index 0 always occupies the top-left cell regardless of total.
	for total := 1; total <= 20; total++ {
		x0, y0 := cellCenter(0, total, 1000, 800)
		for index := 1; index < total; index++ {
			x, y := cellCenter(index, total, 1000, 800)
			if x < x0 && y < y0 {
				t.Fatalf("total=%d index=%d (%.1f,%.1f) is above-left of index 0 (%.1f,%.1f)", total, index, x, y, x0, y0)
			}
		}
	}
}

func TestColorForCategory(t *testing.T) {
	seen := map[string]bool{}
	for _, c := range model.Categories {
		got := ColorForCategory(c)
		if got == defaultColor {
			t.Errorf("category %q maps to the default color", c)
		}
		if len(got) != 7 || got[0] != '#' {
			t.Errorf("category %q: color %q is not a #RRGGBB string", c, got)
		}
		if seen[got] {
			t.Errorf("category %q: color %q reused by another category", c, got)
		}
		seen[got] = true
		// Deterministic across repeated calls.
		if again := ColorForCategory(c); again != got {
			t.Errorf("category %q: color changed between calls (%q vs %q)", c, got, again)
		}
	}
	if got := ColorForCategory(model.Category("radiological")); got != defaultColor {
		t.Errorf("unknown category: got %q, want default %q", got, defaultColor)
	}
}

func TestRadiusForSeverity(t *testing.T) {
	prev := 0
	for _, s := range model.Severities {
		r := RadiusForSeverity(s)
		if r <= prev {
			t.Errorf("radius for %q (%d) not strictly greater than previous (%d)", s, r, prev)
		}
		prev = r
	}
	if got := RadiusForSeverity(model.Severity("extreme")); got != RadiusForSeverity(model.SeverityMedium) {
		t.Errorf("unknown severity: got %d, want the medium radius %d", got, RadiusForSeverity(model.SeverityMedium))
	}
}
