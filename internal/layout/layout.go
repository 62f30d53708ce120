// Package layout computes marker placement and visual encoding for
// auto-identified hazards.  Everything in this package is pure and has
// no I/O: given the same hazard count and canvas, the grid underneath
// the jitter is fully deterministic, which keeps generated maps
// reproducible and the functions trivially testable.
package layout

import (
	"math"
	"math/rand"

	"github.com/ergomap/risk-map/internal/model"
)

const (
	// edgePadding shrinks the usable grid area on every side so cells
	// never hug the canvas border.
	edgePadding = 100
	// jitterRange is the maximum absolute perturbation applied to each
	// axis after grid placement.  Pure grid centers look mechanical;
	// a small uniform jitter keeps markers organic without ever moving
	// one into a neighbouring cell (cells are always wider than 40px
	// for the supported hazard counts).
	jitterRange = 20
	// clampMargin is the hard floor/ceiling for final coordinates so a
	// marker circle never touches the canvas edge.
	clampMargin = 50
)

// DistributedPosition places the marker with the given index on a
// near-square grid spanning the canvas and returns its jittered, clamped
// coordinates.  Index runs from 0 to total-1 in hazard insertion order;
// index 0 always lands in the top-left cell.  total must be >= 1 (the
// caller guards the zero case and never invokes the layout for it).
func DistributedPosition(index, total, canvasWidth, canvasHeight int) (int, int) {
	cx, cy := cellCenter(index, total, canvasWidth, canvasHeight)
	x := clamp(int(math.Round(cx))+jitter(), clampMargin, canvasWidth-clampMargin)
	y := clamp(int(math.Round(cy))+jitter(), clampMargin, canvasHeight-clampMargin)
	return x, y
}

// cellCenter computes the pre-jitter grid cell center for an index.
// columns = ceil(sqrt(total)) and rows = ceil(total/columns) yield a
// near-square grid; every index maps to a distinct cell, so no two
// markers can start on top of each other.
func cellCenter(index, total, canvasWidth, canvasHeight int) (float64, float64) {
	cols := int(math.Ceil(math.Sqrt(float64(total))))
	rows := (total + cols - 1) / cols
	cellW := float64(canvasWidth-2*edgePadding) / float64(cols)
	cellH := float64(canvasHeight-2*edgePadding) / float64(rows)
	col := index % cols
	row := index / cols
	x := edgePadding + (float64(col)+0.5)*cellW
	y := edgePadding + (float64(row)+0.5)*cellH
	return x, y
}

// jitter returns a uniform random offset in [-jitterRange, +jitterRange].
func jitter() int {
	return rand.Intn(2*jitterRange+1) - jitterRange
}

// clamp limits v to the inclusive range [lo, hi].
func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// categoryColors is the fixed color table for hazard categories.  The
// legend and the markers read from the same table, so they always agree.
var categoryColors = map[model.Category]string{
	model.CategoryAccidental: "#FF6B6B",
	model.CategoryChemical:   "#FFD93D",
	model.CategoryErgonomic:  "#6BCB77",
	model.CategoryPhysical:   "#4D96FF",
	model.CategoryBiological: "#9D4EDD",
}

// defaultColor is the neutral gray used for categories outside the
// closed enumeration.
const defaultColor = "#9CA3AF"

// ColorForCategory returns the RGB string for a category.  The mapping
// is a fixed lookup, not configurable per call.
func ColorForCategory(c model.Category) string {
	if color, ok := categoryColors[c]; ok {
		return color
	}
	return defaultColor
}

// severityRadii maps severity rank (low=0 .. critical=3) to a marker
// radius in pixels.  The values increase strictly with severity so that
// marker size is a direct visual proxy for impact.
var severityRadii = [...]int{20, 30, 40, 50}

// RadiusForSeverity returns the marker radius for a severity.  Unknown
// severities rank as medium.
func RadiusForSeverity(s model.Severity) int {
	return severityRadii[s.Rank()]
}
