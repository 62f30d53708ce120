// Package ai is the boundary to the text-completion service that
// synthesizes floor-plan diagrams and enumerates occupational hazards.
// Both calls are synchronous, potentially slow (tens of seconds) and are
// never retried here; a failure aborts the caller's flow at that step.
package ai

import (
	"context"
	"errors"

	"github.com/ergomap/risk-map/internal/model"
)

// ErrBadFormat is returned when the model's output cannot be parsed into
// the expected shape: no SVG fragment in the diagram response, or a
// hazard list that fails schema validation.  The output is never
// coerced or partially recovered.
var ErrBadFormat = errors.New("generation output has unexpected format")

// Diagram is the result of a floor-plan generation call.
type Diagram struct {
	SVG    string `json:"diagram"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Hazard is one entry of the hazard-identification response.  Category
// and severity are constrained to the closed enumerations by the
// response schema and re-validated after parsing.
type Hazard struct {
	Category    model.Category `json:"category"`
	Severity    model.Severity `json:"severity"`
	Label       string         `json:"label"`
	Description string         `json:"description"`
}

// Generator abstracts the generation backend so the service layer can be
// tested without network access.
type Generator interface {
	// GenerateDiagram asks the model for an SVG floor plan of the
	// described workspace sized to the given canvas.
	GenerateDiagram(ctx context.Context, description string, width, height int) (*Diagram, error)
	// IdentifyHazards asks the model for 1..10 occupational hazards
	// present in the described workspace, in the model's order.
	IdentifyHazards(ctx context.Context, description string) ([]Hazard, error)
}
