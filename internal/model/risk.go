package model

import "time"

// Category classifies a hazard.  The set is closed: values outside the
// enumeration are rejected at the service boundary and the visual
// encoding falls back to a neutral default for anything unknown.
type Category string

// All hazard categories recognized by the system.
const (
	CategoryAccidental Category = "accidental"
	CategoryChemical   Category = "chemical"
	CategoryErgonomic  Category = "ergonomic"
	CategoryPhysical   Category = "physical"
	CategoryBiological Category = "biological"
)

// Categories lists every valid category in a stable order.  Used to build
// validation rules and the LLM response schema so the two never diverge.
var Categories = []Category{
	CategoryAccidental,
	CategoryChemical,
	CategoryErgonomic,
	CategoryPhysical,
	CategoryBiological,
}

// Valid reports whether c is a member of the closed category enumeration.
func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// Severity ranks hazard impact.  The enumeration is closed and totally
// ordered: low < medium < high < critical.
type Severity string

// All severity levels in ascending order of impact.
const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Severities lists every valid severity in ascending order.
var Severities = []Severity{
	SeverityLow,
	SeverityMedium,
	SeverityHigh,
	SeverityCritical,
}

// Valid reports whether s is a member of the closed severity enumeration.
func (s Severity) Valid() bool {
	for _, v := range Severities {
		if s == v {
			return true
		}
	}
	return false
}

// Rank returns the position of s in the severity order, starting at 0 for
// low.  Unknown severities rank as medium so that derived values (marker
// radius) have a sane default.
func (s Severity) Rank() int {
	for i, v := range Severities {
		if s == v {
			return i
		}
	}
	return 1
}

// Risk represents one hazard marker on a map.  This struct corresponds to
// a row in the `risks` table.
//
// Fields:
//  ID          – primary key identifier.
//  MapID       – foreign reference to the owning risk map.
//  Category    – hazard category (risks.type column).
//  Severity    – hazard severity (risks.severity column).
//  Label       – short human-readable label.
//  Description – optional long-form description (nullable in the DB).
//  X, Y        – marker position in canvas coordinates.
//  Radius      – visual radius in pixels, derived from severity by default.
//  Color       – 7-character RGB string like "#6BCB77".
//  CreatedAt   – timestamp of creation.
//  UpdatedAt   – timestamp of last update.
type Risk struct {
	ID          uint64    `json:"id"`          // risks.id
	MapID       uint64    `json:"map_id"`      // risks.map_id
	Category    Category  `json:"category"`    // risks.type
	Severity    Severity  `json:"severity"`    // risks.severity
	Label       string    `json:"label"`       // risks.label
	Description string    `json:"description"` // risks.description (empty when NULL)
	X           int       `json:"x"`           // risks.x_position
	Y           int       `json:"y"`           // risks.y_position
	Radius      int       `json:"radius"`      // risks.radius
	Color       string    `json:"color"`       // risks.color
	CreatedAt   time.Time `json:"created_at"`  // risks.created_at
	UpdatedAt   time.Time `json:"updated_at"`  // risks.updated_at
}

// RiskUpdate carries the optional fields of a partial risk update.  A nil
// pointer means "leave the column untouched".
type RiskUpdate struct {
	Category    *Category
	Severity    *Severity
	Label       *string
	Description *string
	X           *int
	Y           *int
	Radius      *int
	Color       *string
}

// Empty reports whether the update carries no fields at all.
func (u RiskUpdate) Empty() bool {
	return u.Category == nil && u.Severity == nil && u.Label == nil &&
		u.Description == nil && u.X == nil && u.Y == nil &&
		u.Radius == nil && u.Color == nil
}
