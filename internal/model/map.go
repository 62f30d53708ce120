package model

import "time"

// Default canvas dimensions applied when a map is created without an
// explicit size.  The layout engine and the generated SVG both assume
// these values unless told otherwise.
const (
	DefaultCanvasWidth  = 1000
	DefaultCanvasHeight = 800
)

// RiskMap represents one workspace diagram session together with its
// canvas geometry.  This struct corresponds to a row in the `risk_maps`
// table.  A map is exclusively owned by one user; every read and write
// in the service layer is filtered by OwnerID.
//
// Fields:
//  ID           – primary key identifier.
//  OwnerID      – user ID of the map owner (risk_maps.user_id).
//  Title        – short display title.
//  Description  – the free-text workspace description the user authored.
//  FloorPlanSVG – the generated vector diagram as a string blob.
//  Width        – canvas width in pixels (positive).
//  Height       – canvas height in pixels (positive).
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type RiskMap struct {
	ID           uint64    `json:"id"`             // risk_maps.id
	OwnerID      uint64    `json:"user_id"`        // risk_maps.user_id
	Title        string    `json:"title"`          // risk_maps.title
	Description  string    `json:"description"`    // risk_maps.description
	FloorPlanSVG string    `json:"floor_plan_svg"` // risk_maps.floor_plan_svg
	Width        int       `json:"width"`          // risk_maps.width
	Height       int       `json:"height"`         // risk_maps.height
	CreatedAt    time.Time `json:"created_at"`     // risk_maps.created_at
	UpdatedAt    time.Time `json:"updated_at"`     // risk_maps.updated_at
}
