package handler // handler package contains risk marker handlers

import (
	"net/http" // http provides status code constants

	"github.com/labstack/echo/v4" // echo is the web framework used for handlers

	"github.com/ergomap/risk-map/internal/model"   // model defines enums and update payloads
	"github.com/ergomap/risk-map/internal/service" // service orchestrates risk flows
)

// RiskHandler bundles the service dependency for risk endpoints.
type RiskHandler struct {
	Svc *service.MapService
}

// NewRiskHandler constructs a RiskHandler and panics if the service is nil.
func NewRiskHandler(svc *service.MapService) *RiskHandler {
	if svc == nil {
		panic("nil service passed to NewRiskHandler")
	}
	return &RiskHandler{Svc: svc}
}

// addRiskReq is the schema-validated body of POST /v1/maps/:id/risks.
// Radius and color are optional; the service derives them from severity
// and category when omitted.
type addRiskReq struct {
	Category    string `json:"category" validate:"required,oneof=accidental chemical ergonomic physical biological"`
	Severity    string `json:"severity" validate:"required,oneof=low medium high critical"`
	Label       string `json:"label" validate:"required"`
	Description string `json:"description"`
	X           int    `json:"x" validate:"gte=0"`
	Y           int    `json:"y" validate:"gte=0"`
	Radius      int    `json:"radius" validate:"omitempty,gte=1"`
	Color       string `json:"color" validate:"omitempty,hexcolor"`
}

// AddRisk handles POST /v1/maps/:id/risks and creates one marker on the
// caller's map.
func (h *RiskHandler) AddRisk(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	mapID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid map id"})
	}
	var req addRiskReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	rk, err := h.Svc.AddRisk(c.Request().Context(), ownerID, mapID, service.RiskInput{
		Category:    model.Category(req.Category),
		Severity:    model.Severity(req.Severity),
		Label:       req.Label,
		Description: req.Description,
		X:           req.X,
		Y:           req.Y,
		Radius:      req.Radius,
		Color:       req.Color,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"insert_id": rk.ID, "risk": rk})
}

// updatePositionReq is the body of PATCH /v1/risks/:id/position, the
// hot path fired after each drag pause.
type updatePositionReq struct {
	X int `json:"x" validate:"gte=0"`
	Y int `json:"y" validate:"gte=0"`
}

// UpdatePosition handles PATCH /v1/risks/:id/position.
func (h *RiskHandler) UpdatePosition(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	riskID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid risk id"})
	}
	var req updatePositionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if err := h.Svc.UpdatePosition(c.Request().Context(), riskID, ownerID, req.X, req.Y); err != nil {
		return serviceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// updateRiskReq is the body of PATCH /v1/risks/:id.  Every field is a
// pointer: absent fields leave the column untouched.
type updateRiskReq struct {
	Category    *string `json:"category" validate:"omitempty,oneof=accidental chemical ergonomic physical biological"`
	Severity    *string `json:"severity" validate:"omitempty,oneof=low medium high critical"`
	Label       *string `json:"label" validate:"omitempty,min=1"`
	Description *string `json:"description"`
	X           *int    `json:"x" validate:"omitempty,gte=0"`
	Y           *int    `json:"y" validate:"omitempty,gte=0"`
	Radius      *int    `json:"radius" validate:"omitempty,gte=1"`
	Color       *string `json:"color" validate:"omitempty,hexcolor"`
}

// UpdateRisk handles PATCH /v1/risks/:id with a partial field set.
func (h *RiskHandler) UpdateRisk(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	riskID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid risk id"})
	}
	var req updateRiskReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	u := model.RiskUpdate{
		Label:       req.Label,
		Description: req.Description,
		X:           req.X,
		Y:           req.Y,
		Radius:      req.Radius,
		Color:       req.Color,
	}
	if req.Category != nil {
		cat := model.Category(*req.Category)
		u.Category = &cat
	}
	if req.Severity != nil {
		sev := model.Severity(*req.Severity)
		u.Severity = &sev
	}
	if err := h.Svc.UpdateRisk(c.Request().Context(), riskID, ownerID, u); err != nil {
		return serviceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteRisk handles DELETE /v1/risks/:id.
func (h *RiskHandler) DeleteRisk(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	riskID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid risk id"})
	}
	if err := h.Svc.DeleteRisk(c.Request().Context(), riskID, ownerID); err != nil {
		return serviceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
