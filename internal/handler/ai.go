package handler // handler package contains generation endpoints

import (
	"net/http" // http provides status code constants

	"github.com/labstack/echo/v4" // echo is the web framework used for handlers

	"github.com/ergomap/risk-map/internal/service" // service orchestrates the generation flow
)

// AIHandler bundles the service dependency for generation endpoints.
// The LLM calls behind these handlers can take tens of seconds; no
// timeout is enforced here beyond the request context itself.
type AIHandler struct {
	Svc *service.MapService
}

// NewAIHandler constructs an AIHandler and panics if the service is nil.
func NewAIHandler(svc *service.MapService) *AIHandler {
	if svc == nil {
		panic("nil service passed to NewAIHandler")
	}
	return &AIHandler{Svc: svc}
}

// describeReq is the shared schema-validated body of the generation
// endpoints: a non-empty workspace description.
type describeReq struct {
	Description string `json:"description" validate:"required"`
}

// GenerateDiagram handles POST /v1/ai/diagram: synthesize a floor plan
// for the described workspace without persisting anything.
func (h *AIHandler) GenerateDiagram(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req describeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	d, err := h.Svc.GenerateDiagram(c.Request().Context(), req.Description)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

// IdentifyHazards handles POST /v1/ai/hazards: enumerate occupational
// hazards for the described workspace without persisting anything.
func (h *AIHandler) IdentifyHazards(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req describeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	hazards, err := h.Svc.IdentifyHazards(c.Request().Context(), req.Description)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"hazards": hazards})
}

// Generate handles POST /v1/maps/generate: the composite flow that
// turns a description into a persisted map plus its hazard markers.
// When the per-hazard insert loop fails partway, the partially
// populated aggregate is returned alongside the error so the client
// can show what exists; retry is the caller's responsibility.
func (h *AIHandler) Generate(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req describeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	res, err := h.Svc.GenerateAndPopulate(c.Request().Context(), ownerID, req.Description)
	if err != nil {
		if res != nil {
			// Partial population: the map exists with fewer risks than
			// identified.  Surface both the error and the partial state.
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error":   err.Error(),
				"partial": res,
			})
		}
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}
