package handler // handler package contains risk-map CRUD handlers

import (
	"net/http" // http provides status code constants

	"github.com/labstack/echo/v4" // echo is the web framework used for handlers

	"github.com/ergomap/risk-map/internal/service" // service orchestrates map flows
)

// MapHandler bundles the service dependency for map endpoints.
type MapHandler struct {
	Svc *service.MapService
}

// NewMapHandler constructs a MapHandler and panics if the service is nil.
func NewMapHandler(svc *service.MapService) *MapHandler {
	if svc == nil {
		panic("nil service passed to NewMapHandler")
	}
	return &MapHandler{Svc: svc}
}

// createMapReq is the schema-validated body of POST /v1/maps.  Width
// and height are optional and default to 1000×800 downstream.
type createMapReq struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	Diagram     string `json:"diagram" validate:"required"`
	Width       int    `json:"width" validate:"omitempty,gte=1"`
	Height      int    `json:"height" validate:"omitempty,gte=1"`
}

// CreateMap handles POST /v1/maps and persists a map for the
// authenticated owner.
func (h *MapHandler) CreateMap(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createMapReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	m, err := h.Svc.CreateMap(c.Request().Context(), ownerID, req.Title, req.Description, req.Diagram, req.Width, req.Height)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"insert_id": m.ID, "map": m})
}

// ListMaps handles GET /v1/maps and returns all maps owned by the
// authenticated user, ordered by creation time.  An owner with no maps
// gets an empty items array, never null.
func (h *MapHandler) ListMaps(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Svc.ListMaps(c.Request().Context(), ownerID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetMap handles GET /v1/maps/:id and returns the map aggregate.  A
// map owned by someone else produces the same 404 as a missing one.
func (h *MapHandler) GetMap(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	m, risks, err := h.Svc.GetMap(c.Request().Context(), id, ownerID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"map": m, "risks": risks})
}

// DeleteMap handles DELETE /v1/maps/:id.  All risks referencing the
// map are removed with it.
func (h *MapHandler) DeleteMap(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Svc.DeleteMap(c.Request().Context(), id, ownerID); err != nil {
		return serviceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
