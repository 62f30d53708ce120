package handler // handler defines http handlers

import (
	"errors"   // errors provides sentinel values used in getUserID and error mapping
	"net/http" // http provides status code constants
	"strconv"  // strconv parses string identifiers to numeric types

	"github.com/go-playground/validator/v10" // validator enforces request DTO schemas
	"github.com/labstack/echo/v4"            // echo defines request context types

	"github.com/ergomap/risk-map/internal/service" // service defines the error taxonomy
)

// RequestValidator adapts go-playground/validator to Echo's Validator
// interface so every bound request DTO is schema-checked before it
// reaches service logic.  Malformed requests never make it past the
// transport boundary.
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator builds the validator used for all request DTOs.
func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New()}
}

// Validate implements echo.Validator.  Failures become 400 responses.
func (rv *RequestValidator) Validate(i any) error {
	if err := rv.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// getUserID extracts the user_id from echo.Context and converts it to uint64.
// The JWT middleware stores the subject claim under this key.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64: // JWT numeric claims decode as float64
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses the named path parameter as an unsigned id.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// serviceError maps the service error taxonomy to an HTTP response.
// Messages pass through unchanged so the UI can tell the user which
// phase of a composite flow failed.
func serviceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, service.ErrGenerationFormat):
		return c.JSON(http.StatusBadGateway, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrPersistenceUnavailable),
		errors.Is(err, service.ErrPersistenceContract):
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "storage failure"})
	default:
		return c.JSON(http.StatusBadGateway, echo.Map{"error": err.Error()})
	}
}
