package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/ergomap/risk-map/internal/handler"    // import the handlers that implement business logic
	"github.com/ergomap/risk-map/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and their
// middleware.  Unauthenticated operations live under /v1/auth, while the
// authenticated /v1/me endpoint is added to the protected group.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	// Create a route group under the /v1/auth prefix for operations that do
	// not require an existing session (register, login, refresh).  Each of
	// these handlers is responsible for generating or exchanging tokens.
	g := e.Group("/v1/auth")
	// Register a POST endpoint to handle user registration at /v1/auth/register.
	g.POST("/register", a.Register)
	// Register a POST endpoint to handle user login at /v1/auth/login.
	g.POST("/login", a.Login)
	// Register a POST endpoint to refresh access tokens at /v1/auth/refresh. This rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	// Register a POST endpoint to issue a new access token without rotating the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Register a POST endpoint to log out.  Logout does not require JWT
	// authentication: the handler accepts a JSON body containing a
	// `refresh_token` (or a bearer access token) and invalidates the session.
	g.POST("/logout", a.Logout)

	// Create another group for routes that require a valid access token.  All
	// handlers registered on this group execute the JWTAuth middleware before
	// being invoked.
	auth := e.Group("/v1")
	// Apply the JWTAuth middleware to the protected group using the provided secret.
	auth.Use(middleware.JWTAuth(jwtSecret))
	// Every authenticated account carries the USER role; the middleware
	// rejects tokens with a missing or unknown role claim.
	auth.Use(middleware.RequireRole(handler.RoleUser))
	// Register a GET endpoint at /v1/me that returns the authenticated user's information.
	auth.GET("/me", a.Me)

	// Additionally map POST /v1/logout to the same handler so clients can call
	// either /v1/auth/logout or /v1/logout to terminate a session.
	e.POST("/v1/logout", a.Logout)
}

// RegisterMaps registers all risk-map and risk endpoints.  Every route here
// requires a valid access token; ownership of the referenced map or risk is
// enforced inside the service layer, so a foreign id behaves exactly like a
// missing one.  The optional extra middleware (rate limiting, response cache)
// is applied to the whole group.
func RegisterMaps(e *echo.Echo, m *handler.MapHandler, r *handler.RiskHandler, ai *handler.AIHandler, jwtSecret string, extra ...echo.MiddlewareFunc) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(handler.RoleUser))
	for _, mw := range extra {
		g.Use(mw)
	}

	// Risk-map CRUD.
	g.POST("/maps", m.CreateMap)
	g.GET("/maps", m.ListMaps)
	g.GET("/maps/:id", m.GetMap)
	g.DELETE("/maps/:id", m.DeleteMap)

	// One-shot generation: description in, persisted map plus placed risks out.
	g.POST("/maps/generate", ai.Generate)

	// Risks are created under their map and addressed by their own id afterwards.
	g.POST("/maps/:id/risks", r.AddRisk)
	g.PATCH("/risks/:id/position", r.UpdatePosition)
	g.PATCH("/risks/:id", r.UpdateRisk)
	g.DELETE("/risks/:id", r.DeleteRisk)

	// Stateless generation endpoints: same model calls as /maps/generate but
	// nothing is persisted, useful for previewing before committing.
	g.POST("/ai/diagram", ai.GenerateDiagram)
	g.POST("/ai/hazards", ai.IdentifyHazards)
}
