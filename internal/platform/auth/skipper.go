package auth

import (
	"github.com/labstack/echo/v4"
)

// publicRoutes lists routes reachable without a token, keyed by
// "METHOD path" using the registered route path. Registration and the
// lookup lists it needs are open so a new patient can sign up.
var publicRoutes = map[string]bool{
	"GET /health":                   true,
	"GET /health/db":                true,
	"POST /api/login":               true,
	"POST /api/patient/register":    true,
	"GET /api/countries":            true,
	"GET /api/blood_groups":         true,
	"GET /api/departments":          true,
	"GET /api/doctors/with-timings": true,
}

// AuthSkipper returns true for requests whose route should skip
// authentication.
func AuthSkipper(c echo.Context) bool {
	return IsPublicRoute(c.Request().Method, c.Path())
}

// IsPublicRoute reports whether method and route path are open.
func IsPublicRoute(method, path string) bool {
	return publicRoutes[method+" "+path]
}
