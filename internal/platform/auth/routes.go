package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Staff roles known to the authorizer.
const (
	RoleAdmin  = "admin"
	RoleDoctor = "doctor"
	RoleStaff  = "staff"
)

// FallbackRoute is where denied users are pointed to.
const FallbackRoute = "/api/v1/appointments"

// SignInRoute is the hint returned for unauthenticated requests.
const SignInRoute = "/auth/sign-in"

// roleRoutes lists the path subtrees each non-admin role may reach. A path is
// allowed on an exact match or when it sits under an entry's subtree.
var roleRoutes = map[string][]string{
	RoleDoctor: {
		"/api/v1/patients",
		"/api/v1/odontograms",
		"/api/v1/treatments",
		"/api/v1/promotions",
		"/api/v1/quotes",
		"/api/v1/billing",
		"/api/v1/consents",
		"/api/v1/appointments",
		"/api/v1/calendar",
		"/api/v1/notifications",
		"/api/v1/reports",
	},
	RoleStaff: {
		"/api/v1/patients",
		"/api/v1/treatments",
		"/api/v1/promotions",
		"/api/v1/quotes",
		"/api/v1/billing",
		"/api/v1/consents",
		"/api/v1/appointments",
		"/api/v1/calendar",
		"/api/v1/notifications",
	},
}

// Allowed reports whether any of the given roles may reach path. Admin is a
// universal allow checked before the tables.
func Allowed(roles []string, path string) bool {
	for _, role := range roles {
		if role == RoleAdmin {
			return true
		}
	}
	for _, role := range roles {
		for _, route := range roleRoutes[role] {
			if path == route || strings.HasPrefix(path, route+"/") {
				return true
			}
		}
	}
	return false
}

// Authorize enforces the per-role route tables on every request. It must run
// after the JWT middleware so role claims are on the request context.
func Authorize() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			roles := RolesFromContext(c.Request().Context())
			if len(roles) == 0 {
				return echo.NewHTTPError(http.StatusUnauthorized, map[string]string{
					"error":    "authentication required",
					"redirect": SignInRoute,
				})
			}
			if !Allowed(roles, c.Request().URL.Path) {
				return echo.NewHTTPError(http.StatusForbidden, map[string]string{
					"error":    "role not permitted for this route",
					"redirect": FallbackRoute,
				})
			}
			return next(c)
		}
	}
}
