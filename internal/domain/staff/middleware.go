package staff

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/odonto/clinic/internal/platform/auth"
)

// RoleResolver looks up roles for an identity subject.
type RoleResolver interface {
	RolesFor(ctx context.Context, subject string) []string
}

// ResolveRoles fills in the request's roles from the staff directory when
// the token carried none. Runs after JWT verification and before the route
// authorizer.
func ResolveRoles(resolver RoleResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			if len(auth.RolesFromContext(ctx)) > 0 {
				return next(c)
			}
			subject := auth.UserIDFromContext(ctx)
			if subject == "" {
				return next(c)
			}
			roles := resolver.RolesFor(ctx, subject)
			if len(roles) == 0 {
				return next(c)
			}
			ctx = context.WithValue(ctx, auth.UserRolesKey, roles)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
