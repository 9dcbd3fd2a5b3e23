package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// roleMiddleware lets the request through when the token's role is one of roles.
// No roles means any authenticated user.
func roleMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if len(roles) == 0 {
				return next(ctx)
			}
			for _, role := range roles {
				if claims.Role == role {
					return next(ctx)
				}
			}
			return errHttpForbidden
		}
	}
}

// withRoles appends the role guard to the auth middlewares.
func withRoles(auth []echo.MiddlewareFunc, roles ...string) []echo.MiddlewareFunc {
	mws := make([]echo.MiddlewareFunc, 0, len(auth)+1)
	mws = append(mws, auth...)
	return append(mws, roleMiddleware(roles...))
}
