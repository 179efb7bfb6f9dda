package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// RequireStaff rejects patient tokens.
func RequireStaff() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller, ok := CallerFromContext(c.Request().Context())
			if !ok || !IsStaff(caller) {
				return echo.NewHTTPError(http.StatusForbidden, "staff access required")
			}
			return next(c)
		}
	}
}

// RequireRole allows staff holding at least one of the given roles. Admins
// pass every role check.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller, ok := CallerFromContext(c.Request().Context())
			if ok {
				for _, role := range roles {
					if HasRole(caller, role) {
						return next(c)
					}
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}
