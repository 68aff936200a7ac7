package middlewares

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Srikanthmvtsc/doc-queue-plus/internal/common/response"
)

// RequireRole lets the request through only when the JWT role is one of
// roles. It must run after JWTMiddleware.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := ClaimsFrom(c)
			if !ok {
				return response.JSON(c, http.StatusUnauthorized, "Missing or invalid JWT claims", nil)
			}
			if !allowed[claims.Role] {
				return response.JSON(c, http.StatusForbidden, "You do not have access to this resource", nil)
			}
			return next(c)
		}
	}
}
