package middlewares

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Srikanthmvtsc/doc-queue-plus/internal/common/response"
	"github.com/Srikanthmvtsc/doc-queue-plus/pkg/utils"
)

// ContextKeyClaims is the echo context key holding *utils.Claims.
const ContextKeyClaims = "claims"

// JWTMiddleware rejects requests without a valid Bearer token and stores the
// token claims on the echo context.
func JWTMiddleware(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return response.JSON(c, http.StatusUnauthorized, "Authorization header missing", nil)
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
				return response.JSON(c, http.StatusUnauthorized, "Invalid authorization header", nil)
			}

			claims, err := utils.ValidateJWTToken(secret, parts[1])
			if err != nil {
				return response.JSON(c, http.StatusUnauthorized, "Invalid token: "+err.Error(), nil)
			}

			c.Set(ContextKeyClaims, claims)
			return next(c)
		}
	}
}

// ClaimsFrom returns the claims stored by JWTMiddleware, if any.
func ClaimsFrom(c echo.Context) (*utils.Claims, bool) {
	claims, ok := c.Get(ContextKeyClaims).(*utils.Claims)
	return claims, ok
}
