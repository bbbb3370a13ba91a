package controllers

import (
	"log"
	"net/http"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

// OwnerMiddleware requires a token issued by the login endpoint.
func OwnerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		userRaw := c.Get("user")
		if userRaw == nil {
			return echo.ErrUnauthorized
		}
		user, ok := userRaw.(*jwt.Token)
		if !ok {
			return echo.ErrUnauthorized
		}
		claims, ok := user.Claims.(jwt.MapClaims)
		if !ok {
			return echo.ErrUnauthorized
		}
		subject, _ := claims["sub"].(string)
		if subject == "" {
			log.Println("Error while getting the token information!")
			return echo.ErrUnauthorized
		}
		c.Set("currentUser", subject)
		return next(c)
	}
}

// ClosedMiddleware rejects every request. It guards token routes when no signing
// secret is configured, so no token can be valid.
func ClosedMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "Login is not configured"})
	}
}
