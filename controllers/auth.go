package controllers

import (
	"archifigureapi/models"
	"crypto/subtle"
	"log"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
)

const ownerSubject = "owner"

// AuthController exchanges the shared app password for a bearer token.
type AuthController struct {
	Password  string
	JWTSecret string
	TokenTTL  time.Duration
}

func (controller *AuthController) AuthRoutes(g *echo.Group) {
	g.POST("/login", controller.Login)
}

func (controller *AuthController) Login(c echo.Context) error {
	if controller.Password == "" || controller.JWTSecret == "" {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "Login is not configured"})
	}

	var in models.LoginIn
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request"})
	}
	if err := c.Validate(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Password is required"})
	}

	if subtle.ConstantTimeCompare([]byte(in.Password), []byte(controller.Password)) != 1 {
		log.Printf("[Auth] Failed login from %s", c.RealIP())
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid password"})
	}

	ttl := controller.TokenTTL
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	token, err := GenerateUserToken(ownerSubject, controller.JWTSecret, ttl)
	if err != nil {
		log.Printf("[Auth] Error when signing token: %v", err)
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to sign in"})
	}
	return c.JSON(http.StatusOK, models.LoginOut{AccessToken: token})
}
