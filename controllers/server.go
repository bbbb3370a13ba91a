package controllers

import (
	"archifigureapi/services"
	"log"
	"net/http"

	"github.com/go-playground/validator"
	echojwt "github.com/labstack/echo-jwt"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func SetupServer(
	db *gorm.DB,
	replicate services.ReplicateServiceProvider,
	imageHost services.ImageHostProvider,
	autoSave services.AutoSaveDispatcher,
	cfg services.Config,
) *echo.Echo {

	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("__db", db)
			return next(c)
		}
	})

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	e.GET("/healthcheck", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	apiGroup := e.Group("/api")

	predictionController := PredictionController{
		Replicate:  replicate,
		AutoSave:   autoSave,
		Deployment: cfg.ModelDeployment,
	}
	predictionController.PredictionRoutes(apiGroup)

	generationController := GenerationController{
		Replicate:           replicate,
		ImageModel:          cfg.ImageModel,
		Deployment:          cfg.ModelDeployment,
		LiveModelGeneration: cfg.LiveModelGeneration,
	}
	generationController.GenerationRoutes(apiGroup)

	uploadController := UploadController{ImageHost: imageHost}
	uploadController.UploadRoutes(apiGroup)

	authController := AuthController{Password: cfg.AppPassword, JWTSecret: cfg.JWTSecret, TokenTTL: cfg.TokenTTL}
	authController.AuthRoutes(apiGroup.Group("/auth"))

	var projectsGroup *echo.Group
	if cfg.JWTSecret == "" {
		log.Println("[Server] JWT_SECRET is not set, /api/projects is disabled")
		projectsGroup = apiGroup.Group("/projects", ClosedMiddleware)
	} else {
		projectsGroup = apiGroup.Group("/projects", echojwt.JWT([]byte(cfg.JWTSecret)), OwnerMiddleware)
	}
	projectController := ProjectController{Store: services.NewProjectStore(db)}
	projectController.ProjectRoutes(projectsGroup)

	return e
}
