package controllers

import (
	"archifigureapi/models"
	"archifigureapi/services"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
)

const (
	defaultOctreeResolution = 256
	defaultSteps            = 50
	defaultGuidanceScale    = 5.5
	seedRange               = 10000
)

type GenerationController struct {
	Replicate           services.ReplicateServiceProvider
	ImageModel          string
	Deployment          string
	LiveModelGeneration bool
}

func (controller *GenerationController) GenerationRoutes(g *echo.Group) {
	g.POST("/generate-image", controller.GenerateImage)
	g.POST("/generate-model", controller.GenerateModel)
}

func (controller *GenerationController) GenerateImage(c echo.Context) error {
	var in models.GenerateImageIn
	if err := c.Bind(&in); err != nil {
		log.Printf("[GenerateImage] Error reading request: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":   "Failed to generate prediction",
			"details": err.Error(),
		})
	}
	if in.Input == nil || !truthy(in.Input["prompt"]) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Input prompt is required"})
	}

	output, err := controller.Replicate.RunModel(c.Request().Context(), controller.ImageModel, in.Input)
	if err != nil {
		log.Printf("[GenerateImage] Error generating prediction: %v", err)
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":   "Failed to generate prediction",
			"details": err.Error(),
		})
	}
	return c.JSONBlob(http.StatusOK, output)
}

// modelInput fills unset or zero parameters with generation defaults.
func modelInput(in models.GenerateModelIn) models.PredictionInput {
	input := models.PredictionInput{
		Image:            in.Image,
		OctreeResolution: in.OctreeResolution,
		Steps:            in.Steps,
		GuidanceScale:    in.GuidanceScale,
		Seed:             in.Seed,
		RemoveBackground: in.RemoveBackground,
	}
	if input.OctreeResolution == nil || *input.OctreeResolution == 0 {
		input.OctreeResolution = IntPointer(defaultOctreeResolution)
	}
	if input.Steps == nil || *input.Steps == 0 {
		input.Steps = IntPointer(defaultSteps)
	}
	if input.GuidanceScale == nil || *input.GuidanceScale == 0 {
		input.GuidanceScale = Float64Pointer(defaultGuidanceScale)
	}
	if input.Seed == nil || *input.Seed == 0 {
		input.Seed = IntPointer(rand.Intn(seedRange))
	}
	if input.RemoveBackground == nil {
		input.RemoveBackground = BoolPointer(true)
	}
	return input
}

func (controller *GenerationController) GenerateModel(c echo.Context) error {
	var in models.GenerateModelIn
	if err := c.Bind(&in); err != nil {
		log.Printf("[GenerateModel] Error reading request: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to start generation"})
	}
	if in.Image == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Image URL is required"})
	}
	input := modelInput(in)

	if controller.LiveModelGeneration {
		prediction, err := controller.Replicate.CreateDeploymentPrediction(c.Request().Context(), controller.Deployment, input)
		if err != nil {
			log.Printf("[GenerateModel] Error starting generation: %v", err)
			sentry.CaptureException(err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to start generation"})
		}
		return c.JSON(http.StatusOK, prediction)
	}

	now := time.Now()
	return c.JSON(http.StatusOK, models.Prediction{
		ID:        fmt.Sprintf("pred-%d", now.UnixMilli()),
		Status:    models.PredictionStatusProcessing,
		Input:     input,
		CreatedAt: now.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
}
