package controllers

import (
	"archifigureapi/models"
	"archifigureapi/services"
	"log"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
)

type PredictionController struct {
	Replicate  services.ReplicateServiceProvider
	AutoSave   services.AutoSaveDispatcher
	Deployment string
}

func (controller *PredictionController) PredictionRoutes(g *echo.Group) {
	g.GET("/prediction", controller.ListPredictions)
	g.GET("/prediction/:id", controller.GetPrediction)
}

// ListPredictions fails open: callers always get 200 and an empty list when the
// provider is unreachable or answers with garbage.
func (controller *PredictionController) ListPredictions(c echo.Context) error {
	ctx := c.Request().Context()
	predictions, err := controller.Replicate.ListDeploymentPredictions(ctx, controller.Deployment)
	if err != nil {
		log.Printf("[Predictions] Error fetching predictions: %v", err)
		sentry.CaptureException(err)
		return c.JSON(http.StatusOK, []models.Prediction{})
	}

	filtered := services.FilterPredictions(predictions)
	if completed := services.CompletedWithMesh(filtered); len(completed) > 0 && controller.AutoSave != nil {
		controller.AutoSave.Dispatch(completed)
	}
	return c.JSON(http.StatusOK, filtered)
}

func (controller *PredictionController) GetPrediction(c echo.Context) error {
	predictionID := c.Param("id")
	if predictionID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Prediction ID is required"})
	}

	raw, err := controller.Replicate.GetPrediction(c.Request().Context(), predictionID)
	if err != nil {
		log.Printf("[Prediction: %s] Error fetching prediction: %v", predictionID, err)
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch prediction"})
	}
	return c.JSONBlob(http.StatusOK, raw)
}
