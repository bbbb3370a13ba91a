package controllers

import (
	"archifigureapi/services"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
)

type UploadController struct {
	ImageHost services.ImageHostProvider
}

func (controller *UploadController) UploadRoutes(g *echo.Group) {
	g.POST("/upload-image", controller.UploadImage)
}

func (controller *UploadController) UploadImage(c echo.Context) error {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "No image file provided"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Printf("[Upload] Error opening upload %s: %v", fileHeader.Filename, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to upload image"})
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		log.Printf("[Upload] Error reading upload %s: %v", fileHeader.Filename, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to upload image"})
	}

	out, err := controller.ImageHost.Upload(c.Request().Context(), fileHeader.Filename, content)
	if errors.Is(err, services.ErrImageHostRejected) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to upload image to imgbb"})
	}
	if err != nil {
		log.Printf("[Upload] Error uploading image: %v", err)
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to upload image"})
	}
	return c.JSON(http.StatusOK, out)
}
