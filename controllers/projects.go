package controllers

import (
	"archifigureapi/models"
	"archifigureapi/services"
	"errors"
	"log"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ProjectController exposes the project store. Persistence failures never
// surface as errors: lists come back empty and writes report failure in the body.
type ProjectController struct {
	Store *services.ProjectStore
}

func (controller *ProjectController) ProjectRoutes(g *echo.Group) {
	g.GET("", controller.GetProjects)
	g.POST("", controller.CreateProject)
	g.GET("/:projectId/models", controller.GetProjectModels)
	g.POST("/:projectId/models", controller.SaveModel)
}

func (controller *ProjectController) GetProjects(c echo.Context) error {
	projects, err := controller.Store.GetProjects(c.Request().Context())
	if err != nil {
		log.Printf("[Projects] Error fetching projects: %v", err)
		sentry.CaptureException(err)
		return c.JSON(http.StatusOK, []models.Project{})
	}
	return c.JSON(http.StatusOK, projects)
}

func (controller *ProjectController) CreateProject(c echo.Context) error {
	var in models.ProjectCreateIn
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request"})
	}
	if err := c.Validate(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Project name is required"})
	}

	project, err := controller.Store.CreateProject(c.Request().Context(), in.Name)
	if errors.Is(err, services.ErrEmptyProjectName) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Project name is required"})
	}
	if err != nil {
		log.Printf("[Projects] Error creating project %q: %v", in.Name, err)
		sentry.CaptureException(err)
		return c.JSON(http.StatusOK, nil)
	}
	return c.JSON(http.StatusOK, project)
}

func projectIDParam(c echo.Context) (string, bool) {
	projectID := c.Param("projectId")
	if _, err := uuid.Parse(projectID); err != nil {
		return "", false
	}
	return projectID, true
}

func (controller *ProjectController) GetProjectModels(c echo.Context) error {
	projectID, ok := projectIDParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid project id"})
	}
	projectModels, err := controller.Store.ListProjectModels(c.Request().Context(), projectID)
	if err != nil {
		log.Printf("[Project: %s] Error fetching models: %v", projectID, err)
		sentry.CaptureException(err)
		return c.JSON(http.StatusOK, []models.ProjectModel{})
	}
	return c.JSON(http.StatusOK, projectModels)
}

func (controller *ProjectController) SaveModel(c echo.Context) error {
	projectID, ok := projectIDParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid project id"})
	}
	var in models.SaveModelIn
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request"})
	}
	if err := c.Validate(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	in.ProjectID = projectID

	model, err := controller.Store.SaveModelToProject(c.Request().Context(), in)
	if err != nil {
		log.Printf("[Project: %s] Error saving model: %v", projectID, err)
		sentry.CaptureException(err)
		return c.JSON(http.StatusOK, models.SaveModelOut{Success: false})
	}
	return c.JSON(http.StatusOK, models.SaveModelOut{Success: true, Model: model})
}
