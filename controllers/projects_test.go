package controllers

import (
	"archifigureapi/models"
	"archifigureapi/test"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndListProjects(t *testing.T) {
	db := test.SetupTestDBOrSkip(t)
	s := newTestServer(db, testConfig())

	rec := test.Do(s.e, test.NewJSONAuthRequest(http.MethodPost, "/api/projects", testSecret, models.ProjectCreateIn{Name: "Harbor Towers"}))
	require.Equal(t, http.StatusOK, rec.Code)
	var first models.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	assert.NotEmpty(t, first.ID)

	rec = test.Do(s.e, test.NewJSONAuthRequest(http.MethodPost, "/api/projects", testSecret, models.ProjectCreateIn{Name: "harbor towers"}))
	var second models.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.Equal(t, first.ID, second.ID)

	rec = test.Do(s.e, test.NewJSONAuthRequest(http.MethodGet, "/api/projects", testSecret, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var projects []models.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &projects))
	require.Len(t, projects, 1)
	assert.Equal(t, "Harbor Towers", projects[0].Name)
}

func TestCreateProjectValidation(t *testing.T) {
	db := test.SetupTestDBOrSkip(t)
	s := newTestServer(db, testConfig())

	rec := test.Do(s.e, test.NewJSONAuthRequest(http.MethodPost, "/api/projects", testSecret, models.ProjectCreateIn{Name: ""}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = test.Do(s.e, test.NewJSONAuthRequest(http.MethodPost, "/api/projects", testSecret, models.ProjectCreateIn{Name: "   "}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSaveAndListProjectModels(t *testing.T) {
	db := test.SetupTestDBOrSkip(t)
	s := newTestServer(db, testConfig())

	rec := test.Do(s.e, test.NewJSONAuthRequest(http.MethodPost, "/api/projects", testSecret, models.ProjectCreateIn{Name: "Gallery"}))
	var project models.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &project))

	target := "/api/projects/" + project.ID + "/models"
	rec = test.Do(s.e, test.NewJSONAuthRequest(http.MethodPost, target, testSecret, models.SaveModelIn{
		ModelURL:     "https://cdn/a.glb",
		ThumbnailURL: "https://img/a.png",
		InputImage:   "https://img/a.png",
		Resolution:   256,
	}))
	require.Equal(t, http.StatusOK, rec.Code)
	var saved models.SaveModelOut
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	assert.True(t, saved.Success)
	require.NotNil(t, saved.Model)
	require.NotNil(t, saved.Model.Name)
	assert.Contains(t, *saved.Model.Name, "Model-")

	rec = test.Do(s.e, test.NewJSONAuthRequest(http.MethodGet, target, testSecret, nil))
	var listed []models.ProjectModel
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "https://cdn/a.glb", listed[0].ModelURL)
}

func TestSaveModelUnknownProjectReportsFailure(t *testing.T) {
	db := test.SetupTestDBOrSkip(t)
	s := newTestServer(db, testConfig())

	rec := test.Do(s.e, test.NewJSONAuthRequest(http.MethodPost, "/api/projects/"+uuid.NewString()+"/models", testSecret, models.SaveModelIn{
		ModelURL: "https://cdn/a.glb",
	}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":false}`, rec.Body.String())
}

func TestProjectModelsInvalidID(t *testing.T) {
	s := newTestServer(nil, testConfig())

	rec := test.Do(s.e, test.NewJSONAuthRequest(http.MethodGet, "/api/projects/not-a-uuid/models", testSecret, nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
