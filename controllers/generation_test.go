package controllers

import (
	"archifigureapi/models"
	"archifigureapi/test"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateImageRequiresPrompt(t *testing.T) {
	s := newTestServer(nil, testConfig())

	for _, body := range []string{`{}`, `{"input":{}}`, `{"input":{"prompt":""}}`} {
		rec := test.Do(s.e, test.NewJSONRequestRaw(http.MethodPost, "/api/generate-image", body))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.JSONEq(t, `{"error":"Input prompt is required"}`, rec.Body.String())
	}
	assert.Equal(t, 0, s.replicate.TotalCalls())
}

func TestGenerateImageForwardsInput(t *testing.T) {
	s := newTestServer(nil, testConfig())
	s.replicate.Output = json.RawMessage(`"https://replicate.delivery/out.png"`)

	rec := test.Do(s.e, test.NewJSONRequestRaw(http.MethodPost, "/api/generate-image", `{"input":{"prompt":"brutalist tower","aspect_ratio":"1:1"}}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `"https://replicate.delivery/out.png"`, rec.Body.String())
	require.Len(t, s.replicate.RunCalls, 1)
	assert.Equal(t, "google/imagen-3", s.replicate.RunCalls[0].Model)
	assert.Equal(t, "brutalist tower", s.replicate.RunCalls[0].Input["prompt"])
	assert.Equal(t, "1:1", s.replicate.RunCalls[0].Input["aspect_ratio"])
}

func TestGenerateImageProviderError(t *testing.T) {
	s := newTestServer(nil, testConfig())
	s.replicate.RunErr = errors.New("quota exceeded")

	rec := test.Do(s.e, test.NewJSONRequestRaw(http.MethodPost, "/api/generate-image", `{"input":{"prompt":"x"}}`))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to generate prediction","details":"quota exceeded"}`, rec.Body.String())
}

func TestGenerateModelRequiresImage(t *testing.T) {
	s := newTestServer(nil, testConfig())

	rec := test.Do(s.e, test.NewJSONRequestRaw(http.MethodPost, "/api/generate-model", `{"steps":30}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Image URL is required"}`, rec.Body.String())
}

func TestGenerateModelPlaceholderDefaults(t *testing.T) {
	s := newTestServer(nil, testConfig())

	rec := test.Do(s.e, test.NewJSONRequestRaw(http.MethodPost, "/api/generate-model", `{"image":"x.png"}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	var p models.Prediction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.True(t, strings.HasPrefix(p.ID, "pred-"))
	assert.Equal(t, "processing", p.Status)
	assert.Equal(t, "x.png", p.Input.Image)
	require.NotNil(t, p.Input.OctreeResolution)
	assert.Equal(t, 256, *p.Input.OctreeResolution)
	require.NotNil(t, p.Input.Steps)
	assert.Equal(t, 50, *p.Input.Steps)
	require.NotNil(t, p.Input.GuidanceScale)
	assert.Equal(t, 5.5, *p.Input.GuidanceScale)
	require.NotNil(t, p.Input.Seed)
	assert.GreaterOrEqual(t, *p.Input.Seed, 0)
	assert.Less(t, *p.Input.Seed, 10000)
	require.NotNil(t, p.Input.RemoveBackground)
	assert.True(t, *p.Input.RemoveBackground)
	assert.False(t, p.CreatedTime().IsZero())
	assert.Equal(t, 0, s.replicate.TotalCalls())
}

func TestGenerateModelKeepsExplicitValues(t *testing.T) {
	s := newTestServer(nil, testConfig())

	rec := test.Do(s.e, test.NewJSONRequestRaw(http.MethodPost, "/api/generate-model",
		`{"image":"x.png","octree_resolution":512,"steps":0,"seed":42,"remove_background":false}`))

	var p models.Prediction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, 512, *p.Input.OctreeResolution)
	assert.Equal(t, 50, *p.Input.Steps)
	assert.Equal(t, 42, *p.Input.Seed)
	assert.False(t, *p.Input.RemoveBackground)
}

func TestGenerateModelLive(t *testing.T) {
	cfg := testConfig()
	cfg.LiveModelGeneration = true
	s := newTestServer(nil, cfg)
	s.replicate.Created = &models.Prediction{ID: "r8-abc", Status: "starting"}

	rec := test.Do(s.e, test.NewJSONRequestRaw(http.MethodPost, "/api/generate-model", `{"image":"https://img/a.png"}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, s.replicate.CreateCalls, 1)
	assert.Equal(t, "https://img/a.png", s.replicate.CreateCalls[0].Image)
	assert.Equal(t, 256, *s.replicate.CreateCalls[0].OctreeResolution)
	assert.Contains(t, rec.Body.String(), `"r8-abc"`)
}

func TestGenerateModelLiveError(t *testing.T) {
	cfg := testConfig()
	cfg.LiveModelGeneration = true
	s := newTestServer(nil, cfg)
	s.replicate.CreateErr = errors.New("deployment offline")

	rec := test.Do(s.e, test.NewJSONRequestRaw(http.MethodPost, "/api/generate-model", `{"image":"https://img/a.png"}`))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to start generation"}`, rec.Body.String())
}
