package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"archifigureapi/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReplicate(t *testing.T, handler http.HandlerFunc) *ReplicateService {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	rs := NewReplicateService("secret", server.URL)
	rs.PollInterval = time.Millisecond
	rs.MaxWait = time.Second
	return rs
}

func TestListDeploymentPredictions(t *testing.T) {
	rs := newTestReplicate(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Token secret", r.Header.Get("Authorization"))
		assert.Equal(t, "/v1/predictions", r.URL.Path)
		assert.Equal(t, "cygnus-holding/hunyuan3d-2", r.URL.Query().Get("deployment"))
		assert.Equal(t, "no-cache", r.Header.Get("Cache-Control"))
		w.Write([]byte(`{"results":[{"id":"a","status":"processing","input":{"image":"https://img/a.png"},"created_at":"2025-01-01T10:00:00Z"},"garbage"]}`))
	})

	predictions, err := rs.ListDeploymentPredictions(context.Background(), "cygnus-holding/hunyuan3d-2")
	require.NoError(t, err)
	require.Len(t, predictions, 1)
	assert.Equal(t, "a", predictions[0].ID)
	assert.Equal(t, "https://img/a.png", predictions[0].Input.Image)
}

func TestListDeploymentPredictionsProviderError(t *testing.T) {
	rs := newTestReplicate(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Invalid token"}`))
	})

	_, err := rs.ListDeploymentPredictions(context.Background(), "d")
	var apiErr *ReplicateAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestListDeploymentPredictionsOddlyTypedInput(t *testing.T) {
	record := `{"id":"b","status":"succeeded","input":{"image":"https://img/b.png","octree_resolution":256.0,"seed":"42","steps":"many"},"output":{"mesh":"https://cdn/b.glb"},"created_at":"2025-01-01T10:00:00Z"}`
	rs := newTestReplicate(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[` + record + `]}`))
	})

	predictions, err := rs.ListDeploymentPredictions(context.Background(), "d")
	require.NoError(t, err)
	require.Len(t, predictions, 1)
	p := predictions[0]
	assert.Equal(t, "https://img/b.png", p.Input.Image)
	require.NotNil(t, p.Input.OctreeResolution)
	assert.Equal(t, 256, *p.Input.OctreeResolution)
	require.NotNil(t, p.Input.Seed)
	assert.Equal(t, 42, *p.Input.Seed)
	assert.Nil(t, p.Input.Steps)
	assert.True(t, IsDisplayable(p))

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, record, string(out))
}

func TestGetPredictionReturnsProviderBody(t *testing.T) {
	body := `{"id":"abc","status":"succeeded","output":{"mesh":"https://cdn/a.glb"},"extra":1}`
	rs := newTestReplicate(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/predictions/abc", r.URL.Path)
		w.Write([]byte(body))
	})

	raw, err := rs.GetPrediction(context.Background(), "abc")
	require.NoError(t, err)
	assert.JSONEq(t, body, string(raw))
}

func TestRunModelPollsUntilDone(t *testing.T) {
	var polls int32
	rs := newTestReplicate(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost:
			assert.Equal(t, "/v1/models/google/imagen-3/predictions", r.URL.Path)
			assert.Equal(t, "wait", r.Header.Get("Prefer"))
			payload, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"input":{"prompt":"a tower"}}`, string(payload))
			w.Write([]byte(`{"id":"img1","status":"starting"}`))
		default:
			if atomic.AddInt32(&polls, 1) < 2 {
				w.Write([]byte(`{"id":"img1","status":"processing"}`))
				return
			}
			w.Write([]byte(`{"id":"img1","status":"succeeded","output":"https://img/out.png"}`))
		}
	})

	out, err := rs.RunModel(context.Background(), "google/imagen-3", map[string]any{"prompt": "a tower"})
	require.NoError(t, err)
	assert.JSONEq(t, `"https://img/out.png"`, string(out))
	assert.Equal(t, int32(2), atomic.LoadInt32(&polls))
}

func TestRunModelFailedPrediction(t *testing.T) {
	rs := newTestReplicate(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"img1","status":"failed","error":"NSFW"}`))
	})

	_, err := rs.RunModel(context.Background(), "google/imagen-3", map[string]any{"prompt": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NSFW")
}

func TestCreateDeploymentPrediction(t *testing.T) {
	rs := newTestReplicate(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/deployments/cygnus-holding/hunyuan3d-2/predictions", r.URL.Path)
		var payload struct {
			Input map[string]any `json:"input"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "https://img/a.png", payload.Input["image"])
		assert.EqualValues(t, 256, payload.Input["octree_resolution"])
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"p1","status":"starting","input":{"image":"https://img/a.png"},"created_at":"2025-01-01T10:00:00Z"}`))
	})

	resolution := 256
	p, err := rs.CreateDeploymentPrediction(context.Background(), "cygnus-holding/hunyuan3d-2", models.PredictionInput{
		Image:            "https://img/a.png",
		OctreeResolution: &resolution,
	})
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, models.PredictionStatusStarting, p.Status)
}
