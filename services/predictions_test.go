package services_test

import (
	"encoding/json"
	"testing"

	"archifigureapi/models"
	"archifigureapi/services"
	"archifigureapi/test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(predictions []models.Prediction) []string {
	out := []string{}
	for _, p := range predictions {
		out = append(out, p.ID)
	}
	return out
}

func TestIsWellFormedURL(t *testing.T) {
	assert.True(t, services.IsWellFormedURL("https://replicate.delivery/a/mesh.glb"))
	assert.True(t, services.IsWellFormedURL("data:model/gltf-binary;base64,AAAA"))
	assert.False(t, services.IsWellFormedURL("not a url"))
	assert.False(t, services.IsWellFormedURL("/relative/mesh.glb"))
	assert.False(t, services.IsWellFormedURL(""))
}

func TestFilterPredictionsExcludesCanceled(t *testing.T) {
	p := test.MakePrediction("c1", "canceled", "https://img/a.png", "https://cdn/a.glb", "2025-01-02T10:00:00Z")
	assert.Empty(t, services.FilterPredictions([]models.Prediction{p}))
}

func TestFilterPredictionsExcludesMalformedMesh(t *testing.T) {
	p := test.MakePrediction("s1", "succeeded", "https://img/a.png", "not a url", "2025-01-02T10:00:00Z")
	assert.Empty(t, services.FilterPredictions([]models.Prediction{p}))
}

func TestFilterPredictionsActiveFirst(t *testing.T) {
	processing := test.MakePrediction("p1", "processing", "https://img/a.png", "", "2025-01-01T10:00:00Z")
	succeeded := test.MakePrediction("s1", "succeeded", "https://img/b.png", "https://cdn/b.glb", "2025-01-02T10:00:00Z")

	filtered := services.FilterPredictions([]models.Prediction{succeeded, processing})
	assert.Equal(t, []string{"p1", "s1"}, ids(filtered))
}

func TestFilterPredictionsNewestFirst(t *testing.T) {
	older := test.MakePrediction("old", "succeeded", "https://img/a.png", "https://cdn/a.glb", "2025-01-01T10:00:00Z")
	newer := test.MakePrediction("new", "succeeded", "https://img/b.png", "https://cdn/b.glb", "2025-01-02T10:00:00Z")

	filtered := services.FilterPredictions([]models.Prediction{older, newer})
	assert.Equal(t, []string{"new", "old"}, ids(filtered))
}

func TestFilterPredictionsStableForEqualKeys(t *testing.T) {
	a := test.MakePrediction("a", "starting", "https://img/a.png", "", "2025-01-01T10:00:00Z")
	b := test.MakePrediction("b", "processing", "https://img/b.png", "", "2025-01-01T10:00:00Z")

	filtered := services.FilterPredictions([]models.Prediction{a, b})
	assert.Equal(t, []string{"a", "b"}, ids(filtered))
}

func TestFilterPredictionsDropsIncompleteAndFailed(t *testing.T) {
	var withError models.Prediction
	require.NoError(t, json.Unmarshal([]byte(`{"id":"e1","status":"processing","input":{"image":"https://img/a.png"},"error":"boom","created_at":"2025-01-01T10:00:00Z"}`), &withError))

	noImage := test.MakePrediction("n1", "succeeded", "", "https://cdn/a.glb", "2025-01-01T10:00:00Z")
	failed := test.MakePrediction("f1", "failed", "https://img/a.png", "", "2025-01-01T10:00:00Z")
	unknown := test.MakePrediction("u1", "queued", "https://img/a.png", "", "2025-01-01T10:00:00Z")
	noID := test.MakePrediction("", "processing", "https://img/a.png", "", "2025-01-01T10:00:00Z")

	filtered := services.FilterPredictions([]models.Prediction{withError, noImage, failed, unknown, noID})
	assert.Empty(t, filtered)
	assert.NotNil(t, filtered)
}

func TestFilterPredictionsKeepsProviderFields(t *testing.T) {
	raw := `{"id":"s1","status":"succeeded","input":{"image":"https://img/a.png"},"output":{"mesh":"https://cdn/a.glb"},"created_at":"2025-01-01T10:00:00Z","logs":"step 1","version":"abc"}`
	var p models.Prediction
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	filtered := services.FilterPredictions([]models.Prediction{p})
	require.Len(t, filtered, 1)
	out, err := json.Marshal(filtered)
	require.NoError(t, err)
	assert.JSONEq(t, "["+raw+"]", string(out))
}

func TestCompletedWithMesh(t *testing.T) {
	done := test.MakePrediction("s1", "succeeded", "https://img/a.png", "https://cdn/a.glb", "2025-01-01T10:00:00Z")
	noMesh := test.MakePrediction("s2", "succeeded", "https://img/a.png", "", "2025-01-01T10:00:00Z")
	running := test.MakePrediction("p1", "processing", "https://img/a.png", "", "2025-01-01T10:00:00Z")

	assert.Equal(t, []string{"s1"}, ids(services.CompletedWithMesh([]models.Prediction{done, noMesh, running})))
}
