package services_test

import (
	"context"
	"errors"
	"testing"

	"archifigureapi/models"
	"archifigureapi/services"
	"archifigureapi/test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoroutineDispatcherSwallowsErrors(t *testing.T) {
	storer := &test.StorerMock{Err: errors.New("db down")}
	dispatcher := &services.GoroutineDispatcher{Storer: storer}

	dispatcher.Dispatch([]models.Prediction{test.MakePrediction("s1", "succeeded", "https://img/a.png", "https://cdn/a.glb", "2025-01-01T10:00:00Z")})
	dispatcher.Wait()

	assert.Equal(t, 1, storer.Calls())
}

func TestGoroutineDispatcherRecoversPanics(t *testing.T) {
	storer := &test.StorerMock{Panic: true}
	dispatcher := &services.GoroutineDispatcher{Storer: storer}

	assert.NotPanics(t, func() {
		dispatcher.Dispatch(nil)
		dispatcher.Wait()
	})
	assert.Equal(t, 1, storer.Calls())
}

func TestSweepCompletedPredictions(t *testing.T) {
	replicate := &test.ReplicateMock{Predictions: []models.Prediction{
		test.MakePrediction("s1", "succeeded", "https://img/a.png", "https://cdn/a.glb", "2025-01-01T10:00:00Z"),
		test.MakePrediction("x1", "canceled", "https://img/a.png", "https://cdn/a.glb", "2025-01-01T10:00:00Z"),
	}}
	storer := &test.StorerMock{Saved: 1}

	saved, err := services.SweepCompletedPredictions(context.Background(), replicate, "dep", storer)
	require.NoError(t, err)
	assert.Equal(t, 1, saved)
	require.Len(t, storer.Received, 1)
	assert.Len(t, storer.Received[0], 1)
	assert.Equal(t, []string{"dep"}, replicate.ListCalls)
}

func TestSweepCompletedPredictionsListError(t *testing.T) {
	replicate := &test.ReplicateMock{ListErr: errors.New("timeout")}
	storer := &test.StorerMock{}

	_, err := services.SweepCompletedPredictions(context.Background(), replicate, "dep", storer)
	assert.Error(t, err)
	assert.Equal(t, 0, storer.Calls())
}

func TestStoreCompletedPredictionsSavesOnce(t *testing.T) {
	db := test.SetupTestDBOrSkip(t)
	notifier := &test.NotifierMock{}
	autoSave := &services.AutoSaveService{
		Store:       services.NewProjectStore(db),
		ProjectName: "Auto-saved",
		Notifier:    notifier,
	}
	predictions := []models.Prediction{
		test.MakePrediction("s1", "succeeded", "https://img/a.png", "https://cdn/a.glb", "2025-01-01T10:00:00Z"),
		test.MakePrediction("p1", "processing", "https://img/b.png", "", "2025-01-01T11:00:00Z"),
	}
	ctx := context.Background()

	saved, err := autoSave.StoreCompletedPredictions(ctx, predictions)
	require.NoError(t, err)
	assert.Equal(t, 1, saved)

	saved, err = autoSave.StoreCompletedPredictions(ctx, predictions)
	require.NoError(t, err)
	assert.Equal(t, 0, saved)

	var stored []models.ProjectModel
	require.NoError(t, db.Find(&stored).Error)
	require.Len(t, stored, 1)
	assert.Equal(t, "https://cdn/a.glb", stored[0].ModelURL)
	assert.Equal(t, "https://img/a.png", stored[0].ThumbnailURL)
	assert.Equal(t, 256, stored[0].Resolution)
	assert.Len(t, notifier.Models, 1)
}
