package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"archifigureapi/models"

	"github.com/getsentry/sentry-go"
)

const defaultOctreeResolution = 256

type CompletedPredictionStorer interface {
	// StoreCompletedPredictions saves every succeeded prediction with a mesh that
	// has not been saved before and returns how many rows were written.
	StoreCompletedPredictions(ctx context.Context, predictions []models.Prediction) (int, error)
}

// AutoSaveDispatcher hands completed predictions to a background saver. Dispatch
// never blocks on the save and never reports its outcome to the caller.
type AutoSaveDispatcher interface {
	Dispatch(predictions []models.Prediction)
}

type Notifier interface {
	NotifyModelSaved(ctx context.Context, project *models.Project, model *models.ProjectModel) error
}

type AutoSaveService struct {
	Store       *ProjectStore
	ProjectName string
	// optional
	Notifier Notifier
}

func (s *AutoSaveService) StoreCompletedPredictions(ctx context.Context, predictions []models.Prediction) (int, error) {
	completed := CompletedWithMesh(predictions)
	if len(completed) == 0 {
		return 0, nil
	}
	project, err := s.Store.CreateProject(ctx, s.ProjectName)
	if err != nil {
		return 0, fmt.Errorf("auto-save project %q: %w", s.ProjectName, err)
	}

	saved := 0
	var errs []error
	for _, p := range completed {
		resolution := defaultOctreeResolution
		if p.Input.OctreeResolution != nil {
			resolution = *p.Input.OctreeResolution
		}
		predictionID := p.ID
		model, created, err := s.Store.SaveModelOnce(ctx, models.SaveModelIn{
			ProjectID:    project.ID,
			ModelURL:     p.MeshURL(),
			ThumbnailURL: p.Input.Image,
			InputImage:   p.Input.Image,
			Resolution:   resolution,
			PredictionID: &predictionID,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("[Prediction: %s] %w", p.ID, err))
			continue
		}
		if !created {
			continue
		}
		saved++
		log.Printf("[AutoSave] Stored prediction %s as model %s in project %s", p.ID, model.ID, project.Name)
		if s.Notifier != nil {
			if err := s.Notifier.NotifyModelSaved(ctx, project, model); err != nil {
				log.Printf("[AutoSave] Notification for model %s failed: %v", model.ID, err)
			}
		}
	}
	return saved, errors.Join(errs...)
}

// SweepCompletedPredictions fetches the deployment list and stores whatever
// finished since the last sweep.
func SweepCompletedPredictions(ctx context.Context, replicate ReplicateServiceProvider, deployment string, storer CompletedPredictionStorer) (int, error) {
	predictions, err := replicate.ListDeploymentPredictions(ctx, deployment)
	if err != nil {
		return 0, fmt.Errorf("list predictions for %s: %w", deployment, err)
	}
	return storer.StoreCompletedPredictions(ctx, FilterPredictions(predictions))
}

// GoroutineDispatcher saves in a detached goroutine. Failures and panics end up
// in the log and Sentry only.
type GoroutineDispatcher struct {
	Storer  CompletedPredictionStorer
	Timeout time.Duration

	wg sync.WaitGroup
}

func (d *GoroutineDispatcher) Dispatch(predictions []models.Prediction) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[AutoSave] Recovered from panic: %v", r)
				sentry.CurrentHub().Recover(r)
			}
		}()

		ctx := context.Background()
		if d.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d.Timeout)
			defer cancel()
		}
		saved, err := d.Storer.StoreCompletedPredictions(ctx, predictions)
		if err != nil {
			log.Printf("[AutoSave] Auto-save error: %v", err)
			sentry.CaptureException(err)
			return
		}
		if saved > 0 {
			log.Printf("[AutoSave] Saved %d new models", saved)
		}
	}()
}

// Wait blocks until every dispatched save has returned.
func (d *GoroutineDispatcher) Wait() {
	d.wg.Wait()
}
