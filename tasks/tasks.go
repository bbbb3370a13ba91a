package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"archifigureapi/models"
	"archifigureapi/services"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
)

const (
	TypeAutoSave  = "predictions:autosave"
	QueueAutoSave = "autosave"
)

type AutoSavePayload struct {
	// empty means sweep the whole deployment list
	Predictions []models.Prediction `json:"predictions,omitempty"`
}

func NewAutoSaveTask(predictions []models.Prediction) (*asynq.Task, error) {
	payload, err := json.Marshal(AutoSavePayload{Predictions: predictions})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeAutoSave, payload), nil
}

// NewSweepTask is the scheduled variant that fetches the list itself.
func NewSweepTask() *asynq.Task {
	return asynq.NewTask(TypeAutoSave, nil)
}

func HandleAutoSaveTask(
	ctx context.Context,
	t *asynq.Task,
	replicate services.ReplicateServiceProvider,
	deployment string,
	storer services.CompletedPredictionStorer,
) error {
	var payload AutoSavePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			sentry.CaptureException(fmt.Errorf("[Queue] Bad auto-save payload: %w", err))
			return fmt.Errorf("decode auto-save payload: %v: %w", err, asynq.SkipRetry)
		}
	}

	var saved int
	var err error
	if len(payload.Predictions) == 0 {
		saved, err = services.SweepCompletedPredictions(ctx, replicate, deployment, storer)
	} else {
		saved, err = storer.StoreCompletedPredictions(ctx, payload.Predictions)
	}
	if err != nil {
		log.Printf("[Queue] Auto-save failed: %v", err)
		sentry.CaptureException(err)
		return err
	}
	log.Printf("[Queue] Auto-save stored %d new models", saved)
	return nil
}

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueDispatcher sends auto-save work to the worker process instead of running
// it in the API process. The enqueue runs in its own goroutine so a slow or
// unreachable broker never holds up the caller.
type QueueDispatcher struct {
	Client         enqueuer
	EnqueueTimeout time.Duration

	wg sync.WaitGroup
}

func NewQueueDispatcher(client *asynq.Client) *QueueDispatcher {
	return &QueueDispatcher{Client: client, EnqueueTimeout: 2 * time.Second}
}

func (d *QueueDispatcher) Dispatch(predictions []models.Prediction) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[Queue] Recovered from panic: %v", r)
				sentry.CurrentHub().Recover(r)
			}
		}()
		d.enqueue(predictions)
	}()
}

// Wait blocks until every dispatched enqueue has returned.
func (d *QueueDispatcher) Wait() {
	d.wg.Wait()
}

func (d *QueueDispatcher) enqueue(predictions []models.Prediction) {
	task, err := NewAutoSaveTask(predictions)
	if err != nil {
		log.Printf("[Queue] Unable to build auto-save task: %v", err)
		sentry.CaptureException(err)
		return
	}
	timeout := d.EnqueueTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	info, err := d.Client.EnqueueContext(ctx, task,
		asynq.Queue(QueueAutoSave),
		asynq.MaxRetry(0),
		// identical lists from overlapping polls collapse into one task
		asynq.Unique(time.Minute),
	)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return
	}
	if err != nil {
		log.Printf("[Queue] Unable to enqueue auto-save: %v", err)
		sentry.CaptureException(err)
		return
	}
	log.Printf("[Queue] Auto-save task submitted, Task ID: %s, predictions: %d", info.ID, len(predictions))
}
