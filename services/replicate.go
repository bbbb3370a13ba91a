package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"archifigureapi/models"
)

type ReplicateServiceProvider interface {
	// RunModel starts a prediction on a public model and waits for its output.
	RunModel(ctx context.Context, model string, input map[string]any) (json.RawMessage, error)
	ListDeploymentPredictions(ctx context.Context, deployment string) ([]models.Prediction, error)
	GetPrediction(ctx context.Context, id string) (json.RawMessage, error)
	CreateDeploymentPrediction(ctx context.Context, deployment string, input models.PredictionInput) (*models.Prediction, error)
}

// ReplicateAPIError is a non-2xx answer from the provider.
type ReplicateAPIError struct {
	StatusCode int
	Body       string
}

func (e *ReplicateAPIError) Error() string {
	return fmt.Sprintf("replicate api status %d: %s", e.StatusCode, e.Body)
}

type ReplicateService struct {
	Token        string
	BaseURL      string
	HTTPClient   *http.Client
	PollInterval time.Duration
	// upper bound for RunModel polling
	MaxWait time.Duration
}

func NewReplicateService(token, baseURL string) *ReplicateService {
	return &ReplicateService{
		Token:        token,
		BaseURL:      strings.TrimRight(baseURL, "/"),
		HTTPClient:   &http.Client{},
		PollInterval: time.Second,
		MaxWait:      5 * time.Minute,
	}
}

func (rs *ReplicateService) do(ctx context.Context, method, path string, body any, headers map[string]string) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, rs.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+rs.Token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := rs.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get response: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ReplicateAPIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}

func (rs *ReplicateService) RunModel(ctx context.Context, model string, input map[string]any) (json.RawMessage, error) {
	body, err := rs.do(ctx, http.MethodPost, "/v1/models/"+model+"/predictions",
		map[string]any{"input": input},
		map[string]string{"Prefer": "wait"},
	)
	if err != nil {
		return nil, err
	}
	var prediction models.Prediction
	if err := json.Unmarshal(body, &prediction); err != nil {
		return nil, fmt.Errorf("failed to decode prediction: %w", err)
	}

	deadline := time.Now().Add(rs.MaxWait)
	for !models.IsTerminalStatus(prediction.Status) {
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("[Prediction: %s] polling timeout, last status: %s", prediction.ID, prediction.Status)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(rs.PollInterval):
		}
		raw, err := rs.GetPrediction(ctx, prediction.ID)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &prediction); err != nil {
			return nil, fmt.Errorf("failed to decode prediction: %w", err)
		}
	}

	if prediction.Status != models.PredictionStatusSucceeded {
		return nil, fmt.Errorf("[Prediction: %s] finished with status %s: %v", prediction.ID, prediction.Status, prediction.Error)
	}
	if len(prediction.Output) == 0 {
		return json.RawMessage("null"), nil
	}
	return prediction.Output, nil
}

// ListDeploymentPredictions always hits the provider; responses are never cached.
func (rs *ReplicateService) ListDeploymentPredictions(ctx context.Context, deployment string) ([]models.Prediction, error) {
	query := url.Values{}
	query.Set("deployment", deployment)
	body, err := rs.do(ctx, http.MethodGet, "/v1/predictions?"+query.Encode(), nil, map[string]string{
		"Cache-Control": "no-cache",
		"Pragma":        "no-cache",
	})
	if err != nil {
		return nil, err
	}

	var page struct {
		Results []json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("failed to decode prediction list: %w", err)
	}

	predictions := make([]models.Prediction, 0, len(page.Results))
	for _, raw := range page.Results {
		var p models.Prediction
		if err := json.Unmarshal(raw, &p); err != nil {
			log.Printf("[Replicate] Skipping undecodable prediction record: %v", err)
			continue
		}
		predictions = append(predictions, p)
	}
	return predictions, nil
}

func (rs *ReplicateService) GetPrediction(ctx context.Context, id string) (json.RawMessage, error) {
	body, err := rs.do(ctx, http.MethodGet, "/v1/predictions/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("[Prediction: %s] provider returned invalid JSON", id)
	}
	return json.RawMessage(body), nil
}

func (rs *ReplicateService) CreateDeploymentPrediction(ctx context.Context, deployment string, input models.PredictionInput) (*models.Prediction, error) {
	body, err := rs.do(ctx, http.MethodPost, "/v1/deployments/"+deployment+"/predictions",
		map[string]any{"input": input}, nil)
	if err != nil {
		return nil, err
	}
	var prediction models.Prediction
	if err := json.Unmarshal(body, &prediction); err != nil {
		return nil, fmt.Errorf("failed to decode prediction: %w", err)
	}
	return &prediction, nil
}
