package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"archifigureapi/models"
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API error: %d", e.StatusCode)
	}
	return fmt.Sprintf("API error: %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTPClient: &http.Client{}}
}

func (c *Client) send(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		msg := strings.TrimSpace(string(body))
		if err := json.Unmarshal(body, &payload); err == nil {
			switch {
			case payload.Error != "":
				msg = payload.Error
			case payload.Message != "":
				msg = payload.Message
			}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	return c.send(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, in any, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.send(req, out)
}

// Login trades the app password for a token and keeps it on the client.
func (c *Client) Login(ctx context.Context, password string) (string, error) {
	var out models.LoginOut
	if err := c.postJSON(ctx, "/api/auth/login", models.LoginIn{Password: password}, &out); err != nil {
		return "", err
	}
	c.Token = out.AccessToken
	return out.AccessToken, nil
}

func (c *Client) UploadImage(ctx context.Context, fileName string, content []byte) (*models.UploadImageOut, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("image", fileName)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(content); err != nil {
		return nil, err
	}
	if err := form.Close(); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/upload-image", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	var out models.UploadImageOut
	if err := c.send(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GenerateImage(ctx context.Context, input map[string]any) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.postJSON(ctx, "/api/generate-image", models.GenerateImageIn{Input: input}, &out)
	return out, err
}

func (c *Client) GenerateModel(ctx context.Context, in models.GenerateModelIn) (*models.Prediction, error) {
	var out models.Prediction
	if err := c.postJSON(ctx, "/api/generate-model", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Predictions(ctx context.Context) ([]models.Prediction, error) {
	out := []models.Prediction{}
	err := c.getJSON(ctx, "/api/prediction", &out)
	return out, err
}

func (c *Client) Prediction(ctx context.Context, id string) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.getJSON(ctx, "/api/prediction/"+url.PathEscape(id), &out)
	return out, err
}

func (c *Client) Projects(ctx context.Context) ([]models.Project, error) {
	out := []models.Project{}
	err := c.getJSON(ctx, "/api/projects", &out)
	return out, err
}

// CreateProject returns nil without an error when the server could not store it.
func (c *Client) CreateProject(ctx context.Context, name string) (*models.Project, error) {
	var out *models.Project
	if err := c.postJSON(ctx, "/api/projects", models.ProjectCreateIn{Name: name}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ProjectModels(ctx context.Context, projectID string) ([]models.ProjectModel, error) {
	out := []models.ProjectModel{}
	err := c.getJSON(ctx, "/api/projects/"+url.PathEscape(projectID)+"/models", &out)
	return out, err
}

func (c *Client) SaveModel(ctx context.Context, projectID string, in models.SaveModelIn) (*models.SaveModelOut, error) {
	var out models.SaveModelOut
	if err := c.postJSON(ctx, "/api/projects/"+url.PathEscape(projectID)+"/models", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
