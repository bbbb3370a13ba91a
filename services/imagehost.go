package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"

	"archifigureapi/models"

	"github.com/google/uuid"
)

// ErrImageHostRejected means the host answered but refused the upload.
var ErrImageHostRejected = errors.New("image host rejected upload")

type ImageHostProvider interface {
	Upload(ctx context.Context, fileName string, content []byte) (*models.UploadImageOut, error)
}

type ImgbbService struct {
	APIKey     string
	URL        string
	HTTPClient *http.Client
}

func NewImgbbService(apiKey, url string) *ImgbbService {
	return &ImgbbService{APIKey: apiKey, URL: url, HTTPClient: &http.Client{}}
}

type imgbbResponse struct {
	Success bool `json:"success"`
	Status  int  `json:"status"`
	Data    struct {
		URL       string `json:"url"`
		DeleteURL string `json:"delete_url"`
	} `json:"data"`
}

// Upload posts the image base64 encoded, the way imgbb expects form uploads.
func (s *ImgbbService) Upload(ctx context.Context, fileName string, content []byte) (*models.UploadImageOut, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("key", s.APIKey); err != nil {
		return nil, err
	}
	if err := form.WriteField("image", base64.StdEncoding.EncodeToString(content)); err != nil {
		return nil, err
	}
	if err := form.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get response: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	var out imgbbResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("failed to decode imgbb response (status %d): %w", resp.StatusCode, err)
	}
	if !out.Success {
		log.Printf("[Imgbb] Upload of %s rejected, status %d: %s", fileName, resp.StatusCode, string(respBody))
		return nil, ErrImageHostRejected
	}
	return &models.UploadImageOut{URL: out.Data.URL, DeleteURL: out.Data.DeleteURL}, nil
}

// R2ImageHost stores uploads in a bucket and hands out cached presigned read links.
type R2ImageHost struct {
	AWSService AWSServiceProvider
	URLCache   URLCacheServiceProvider
	BucketName string
	Dir        string
}

func (h *R2ImageHost) Upload(ctx context.Context, fileName string, content []byte) (*models.UploadImageOut, error) {
	objectKey := fmt.Sprintf("%s/%s%s", h.Dir, uuid.NewString(), ImageExtension(fileName, content))
	uploadURL, err := h.AWSService.PresignLink(ctx, h.BucketName, objectKey)
	if err != nil {
		return nil, fmt.Errorf("presign %s: %w", objectKey, err)
	}
	respBody, status, err := h.AWSService.UploadToPresignedURL(ctx, uploadURL, content)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", objectKey, err)
	}
	if status < 200 || status > 299 {
		log.Printf("[R2] Upload of %s failed with status %d: %s", objectKey, status, respBody)
		return nil, ErrImageHostRejected
	}
	readURL, err := h.URLCache.GetReadURL(ctx, objectKey)
	if err != nil {
		return nil, fmt.Errorf("read url %s: %w", objectKey, err)
	}
	return &models.UploadImageOut{URL: readURL}, nil
}
