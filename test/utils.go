package test

import (
	"archifigureapi/dbhelper"
	"archifigureapi/models"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

func JsonString(model interface{}) string {
	bytes, _ := json.Marshal(model)
	return string(bytes)
}

func NewJSONRequest(method string, target string, param interface{}) *http.Request {

	req := httptest.NewRequest(method, target, strings.NewReader(JsonString(param)))
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")
	return req
}

func NewJSONRequestRaw(method string, target string, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")
	return req
}

func GenerateUserToken(secret string, subject string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * 72)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	})
	t, err := token.SignedString([]byte(secret))
	if err != nil {
		panic(fmt.Sprintf("signing test token for %s: %v", subject, err))
	}
	return t
}

func NewJSONAuthRequest(method string, target string, secret string, param interface{}) *http.Request {
	req := NewJSONRequest(method, target, param)
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", GenerateUserToken(secret, "owner")))
	return req
}

// NewMultipartRequest builds a form upload. An empty fieldName sends a form
// without any file part.
func NewMultipartRequest(target, fieldName, fileName string, content []byte) *http.Request {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if fieldName != "" {
		part, _ := writer.CreateFormFile(fieldName, fileName)
		part.Write(content)
	} else {
		writer.WriteField("note", "no file")
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	return req
}

func Do(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func NewRefString(data string) *string {
	return &data
}

func IntPointer(i int) *int {
	return &i
}

// SetupTestDBOrSkip connects to the test database or skips when none is reachable.
func SetupTestDBOrSkip(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := dbhelper.SetupTestDB()
	if err != nil {
		t.Skipf("test database unavailable: %v", err)
	}
	cleaner := dbhelper.SetupCleaner(db)
	cleaner()
	t.Cleanup(cleaner)
	return db
}

// MakePrediction decodes a provider shaped record so it keeps its raw form.
func MakePrediction(id, status, image, mesh, createdAt string) models.Prediction {
	record := map[string]any{
		"id":         id,
		"status":     status,
		"created_at": createdAt,
		"input":      map[string]any{},
	}
	if image != "" {
		record["input"] = map[string]any{"image": image, "octree_resolution": 256}
	}
	if mesh != "" {
		record["output"] = map[string]any{"mesh": mesh}
	}
	var p models.Prediction
	if err := json.Unmarshal([]byte(JsonString(record)), &p); err != nil {
		panic(err)
	}
	return p
}

type RunCall struct {
	Model string
	Input map[string]any
}

type ReplicateMock struct {
	mu sync.Mutex

	Predictions []models.Prediction
	ListErr     error
	Output      json.RawMessage
	RunErr      error
	Prediction  json.RawMessage
	GetErr      error
	Created     *models.Prediction
	CreateErr   error

	RunCalls    []RunCall
	ListCalls   []string
	GetCalls    []string
	CreateCalls []models.PredictionInput
}

func (m *ReplicateMock) RunModel(ctx context.Context, model string, input map[string]any) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RunCalls = append(m.RunCalls, RunCall{Model: model, Input: input})
	return m.Output, m.RunErr
}

func (m *ReplicateMock) ListDeploymentPredictions(ctx context.Context, deployment string) ([]models.Prediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListCalls = append(m.ListCalls, deployment)
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return append([]models.Prediction(nil), m.Predictions...), nil
}

func (m *ReplicateMock) GetPrediction(ctx context.Context, id string) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalls = append(m.GetCalls, id)
	return m.Prediction, m.GetErr
}

func (m *ReplicateMock) CreateDeploymentPrediction(ctx context.Context, deployment string, input models.PredictionInput) (*models.Prediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls = append(m.CreateCalls, input)
	return m.Created, m.CreateErr
}

func (m *ReplicateMock) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.RunCalls) + len(m.ListCalls) + len(m.GetCalls) + len(m.CreateCalls)
}

type ImageHostMock struct {
	mu sync.Mutex

	Out *models.UploadImageOut
	Err error

	FileNames []string
	Contents  [][]byte
}

func (m *ImageHostMock) Upload(ctx context.Context, fileName string, content []byte) (*models.UploadImageOut, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FileNames = append(m.FileNames, fileName)
	m.Contents = append(m.Contents, content)
	return m.Out, m.Err
}

func (m *ImageHostMock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.FileNames)
}

type DispatcherMock struct {
	mu         sync.Mutex
	Dispatched [][]models.Prediction
}

func (m *DispatcherMock) Dispatch(predictions []models.Prediction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Dispatched = append(m.Dispatched, predictions)
}

func (m *DispatcherMock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Dispatched)
}

type StorerMock struct {
	mu sync.Mutex

	Saved int
	Err   error
	Panic bool

	Received [][]models.Prediction
}

func (m *StorerMock) StoreCompletedPredictions(ctx context.Context, predictions []models.Prediction) (int, error) {
	m.mu.Lock()
	m.Received = append(m.Received, predictions)
	m.mu.Unlock()
	if m.Panic {
		panic("storer exploded")
	}
	return m.Saved, m.Err
}

func (m *StorerMock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Received)
}

type NotifierMock struct {
	mu     sync.Mutex
	Err    error
	Models []*models.ProjectModel
}

func (m *NotifierMock) NotifyModelSaved(ctx context.Context, project *models.Project, model *models.ProjectModel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Models = append(m.Models, model)
	return m.Err
}

type AWSProviderMock struct {
	MockUrl      string
	UploadStatus int

	mu        sync.Mutex
	Presigned []string
	ReadCalls int
}

func (awsService *AWSProviderMock) InitPresignClient(ctx context.Context) error {
	return nil
}

func (awsService *AWSProviderMock) PresignLink(ctx context.Context, bucketName string, fileName string) (string, error) {
	awsService.mu.Lock()
	defer awsService.mu.Unlock()
	awsService.Presigned = append(awsService.Presigned, fileName)
	return fmt.Sprintf("https://fakebucketurl.com/%s", fileName), nil
}

func (awsService *AWSProviderMock) GetPresignedR2FileReadURL(ctx context.Context, bucketName, fileKey string) (string, error) {
	awsService.mu.Lock()
	defer awsService.mu.Unlock()
	awsService.ReadCalls++
	if awsService.MockUrl != "" {
		return awsService.MockUrl, nil
	}
	return fmt.Sprintf("https://read.fakebucketurl.com/%s/%s", bucketName, fileKey), nil
}

func (awsService *AWSProviderMock) UploadToPresignedURL(ctx context.Context, url string, fileContent []byte) (string, int, error) {
	status := awsService.UploadStatus
	if status == 0 {
		status = http.StatusOK
	}
	return "", status, nil
}
