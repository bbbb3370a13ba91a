package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	PredictionStatusStarting   = "starting"
	PredictionStatusProcessing = "processing"
	PredictionStatusSucceeded  = "succeeded"
	PredictionStatusFailed     = "failed"
	PredictionStatusCanceled   = "canceled"
)

// IsActiveStatus reports whether the provider is still working on the job.
func IsActiveStatus(status string) bool {
	return status == PredictionStatusStarting || status == PredictionStatusProcessing
}

// IsTerminalStatus reports whether the provider will not change the job any more.
func IsTerminalStatus(status string) bool {
	switch status {
	case PredictionStatusSucceeded, PredictionStatusFailed, PredictionStatusCanceled:
		return true
	}
	return false
}

type PredictionInput struct {
	Image            string   `json:"image,omitempty"`
	Prompt           string   `json:"prompt,omitempty"`
	OctreeResolution *int     `json:"octree_resolution,omitempty"`
	Steps            *int     `json:"steps,omitempty"`
	GuidanceScale    *float64 `json:"guidance_scale,omitempty"`
	Seed             *int     `json:"seed,omitempty"`
	RemoveBackground *bool    `json:"remove_background,omitempty"`
}

// UnmarshalJSON reads each field on its own and drops values of an unexpected
// type, so a record with "octree_resolution": 256.0 or "seed": "42" still
// decodes. A non-object input leaves every field empty.
func (in *PredictionInput) UnmarshalJSON(data []byte) error {
	*in = PredictionInput{}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil
	}
	in.Image, _ = fields["image"].(string)
	in.Prompt, _ = fields["prompt"].(string)
	in.OctreeResolution = looseInt(fields["octree_resolution"])
	in.Steps = looseInt(fields["steps"])
	in.GuidanceScale = looseFloat(fields["guidance_scale"])
	in.Seed = looseInt(fields["seed"])
	in.RemoveBackground = looseBool(fields["remove_background"])
	return nil
}

func looseFloat(v any) *float64 {
	switch n := v.(type) {
	case float64:
		return &n
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err == nil {
			return &f
		}
	}
	return nil
}

func looseInt(v any) *int {
	f := looseFloat(v)
	if f == nil || *f != math.Trunc(*f) {
		return nil
	}
	i := int(*f)
	return &i
}

func looseBool(v any) *bool {
	switch b := v.(type) {
	case bool:
		return &b
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err == nil {
			return &parsed
		}
	}
	return nil
}

type PredictionOutput struct {
	Mesh string `json:"mesh,omitempty"`
}

type PredictionMetrics struct {
	PredictTime float64 `json:"predict_time"`
}

// Prediction is a snapshot of a provider job. The provider owns its lifecycle.
//
// A Prediction decoded from provider JSON keeps the original bytes and marshals
// back to them unchanged, so the API echoes provider records as received.
type Prediction struct {
	ID        string             `json:"id"`
	Status    string             `json:"status"`
	Input     PredictionInput    `json:"input"`
	Output    json.RawMessage    `json:"output,omitempty"`
	Error     any                `json:"error,omitempty"`
	CreatedAt string             `json:"created_at"`
	Metrics   *PredictionMetrics `json:"metrics,omitempty"`

	raw json.RawMessage
}

type predictionAlias Prediction

func (p *Prediction) UnmarshalJSON(data []byte) error {
	var alias predictionAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	*p = Prediction(alias)
	p.raw = append(json.RawMessage(nil), data...)
	return nil
}

func (p Prediction) MarshalJSON() ([]byte, error) {
	if len(p.raw) > 0 {
		return p.raw, nil
	}
	return json.Marshal(predictionAlias(p))
}

// MeshURL returns output.mesh when the output is an object carrying one.
func (p Prediction) MeshURL() string {
	if len(p.Output) == 0 {
		return ""
	}
	var out PredictionOutput
	if err := json.Unmarshal(p.Output, &out); err != nil {
		return ""
	}
	return out.Mesh
}

// HasError is true for any non-empty provider error value.
func (p Prediction) HasError() bool {
	switch e := p.Error.(type) {
	case nil:
		return false
	case string:
		return e != ""
	}
	return true
}

// CreatedTime parses created_at; unparseable values give the zero time.
func (p Prediction) CreatedTime() time.Time {
	t, err := time.Parse(time.RFC3339Nano, p.CreatedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// PendingSubmission is a job the client started but has not seen finish.
type PendingSubmission struct {
	ID        string          `json:"id"`
	Status    string          `json:"status"`
	Input     PredictionInput `json:"input"`
	CreatedAt string          `json:"created_at"`
	Prompt    *string         `json:"prompt,omitempty"`
	ProjectID *string         `json:"project_id,omitempty"`
}
