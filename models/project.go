package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JsonModel mirrors the columns every Supabase table carries.
type JsonModel struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

func (m *JsonModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

type Project struct {
	JsonModel
	Name string `gorm:"not null" json:"name"`
	// case folded name, unique so concurrent creates of "Foo" and "foo" collapse
	NameKey   string    `gorm:"uniqueIndex;not null" json:"-"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProjectModel is a generated mesh saved into a project. Rows are never mutated.
type ProjectModel struct {
	JsonModel
	ProjectID    string  `gorm:"type:uuid;not null;index" json:"project_id"`
	Project      Project `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	ModelURL     string  `gorm:"type:text;not null" json:"model_url"`
	ThumbnailURL string  `gorm:"type:text" json:"thumbnail_url"`
	InputImage   string  `gorm:"type:text" json:"input_image"`
	Resolution   int     `json:"resolution"`
	Name         *string `json:"name"`
	Status       *string `json:"status,omitempty"`
	// provider prediction id, unique so auto-save inserts are idempotent
	PredictionID *string `gorm:"uniqueIndex" json:"prediction_id,omitempty"`
}
