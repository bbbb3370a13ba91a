package services

import (
	"context"
	"errors"
	"time"

	"archifigureapi/languageutil"
	"archifigureapi/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrEmptyProjectName = errors.New("project name is empty")

// ProjectStore reads and writes the projects and project_models tables.
// Every method returns its error; callers decide whether to fail open.
type ProjectStore struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewProjectStore(db *gorm.DB) *ProjectStore {
	return &ProjectStore{DB: db, Now: time.Now}
}

func (s *ProjectStore) findByKey(ctx context.Context, key string) (*models.Project, error) {
	var project models.Project
	res := s.DB.WithContext(ctx).Where("name_key = ?", key).Limit(1).Find(&project)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &project, nil
}

// CreateProject returns the project with the same name ignoring case, touching its
// updated_at, or inserts a new one.
func (s *ProjectStore) CreateProject(ctx context.Context, name string) (*models.Project, error) {
	name = languageutil.NormalizeName(name)
	if name == "" {
		return nil, ErrEmptyProjectName
	}
	key := languageutil.NameKey(name)

	existing, err := s.findByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		project := models.Project{Name: name, NameKey: key}
		err = s.DB.WithContext(ctx).Create(&project).Error
		if err == nil {
			return &project, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
		// lost a race with another insert of the same name
		existing, err = s.findByKey(ctx, key)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, gorm.ErrRecordNotFound
		}
	}

	existing.UpdatedAt = s.Now()
	if err := s.DB.WithContext(ctx).Model(existing).UpdateColumn("updated_at", existing.UpdatedAt).Error; err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *ProjectStore) GetProjects(ctx context.Context) ([]models.Project, error) {
	projects := []models.Project{}
	if err := s.DB.WithContext(ctx).Order("created_at desc").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

func (s *ProjectStore) newProjectModel(in models.SaveModelIn) models.ProjectModel {
	name := in.Name
	if name == nil || *name == "" {
		name = StrPointer(languageutil.DefaultModelName(s.Now()))
	}
	return models.ProjectModel{
		JsonModel:    models.JsonModel{CreatedAt: s.Now()},
		ProjectID:    in.ProjectID,
		ModelURL:     in.ModelURL,
		ThumbnailURL: in.ThumbnailURL,
		InputImage:   in.InputImage,
		Resolution:   in.Resolution,
		Name:         name,
		PredictionID: in.PredictionID,
	}
}

// SaveModelToProject inserts a model row. Rows are never updated afterwards.
func (s *ProjectStore) SaveModelToProject(ctx context.Context, in models.SaveModelIn) (*models.ProjectModel, error) {
	model := s.newProjectModel(in)
	if err := s.DB.WithContext(ctx).Create(&model).Error; err != nil {
		return nil, err
	}
	return &model, nil
}

// SaveModelOnce inserts a model keyed by its prediction id and reports whether a
// new row was written. A second insert for the same prediction is a no-op.
func (s *ProjectStore) SaveModelOnce(ctx context.Context, in models.SaveModelIn) (*models.ProjectModel, bool, error) {
	if in.PredictionID == nil || *in.PredictionID == "" {
		return nil, false, errors.New("prediction id is required")
	}
	model := s.newProjectModel(in)
	res := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "prediction_id"}},
		DoNothing: true,
	}).Create(&model)
	if res.Error != nil {
		return nil, false, res.Error
	}
	return &model, res.RowsAffected > 0, nil
}

func (s *ProjectStore) ListProjectModels(ctx context.Context, projectID string) ([]models.ProjectModel, error) {
	projectModels := []models.ProjectModel{}
	if err := s.DB.WithContext(ctx).Where("project_id = ?", projectID).Order("created_at desc").Find(&projectModels).Error; err != nil {
		return nil, err
	}
	return projectModels, nil
}
