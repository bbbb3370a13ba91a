package models

type LoginIn struct {
	Password string `json:"password" validate:"required,max=200"`
}

type LoginOut struct {
	AccessToken string `json:"access_token"`
}

type GenerateImageIn struct {
	Input map[string]any `json:"input"`
}

// GenerateModelIn carries optional tuning parameters. Zero values count as unset.
type GenerateModelIn struct {
	Image            string   `json:"image"`
	OctreeResolution *int     `json:"octree_resolution"`
	Steps            *int     `json:"steps"`
	GuidanceScale    *float64 `json:"guidance_scale"`
	Seed             *int     `json:"seed"`
	RemoveBackground *bool    `json:"remove_background"`
}

type UploadImageOut struct {
	URL       string `json:"url"`
	DeleteURL string `json:"delete_url,omitempty"`
}

type ProjectCreateIn struct {
	Name string `json:"name" validate:"required,max=200"`
}

type SaveModelIn struct {
	ProjectID    string  `json:"-"`
	ModelURL     string  `json:"model_url" validate:"required,url"`
	ThumbnailURL string  `json:"thumbnail_url" validate:"omitempty,max=2000"`
	InputImage   string  `json:"input_image" validate:"omitempty,max=2000"`
	Resolution   int     `json:"resolution" validate:"gte=0"`
	Name         *string `json:"name" validate:"omitempty,max=200"`
	PredictionID *string `json:"prediction_id" validate:"omitempty,max=200"`
}

type SaveModelOut struct {
	Success bool          `json:"success"`
	Model   *ProjectModel `json:"model,omitempty"`
}
