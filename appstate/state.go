package appstate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"archifigureapi/models"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

type SelectedModel struct {
	URL        string `json:"url"`
	InputImage string `json:"input_image,omitempty"`
	Resolution int    `json:"resolution,omitempty"`
}

// AppState is the client view-model shared by reference with whatever renders it.
type AppState struct {
	Authenticated      *Store[bool]
	Theme              *Store[Theme]
	IsDarkMode         *Derived[Theme, bool]
	CurrentProjectID   *Store[string]
	Projects           *Store[[]models.Project]
	SelectedModel      *Store[*SelectedModel]
	PendingSubmissions *Store[[]models.PendingSubmission]
}

func New(theme Theme) *AppState {
	if theme != ThemeDark {
		theme = ThemeLight
	}
	themeStore := NewStore(theme)
	return &AppState{
		Authenticated:      NewStore(false),
		Theme:              themeStore,
		IsDarkMode:         NewDerived[Theme](themeStore, func(t Theme) bool { return t == ThemeDark }),
		CurrentProjectID:   NewStore(""),
		Projects:           NewStore([]models.Project{}),
		SelectedModel:      NewStore[*SelectedModel](nil),
		PendingSubmissions: NewStore([]models.PendingSubmission{}),
	}
}

func (s *AppState) ToggleTheme() {
	s.Theme.Update(func(t Theme) Theme {
		if t == ThemeDark {
			return ThemeLight
		}
		return ThemeDark
	})
}

// AddPending records a job the user started, newest first.
func (s *AppState) AddPending(p models.PendingSubmission) {
	s.PendingSubmissions.Update(func(pending []models.PendingSubmission) []models.PendingSubmission {
		out := make([]models.PendingSubmission, 0, len(pending)+1)
		out = append(out, p)
		for _, existing := range pending {
			if existing.ID != p.ID {
				out = append(out, existing)
			}
		}
		return out
	})
}

// ReconcilePending drops submissions the provider reports as finished and
// copies the provider status onto the ones still running. Submissions the
// provider does not list are kept as they are.
func (s *AppState) ReconcilePending(predictions []models.Prediction) {
	byID := make(map[string]models.Prediction, len(predictions))
	for _, p := range predictions {
		byID[p.ID] = p
	}
	s.PendingSubmissions.Update(func(pending []models.PendingSubmission) []models.PendingSubmission {
		out := make([]models.PendingSubmission, 0, len(pending))
		for _, sub := range pending {
			p, ok := byID[sub.ID]
			if !ok {
				out = append(out, sub)
				continue
			}
			if models.IsTerminalStatus(p.Status) {
				continue
			}
			sub.Status = p.Status
			out = append(out, sub)
		}
		return out
	})
}

type persisted struct {
	Authenticated      bool                       `json:"authenticated"`
	Theme              Theme                      `json:"theme"`
	CurrentProjectID   string                     `json:"current_project_id,omitempty"`
	PendingSubmissions []models.PendingSubmission `json:"pending_submissions,omitempty"`
}

// Save writes the durable part of the state to path.
func (s *AppState) Save(path string) error {
	data, err := json.MarshalIndent(persisted{
		Authenticated:      s.Authenticated.Get(),
		Theme:              s.Theme.Get(),
		CurrentProjectID:   s.CurrentProjectID.Get(),
		PendingSubmissions: s.PendingSubmissions.Get(),
	}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Load restores state saved by Save. A missing file yields a fresh state.
func Load(path string) (*AppState, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(ThemeLight), nil
	}
	if err != nil {
		return nil, err
	}
	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode state %s: %w", path, err)
	}
	state := New(p.Theme)
	state.Authenticated.Set(p.Authenticated)
	state.CurrentProjectID.Set(p.CurrentProjectID)
	if p.PendingSubmissions != nil {
		state.PendingSubmissions.Set(p.PendingSubmissions)
	}
	return state, nil
}
