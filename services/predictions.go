package services

import (
	"net/url"
	"sort"

	"archifigureapi/models"
)

// IsWellFormedURL accepts absolute URLs only: a scheme plus a host or opaque part.
func IsWellFormedURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme != "" && (u.Host != "" || u.Opaque != "")
}

// IsDisplayable decides whether a provider record can be shown to clients.
// Succeeded records need a mesh URL, active ones must be error free, and
// everything else (failed, canceled, unknown) is hidden.
func IsDisplayable(p models.Prediction) bool {
	if p.ID == "" || p.Status == "" || p.Input.Image == "" {
		return false
	}
	switch {
	case p.Status == models.PredictionStatusCanceled:
		return false
	case p.Status == models.PredictionStatusSucceeded:
		return IsWellFormedURL(p.MeshURL())
	case models.IsActiveStatus(p.Status):
		return !p.HasError()
	}
	return false
}

// FilterPredictions keeps displayable records, active ones first, then newest
// first. Records with equal keys stay in provider order.
func FilterPredictions(predictions []models.Prediction) []models.Prediction {
	filtered := make([]models.Prediction, 0, len(predictions))
	for _, p := range predictions {
		if IsDisplayable(p) {
			filtered = append(filtered, p)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		a, b := filtered[i], filtered[j]
		activeA, activeB := models.IsActiveStatus(a.Status), models.IsActiveStatus(b.Status)
		if activeA != activeB {
			return activeA
		}
		return a.CreatedTime().After(b.CreatedTime())
	})
	return filtered
}

// CompletedWithMesh is the subset auto-save cares about.
func CompletedWithMesh(predictions []models.Prediction) []models.Prediction {
	var completed []models.Prediction
	for _, p := range predictions {
		if p.Status == models.PredictionStatusSucceeded && p.MeshURL() != "" {
			completed = append(completed, p)
		}
	}
	return completed
}
