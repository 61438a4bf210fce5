package handlers

import (
	"encoding/json"
	"net/http"

	"notecal/internal/contextutil"
)

// CategorySource is the read side of the category tracker.
type CategorySource interface {
	Categories() []string
	FilesFor(category string) []string
}

// CategoriesHandler serves the category-to-files mapping.
type CategoriesHandler struct {
	tracker CategorySource
}

// NewCategoriesHandler creates a new CategoriesHandler.
func NewCategoriesHandler(tracker CategorySource) *CategoriesHandler {
	return &CategoriesHandler{tracker: tracker}
}

// CategoryResponse is one category with the files tagged by it.
type CategoryResponse struct {
	Name  string   `json:"name"`
	Files []string `json:"files"`
}

// CategoriesResponse is the payload for category listings.
type CategoriesResponse struct {
	Count      int                `json:"count"`
	Categories []CategoryResponse `json:"categories"`
}

func (h *CategoriesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	names := h.tracker.Categories()
	categories := make([]CategoryResponse, 0, len(names))
	for _, name := range names {
		categories = append(categories, CategoryResponse{
			Name:  name,
			Files: h.tracker.FilesFor(name),
		})
	}

	response := CategoriesResponse{
		Count:      len(categories),
		Categories: categories,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.ErrorContext(ctx, "failed to encode categories response", "error", err)
	}
}
