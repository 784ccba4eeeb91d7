package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/PabloPavan/cobit_api/internal/snippets"
)

type SnippetsService interface {
	Create(ctx context.Context, req snippets.CreateSnippetRequest) (*snippets.Snippet, error)
	GetByID(ctx context.Context, id string) (*snippets.PublicSnippet, error)
	List(ctx context.Context, input snippets.ListInput) (*snippets.Page, error)
	Update(ctx context.Context, id string, req snippets.UpdateSnippetRequest) (*snippets.PublicSnippet, error)
	Delete(ctx context.Context, id string) error
}

type SnippetsHandler struct {
	Service SnippetsService
}

type MessageResponse struct {
	Message string `json:"message"`
}

// Create Snippet
// @Summary Create snippet
// @Tags snippets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body SnippetCreateDTO true "snippet"
// @Success 201 {object} snippets.Snippet
// @Failure 400 {object} errorResponse
// @Failure 401 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /snippets [post]
func (h *SnippetsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req SnippetCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snippet, err := h.Service.Create(r.Context(), snippets.CreateSnippetRequest{
		ID:          strings.TrimSpace(req.ID),
		Title:       req.Title,
		Description: req.Description,
		Code:        req.Code,
		Visibility:  req.Visibility,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, snippet)
}

// GetByID Snippet
// @Summary Get snippet by id
// @Tags snippets
// @Produce json
// @Param id path string true "snippet id"
// @Success 200 {object} snippets.PublicSnippet
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /snippets/{id} [get]
func (h *SnippetsHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	snippet, err := h.Service.GetByID(r.Context(), id)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippet)
}

// List Snippets
// @Summary List public snippets
// @Tags snippets
// @Produce json
// @Param page query int false "page, starting at 1"
// @Param limit query int false "page size, at most 100"
// @Param search query string false "case-insensitive match on title, description or id"
// @Success 200 {object} snippets.Page
// @Failure 500 {object} errorResponse
// @Router /snippets [get]
func (h *SnippetsHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	// bad numbers fall back to the service defaults
	page, _ := strconv.Atoi(strings.TrimSpace(query.Get("page")))
	limit, _ := strconv.Atoi(strings.TrimSpace(query.Get("limit")))

	result, err := h.Service.List(r.Context(), snippets.ListInput{
		Page:   page,
		Limit:  limit,
		Search: query.Get("search"),
	})
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Update Snippet
// @Summary Update snippet
// @Tags snippets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "snippet id"
// @Param body body SnippetUpdateDTO true "snippet"
// @Success 200 {object} snippets.PublicSnippet
// @Failure 400 {object} errorResponse
// @Failure 401 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /snippets/{id} [put]
func (h *SnippetsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	var req SnippetUpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snippet, err := h.Service.Update(r.Context(), id, snippets.UpdateSnippetRequest{
		Title:       req.Title,
		Description: req.Description,
		Code:        req.Code,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippet)
}

// Delete Snippet
// @Summary Delete snippet
// @Tags snippets
// @Produce json
// @Security BearerAuth
// @Param id path string true "snippet id"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /snippets/{id} [delete]
func (h *SnippetsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	if err := h.Service.Delete(r.Context(), id); err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Deleted successfully"})
}
