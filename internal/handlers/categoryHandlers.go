package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"categorydesk/internal/models"
	"categorydesk/internal/services"
	"categorydesk/internal/utils"
)

// CategoryHandler serves the categories REST API.
type CategoryHandler struct {
	service services.CatalogService
	bare    bool
}

// NewCategoryHandler wraps responses in a {"data": ...} envelope unless bare is set.
func NewCategoryHandler(service services.CatalogService, bare bool) *CategoryHandler {
	return &CategoryHandler{service: service, bare: bare}
}

func (h *CategoryHandler) respond(w http.ResponseWriter, code int, payload any) {
	if h.bare {
		utils.RespondWithJSON(w, code, payload)
		return
	}
	utils.RespondWithJSON(w, code, map[string]any{"data": payload})
}

func (h *CategoryHandler) AddCategory(w http.ResponseWriter, r *http.Request) {
	var input models.CategoryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		log.Error().Err(err).Msg("Invalid JSON for AddCategory")
		utils.SendJSONError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	addedCategory, err := h.service.AddCategory(r.Context(), input)
	if err != nil {
		log.Error().Err(err).Msg("Error adding category via service")
		utils.SendJSONError(w, err.Error(), statusFor(err))
		return
	}

	log.Info().Int64("category_id", addedCategory.ID).Str("category_name", addedCategory.Name).Msg("Category added successfully")
	h.respond(w, http.StatusCreated, addedCategory)
}

func (h *CategoryHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.GetCategories(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Error getting categories from service")
		utils.SendJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	log.Info().Int("count", len(categories)).Msg("Categories retrieved successfully")
	h.respond(w, http.StatusOK, categories)
}

func (h *CategoryHandler) GetCategoryByID(w http.ResponseWriter, r *http.Request) {
	categoryID, err := utils.GetIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	category, err := h.service.GetCategoryByID(r.Context(), categoryID)
	if err != nil {
		log.Error().Err(err).Int64("category_id", categoryID).Msg("Error getting category by ID from service")
		utils.SendJSONError(w, err.Error(), statusFor(err))
		return
	}

	log.Info().Int64("category_id", categoryID).Msg("Category retrieved successfully")
	h.respond(w, http.StatusOK, category)
}

func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, err := utils.GetIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	if err := h.service.DeleteCategory(r.Context(), categoryID); err != nil {
		log.Error().Err(err).Int64("category_id", categoryID).Msg("Error deleting category via service")
		utils.SendJSONError(w, err.Error(), statusFor(err))
		return
	}

	log.Info().Int64("category_id", categoryID).Msg("Category deleted successfully")
	w.WriteHeader(http.StatusNoContent)
}

func (h *CategoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, err := utils.GetIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	var input models.CategoryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		log.Error().Err(err).Msg("Invalid JSON payload for UpdateCategory")
		utils.SendJSONError(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}

	updatedCategory, err := h.service.UpdateCategory(r.Context(), categoryID, input)
	if err != nil {
		log.Error().Err(err).Int64("category_id", categoryID).Msg("Error updating category via service")
		utils.SendJSONError(w, err.Error(), statusFor(err))
		return
	}

	log.Info().Int64("category_id", categoryID).Msg("Category updated successfully")
	h.respond(w, http.StatusOK, updatedCategory)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNameRequired):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
