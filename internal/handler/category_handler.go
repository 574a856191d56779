package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/supplysync/catalog_api/internal/repository"
	"github.com/supplysync/catalog_api/internal/utils"
)

// CategoryHandler serves the category hierarchy for dashboard filters.
type CategoryHandler struct {
	repo *repository.CategoryRepository
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(repo *repository.CategoryRepository) *CategoryHandler {
	return &CategoryHandler{repo: repo}
}

// ListCategories returns all categories.
// GET /v1/admin/categories
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	cats, err := h.repo.List(c.Request.Context())
	if err != nil {
		utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve categories")
		return
	}
	utils.Success(c, http.StatusOK, "Categories retrieved successfully", cats)
}
