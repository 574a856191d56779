package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/supplysync/catalog_api/internal/service"
	"github.com/supplysync/catalog_api/internal/utils"
)

// ItemHandler handles supplier item HTTP requests.
type ItemHandler struct {
	items *service.ItemService
}

// NewItemHandler creates a new ItemHandler.
func NewItemHandler(items *service.ItemService) *ItemHandler {
	return &ItemHandler{items: items}
}

// GetItem returns a supplier item with its linkage audit trail.
// GET /v1/admin/items/:id
func (h *ItemHandler) GetItem(c *gin.Context) {
	id, ok := paramInt(c, "id")
	if !ok {
		return
	}

	detail, err := h.items.GetDetail(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Item retrieved successfully", detail)
}
