package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/supplysync/catalog_api/internal/service"
	"github.com/supplysync/catalog_api/internal/utils"
)

// OverrideHandler handles manual match override requests.
type OverrideHandler struct {
	overrides *service.OverrideService
}

// NewOverrideHandler creates a new OverrideHandler.
func NewOverrideHandler(overrides *service.OverrideService) *OverrideHandler {
	return &OverrideHandler{overrides: overrides}
}

// ApplyOverride applies one operator decision to a supplier item.
// POST /v1/admin/match/override
func (h *OverrideHandler) ApplyOverride(c *gin.Context) {
	var req service.OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body: "+err.Error())
		return
	}
	req.Actor = actorFrom(c)

	result, err := h.overrides.Apply(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Override applied successfully", result)
}
