package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/supplysync/catalog_api/internal/utils"
)

// respondError maps domain sentinel errors to HTTP statuses. Unknown errors
// are logged and reported as internal.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, utils.ErrItemNotFound),
		errors.Is(err, utils.ErrProductNotFound),
		errors.Is(err, utils.ErrCategoryNotFound),
		errors.Is(err, utils.ErrReviewNotFound):
		utils.Error(c, http.StatusNotFound, err.Error(), "Resource not found")
	case errors.Is(err, utils.ErrInvalidTransition),
		errors.Is(err, utils.ErrReviewNotPending):
		utils.Error(c, http.StatusConflict, err.Error(), "Operation conflicts with current state")
	case errors.Is(err, utils.ErrProductArchived),
		errors.Is(err, utils.ErrCandidateNotFound):
		utils.Error(c, http.StatusUnprocessableEntity, err.Error(), "Target cannot be used for this operation")
	case errors.Is(err, utils.ErrMissingProductID),
		errors.Is(err, utils.ErrInvalidAction),
		errors.Is(err, utils.ErrInvalidCharacteristics):
		utils.Error(c, http.StatusBadRequest, err.Error(), "Invalid request")
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Unhandled error")
		utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// actorFrom returns the authenticated operator identity set by the JWT
// middleware.
func actorFrom(c *gin.Context) string {
	if actor := c.GetString("actor"); actor != "" {
		return actor
	}
	return "unknown"
}
