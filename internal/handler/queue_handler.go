package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/supplysync/catalog_api/internal/queue"
	"github.com/supplysync/catalog_api/internal/utils"
)

// QueueHandler exposes task queue inspection endpoints.
type QueueHandler struct {
	queue queue.Queue
}

// NewQueueHandler creates a new QueueHandler.
func NewQueueHandler(q queue.Queue) *QueueHandler {
	return &QueueHandler{queue: q}
}

// ListDeadLetters returns dead-lettered tasks for manual inspection.
// GET /v1/admin/queue/dead-letters
func (h *QueueHandler) ListDeadLetters(c *gin.Context) {
	limit := int64(queryIntDefault(c, "limit", 50))

	tasks, err := h.queue.DeadLetters(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Dead letters retrieved successfully", tasks)
}
