package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/supplysync/catalog_api/internal/models"
	"github.com/supplysync/catalog_api/internal/queue"
	"github.com/supplysync/catalog_api/internal/utils"
)

// IngestHandler receives signals from the upstream ingestion pipeline.
// Requests carry an HMAC-SHA256 signature over the raw body instead of a
// bearer token.
type IngestHandler struct {
	queue      queue.Queue
	secret     string
	maxRetries int
}

// NewIngestHandler creates a new IngestHandler.
func NewIngestHandler(q queue.Queue, secret string, maxRetries int) *IngestHandler {
	return &IngestHandler{queue: q, secret: secret, maxRetries: maxRetries}
}

type priceChangeRequest struct {
	ProductIDs []int `json:"productIds" binding:"required"`
}

// PriceChange enqueues aggregate recomputation for products whose supplier
// prices changed upstream.
// POST /v1/internal/price-change
func (h *IngestHandler) PriceChange(c *gin.Context) {
	body, ok := h.verifiedBody(c)
	if !ok {
		return
	}

	var req priceChangeRequest
	if err := json.Unmarshal(body, &req); err != nil || len(req.ProductIDs) == 0 {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Body must contain a non-empty productIds array")
		return
	}

	task, err := queue.NewTask(models.TaskRecalcAggregates, models.RecalcAggregatesPayload{
		ProductIDs: req.ProductIDs,
		Trigger:    models.TriggerPriceChange,
	}, h.maxRetries)
	if err == nil {
		err = h.queue.Publish(c.Request.Context(), task)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusAccepted, "Price change accepted", gin.H{"taskId": task.ID})
}

type matchRunRequest struct {
	CategoryID *int `json:"categoryId,omitempty"`
	BatchSize  int  `json:"batchSize,omitempty"`
}

// RunMatch enqueues an immediate batch-matching pass.
// POST /v1/internal/match/run
func (h *IngestHandler) RunMatch(c *gin.Context) {
	body, ok := h.verifiedBody(c)
	if !ok {
		return
	}

	var req matchRunRequest
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
			return
		}
	}

	task, err := queue.NewTask(models.TaskMatchItems, models.MatchItemsPayload{
		CategoryID: req.CategoryID,
		BatchSize:  req.BatchSize,
	}, h.maxRetries)
	if err == nil {
		err = h.queue.Publish(c.Request.Context(), task)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusAccepted, "Match run enqueued", gin.H{"taskId": task.ID})
}

// verifiedBody reads the raw body and checks its X-Signature header.
func (h *IngestHandler) verifiedBody(c *gin.Context) ([]byte, bool) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Failed to read request body")
		return nil, false
	}

	signature := c.GetHeader("X-Signature")
	if signature == "" || !utils.VerifySignature(body, signature, h.secret) {
		utils.Error(c, http.StatusUnauthorized, "INVALID_SIGNATURE", "Missing or invalid request signature")
		return nil, false
	}
	return body, true
}
