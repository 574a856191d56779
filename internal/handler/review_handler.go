package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/supplysync/catalog_api/internal/repository"
	"github.com/supplysync/catalog_api/internal/service"
	"github.com/supplysync/catalog_api/internal/utils"
)

// ReviewHandler handles review queue HTTP requests.
type ReviewHandler struct {
	reviews *service.ReviewService
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(reviews *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

// ListPending returns the pending review queue page.
// GET /v1/admin/review-queue
func (h *ReviewHandler) ListPending(c *gin.Context) {
	f := repository.ListPendingFilter{
		SupplierID: queryInt(c, "supplierId"),
		CategoryID: queryInt(c, "categoryId"),
		Page:       queryIntDefault(c, "page", 1),
		Limit:      queryIntDefault(c, "limit", 50),
	}

	rows, total, err := h.reviews.ListPending(c.Request.Context(), &f)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessWithPagination(c, http.StatusOK, "Review queue retrieved successfully", rows, f.Page, f.Limit, total)
}

// GetStats returns queue counts grouped by status, supplier and category.
// GET /v1/admin/review-queue/stats
func (h *ReviewHandler) GetStats(c *gin.Context) {
	stats, err := h.reviews.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Review queue stats retrieved successfully", stats)
}

// SearchCandidates filters scored candidates by score range, date range and
// category.
// GET /v1/admin/review-queue/candidates
func (h *ReviewHandler) SearchCandidates(c *gin.Context) {
	f := repository.SearchCandidatesFilter{
		MinScore:   queryInt(c, "minScore"),
		MaxScore:   queryInt(c, "maxScore"),
		From:       queryTime(c, "from"),
		To:         queryTime(c, "to"),
		CategoryID: queryInt(c, "categoryId"),
		Page:       queryIntDefault(c, "page", 1),
		Limit:      queryIntDefault(c, "limit", 50),
	}

	rows, total, err := h.reviews.SearchCandidates(c.Request.Context(), &f)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessWithPagination(c, http.StatusOK, "Candidates retrieved successfully", rows, f.Page, f.Limit, total)
}

type approveRequest struct {
	ProductID *int `json:"productId"`
}

// Approve confirms one of the stored candidates for a pending entry.
// POST /v1/admin/review-queue/:id/approve
func (h *ReviewHandler) Approve(c *gin.Context) {
	id, ok := paramInt(c, "id")
	if !ok {
		return
	}
	var req approveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body: "+err.Error())
		return
	}

	result, err := h.reviews.Approve(c.Request.Context(), id, req.ProductID, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Review approved successfully", result)
}

// Reject discards all candidates; the item gets its own draft product.
// POST /v1/admin/review-queue/:id/reject
func (h *ReviewHandler) Reject(c *gin.Context) {
	id, ok := paramInt(c, "id")
	if !ok {
		return
	}

	result, err := h.reviews.Reject(c.Request.Context(), id, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Review rejected successfully", result)
}

// Skip records a deferred decision; the entry stays pending.
// POST /v1/admin/review-queue/:id/skip
func (h *ReviewHandler) Skip(c *gin.Context) {
	id, ok := paramInt(c, "id")
	if !ok {
		return
	}

	if err := h.reviews.Skip(c.Request.Context(), id, actorFrom(c)); err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Review skipped", nil)
}

func paramInt(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid "+name+" parameter")
		return 0, false
	}
	return v, true
}

func queryInt(c *gin.Context, name string) *int {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &v
}

func queryIntDefault(c *gin.Context, name string, def int) int {
	if v := queryInt(c, name); v != nil {
		return *v
	}
	return def
}

func queryTime(c *gin.Context, name string) *time.Time {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &t
}
