package public

import (
	"strings"

	handlershared "github.com/ecommapi/internal/http/handlers/shared"
	"github.com/ecommapi/internal/http/response"
	"github.com/ecommapi/internal/repository"
	"github.com/ecommapi/internal/service"

	"github.com/gin-gonic/gin"
)

// ListReviews 评价列表，支持 product / user / rating 过滤
func (h *Handler) ListReviews(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	rating, err := queryFloat(c, "rating")
	if err != nil {
		response.ErrorWithData(c, response.CodeBadRequest, err.Error(), gin.H{"field": "rating"})
		return
	}
	reviews, total, err := h.ReviewService.List(repository.ReviewListFilter{
		Page:        page,
		PageSize:    pageSize,
		ProductName: strings.TrimSpace(c.Query("product")),
		Username:    strings.TrimSpace(c.Query("user")),
		Rating:      rating,
	})
	if err != nil {
		respondServiceError(c, err, "list reviews failed")
		return
	}
	response.SuccessWithPage(c, reviews, response.BuildPagination(page, pageSize, total))
}

// GetReview 评价详情
func (h *Handler) GetReview(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	review, err := h.ReviewService.Get(id)
	if err != nil {
		respondServiceError(c, err, "get review failed")
		return
	}
	response.Success(c, review)
}

// CreateReview 发表评价
func (h *Handler) CreateReview(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req service.CreateReviewInput
	if !handlershared.BindJSON(c, &req) {
		return
	}
	review, err := h.ReviewService.Create(c.Request.Context(), actor, req)
	if err != nil {
		respondServiceError(c, err, "create review failed")
		return
	}
	response.Created(c, review)
}

// UpdateReview 修改评价，仅作者
func (h *Handler) UpdateReview(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateReviewInput
	if !handlershared.BindJSON(c, &req) {
		return
	}
	review, err := h.ReviewService.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		respondServiceError(c, err, "update review failed")
		return
	}
	response.Success(c, review)
}

// DeleteReview 删除评价，仅作者
func (h *Handler) DeleteReview(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.ReviewService.Delete(c.Request.Context(), actor, id); err != nil {
		respondServiceError(c, err, "delete review failed")
		return
	}
	response.NoContent(c)
}
