package admin

import (
	"strconv"
	"strings"

	handlershared "github.com/ecommapi/internal/http/handlers/shared"
	"github.com/ecommapi/internal/http/response"
	"github.com/ecommapi/internal/repository"
	"github.com/ecommapi/internal/service"

	"github.com/gin-gonic/gin"
)

// ListCoupons 优惠券列表
func (h *Handler) ListCoupons(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	filter := repository.CouponListFilter{
		Page:     page,
		PageSize: pageSize,
		Code:     strings.TrimSpace(c.Query("code")),
	}
	if raw := strings.TrimSpace(c.Query("is_active")); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			response.ErrorWithData(c, response.CodeBadRequest, "invalid value for is_active", gin.H{"field": "is_active"})
			return
		}
		filter.IsActive = &active
	}
	coupons, total, err := h.CouponService.List(filter)
	if err != nil {
		respondServiceError(c, err, "list coupons failed")
		return
	}
	response.SuccessWithPage(c, coupons, response.BuildPagination(page, pageSize, total))
}

// GetCoupon 优惠券详情
func (h *Handler) GetCoupon(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	coupon, err := h.CouponService.Get(id)
	if err != nil {
		respondServiceError(c, err, "get coupon failed")
		return
	}
	response.Success(c, coupon)
}

// CreateCoupon 创建优惠券
func (h *Handler) CreateCoupon(c *gin.Context) {
	var req service.CouponInput
	if !handlershared.BindJSON(c, &req) {
		return
	}
	coupon, err := h.CouponService.Create(req)
	if err != nil {
		respondServiceError(c, err, "create coupon failed")
		return
	}
	requestLog(c).Infow("admin_coupon_created", "coupon_id", coupon.ID, "code", coupon.Code, "operator_id", operatorID(c))
	response.Created(c, coupon)
}

// UpdateCoupon 更新优惠券
func (h *Handler) UpdateCoupon(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.CouponInput
	if !handlershared.BindJSON(c, &req) {
		return
	}
	coupon, err := h.CouponService.Update(id, req)
	if err != nil {
		respondServiceError(c, err, "update coupon failed")
		return
	}
	requestLog(c).Infow("admin_coupon_updated", "coupon_id", coupon.ID, "operator_id", operatorID(c))
	response.Success(c, coupon)
}

// DeleteCoupon 删除优惠券，被订单引用时返回 409
func (h *Handler) DeleteCoupon(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.CouponService.Delete(id); err != nil {
		respondServiceError(c, err, "delete coupon failed")
		return
	}
	requestLog(c).Infow("admin_coupon_deleted", "coupon_id", id, "operator_id", operatorID(c))
	response.NoContent(c)
}
