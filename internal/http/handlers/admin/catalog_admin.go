package admin

import (
	handlershared "github.com/ecommapi/internal/http/handlers/shared"
	"github.com/ecommapi/internal/http/response"
	"github.com/ecommapi/internal/service"

	"github.com/gin-gonic/gin"
)

// DiscountRequest 设置折扣请求
type DiscountRequest struct {
	Percentage *int `json:"percentage" validate:"required"`
}

// CreateProduct 创建商品
func (h *Handler) CreateProduct(c *gin.Context) {
	var req service.ProductInput
	if !handlershared.BindJSON(c, &req) {
		return
	}
	product, err := h.ProductService.Create(req)
	if err != nil {
		respondServiceError(c, err, "create product failed")
		return
	}
	requestLog(c).Infow("admin_product_created", "product_id", product.ID, "operator_id", operatorID(c))
	response.Created(c, product)
}

// UpdateProduct 更新商品，未传折扣时清除折扣
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.ProductInput
	if !handlershared.BindJSON(c, &req) {
		return
	}
	product, err := h.ProductService.Update(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err, "update product failed")
		return
	}
	requestLog(c).Infow("admin_product_updated", "product_id", product.ID, "operator_id", operatorID(c))
	response.Success(c, product)
}

// DeleteProduct 删除商品及其库存
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.ProductService.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "delete product failed")
		return
	}
	requestLog(c).Infow("admin_product_deleted", "product_id", id, "operator_id", operatorID(c))
	response.NoContent(c)
}

// SetProductDiscount 按百分比设置折扣，0 表示取消
func (h *Handler) SetProductDiscount(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req DiscountRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}
	product, err := h.ProductService.SetDiscount(c.Request.Context(), id, *req.Percentage)
	if err != nil {
		respondServiceError(c, err, "set discount failed")
		return
	}
	response.Success(c, product)
}

// CreateCategory 创建分类
func (h *Handler) CreateCategory(c *gin.Context) {
	var req service.CategoryInput
	if !handlershared.BindJSON(c, &req) {
		return
	}
	category, err := h.CategoryService.Create(req)
	if err != nil {
		respondServiceError(c, err, "create category failed")
		return
	}
	response.Created(c, category)
}

// UpdateCategory 重命名分类
func (h *Handler) UpdateCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.CategoryInput
	if !handlershared.BindJSON(c, &req) {
		return
	}
	category, err := h.CategoryService.Update(id, req)
	if err != nil {
		respondServiceError(c, err, "update category failed")
		return
	}
	response.Success(c, category)
}

// DeleteCategory 删除分类，商品改为未分类
func (h *Handler) DeleteCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.CategoryService.Delete(id); err != nil {
		respondServiceError(c, err, "delete category failed")
		return
	}
	response.NoContent(c)
}
