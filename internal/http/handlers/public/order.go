package public

import (
	handlershared "github.com/ecommapi/internal/http/handlers/shared"
	"github.com/ecommapi/internal/http/response"
	"github.com/ecommapi/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateOrderFromCart 购物车转订单
func (h *Handler) CreateOrderFromCart(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	cartID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.CreateOrderInput
	if !handlershared.BindJSON(c, &req) {
		return
	}
	order, err := h.OrderService.CreateOrder(actor, cartID, req)
	if err != nil {
		requestLog(c).Infow("order_create_rejected", "user_id", actor.UserID, "cart_id", cartID, "error", err)
		respondServiceError(c, err, "order create failed")
		return
	}
	response.Created(c, order)
}

// ListOrders 订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.ParsePagination(c)
	orders, total, err := h.OrderService.List(actor, page, pageSize)
	if err != nil {
		respondServiceError(c, err, "list orders failed")
		return
	}
	response.SuccessWithPage(c, orders, response.BuildPagination(page, pageSize, total))
}

// GetOrder 订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.Get(actor, orderID)
	if err != nil {
		respondServiceError(c, err, "get order failed")
		return
	}
	response.Success(c, order)
}

// UpdateOrder 修改未受理订单的地址与优惠券
func (h *Handler) UpdateOrder(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateOrderInput
	if !handlershared.BindJSON(c, &req) {
		return
	}
	order, err := h.OrderService.UpdateOrder(actor, orderID, req)
	if err != nil {
		respondServiceError(c, err, "order update failed")
		return
	}
	response.Success(c, order)
}

// DeleteOrder 取消未受理订单并回补库存
func (h *Handler) DeleteOrder(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.OrderService.DestroyOrder(actor, orderID); err != nil {
		respondServiceError(c, err, "order delete failed")
		return
	}
	response.NoContent(c)
}
