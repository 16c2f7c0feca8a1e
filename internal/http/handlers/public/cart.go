package public

import (
	handlershared "github.com/ecommapi/internal/http/handlers/shared"
	"github.com/ecommapi/internal/http/response"
	"github.com/ecommapi/internal/service"

	"github.com/gin-gonic/gin"
)

// ListCarts 当前用户的购物车
func (h *Handler) ListCarts(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.ParsePagination(c)
	carts, total, err := h.CartService.List(actor, page, pageSize)
	if err != nil {
		respondServiceError(c, err, "list carts failed")
		return
	}
	response.SuccessWithPage(c, carts, response.BuildPagination(page, pageSize, total))
}

// CreateCart 新建购物车
func (h *Handler) CreateCart(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	cart, err := h.CartService.Create(actor)
	if err != nil {
		respondServiceError(c, err, "create cart failed")
		return
	}
	response.Created(c, cart)
}

// GetCart 购物车详情
func (h *Handler) GetCart(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	cartID, ok := parseID(c, "id")
	if !ok {
		return
	}
	cart, err := h.CartService.Get(actor, cartID)
	if err != nil {
		respondServiceError(c, err, "get cart failed")
		return
	}
	response.Success(c, cart)
}

// DeleteCart 删除购物车
func (h *Handler) DeleteCart(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	cartID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.CartService.Delete(actor, cartID); err != nil {
		respondServiceError(c, err, "delete cart failed")
		return
	}
	response.NoContent(c)
}

// AddCartItem 加入商品，同一商品合并数量
func (h *Handler) AddCartItem(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	cartID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.AddCartItemInput
	if !handlershared.BindJSON(c, &req) {
		return
	}
	item, err := h.CartService.AddItem(actor, cartID, req)
	if err != nil {
		respondServiceError(c, err, "add cart item failed")
		return
	}
	response.Created(c, item)
}

// UpdateCartItem 修改数量，数量为 0 时移除
func (h *Handler) UpdateCartItem(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	cartID, ok := parseID(c, "id")
	if !ok {
		return
	}
	itemID, ok := parseID(c, "item_id")
	if !ok {
		return
	}
	var req service.UpdateCartItemInput
	if !handlershared.BindJSON(c, &req) {
		return
	}
	item, err := h.CartService.UpdateItem(actor, cartID, itemID, req)
	if err != nil {
		respondServiceError(c, err, "update cart item failed")
		return
	}
	if item == nil {
		response.NoContent(c)
		return
	}
	response.Success(c, item)
}

// DeleteCartItem 移除购物车项
func (h *Handler) DeleteCartItem(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	cartID, ok := parseID(c, "id")
	if !ok {
		return
	}
	itemID, ok := parseID(c, "item_id")
	if !ok {
		return
	}
	if err := h.CartService.DeleteItem(actor, cartID, itemID); err != nil {
		respondServiceError(c, err, "delete cart item failed")
		return
	}
	response.NoContent(c)
}
