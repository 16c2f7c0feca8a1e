package public

import (
	"strings"

	handlershared "github.com/ecommapi/internal/http/handlers/shared"
	"github.com/ecommapi/internal/http/response"
	"github.com/ecommapi/internal/repository"
	"github.com/ecommapi/internal/service"

	"github.com/gin-gonic/gin"
)

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Register 用户注册
func (h *Handler) Register(c *gin.Context) {
	var req service.RegisterInput
	if !handlershared.BindJSON(c, &req) {
		return
	}
	user, err := h.AccountService.Register(req)
	if err != nil {
		respondServiceError(c, err, "register failed")
		return
	}
	requestLog(c).Infow("user_registered", "user_id", user.ID, "username", user.Username)
	response.Created(c, user)
}

// Login 用户登录
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}
	result, err := h.AccountService.Login(req.Username, req.Password)
	h.LoginLogService.Record(service.LoginAttempt{
		Username:  req.Username,
		ClientIP:  c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		RequestID: c.GetString("request_id"),
	}, result, err)
	if err != nil {
		requestLog(c).Infow("user_login_rejected", "username", strings.TrimSpace(req.Username), "client_ip", c.ClientIP())
		respondServiceError(c, err, "login failed")
		return
	}
	response.Success(c, result)
}

// ListUsers 用户列表，普通用户只看到自己
func (h *Handler) ListUsers(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.ParsePagination(c)
	users, total, err := h.AccountService.ListUsers(actor, repository.UserListFilter{
		Page:     page,
		PageSize: pageSize,
		Keyword:  strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		respondServiceError(c, err, "list users failed")
		return
	}
	response.SuccessWithPage(c, users, response.BuildPagination(page, pageSize, total))
}

// GetUser 用户详情
func (h *Handler) GetUser(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	user, err := h.AccountService.GetUser(actor, id)
	if err != nil {
		respondServiceError(c, err, "get user failed")
		return
	}
	response.Success(c, user)
}

// UpdateUser 更新用户资料与地址
func (h *Handler) UpdateUser(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateUserInput
	if !handlershared.BindJSON(c, &req) {
		return
	}
	user, err := h.AccountService.UpdateUser(actor, id, req)
	if err != nil {
		respondServiceError(c, err, "update user failed")
		return
	}
	response.Success(c, user)
}

// ListAddresses 当前用户的地址
func (h *Handler) ListAddresses(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	addresses, err := h.AccountService.ListAddresses(actor)
	if err != nil {
		respondServiceError(c, err, "list addresses failed")
		return
	}
	response.Success(c, addresses)
}

// ListLoginLogs 当前用户的登录记录
func (h *Handler) ListLoginLogs(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.ParsePagination(c)
	logs, total, err := h.LoginLogService.ListMine(actor, page, pageSize)
	if err != nil {
		respondServiceError(c, err, "list login logs failed")
		return
	}
	response.SuccessWithPage(c, logs, response.BuildPagination(page, pageSize, total))
}
