package shared

import (
	"github.com/ecommapi/internal/http/response"
	"github.com/ecommapi/internal/service"

	"github.com/gin-gonic/gin"
)

// 认证中间件写入的上下文键
const (
	ContextUserID      = "user_id"
	ContextIsStaff     = "is_staff"
	ContextIsSuperuser = "is_superuser"
)

// CurrentActor 从上下文读取调用者，未登录时 ok=false
func CurrentActor(c *gin.Context) (service.Actor, bool) {
	value, exists := c.Get(ContextUserID)
	if !exists {
		return service.Actor{}, false
	}
	userID, ok := value.(uint)
	if !ok || userID == 0 {
		return service.Actor{}, false
	}
	return service.Actor{
		UserID:      userID,
		IsStaff:     c.GetBool(ContextIsStaff),
		IsSuperuser: c.GetBool(ContextIsSuperuser),
	}, true
}

// RequireActor 读取调用者，未登录时直接返回 401
func RequireActor(c *gin.Context) (service.Actor, bool) {
	actor, ok := CurrentActor(c)
	if !ok {
		response.Unauthorized(c, "Authentication credentials were not provided.")
		return service.Actor{}, false
	}
	return actor, true
}
