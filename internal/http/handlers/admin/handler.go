package admin

import "github.com/ecommapi/internal/provider"

// Handler 员工管理接口处理器入口
// 说明：路由层已完成 casbin 授权，这里只做参数解析与调用。
type Handler struct {
	*provider.Container
}

// New 创建管理处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
