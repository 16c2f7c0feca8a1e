package public

import (
	handlershared "github.com/ecommapi/internal/http/handlers/shared"
	"github.com/ecommapi/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func requireActor(c *gin.Context) (service.Actor, bool) {
	return handlershared.RequireActor(c)
}

// optionalActor 未登录时返回匿名调用者
func optionalActor(c *gin.Context) service.Actor {
	actor, _ := handlershared.CurrentActor(c)
	return actor
}

func parseID(c *gin.Context, name string) (uint, bool) {
	return handlershared.ParseIDParam(c, name)
}

func respondServiceError(c *gin.Context, err error, fallbackMsg string) {
	handlershared.RespondServiceError(c, err, fallbackMsg)
}
