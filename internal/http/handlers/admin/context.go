package admin

import (
	handlershared "github.com/ecommapi/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func parseID(c *gin.Context, name string) (uint, bool) {
	return handlershared.ParseIDParam(c, name)
}

func operatorID(c *gin.Context) uint {
	actor, _ := handlershared.CurrentActor(c)
	return actor.UserID
}
