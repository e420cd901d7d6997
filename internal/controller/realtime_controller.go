package controller

import (
	"aiedu_backend/internal/service"
	"aiedu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type RealtimeController struct {
	Hub *service.RealtimeHub
}

func NewRealtimeController(hub *service.RealtimeHub) *RealtimeController {
	return &RealtimeController{Hub: hub}
}

// Connect godoc
// @Summary 实时推送 WebSocket
// @Description 连接后发送 {"type":"subscribe","topic":"news"} 订阅，可选 topic: news、paths、draft:{id}
// @Tags 实时
// @Param token query string true "JWT"
// @Param topics query string false "逗号分隔的初始订阅"
// @Router /ws [get]
func (c *RealtimeController) Connect(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	service.ServeWs(c.Hub, ctx.Writer, ctx.Request, user.UserID, user.Role)
}
