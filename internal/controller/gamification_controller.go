package controller

import (
	"aiedu_backend/internal/service"
	"aiedu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type GamificationController struct {
	Service *service.GamificationService
}

func NewGamificationController(s *service.GamificationService) *GamificationController {
	return &GamificationController{Service: s}
}

// Leaderboard godoc
// @Summary 经验排行榜
// @Tags 成就
// @Produce  json
// @Param limit query int false "数量" default(10)
// @Success 200 {object} util.Response{data=[]service.LeaderboardEntry}
// @Router /api/leaderboard [get]
func (c *GamificationController) Leaderboard(ctx *gin.Context) {
	board, err := c.Service.Leaderboard(ctx.Request.Context(), util.ParseIntDefault(ctx.Query("limit"), 10))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, board)
}

// Badges godoc
// @Summary 徽章列表
// @Tags 成就
// @Produce  json
// @Success 200 {object} util.Response{data=[]model.Badge}
// @Router /api/badges [get]
func (c *GamificationController) Badges(ctx *gin.Context) {
	util.Success(ctx, c.Service.Badges())
}

// CheckBadges godoc
// @Summary 检查并发放徽章
// @Tags 成就
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=object} "本次新获得的徽章"
// @Router /api/badges/check [post]
func (c *GamificationController) CheckBadges(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	awarded, err := c.Service.CheckAndAwardBadges(ctx.Request.Context(), claims.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"awarded": awarded})
}
