package controller

import (
	"aiedu_backend/internal/service"
	"aiedu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type NewsController struct {
	Service *service.NewsService
}

func NewNewsController(s *service.NewsService) *NewsController {
	return &NewsController{Service: s}
}

// ListNews godoc
// @Summary AI 新闻列表
// @Description 登录用户会带上 likedByMe
// @Tags 新闻
// @Produce  json
// @Param limit query int false "数量" default(20)
// @Param category query string false "分类"
// @Success 200 {object} util.Response{data=[]service.NewsItem}
// @Router /api/news [get]
func (c *NewsController) ListNews(ctx *gin.Context) {
	limit := util.ParseIntDefault(ctx.Query("limit"), 20)
	userID := ""
	if user := util.GetUserFromContext(ctx); user != nil {
		userID = user.UserID
	}

	items, err := c.Service.ListNews(ctx.Request.Context(), limit, ctx.Query("category"), userID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, items)
}

// ToggleLike godoc
// @Summary 点赞或取消点赞
// @Tags 新闻
// @Produce  json
// @Security ApiKeyAuth
// @Param id path string true "新闻ID"
// @Success 200 {object} util.Response{data=service.LikeResult}
// @Failure 404 {object} util.Response
// @Router /api/news/{id}/like [post]
func (c *NewsController) ToggleLike(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	result, err := c.Service.ToggleLike(ctx.Request.Context(), user.UserID, ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// RefreshNews godoc
// @Summary 手动刷新新闻源
// @Tags 管理
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.RefreshResult}
// @Failure 429 {object} util.Response
// @Router /api/admin/news/refresh [post]
func (c *NewsController) RefreshNews(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	result, err := c.Service.RefreshNewsManual(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}
