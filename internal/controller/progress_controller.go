package controller

import (
	"aiedu_backend/internal/service"
	"aiedu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	Service *service.ProgressService
}

func NewProgressController(s *service.ProgressService) *ProgressController {
	return &ProgressController{Service: s}
}

// UpdateProgress godoc
// @Summary 更新课程学习进度
// @Description 首次完成课程时发放经验、更新连续学习天数并检查徽章
// @Tags 学习进度
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param lessonId path string true "课程ID"
// @Param body body service.ProgressRequest true "进度"
// @Success 200 {object} util.Response{data=service.ProgressResult}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/progress/{lessonId} [put]
func (c *ProgressController) UpdateProgress(ctx *gin.Context) {
	var req service.ProgressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	user := util.GetUserFromContext(ctx)
	result, err := c.Service.UpdateProgress(ctx.Request.Context(), user.UserID, ctx.Param("lessonId"), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// GetProgress godoc
// @Summary 单个课程的进度
// @Tags 学习进度
// @Produce  json
// @Security ApiKeyAuth
// @Param lessonId path string true "课程ID"
// @Success 200 {object} util.Response{data=model.UserProgress}
// @Router /api/progress/{lessonId} [get]
func (c *ProgressController) GetProgress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	progress, err := c.Service.GetProgress(ctx.Request.Context(), user.UserID, ctx.Param("lessonId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}

// ListProgress godoc
// @Summary 当前用户的全部进度
// @Tags 学习进度
// @Produce  json
// @Security ApiKeyAuth
// @Param pathId query string false "按学习路径过滤"
// @Success 200 {object} util.Response{data=[]model.UserProgress}
// @Router /api/progress [get]
func (c *ProgressController) ListProgress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	list, err := c.Service.ListProgress(ctx.Request.Context(), user.UserID, ctx.Query("pathId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, list)
}
