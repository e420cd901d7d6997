package controller

import (
	"aiedu_backend/internal/service"
	"aiedu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type LearningPathController struct {
	Service *service.LearningPathService
	Cleaner *service.DatabaseCleaner
}

func NewLearningPathController(s *service.LearningPathService, cleaner *service.DatabaseCleaner) *LearningPathController {
	return &LearningPathController{Service: s, Cleaner: cleaner}
}

// ListPaths godoc
// @Summary 已发布的学习路径
// @Tags 学习路径
// @Produce  json
// @Success 200 {object} util.Response{data=[]model.LearningPath}
// @Router /api/paths [get]
func (c *LearningPathController) ListPaths(ctx *gin.Context) {
	paths, err := c.Service.ListPaths(ctx.Request.Context(), true)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, paths)
}

// AdminListPaths godoc
// @Summary 全部学习路径（含未发布）
// @Tags 管理
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.LearningPath}
// @Router /api/admin/paths [get]
func (c *LearningPathController) AdminListPaths(ctx *gin.Context) {
	paths, err := c.Service.ListPaths(ctx.Request.Context(), false)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, paths)
}

// GetPath godoc
// @Summary 学习路径详情（含模块和课程）
// @Tags 学习路径
// @Produce  json
// @Param id path string true "路径ID"
// @Success 200 {object} util.Response{data=model.LearningPath}
// @Failure 404 {object} util.Response
// @Router /api/paths/{id} [get]
func (c *LearningPathController) GetPath(ctx *gin.Context) {
	path, err := c.Service.GetPathTree(ctx.Request.Context(), ctx.Param("id"), true)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, path)
}

// AdminGetPath godoc
// @Summary 学习路径详情（含未发布）
// @Tags 管理
// @Produce  json
// @Security ApiKeyAuth
// @Param id path string true "路径ID"
// @Success 200 {object} util.Response{data=model.LearningPath}
// @Failure 404 {object} util.Response
// @Router /api/admin/paths/{id} [get]
func (c *LearningPathController) AdminGetPath(ctx *gin.Context) {
	path, err := c.Service.GetPathTree(ctx.Request.Context(), ctx.Param("id"), false)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, path)
}

// GetLesson godoc
// @Summary 课程详情
// @Tags 学习路径
// @Produce  json
// @Param lessonId path string true "课程ID"
// @Success 200 {object} util.Response{data=model.Lesson}
// @Failure 404 {object} util.Response
// @Router /api/lessons/{lessonId} [get]
func (c *LearningPathController) GetLesson(ctx *gin.Context) {
	lesson, err := c.Service.GetLesson(ctx.Request.Context(), ctx.Param("lessonId"), true)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, lesson)
}

// AdminGetLesson godoc
// @Summary 课程详情（含未发布路径）
// @Tags 管理
// @Produce  json
// @Security ApiKeyAuth
// @Param lessonId path string true "课程ID"
// @Success 200 {object} util.Response{data=model.Lesson}
// @Failure 404 {object} util.Response
// @Router /api/admin/lessons/{lessonId} [get]
func (c *LearningPathController) AdminGetLesson(ctx *gin.Context) {
	lesson, err := c.Service.GetLesson(ctx.Request.Context(), ctx.Param("lessonId"), false)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, lesson)
}

// CreatePath godoc
// @Summary 创建学习路径
// @Tags 管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param body body service.PathRequest true "路径"
// @Success 201 {object} util.Response{data=model.LearningPath}
// @Router /api/admin/paths [post]
func (c *LearningPathController) CreatePath(ctx *gin.Context) {
	var req service.PathRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	path, err := c.Service.CreatePath(ctx.Request.Context(), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, path)
}

// UpdatePath godoc
// @Summary 更新学习路径
// @Tags 管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param id path string true "路径ID"
// @Param body body service.PathRequest true "路径"
// @Success 200 {object} util.Response{data=model.LearningPath}
// @Router /api/admin/paths/{id} [put]
func (c *LearningPathController) UpdatePath(ctx *gin.Context) {
	var req service.PathRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	path, err := c.Service.UpdatePath(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, path)
}

// DeletePath godoc
// @Summary 删除学习路径
// @Description 级联删除路径下的全部模块、课程和学习进度
// @Tags 管理
// @Produce  json
// @Security ApiKeyAuth
// @Param id path string true "路径ID"
// @Success 200 {object} util.Response{data=service.DeleteResult}
// @Failure 404 {object} util.Response
// @Router /api/admin/paths/{id} [delete]
func (c *LearningPathController) DeletePath(ctx *gin.Context) {
	result, err := c.Service.DeleteLearningPath(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// ListModules godoc
// @Summary 路径下的模块
// @Tags 管理
// @Produce  json
// @Security ApiKeyAuth
// @Param id path string true "路径ID"
// @Success 200 {object} util.Response{data=[]model.PathModule}
// @Router /api/admin/paths/{id}/modules [get]
func (c *LearningPathController) ListModules(ctx *gin.Context) {
	modules, err := c.Service.ListModules(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, modules)
}

// CreateModule godoc
// @Summary 创建模块
// @Tags 管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param id path string true "路径ID"
// @Param body body service.ModuleRequest true "模块"
// @Success 201 {object} util.Response{data=model.PathModule}
// @Router /api/admin/paths/{id}/modules [post]
func (c *LearningPathController) CreateModule(ctx *gin.Context) {
	var req service.ModuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	m, err := c.Service.CreateModule(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, m)
}

// UpdateModule godoc
// @Summary 更新模块
// @Tags 管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param id path string true "路径ID"
// @Param moduleId path string true "模块ID"
// @Param body body service.ModuleRequest true "模块"
// @Success 200 {object} util.Response{data=model.PathModule}
// @Router /api/admin/paths/{id}/modules/{moduleId} [put]
func (c *LearningPathController) UpdateModule(ctx *gin.Context) {
	var req service.ModuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	m, err := c.Service.UpdateModule(ctx.Request.Context(), ctx.Param("id"), ctx.Param("moduleId"), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, m)
}

// DeleteModule godoc
// @Summary 删除模块及其课程
// @Tags 管理
// @Produce  json
// @Security ApiKeyAuth
// @Param id path string true "路径ID"
// @Param moduleId path string true "模块ID"
// @Success 200 {object} util.Response{data=service.DeleteResult}
// @Router /api/admin/paths/{id}/modules/{moduleId} [delete]
func (c *LearningPathController) DeleteModule(ctx *gin.Context) {
	result, err := c.Service.DeleteModule(ctx.Request.Context(), ctx.Param("id"), ctx.Param("moduleId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// ListLessons godoc
// @Summary 模块下的课程
// @Tags 管理
// @Produce  json
// @Security ApiKeyAuth
// @Param id path string true "路径ID"
// @Param moduleId path string true "模块ID"
// @Success 200 {object} util.Response{data=[]model.Lesson}
// @Router /api/admin/paths/{id}/modules/{moduleId}/lessons [get]
func (c *LearningPathController) ListLessons(ctx *gin.Context) {
	lessons, err := c.Service.ListLessons(ctx.Request.Context(), ctx.Param("id"), ctx.Param("moduleId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, lessons)
}

// CreateLesson godoc
// @Summary 创建课程
// @Tags 管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param id path string true "路径ID"
// @Param moduleId path string true "模块ID"
// @Param body body service.LessonRequest true "课程"
// @Success 201 {object} util.Response{data=model.Lesson}
// @Router /api/admin/paths/{id}/modules/{moduleId}/lessons [post]
func (c *LearningPathController) CreateLesson(ctx *gin.Context) {
	var req service.LessonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	lesson, err := c.Service.CreateLesson(ctx.Request.Context(), ctx.Param("id"), ctx.Param("moduleId"), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, lesson)
}

// UpdateLesson godoc
// @Summary 更新课程
// @Tags 管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param lessonId path string true "课程ID"
// @Param body body service.LessonRequest true "课程"
// @Success 200 {object} util.Response{data=model.Lesson}
// @Router /api/admin/lessons/{lessonId} [put]
func (c *LearningPathController) UpdateLesson(ctx *gin.Context) {
	var req service.LessonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	lesson, err := c.Service.UpdateLesson(ctx.Request.Context(), ctx.Param("lessonId"), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, lesson)
}

// DeleteLesson godoc
// @Summary 删除课程
// @Tags 管理
// @Produce  json
// @Security ApiKeyAuth
// @Param lessonId path string true "课程ID"
// @Success 200 {object} util.Response
// @Router /api/admin/lessons/{lessonId} [delete]
func (c *LearningPathController) DeleteLesson(ctx *gin.Context) {
	if err := c.Service.DeleteLesson(ctx.Request.Context(), ctx.Param("lessonId")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": ctx.Param("lessonId")})
}

// FindOrphans godoc
// @Summary 查找孤立的模块和课程
// @Tags 管理
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.OrphanReport}
// @Router /api/admin/cleaner/orphans [get]
func (c *LearningPathController) FindOrphans(ctx *gin.Context) {
	report, err := c.Cleaner.FindOrphans(ctx.Request.Context())
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, report)
}

// CleanOrphans godoc
// @Summary 删除孤立的模块和课程
// @Tags 管理
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.CleanResult}
// @Router /api/admin/cleaner/clean [post]
func (c *LearningPathController) CleanOrphans(ctx *gin.Context) {
	result, err := c.Cleaner.Clean(ctx.Request.Context())
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}
