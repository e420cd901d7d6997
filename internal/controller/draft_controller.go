package controller

import (
	"aiedu_backend/internal/model"
	"aiedu_backend/internal/service"
	"aiedu_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

type DraftController struct {
	Drafts  *service.DraftService
	Publish *service.PublishService
}

func NewDraftController(drafts *service.DraftService, publish *service.PublishService) *DraftController {
	return &DraftController{Drafts: drafts, Publish: publish}
}

// DraftRequest 编辑器提交的草稿内容
type DraftRequest struct {
	Title           string                 `json:"title"`
	Description     string                 `json:"description"`
	PathID          string                 `json:"pathId"`
	ModuleID        string                 `json:"moduleId"`
	Difficulty      string                 `json:"difficulty"`
	Duration        int                    `json:"duration"`
	XPReward        int                    `json:"xpReward"`
	Tags            []string               `json:"tags"`
	ContentVersions *model.ContentVersions `json:"contentVersions"`
	ExpectedVersion int                    `json:"expectedVersion"`
}

func (r *DraftRequest) toDraft(id, authorID string) *model.Draft {
	d := &model.Draft{
		ID:          id,
		Title:       r.Title,
		Description: r.Description,
		AuthorID:    authorID,
		PathID:      r.PathID,
		ModuleID:    r.ModuleID,
		Difficulty:  r.Difficulty,
		Duration:    r.Duration,
		XPReward:    r.XPReward,
		Tags:        datatypes.JSONSlice[string](r.Tags),
	}
	if r.ContentVersions != nil {
		d.SetContent(*r.ContentVersions)
	} else {
		d.SetContent(model.ContentVersions{})
	}
	return d
}

// CreateDraft godoc
// @Summary 新建草稿
// @Tags 草稿
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param body body DraftRequest true "草稿"
// @Success 201 {object} util.Response{data=model.Draft}
// @Router /api/admin/drafts [post]
func (c *DraftController) CreateDraft(ctx *gin.Context) {
	var req DraftRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	user := util.GetUserFromContext(ctx)
	draft, err := c.Drafts.SaveDraft(ctx.Request.Context(), req.toDraft("", user.UserID), 0)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, draft)
}

// SaveDraft godoc
// @Summary 保存草稿
// @Description expectedVersion 非 0 时与当前版本不一致返回 409
// @Tags 草稿
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param id path string true "草稿ID"
// @Param body body DraftRequest true "草稿"
// @Success 200 {object} util.Response{data=model.Draft}
// @Failure 409 {object} util.Response
// @Router /api/admin/drafts/{id} [put]
func (c *DraftController) SaveDraft(ctx *gin.Context) {
	var req DraftRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	user := util.GetUserFromContext(ctx)
	draft, err := c.Drafts.SaveDraft(ctx.Request.Context(), req.toDraft(ctx.Param("id"), user.UserID), req.ExpectedVersion)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, draft)
}

// AutosaveDraft godoc
// @Summary 自动保存草稿
// @Description 立即写入缓冲区，延迟写入数据库
// @Tags 草稿
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param id path string true "草稿ID"
// @Param body body DraftRequest true "草稿"
// @Success 202 {object} util.Response{data=model.Draft}
// @Router /api/admin/drafts/{id}/autosave [post]
func (c *DraftController) AutosaveDraft(ctx *gin.Context) {
	var req DraftRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	user := util.GetUserFromContext(ctx)
	draft, err := c.Drafts.Autosave(ctx.Request.Context(), req.toDraft(ctx.Param("id"), user.UserID))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Accepted(ctx, draft)
}

// GetDraft godoc
// @Summary 草稿详情
// @Tags 草稿
// @Produce  json
// @Security ApiKeyAuth
// @Param id path string true "草稿ID"
// @Success 200 {object} util.Response{data=model.Draft}
// @Failure 404 {object} util.Response
// @Router /api/admin/drafts/{id} [get]
func (c *DraftController) GetDraft(ctx *gin.Context) {
	draft, err := c.Drafts.GetDraft(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, draft)
}

// ListDrafts godoc
// @Summary 草稿列表
// @Tags 草稿
// @Produce  json
// @Security ApiKeyAuth
// @Param mine query bool false "只看自己的草稿"
// @Param status query string false "draft 或 published"
// @Success 200 {object} util.Response{data=[]model.Draft}
// @Router /api/admin/drafts [get]
func (c *DraftController) ListDrafts(ctx *gin.Context) {
	authorID := ""
	if ctx.Query("mine") == "true" {
		authorID = util.GetUserFromContext(ctx).UserID
	}
	drafts, err := c.Drafts.ListDrafts(ctx.Request.Context(), authorID, model.DraftStatus(ctx.Query("status")))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, drafts)
}

// DeleteDraft godoc
// @Summary 删除草稿
// @Tags 草稿
// @Produce  json
// @Security ApiKeyAuth
// @Param id path string true "草稿ID"
// @Success 200 {object} util.Response
// @Router /api/admin/drafts/{id} [delete]
func (c *DraftController) DeleteDraft(ctx *gin.Context) {
	if err := c.Drafts.DeleteDraft(ctx.Request.Context(), ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": ctx.Param("id")})
}

// PublishDraft godoc
// @Summary 发布草稿为课程
// @Description 上传 blob: 媒体并写入 learningPaths/{pathId}/modules/{moduleId}/lessons
// @Tags 草稿
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param id path string true "草稿ID"
// @Param body body service.PublishTarget true "发布位置"
// @Success 200 {object} util.Response{data=service.PublishResult}
// @Failure 404 {object} util.Response
// @Router /api/admin/drafts/{id}/publish [post]
func (c *DraftController) PublishDraft(ctx *gin.Context) {
	var target service.PublishTarget
	if err := ctx.ShouldBindJSON(&target); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	result, err := c.Publish.PublishDraft(ctx.Request.Context(), ctx.Param("id"), target)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// StageMedia godoc
// @Summary 暂存编辑器媒体
// @Description 返回 blob:<id>，发布时才上传到持久存储
// @Tags 草稿
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param id path string true "草稿ID"
// @Param file formData file true "图片或视频"
// @Success 201 {object} util.Response{data=object}
// @Failure 413 {object} util.Response
// @Failure 415 {object} util.Response
// @Router /api/admin/drafts/{id}/media/stage [post]
func (c *DraftController) StageMedia(ctx *gin.Context) {
	file, header, err := ctx.Request.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}
	defer file.Close()

	url, err := c.Publish.StageMedia(ctx.Request.Context(), ctx.Param("id"), header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, gin.H{"url": url})
}

// UploadMedia godoc
// @Summary 直接上传草稿媒体
// @Tags 草稿
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param id path string true "草稿ID"
// @Param file formData file true "图片或视频"
// @Success 201 {object} util.Response{data=object}
// @Failure 413 {object} util.Response
// @Failure 415 {object} util.Response
// @Router /api/admin/drafts/{id}/media [post]
func (c *DraftController) UploadMedia(ctx *gin.Context) {
	file, header, err := ctx.Request.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}
	defer file.Close()

	url, err := c.Publish.UploadDraftMedia(ctx.Request.Context(), ctx.Param("id"), header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, gin.H{"url": url})
}
