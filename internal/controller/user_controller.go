package controller

import (
	"aiedu_backend/internal/model"
	"aiedu_backend/internal/service"
	"aiedu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// UserController 管理员的用户管理接口
type UserController struct {
	UserService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{UserService: userService}
}

// SetRoleRequest swagger:model SetRoleRequest
type SetRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=student editor admin"`
}

// SetDisabledRequest swagger:model SetDisabledRequest
type SetDisabledRequest struct {
	Disabled bool `json:"disabled"`
}

// ListUsers godoc
// @Summary 用户列表
// @Tags 管理
// @Produce  json
// @Security ApiKeyAuth
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Param role query string false "角色"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/admin/users [get]
func (c *UserController) ListUsers(ctx *gin.Context) {
	page := util.ParseIntDefault(ctx.Query("page"), 1)
	limit := util.ParseIntDefault(ctx.Query("limit"), 20)

	users, total, err := c.UserService.ListUsers(ctx.Request.Context(), page, limit, ctx.Query("role"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: users, Total: total, Page: page, Limit: limit})
}

// SetUserRole godoc
// @Summary 修改用户角色
// @Tags 管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param uid path string true "用户ID"
// @Param body body SetRoleRequest true "角色"
// @Success 200 {object} util.Response{data=model.User}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/users/{uid}/role [put]
func (c *UserController) SetUserRole(ctx *gin.Context) {
	var req SetRoleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, err := c.UserService.SetUserRole(ctx.Request.Context(), ctx.Param("uid"), model.UserRole(req.Role))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, user)
}

// SetDisabled godoc
// @Summary 禁用或启用用户
// @Tags 管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param uid path string true "用户ID"
// @Param body body SetDisabledRequest true "状态"
// @Success 200 {object} util.Response
// @Router /api/admin/users/{uid}/disabled [put]
func (c *UserController) SetDisabled(ctx *gin.Context) {
	var req SetDisabledRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err := c.UserService.SetDisabled(ctx.Request.Context(), ctx.Param("uid"), req.Disabled); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"uid": ctx.Param("uid"), "disabled": req.Disabled})
}
