package app

import (
	"aiedu_backend/docs"
	"aiedu_backend/internal/middleware"
	"aiedu_backend/internal/model"
	"aiedu_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// websocket 通过 ?token= 鉴权
	router.GET("/ws", middleware.AuthMiddleware(), c.realtime.Connect)

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要登录的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware())
	{
		a.registerStudentRoutes(authGroup, c)
	}

	// 3. 编辑和管理员接口
	a.registerAdminRoutes(router, c)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)

		auth := public.Group("/auth")
		{
			auth.POST("/register", c.auth.Register)
			auth.POST("/login", c.auth.Login)
			auth.POST("/google", c.auth.GoogleLogin)
		}

		public.GET("/paths", c.learningPath.ListPaths)
		public.GET("/paths/:id", c.learningPath.GetPath)
		public.GET("/lessons/:lessonId", c.learningPath.GetLesson)

		public.GET("/news", middleware.OptionalAuthMiddleware(), c.news.ListNews)
		public.GET("/leaderboard", c.gamify.Leaderboard)
		public.GET("/badges", c.gamify.Badges)
	}
}

func (a *App) registerStudentRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/profile", c.auth.GetProfile)
	rg.PUT("/profile", c.auth.UpdateProfile)

	progress := rg.Group("/progress")
	{
		progress.GET("", c.progress.ListProgress)
		progress.GET("/:lessonId", c.progress.GetProgress)
		progress.PUT("/:lessonId", c.progress.UpdateProgress)
	}

	rg.POST("/news/:id/like", c.news.ToggleLike)
	rg.POST("/badges/check", c.gamify.CheckBadges)
}

func (a *App) registerAdminRoutes(router *gin.Engine, c *controllers) {
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware())
	{
		// 1. 内容编辑：编辑和管理员
		editor := admin.Group("/")
		editor.Use(middleware.RoleMiddleware(model.Editor))
		{
			editor.GET("/paths", c.learningPath.AdminListPaths)
			editor.POST("/paths", c.learningPath.CreatePath)
			editor.GET("/paths/:id", c.learningPath.AdminGetPath)
			editor.PUT("/paths/:id", c.learningPath.UpdatePath)
			editor.GET("/paths/:id/modules", c.learningPath.ListModules)
			editor.POST("/paths/:id/modules", c.learningPath.CreateModule)
			editor.PUT("/paths/:id/modules/:moduleId", c.learningPath.UpdateModule)
			editor.GET("/paths/:id/modules/:moduleId/lessons", c.learningPath.ListLessons)
			editor.POST("/paths/:id/modules/:moduleId/lessons", c.learningPath.CreateLesson)
			editor.GET("/lessons/:lessonId", c.learningPath.AdminGetLesson)
			editor.PUT("/lessons/:lessonId", c.learningPath.UpdateLesson)

			editor.GET("/drafts", c.draft.ListDrafts)
			editor.POST("/drafts", c.draft.CreateDraft)
			editor.GET("/drafts/:id", c.draft.GetDraft)
			editor.PUT("/drafts/:id", c.draft.SaveDraft)
			editor.DELETE("/drafts/:id", c.draft.DeleteDraft)
			editor.POST("/drafts/:id/autosave", c.draft.AutosaveDraft)
			editor.POST("/drafts/:id/publish", c.draft.PublishDraft)
			editor.POST("/drafts/:id/media", c.draft.UploadMedia)
			editor.POST("/drafts/:id/media/stage", c.draft.StageMedia)
		}

		// 2. 删除、用户管理和维护接口：仅限管理员
		adminOnly := admin.Group("/")
		adminOnly.Use(middleware.RoleMiddleware(model.Admin))
		{
			adminOnly.DELETE("/paths/:id", c.learningPath.DeletePath)
			adminOnly.DELETE("/paths/:id/modules/:moduleId", c.learningPath.DeleteModule)
			adminOnly.DELETE("/lessons/:lessonId", c.learningPath.DeleteLesson)

			adminOnly.GET("/users", c.user.ListUsers)
			adminOnly.PUT("/users/:uid/role", c.user.SetUserRole)
			adminOnly.PUT("/users/:uid/disabled", c.user.SetDisabled)

			adminOnly.POST("/news/refresh", c.news.RefreshNews)

			adminOnly.GET("/cleaner/orphans", c.learningPath.FindOrphans)
			adminOnly.POST("/cleaner/clean", c.learningPath.CleanOrphans)
		}
	}
}
