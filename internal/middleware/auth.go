package middleware

import (
	"aiedu_backend/internal/config"
	"aiedu_backend/internal/model"
	"aiedu_backend/internal/util"
	"aiedu_backend/pkg/logger"
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func bearerToken(c *gin.Context) string {
	tokenString := ""
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		tokenString = strings.TrimPrefix(authHeader, "Bearer ")
	}

	// websocket 连接无法设置 header，允许通过 query 传 token
	if tokenString == "" {
		tokenString = c.Query("token")
	}
	return tokenString
}

// AccountChecker 由 app 以 "accounts" 注入 context，已签发的 token 也会因账号被禁用而失效
type AccountChecker interface {
	IsDisabled(ctx context.Context, uid string) (bool, error)
}

// accountActive 未注入 AccountChecker 时只校验 token
func accountActive(c *gin.Context, claims *util.Claims) (bool, error) {
	v, ok := c.Get("accounts")
	if !ok {
		return true, nil
	}
	disabled, err := v.(AccountChecker).IsDisabled(c.Request.Context(), claims.UserID)
	if errors.Is(err, util.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !disabled, nil
}

func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		cfg := c.MustGet("config").(*config.Config)
		claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret)
		if err != nil {
			logger.Log.Debug("JWT解析错误", zap.Error(err))
			util.Unauthorized(c)
			c.Abort()
			return
		}

		active, err := accountActive(c, claims)
		if err != nil {
			logger.Log.Error("Account status check failed", zap.String("uid", claims.UserID), zap.Error(err))
			util.InternalServerError(c)
			c.Abort()
			return
		}
		if !active {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set("user", claims)
		c.Next()
	}
}

// OptionalAuthMiddleware 带 token 时解析用户，不带时匿名访问
func OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := bearerToken(c); tokenString != "" {
			cfg := c.MustGet("config").(*config.Config)
			if claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret); err == nil {
				if active, err := accountActive(c, claims); err == nil && active {
					c.Set("user", claims)
				}
			}
		}
		c.Next()
	}
}

func RoleMiddleware(roles ...model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := util.GetUserFromContext(c)
		if user == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		hasRole := false
		for _, role := range roles {
			// 管理员拥有全部权限
			if user.Role == model.Admin || user.Role == role {
				hasRole = true
				break
			}
		}

		if !hasRole {
			util.Forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}
