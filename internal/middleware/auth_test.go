package middleware

import (
	"aiedu_backend/internal/config"
	"context"
	"errors"
	"aiedu_backend/internal/model"
	"aiedu_backend/internal/util"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{}
	cfg.JWT.Secret = secret

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("config", cfg) })
	handlers = append(handlers, func(c *gin.Context) {
		uid := ""
		if u := util.GetUserFromContext(c); u != nil {
			uid = u.UserID
		}
		c.String(http.StatusOK, uid)
	})
	r.GET("/", handlers...)
	return r
}

func token(t *testing.T, role model.UserRole) string {
	tok, err := util.GenerateJWT(&model.User{ID: "u-" + string(role), Role: role}, secret, time.Hour)
	require.NoError(t, err)
	return tok
}

func do(r *gin.Engine, target, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := newRouter(AuthMiddleware())

	assert.Equal(t, http.StatusUnauthorized, do(r, "/", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/", "garbage").Code)

	w := do(r, "/", token(t, model.Student))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u-student", w.Body.String())

	// websocket 通过 query 传 token
	w = do(r, "/?token="+token(t, model.Editor), "")
	assert.Equal(t, "u-editor", w.Body.String())
}

func TestAuthMiddleware_RejectsOtherSecret(t *testing.T) {
	r := newRouter(AuthMiddleware())
	tok, err := util.GenerateJWT(&model.User{ID: "u1"}, "another-secret-another-secret-xx", time.Hour)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, do(r, "/", tok).Code)
}

func TestOptionalAuthMiddleware(t *testing.T) {
	r := newRouter(OptionalAuthMiddleware())

	w := do(r, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())

	w = do(r, "/", "garbage")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())

	w = do(r, "/", token(t, model.Student))
	assert.Equal(t, "u-student", w.Body.String())
}

type accounts map[string]bool

func (a accounts) IsDisabled(ctx context.Context, uid string) (bool, error) {
	disabled, ok := a[uid]
	if !ok {
		return false, util.ErrUserNotFound
	}
	return disabled, nil
}

type brokenAccounts struct{}

func (brokenAccounts) IsDisabled(ctx context.Context, uid string) (bool, error) {
	return false, errors.New("db down")
}

func withAccounts(checker AccountChecker) gin.HandlerFunc {
	return func(c *gin.Context) { c.Set("accounts", checker) }
}

func TestAuthMiddleware_DisabledAccount(t *testing.T) {
	checker := accounts{"u-student": true, "u-editor": false}
	r := newRouter(withAccounts(checker), AuthMiddleware())

	assert.Equal(t, http.StatusUnauthorized, do(r, "/", token(t, model.Student)).Code)
	assert.Equal(t, http.StatusOK, do(r, "/", token(t, model.Editor)).Code)
	// 已删除的账号
	assert.Equal(t, http.StatusUnauthorized, do(r, "/", token(t, model.Admin)).Code)

	opt := newRouter(withAccounts(checker), OptionalAuthMiddleware())
	w := do(opt, "/", token(t, model.Student))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())

	broken := newRouter(withAccounts(brokenAccounts{}), AuthMiddleware())
	assert.Equal(t, http.StatusInternalServerError, do(broken, "/", token(t, model.Editor)).Code)
}

func TestRoleMiddleware(t *testing.T) {
	r := newRouter(AuthMiddleware(), RoleMiddleware(model.Editor))

	assert.Equal(t, http.StatusForbidden, do(r, "/", token(t, model.Student)).Code)
	assert.Equal(t, http.StatusOK, do(r, "/", token(t, model.Editor)).Code)
	assert.Equal(t, http.StatusOK, do(r, "/", token(t, model.Admin)).Code)
}
