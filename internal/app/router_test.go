package app

import (
	"aiedu_backend/internal/config"
	"aiedu_backend/internal/model"
	"aiedu_backend/internal/testutil"
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testClient struct {
	t   *testing.T
	app *App
}

func newTestApp(t *testing.T) *testClient {
	cfg := &config.Config{}
	cfg.Server.Mode = "test"
	cfg.JWT.Secret = "0123456789abcdef0123456789abcdef"
	cfg.JWT.ExpireTime = time.Hour
	cfg.Admin.Emails = []string{"admin@example.com"}
	cfg.Storage.Type = "local"
	cfg.Storage.LocalPath = t.TempDir()
	cfg.Draft.AutosaveDelay = time.Hour
	cfg.Draft.MaxMediaBytes = 1 << 20
	cfg.News.MaxArticles = 20
	cfg.Gamify.LessonXP = 50
	cfg.RateLimit.MaxRequests = 1000
	cfg.RateLimit.WindowMinutes = 1

	app := newHTTPApp(cfg, testutil.NewDB(t), nil, t.TempDir())
	t.Cleanup(func() { app.Services.Drafts.Close(context.Background()) })
	return &testClient{t: t, app: app}
}

func (c *testClient) do(method, path, token string, body interface{}) (int, envelope) {
	c.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return c.send(req, token)
}

func (c *testClient) send(req *http.Request, token string) (int, envelope) {
	c.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	c.app.Router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w.Code, env
}

func (c *testClient) decode(env envelope, v interface{}) {
	c.t.Helper()
	require.NoError(c.t, json.Unmarshal(env.Data, v))
}

func (c *testClient) register(email string) string {
	code, env := c.do(http.MethodPost, "/api/auth/register", "", map[string]string{"email": email, "password": "secret1"})
	require.Equal(c.t, http.StatusCreated, code, env.Message)
	var res struct {
		Token string `json:"token"`
	}
	c.decode(env, &res)
	return res.Token
}

func (c *testClient) upload(path, token, filename string, data []byte) (int, envelope) {
	c.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(c.t, err)
	_, err = part.Write(data)
	require.NoError(c.t, err)
	require.NoError(c.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.send(req, token)
}

func TestHealth(t *testing.T) {
	c := newTestApp(t)
	code, env := c.do(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"database":"up"`)
}

func TestRoutes_RoleChecks(t *testing.T) {
	c := newTestApp(t)
	student := c.register("student@example.com")

	code, _ := c.do(http.MethodGet, "/api/admin/drafts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = c.do(http.MethodGet, "/api/admin/drafts", student, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = c.do(http.MethodGet, "/api/profile", student, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestPublishFlow(t *testing.T) {
	c := newTestApp(t)
	admin := c.register("admin@example.com")
	student := c.register("student@example.com")

	var path, module struct {
		ID string `json:"id"`
	}
	code, env := c.do(http.MethodPost, "/api/admin/paths", admin, map[string]interface{}{"title": "Computer Vision", "isPublished": true})
	require.Equal(t, http.StatusCreated, code, env.Message)
	c.decode(env, &path)

	code, env = c.do(http.MethodPost, "/api/admin/paths/"+path.ID+"/modules", admin, map[string]string{"title": "Basics"})
	require.Equal(t, http.StatusCreated, code, env.Message)
	c.decode(env, &module)

	code, env = c.upload("/api/admin/drafts/d1/media/stage", admin, "cat.png", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"))
	require.Equal(t, http.StatusCreated, code, env.Message)
	var staged struct {
		URL string `json:"url"`
	}
	c.decode(env, &staged)
	require.True(t, strings.HasPrefix(staged.URL, "blob:"))

	draft := map[string]interface{}{
		"title":    "Convolutions",
		"xpReward": 70,
		"contentVersions": map[string]interface{}{
			"free": map[string]interface{}{"pages": []interface{}{map[string]interface{}{
				"id": "p1",
				"blocks": []interface{}{
					map[string]interface{}{"type": "image", "id": "b1", "url": staged.URL},
				},
			}}},
		},
	}
	code, env = c.do(http.MethodPut, "/api/admin/drafts/d1", admin, draft)
	require.Equal(t, http.StatusOK, code, env.Message)

	draft["expectedVersion"] = 7
	code, _ = c.do(http.MethodPut, "/api/admin/drafts/d1", admin, draft)
	assert.Equal(t, http.StatusConflict, code)

	code, env = c.do(http.MethodPost, "/api/admin/drafts/d1/publish", admin, map[string]string{"pathId": path.ID, "moduleId": module.ID})
	require.Equal(t, http.StatusOK, code, env.Message)
	var published struct {
		Lesson struct {
			ID string `json:"id"`
		} `json:"lesson"`
		UploadedMedia int `json:"uploadedMedia"`
	}
	c.decode(env, &published)
	assert.Equal(t, 1, published.UploadedMedia)

	code, env = c.do(http.MethodGet, "/api/lessons/"+published.Lesson.ID, "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), "/uploads/lessons/d1/images/")
	assert.NotContains(t, string(env.Data), "blob:")

	code, env = c.do(http.MethodPut, "/api/progress/"+published.Lesson.ID, student, map[string]interface{}{"completed": true})
	require.Equal(t, http.StatusOK, code, env.Message)
	var progress struct {
		XP struct {
			XP int `json:"xp"`
		} `json:"xp"`
	}
	c.decode(env, &progress)
	assert.Equal(t, 70, progress.XP.XP)

	code, _ = c.do(http.MethodDelete, "/api/admin/paths/"+path.ID, admin, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = c.do(http.MethodGet, "/api/lessons/"+published.Lesson.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestUnpublishedPathHiddenFromPublicRoutes(t *testing.T) {
	c := newTestApp(t)
	admin := c.register("admin@example.com")
	tree := testutil.CreateTree(t, c.app.DB, "draft-path", 1)
	require.NoError(t, c.app.DB.Model(&model.LearningPath{}).Where("id = ?", tree.Path.ID).
		Update("is_published", false).Error)
	lessonID := tree.Lessons[0].ID

	code, env := c.do(http.MethodGet, "/api/paths", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.NotContains(t, string(env.Data), tree.Path.ID)

	code, _ = c.do(http.MethodGet, "/api/paths/"+tree.Path.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = c.do(http.MethodGet, "/api/lessons/"+lessonID, "", nil)
	assert.Equal(t, http.StatusNotFound, code)

	// 编辑端仍可读取
	code, env = c.do(http.MethodGet, "/api/admin/paths/"+tree.Path.ID, admin, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Contains(t, string(env.Data), lessonID)
	code, _ = c.do(http.MethodGet, "/api/admin/lessons/"+lessonID, admin, nil)
	assert.Equal(t, http.StatusOK, code)

	require.NoError(t, c.app.DB.Model(&model.LearningPath{}).Where("id = ?", tree.Path.ID).
		Update("is_published", true).Error)
	code, _ = c.do(http.MethodGet, "/api/lessons/"+lessonID, "", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestDisabledUserTokenRejected(t *testing.T) {
	c := newTestApp(t)
	admin := c.register("admin@example.com")
	student := c.register("student@example.com")

	code, env := c.do(http.MethodGet, "/api/profile", student, nil)
	require.Equal(t, http.StatusOK, code)
	var profile struct {
		ID string `json:"uid"`
	}
	c.decode(env, &profile)
	require.NotEmpty(t, profile.ID)

	code, env = c.do(http.MethodPut, "/api/admin/users/"+profile.ID+"/disabled", admin, map[string]bool{"disabled": true})
	require.Equal(t, http.StatusOK, code, env.Message)

	code, _ = c.do(http.MethodGet, "/api/profile", student, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = c.do(http.MethodPut, "/api/admin/users/"+profile.ID+"/disabled", admin, map[string]bool{"disabled": false})
	require.Equal(t, http.StatusOK, code)
	code, _ = c.do(http.MethodGet, "/api/profile", student, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestAutosaveEndpoint(t *testing.T) {
	c := newTestApp(t)
	admin := c.register("admin@example.com")

	code, env := c.do(http.MethodPost, "/api/admin/drafts/d7/autosave", admin, map[string]string{"title": "typing..."})
	require.Equal(t, http.StatusAccepted, code, env.Message)

	// 尚未落库时从缓冲读取
	code, env = c.do(http.MethodGet, "/api/admin/drafts/d7", admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), "typing...")

	require.NoError(t, c.app.Services.Drafts.Flush(context.Background()))
	n, err := c.app.Services.Drafts.Repo.Count(context.Background(), "d7")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestReloadConfigUpdatesAdminWhitelist(t *testing.T) {
	c := newTestApp(t)
	c.register("lead@example.com")

	next := *c.app.Config
	next.Admin.Emails = []string{"lead@example.com"}
	c.app.reloadConfig(&next)

	code, env := c.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "lead@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Contains(t, string(env.Data), `"role":"admin"`)
}
