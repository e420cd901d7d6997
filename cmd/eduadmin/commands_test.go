package main

import (
	"aiedu_backend/internal/app"
	"aiedu_backend/internal/config"
	"aiedu_backend/internal/model"
	"aiedu_backend/internal/testutil"
	"aiedu_backend/internal/util"
	"aiedu_backend/pkg/database"
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fileEnv 每次命令都重新打开同一个 sqlite 文件，命令结束时连接会被关闭
func fileEnv(t *testing.T) (openFunc, *gorm.DB) {
	dbCfg := &config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "eduadmin.db")}
	cfg := &config.Config{Database: *dbCfg}
	cfg.Storage.LocalPath = t.TempDir()
	cfg.Draft.AutosaveDelay = time.Hour

	seed, err := database.InitDB(dbCfg, "release")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(seed))
	sqlDB, err := seed.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	open := func(configDir string) (*env, error) {
		db, err := database.InitDB(dbCfg, "release")
		if err != nil {
			return nil, err
		}
		return &env{cfg: cfg, db: db, services: app.NewServices(cfg, db, nil)}, nil
	}
	return open, seed
}

func execute(t *testing.T, open openFunc, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmdWith(open)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSetRole(t *testing.T) {
	open, db := fileEnv(t)
	user := testutil.CreateUser(t, db, "ada@example.com")

	out, err := execute(t, open, "set-role", user.ID, "editor")
	require.NoError(t, err)
	assert.Contains(t, out, "ada@example.com")
	assert.Contains(t, out, "editor")

	var stored model.User
	require.NoError(t, db.First(&stored, "id = ?", user.ID).Error)
	assert.Equal(t, model.Editor, stored.Role)

	_, err = execute(t, open, "set-role", user.ID, "wizard")
	assert.ErrorIs(t, err, util.ErrInvalidRole)
}

func TestClean(t *testing.T) {
	open, db := fileEnv(t)
	tree := testutil.CreateTree(t, db, "go", 2)
	require.NoError(t, db.Where("id = ?", tree.Path.ID).Delete(&model.LearningPath{}).Error)

	out, err := execute(t, open, "clean", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, tree.Module.ID)
	assert.Contains(t, out, tree.Lessons[1].ID)

	var lessons int64
	require.NoError(t, db.Model(&model.Lesson{}).Count(&lessons).Error)
	assert.EqualValues(t, 2, lessons)

	out, err = execute(t, open, "clean")
	require.NoError(t, err)
	assert.Contains(t, out, "1 个模块, 2 节课程")

	require.NoError(t, db.Model(&model.Lesson{}).Count(&lessons).Error)
	assert.Zero(t, lessons)
}

func TestDeletePath(t *testing.T) {
	open, db := fileEnv(t)
	tree := testutil.CreateTree(t, db, "go", 3)

	out, err := execute(t, open, "delete-path", tree.Path.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "1 个模块, 3 节课程")

	_, err = execute(t, open, "delete-path", tree.Path.ID)
	assert.ErrorIs(t, err, util.ErrPathNotFound)
}

func TestPublish(t *testing.T) {
	open, db := fileEnv(t)
	tree := testutil.CreateTree(t, db, "go", 0)
	require.NoError(t, db.Create(&model.Draft{ID: "d1", Title: "Goroutines", AuthorID: "u1", Version: 1, Status: model.DraftEditing}).Error)

	_, err := execute(t, open, "publish", "d1", "--path", tree.Path.ID)
	assert.Error(t, err)

	out, err := execute(t, open, "publish", "d1", "--path", tree.Path.ID, "--module", tree.Module.ID)
	require.NoError(t, err)
	assert.Contains(t, out, tree.Path.ID+"/"+tree.Module.ID)

	var draft model.Draft
	require.NoError(t, db.First(&draft, "id = ?", "d1").Error)
	assert.Equal(t, model.DraftPublished, draft.Status)
	assert.NotEmpty(t, draft.PublishedLessonID)
}
