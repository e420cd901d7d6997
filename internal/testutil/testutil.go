// Package testutil 测试用的内存数据库和固定数据
package testutil

import (
	"aiedu_backend/internal/model"
	"aiedu_backend/pkg/database"
	"fmt"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_]`)

// NewDB 每个测试一个独立的 sqlite 内存库，已完成迁移
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", unsafeName.ReplaceAllString(t.Name(), "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

func CreateUser(t *testing.T, db *gorm.DB, email string) *model.User {
	t.Helper()
	u := &model.User{ID: model.GenerateUUID(), Email: email, DisplayName: email, Role: model.Student, Level: 1}
	require.NoError(t, db.Create(u).Error)
	return u
}

// Tree 一条路径、一个模块、n 节课程
type Tree struct {
	Path    *model.LearningPath
	Module  *model.PathModule
	Lessons []*model.Lesson
}

func CreateTree(t *testing.T, db *gorm.DB, title string, lessons int) *Tree {
	t.Helper()
	tree := &Tree{Path: &model.LearningPath{Title: title, Slug: title, IsPublished: true}}
	require.NoError(t, db.Create(tree.Path).Error)

	tree.Module = &model.PathModule{PathID: tree.Path.ID, Title: title + " module"}
	require.NoError(t, db.Create(tree.Module).Error)

	for i := 0; i < lessons; i++ {
		l := &model.Lesson{
			PathID:   tree.Path.ID,
			ModuleID: tree.Module.ID,
			Title:    fmt.Sprintf("%s lesson %d", title, i+1),
			Order:    i + 1,
			XPReward: 50,
		}
		require.NoError(t, db.Create(l).Error)
		tree.Lessons = append(tree.Lessons, l)
	}
	return tree
}
