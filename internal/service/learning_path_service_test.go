package service

import (
	"aiedu_backend/internal/model"
	"aiedu_backend/internal/repository"
	"aiedu_backend/internal/testutil"
	"aiedu_backend/internal/util"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type pathFixture struct {
	db       *gorm.DB
	paths    *LearningPathService
	progress *ProgressService
	cleaner  *DatabaseCleaner
}

func newPathFixture(t *testing.T) *pathFixture {
	db := testutil.NewDB(t)
	pathRepo := repository.NewLearningPathRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	userRepo := repository.NewUserRepository(db)
	gamify := NewGamificationService(db, userRepo)
	return &pathFixture{
		db:       db,
		paths:    NewLearningPathService(db, pathRepo, progressRepo, nil),
		progress: NewProgressService(db, progressRepo, pathRepo, userRepo, gamify, 50),
		cleaner:  NewDatabaseCleaner(db, pathRepo, progressRepo),
	}
}

func TestLearningPathService_CreateAssignsSlugAndOrder(t *testing.T) {
	f := newPathFixture(t)
	ctx := context.Background()

	path, err := f.paths.CreatePath(ctx, PathRequest{Title: "Intro to Neural Nets"})
	require.NoError(t, err)
	assert.Equal(t, "intro-to-neural-nets", path.Slug)

	first, err := f.paths.CreateModule(ctx, path.ID, ModuleRequest{Title: "Basics"})
	require.NoError(t, err)
	second, err := f.paths.CreateModule(ctx, path.ID, ModuleRequest{Title: "Backprop"})
	require.NoError(t, err)
	assert.Less(t, first.Order, second.Order)

	lesson, err := f.paths.CreateLesson(ctx, path.ID, first.ID, LessonRequest{Title: "Perceptron", Tags: []string{"ml"}})
	require.NoError(t, err)
	assert.Equal(t, path.ID, lesson.PathID)

	_, err = f.paths.CreateModule(ctx, "missing", ModuleRequest{Title: "x"})
	assert.ErrorIs(t, err, util.ErrPathNotFound)

	tree, err := f.paths.GetPathTree(ctx, path.ID, false)
	require.NoError(t, err)
	require.Len(t, tree.Modules, 2)
	assert.Len(t, tree.Modules[0].Lessons, 1)
}

func TestLearningPathService_PublishedOnlyReads(t *testing.T) {
	f := newPathFixture(t)
	ctx := context.Background()

	tree := testutil.CreateTree(t, f.db, "go", 1)
	require.NoError(t, f.db.Model(tree.Path).Update("is_published", false).Error)

	_, err := f.paths.GetPathTree(ctx, tree.Path.ID, true)
	assert.ErrorIs(t, err, util.ErrPathNotFound)
	_, err = f.paths.GetLesson(ctx, tree.Lessons[0].ID, true)
	assert.ErrorIs(t, err, util.ErrLessonNotFound)

	_, err = f.paths.GetPathTree(ctx, tree.Path.ID, false)
	assert.NoError(t, err)
	_, err = f.paths.GetLesson(ctx, tree.Lessons[0].ID, false)
	assert.NoError(t, err)

	// 所属路径已被删除的课程对公开端不可见
	require.NoError(t, f.db.Where("id = ?", tree.Path.ID).Delete(&model.LearningPath{}).Error)
	_, err = f.paths.GetLesson(ctx, tree.Lessons[0].ID, true)
	assert.ErrorIs(t, err, util.ErrLessonNotFound)
}

func TestLearningPathService_DeleteRemovesProgress(t *testing.T) {
	f := newPathFixture(t)
	ctx := context.Background()

	tree := testutil.CreateTree(t, f.db, "go", 2)
	other := testutil.CreateTree(t, f.db, "rust", 1)
	user := testutil.CreateUser(t, f.db, "a@example.com")

	for _, l := range append(tree.Lessons, other.Lessons...) {
		_, err := f.progress.UpdateProgress(ctx, user.ID, l.ID, ProgressRequest{Progress: 30})
		require.NoError(t, err)
	}

	res, err := f.paths.DeleteLearningPath(ctx, tree.Path.ID)
	require.NoError(t, err)
	assert.Equal(t, DeleteResult{Modules: 1, Lessons: 2, Progress: 2}, *res)

	remaining, err := f.progress.ListProgress(ctx, user.ID, "")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, other.Lessons[0].ID, remaining[0].LessonID)

	_, err = f.paths.DeleteLearningPath(ctx, tree.Path.ID)
	assert.ErrorIs(t, err, util.ErrPathNotFound)
}

func TestDatabaseCleaner_RemovesOrphans(t *testing.T) {
	f := newPathFixture(t)
	ctx := context.Background()

	tree := testutil.CreateTree(t, f.db, "go", 2)
	kept := testutil.CreateTree(t, f.db, "rust", 1)
	user := testutil.CreateUser(t, f.db, "a@example.com")
	_, err := f.progress.UpdateProgress(ctx, user.ID, tree.Lessons[0].ID, ProgressRequest{Progress: 10})
	require.NoError(t, err)

	require.NoError(t, f.db.Where("id = ?", tree.Path.ID).Delete(&model.LearningPath{}).Error)

	report, err := f.cleaner.FindOrphans(ctx)
	require.NoError(t, err)
	assert.Len(t, report.ModuleIDs, 1)
	assert.Len(t, report.LessonIDs, 2)

	res, err := f.cleaner.Clean(ctx)
	require.NoError(t, err)
	assert.Equal(t, CleanResult{Modules: 1, Lessons: 2, Progress: 1}, *res)

	report, err = f.cleaner.FindOrphans(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.ModuleIDs)
	assert.Empty(t, report.LessonIDs)

	_, err = f.paths.GetLesson(ctx, kept.Lessons[0].ID, true)
	assert.NoError(t, err)
}

func TestProgressService_FirstCompletionAwardsOnce(t *testing.T) {
	f := newPathFixture(t)
	ctx := context.Background()
	f.progress.Now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	tree := testutil.CreateTree(t, f.db, "go", 1)
	user := testutil.CreateUser(t, f.db, "a@example.com")
	lessonID := tree.Lessons[0].ID

	res, err := f.progress.UpdateProgress(ctx, user.ID, lessonID, ProgressRequest{Progress: 40, TimeSpent: 60})
	require.NoError(t, err)
	assert.Nil(t, res.XP)
	assert.False(t, res.Progress.Completed)

	res, err = f.progress.UpdateProgress(ctx, user.ID, lessonID, ProgressRequest{Completed: true, Score: 90, TimeSpent: 30})
	require.NoError(t, err)
	require.NotNil(t, res.XP)
	assert.Equal(t, 100, res.Progress.Progress)
	assert.Equal(t, 90, res.Progress.TimeSpent)
	assert.Equal(t, 1, res.Streak.CurrentStreak)
	require.Len(t, res.NewBadges, 1)
	assert.Equal(t, model.BadgeFirstLesson, res.NewBadges[0].ID)

	res, err = f.progress.UpdateProgress(ctx, user.ID, lessonID, ProgressRequest{Completed: true, Progress: 20})
	require.NoError(t, err)
	assert.Nil(t, res.XP)
	assert.Equal(t, 100, res.Progress.Progress)

	var stored model.User
	require.NoError(t, f.db.First(&stored, "id = ?", user.ID).Error)
	// 课程 50 XP + 首课徽章 10 XP
	assert.Equal(t, 60, stored.XP)
	assert.Equal(t, 1, stored.LessonsCompleted)
}

func TestProgressService_Validation(t *testing.T) {
	f := newPathFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "a@example.com")

	_, err := f.progress.UpdateProgress(ctx, user.ID, "whatever", ProgressRequest{Progress: 101})
	assert.ErrorIs(t, err, util.ErrInvalidProgress)

	_, err = f.progress.UpdateProgress(ctx, user.ID, "missing", ProgressRequest{Progress: 10})
	assert.ErrorIs(t, err, util.ErrLessonNotFound)

	empty, err := f.progress.GetProgress(ctx, user.ID, "missing")
	require.NoError(t, err)
	assert.Equal(t, model.ProgressID(user.ID, "missing"), empty.ID)
}
