package repository

import (
	"aiedu_backend/internal/model"
	"aiedu_backend/internal/testutil"
	"aiedu_backend/internal/util"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLearningPathRepository_DeletePathCascade(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewLearningPathRepository(db)
	ctx := context.Background()

	doomed := testutil.CreateTree(t, db, "go", 3)
	kept := testutil.CreateTree(t, db, "rust", 2)

	modules, lessons, err := repo.DeletePathCascade(ctx, doomed.Path.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, modules)
	assert.EqualValues(t, 3, lessons)

	_, err = repo.FindPathByID(ctx, doomed.Path.ID)
	assert.ErrorIs(t, err, util.ErrPathNotFound)
	for _, l := range doomed.Lessons {
		_, err := repo.FindLesson(ctx, l.ID)
		assert.ErrorIs(t, err, util.ErrLessonNotFound)
	}

	m, l, err := repo.CountTree(ctx, kept.Path.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, m)
	assert.EqualValues(t, 2, l)

	_, _, err = repo.DeletePathCascade(ctx, doomed.Path.ID)
	assert.ErrorIs(t, err, util.ErrPathNotFound)
}

func TestLearningPathRepository_FindOrphans(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewLearningPathRepository(db)
	ctx := context.Background()

	tree := testutil.CreateTree(t, db, "go", 2)
	// 直接删除路径，模块和课程成为孤儿
	require.NoError(t, db.Where("id = ?", tree.Path.ID).Delete(&model.LearningPath{}).Error)

	moduleIDs, err := repo.FindOrphanModuleIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{tree.Module.ID}, moduleIDs)

	lessonIDs, err := repo.FindOrphanLessonIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{tree.Lessons[0].ID, tree.Lessons[1].ID}, lessonIDs)

	n, err := repo.DeleteLessonsByIDs(ctx, lessonIDs)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	n, err = repo.DeleteModulesByIDs(ctx, moduleIDs)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	lessonIDs, err = repo.FindOrphanLessonIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, lessonIDs)
}

func TestLearningPathRepository_NextOrder(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewLearningPathRepository(db)
	ctx := context.Background()

	tree := testutil.CreateTree(t, db, "go", 2)

	next, err := repo.NextLessonOrder(ctx, tree.Module.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, next)

	next, err = repo.NextLessonOrder(ctx, "empty-module")
	require.NoError(t, err)
	assert.Equal(t, 0, next)
}

func TestLearningPathRepository_ListPublishedOnly(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewLearningPathRepository(db)
	ctx := context.Background()

	testutil.CreateTree(t, db, "go", 0)
	require.NoError(t, repo.CreatePath(ctx, &model.LearningPath{Title: "hidden"}))

	published, err := repo.ListPaths(ctx, true)
	require.NoError(t, err)
	require.Len(t, published, 1)
	assert.Equal(t, "go", published[0].Title)

	all, err := repo.ListPaths(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
