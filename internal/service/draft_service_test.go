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
)

func newDraftService(t *testing.T, delay time.Duration) *DraftService {
	db := testutil.NewDB(t)
	svc := NewDraftService(repository.NewDraftRepository(db), NewMemoryDraftBuffer(time.Hour), nil, delay)
	t.Cleanup(func() { svc.Close(context.Background()) })
	return svc
}

func TestDraftService_SaveDraftAssignsIDAndVersion(t *testing.T) {
	svc := newDraftService(t, time.Hour)
	ctx := context.Background()

	saved, err := svc.SaveDraft(ctx, &model.Draft{Title: "intro", AuthorID: "u1"}, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, 1, saved.Version)

	saved.Title = "intro v2"
	again, err := svc.SaveDraft(ctx, saved, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, again.Version)

	_, err = svc.SaveDraft(ctx, saved, 1)
	assert.ErrorIs(t, err, util.ErrVersionConflict)
}

func TestDraftService_AutosaveCoalescesWrites(t *testing.T) {
	svc := newDraftService(t, time.Hour)
	ctx := context.Background()

	for _, title := range []string{"a", "ab", "abc"} {
		_, err := svc.Autosave(ctx, &model.Draft{ID: "d1", Title: title, AuthorID: "u1"})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, svc.Pending())

	n, err := svc.Repo.Count(ctx, "d1")
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, svc.Flush(ctx))
	assert.Zero(t, svc.Pending())

	stored, err := svc.Repo.FindByID(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "abc", stored.Title)
	assert.Equal(t, 1, stored.Version)

	// 同一个待写入内容重复 flush 不再产生新版本
	require.NoError(t, svc.FlushDraft(ctx, "d1"))
	stored, err = svc.Repo.FindByID(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Version)
}

func TestDraftService_AutosaveTimerWrites(t *testing.T) {
	svc := newDraftService(t, 20*time.Millisecond)
	ctx := context.Background()

	_, err := svc.Autosave(ctx, &model.Draft{ID: "d1", Title: "timer", AuthorID: "u1"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		n, err := svc.Repo.Count(ctx, "d1")
		return err == nil && n == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDraftService_GetDraftFallsBackToBuffer(t *testing.T) {
	svc := newDraftService(t, time.Hour)
	ctx := context.Background()

	_, err := svc.Autosave(ctx, &model.Draft{ID: "d1", Title: "unsaved", AuthorID: "u1"})
	require.NoError(t, err)

	got, err := svc.GetDraft(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "unsaved", got.Title)

	_, err = svc.GetDraft(ctx, "missing")
	assert.ErrorIs(t, err, util.ErrDraftNotFound)
}

func TestDraftService_SaveCancelsPendingAutosave(t *testing.T) {
	svc := newDraftService(t, time.Hour)
	ctx := context.Background()

	_, err := svc.Autosave(ctx, &model.Draft{ID: "d1", Title: "old", AuthorID: "u1"})
	require.NoError(t, err)
	_, err = svc.SaveDraft(ctx, &model.Draft{ID: "d1", Title: "manual", AuthorID: "u1"}, 0)
	require.NoError(t, err)
	assert.Zero(t, svc.Pending())

	require.NoError(t, svc.Flush(ctx))
	stored, err := svc.Repo.FindByID(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "manual", stored.Title)
	assert.Equal(t, 1, stored.Version)
}

func TestDraftService_CloseFlushesAndWritesSynchronously(t *testing.T) {
	svc := newDraftService(t, time.Hour)
	ctx := context.Background()

	_, err := svc.Autosave(ctx, &model.Draft{ID: "d1", Title: "pending", AuthorID: "u1"})
	require.NoError(t, err)
	require.NoError(t, svc.Close(ctx))

	n, err := svc.Repo.Count(ctx, "d1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	saved, err := svc.Autosave(ctx, &model.Draft{ID: "d2", Title: "after close", AuthorID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 1, saved.Version)
	assert.Zero(t, svc.Pending())
}

func TestDraftService_DeleteDraft(t *testing.T) {
	svc := newDraftService(t, time.Hour)
	ctx := context.Background()

	saved, err := svc.SaveDraft(ctx, &model.Draft{Title: "bye", AuthorID: "u1"}, 0)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteDraft(ctx, saved.ID))

	_, err = svc.GetDraft(ctx, saved.ID)
	assert.ErrorIs(t, err, util.ErrDraftNotFound)
	assert.ErrorIs(t, svc.DeleteDraft(ctx, saved.ID), util.ErrDraftNotFound)
}
