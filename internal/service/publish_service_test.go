package service

import (
	"aiedu_backend/internal/model"
	"aiedu_backend/internal/repository"
	"aiedu_backend/internal/testutil"
	"aiedu_backend/internal/util"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

// fakeStorage 记录上传的对象，failAfter 之后的上传返回错误
type fakeStorage struct {
	mu        sync.Mutex
	objects   map[string][]byte
	uploads   int
	failAfter int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte), failAfter: -1}
}

func (f *fakeStorage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAfter >= 0 && f.uploads >= f.failAfter {
		return "", errors.New("bucket unavailable")
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	f.uploads++
	f.objects[key] = data
	return f.GetURL(key), nil
}

func (f *fakeStorage) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeStorage) GetURL(key string) string {
	return "https://cdn.example.com/" + key
}

type publishFixture struct {
	db      *gorm.DB
	svc     *PublishService
	drafts  *DraftService
	storage *fakeStorage
	tree    *testutil.Tree
}

func newPublishFixture(t *testing.T) *publishFixture {
	db := testutil.NewDB(t)
	draftRepo := repository.NewDraftRepository(db)
	pathRepo := repository.NewLearningPathRepository(db)
	drafts := NewDraftService(draftRepo, NewMemoryDraftBuffer(time.Hour), nil, time.Hour)
	t.Cleanup(func() { drafts.Close(context.Background()) })

	storage := newFakeStorage()
	svc := NewPublishService(db, drafts, draftRepo, pathRepo, &StorageService{Provider: storage},
		NewMemoryStagingStore(time.Hour), nil, 1<<20)
	svc.Probe = func(data []byte, filename string) (*util.VideoInfo, error) {
		return &util.VideoInfo{Duration: 12.5}, nil
	}
	svc.Now = func() time.Time { return time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC) }

	return &publishFixture{db: db, svc: svc, drafts: drafts, storage: storage, tree: testutil.CreateTree(t, db, "go", 1)}
}

// draftWithMedia 同一张图片在免费版和付费版中各引用一次，另有一个视频
func (f *publishFixture) draftWithMedia(t *testing.T) *model.Draft {
	ctx := context.Background()
	img, err := f.svc.StageMedia(ctx, "d1", "Cover Photo.png", "", bytes.NewReader(pngHeader))
	require.NoError(t, err)
	video, err := f.svc.StageMedia(ctx, "d1", "demo.mp4", "video/mp4", strings.NewReader("fake-mp4"))
	require.NoError(t, err)

	d := &model.Draft{ID: "d1", Title: "Vision", AuthorID: "u1", XPReward: 80}
	d.SetContent(model.ContentVersions{
		Free: model.ContentTier{Pages: []model.Page{{ID: "p1", Blocks: model.Blocks{
			&model.ParagraphBlock{ID: "b1", Text: "hi"},
			&model.ImageBlock{ID: "b2", URL: img},
		}}}},
		Premium: model.ContentTier{Pages: []model.Page{{ID: "p2", Blocks: model.Blocks{
			&model.ImageBlock{ID: "b3", URL: img},
			&model.VideoBlock{ID: "b4", URL: video},
			&model.ImageBlock{ID: "b5", URL: "https://elsewhere.example.com/a.png"},
		}}}},
	})
	_, err = f.drafts.SaveDraft(ctx, d, 0)
	require.NoError(t, err)
	return d
}

func TestPublishDraft_UploadsAndRewritesMedia(t *testing.T) {
	f := newPublishFixture(t)
	f.draftWithMedia(t)
	ctx := context.Background()

	res, err := f.svc.PublishDraft(ctx, "d1", PublishTarget{PathID: f.tree.Path.ID, ModuleID: f.tree.Module.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, res.UploadedMedia)
	assert.Len(t, f.storage.objects, 2)
	assert.Equal(t, 80, res.Lesson.XPReward)
	assert.Equal(t, 2, res.Lesson.Order)

	cv := res.Lesson.ContentVersions.Data()
	freeImg := cv.Free.Pages[0].Blocks[1].(*model.ImageBlock)
	premImg := cv.Premium.Pages[0].Blocks[0].(*model.ImageBlock)
	video := cv.Premium.Pages[0].Blocks[1].(*model.VideoBlock)
	external := cv.Premium.Pages[0].Blocks[2].(*model.ImageBlock)

	assert.Equal(t, "https://cdn.example.com/lessons/d1/images/20240601080000_cover-photo.png", freeImg.URL)
	assert.Equal(t, freeImg.URL, premImg.URL)
	assert.True(t, strings.HasPrefix(video.URL, "https://cdn.example.com/lessons/d1/videos/"))
	assert.Equal(t, 12.5, video.Duration)
	assert.Equal(t, "https://elsewhere.example.com/a.png", external.URL)

	// 草稿本身仍保留 blob 引用
	draft, err := f.svc.DraftRepo.FindByID(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, model.DraftPublished, draft.Status)
	assert.Equal(t, res.Lesson.ID, draft.PublishedLessonID)
	assert.True(t, util.IsBlobURL(draft.Content().Free.Pages[0].Blocks[1].(*model.ImageBlock).URL))
}

func TestPublishDraft_RepublishUpdatesSameLesson(t *testing.T) {
	f := newPublishFixture(t)
	ctx := context.Background()
	target := PublishTarget{PathID: f.tree.Path.ID, ModuleID: f.tree.Module.ID}

	_, err := f.drafts.SaveDraft(ctx, &model.Draft{ID: "d1", Title: "v1", AuthorID: "u1"}, 0)
	require.NoError(t, err)
	first, err := f.svc.PublishDraft(ctx, "d1", target)
	require.NoError(t, err)

	_, err = f.drafts.SaveDraft(ctx, &model.Draft{ID: "d1", Title: "v2", AuthorID: "u1"}, 0)
	require.NoError(t, err)
	second, err := f.svc.PublishDraft(ctx, "d1", target)
	require.NoError(t, err)

	assert.Equal(t, first.Lesson.ID, second.Lesson.ID)
	assert.Equal(t, "v2", second.Lesson.Title)
	assert.Equal(t, first.Lesson.Order, second.Lesson.Order)
}

func TestPublishDraft_FailureRemovesUploadedMedia(t *testing.T) {
	f := newPublishFixture(t)
	f.draftWithMedia(t)
	f.storage.failAfter = 1
	ctx := context.Background()

	_, err := f.svc.PublishDraft(ctx, "d1", PublishTarget{PathID: f.tree.Path.ID, ModuleID: f.tree.Module.ID})
	require.Error(t, err)
	assert.Empty(t, f.storage.objects)

	draft, err := f.svc.DraftRepo.FindByID(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, model.DraftEditing, draft.Status)

	lessons, err := f.svc.PathRepo.ListLessons(ctx, f.tree.Module.ID)
	require.NoError(t, err)
	assert.Len(t, lessons, 1)
}

func TestPublishDraft_MissingStagedMedia(t *testing.T) {
	f := newPublishFixture(t)
	ctx := context.Background()

	d := &model.Draft{ID: "d1", Title: "broken", AuthorID: "u1"}
	d.SetContent(model.ContentVersions{Free: model.ContentTier{Pages: []model.Page{{ID: "p1", Blocks: model.Blocks{
		&model.ImageBlock{ID: "b1", URL: util.BlobScheme + "gone"},
	}}}}})
	_, err := f.drafts.SaveDraft(ctx, d, 0)
	require.NoError(t, err)

	_, err = f.svc.PublishDraft(ctx, "d1", PublishTarget{PathID: f.tree.Path.ID, ModuleID: f.tree.Module.ID})
	assert.ErrorIs(t, err, util.ErrStagedMediaGone)
}

func TestPublishDraft_RejectsMediaStagedForAnotherDraft(t *testing.T) {
	f := newPublishFixture(t)
	ctx := context.Background()

	foreign, err := f.svc.StageMedia(ctx, "d2", "other.png", "", bytes.NewReader(pngHeader))
	require.NoError(t, err)

	d := &model.Draft{ID: "d1", Title: "borrowed", AuthorID: "u1"}
	d.SetContent(model.ContentVersions{Free: model.ContentTier{Pages: []model.Page{{ID: "p1", Blocks: model.Blocks{
		&model.ImageBlock{ID: "b1", URL: foreign},
	}}}}})
	_, err = f.drafts.SaveDraft(ctx, d, 0)
	require.NoError(t, err)

	_, err = f.svc.PublishDraft(ctx, "d1", PublishTarget{PathID: f.tree.Path.ID, ModuleID: f.tree.Module.ID})
	assert.ErrorIs(t, err, util.ErrStagedMediaOwner)
	assert.Empty(t, f.storage.objects)

	// d2 的暂存媒体仍然可用
	_, err = f.svc.Staging.Get(ctx, strings.TrimPrefix(foreign, util.BlobScheme))
	assert.NoError(t, err)
}

func TestPublishDraft_UnknownTarget(t *testing.T) {
	f := newPublishFixture(t)
	ctx := context.Background()
	_, err := f.drafts.SaveDraft(ctx, &model.Draft{ID: "d1", Title: "x", AuthorID: "u1"}, 0)
	require.NoError(t, err)

	_, err = f.svc.PublishDraft(ctx, "d1", PublishTarget{PathID: f.tree.Path.ID, ModuleID: "nope"})
	assert.ErrorIs(t, err, util.ErrModuleNotFound)

	_, err = f.svc.PublishDraft(ctx, "missing", PublishTarget{PathID: f.tree.Path.ID, ModuleID: f.tree.Module.ID})
	assert.ErrorIs(t, err, util.ErrDraftNotFound)
}

func TestStageMedia_RejectsUnsupportedAndOversized(t *testing.T) {
	f := newPublishFixture(t)
	ctx := context.Background()

	_, err := f.svc.StageMedia(ctx, "d1", "notes.txt", "", strings.NewReader("plain text"))
	assert.ErrorIs(t, err, util.ErrUnsupportedMedia)

	f.svc.MaxMediaBytes = 4
	_, err = f.svc.StageMedia(ctx, "d1", "big.png", "image/png", bytes.NewReader(pngHeader))
	assert.ErrorIs(t, err, util.ErrMediaTooLarge)
}

func TestUploadDraftMedia_UsesLessonKey(t *testing.T) {
	f := newPublishFixture(t)

	url, err := f.svc.UploadDraftMedia(context.Background(), "d9", "diagram.png", "", bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/lessons/d9/images/20240601080000_diagram.png", url)
}
