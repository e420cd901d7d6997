package service

import (
	"aiedu_backend/internal/model"
	"aiedu_backend/internal/repository"
	"aiedu_backend/internal/util"
	"aiedu_backend/pkg/logger"
	"aiedu_backend/pkg/monitoring"
	"aiedu_backend/pkg/tracing"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PublishTarget struct {
	PathID   string `json:"pathId" binding:"required"`
	ModuleID string `json:"moduleId" binding:"required"`
	LessonID string `json:"lessonId"`
}

type PublishResult struct {
	Lesson        *model.Lesson `json:"lesson"`
	UploadedMedia int           `json:"uploadedMedia"`
}

// VideoProber 读取视频时长，测试中可替换
type VideoProber func(data []byte, filename string) (*util.VideoInfo, error)

// PublishService 把草稿复制为已发布课程，并把 blob: 媒体上传到持久存储
type PublishService struct {
	DB            *gorm.DB
	Drafts        *DraftService
	DraftRepo     *repository.DraftRepository
	PathRepo      *repository.LearningPathRepository
	Storage       *StorageService
	Staging       StagingStore
	Hub           *RealtimeHub
	Probe         VideoProber
	MaxMediaBytes int64
	Now           func() time.Time
}

func NewPublishService(db *gorm.DB, drafts *DraftService, draftRepo *repository.DraftRepository, pathRepo *repository.LearningPathRepository,
	storage *StorageService, staging StagingStore, hub *RealtimeHub, maxMediaBytes int64) *PublishService {
	return &PublishService{
		DB:            db,
		Drafts:        drafts,
		DraftRepo:     draftRepo,
		PathRepo:      pathRepo,
		Storage:       storage,
		Staging:       staging,
		Hub:           hub,
		Probe:         util.ProbeVideoBytes,
		MaxMediaBytes: maxMediaBytes,
		Now:           time.Now,
	}
}

// PublishDraft 依次上传媒体、写入课程、标记草稿为已发布；失败时删除本次已上传的对象
func (s *PublishService) PublishDraft(ctx context.Context, draftID string, target PublishTarget) (result *PublishResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "PublishDraft",
		attribute.String("draft.id", draftID),
		attribute.String("path.id", target.PathID),
		attribute.String("module.id", target.ModuleID))
	defer func() {
		monitoring.DraftPublishCounter.WithLabelValues(monitoring.Result(err)).Inc()
		tracing.EndSpan(span, err)
	}()

	if s.Drafts != nil {
		if err := s.Drafts.FlushDraft(ctx, draftID); err != nil {
			return nil, fmt.Errorf("publish draft %s: %w", draftID, err)
		}
	}

	draft, err := s.DraftRepo.FindByID(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("publish draft %s: %w", draftID, err)
	}
	if _, err := s.PathRepo.FindPathByID(ctx, target.PathID); err != nil {
		return nil, fmt.Errorf("publish draft %s: %w", draftID, err)
	}
	if _, err := s.PathRepo.FindModule(ctx, target.PathID, target.ModuleID); err != nil {
		return nil, fmt.Errorf("publish draft %s: %w", draftID, err)
	}

	content, err := draft.Content().Clone()
	if err != nil {
		return nil, fmt.Errorf("publish draft %s: copy content: %w", draftID, err)
	}

	var uploaded []string
	var stagedIDs []string
	defer func() {
		if err != nil {
			s.cleanup(draftID, uploaded)
		}
	}()

	now := s.Now()
	resolved := make(map[string]string)
	err = content.WalkMedia(func(tier string, page *model.Page, mb model.MediaBlock) error {
		url := mb.MediaURL()
		if !util.IsBlobURL(url) {
			return nil
		}
		if durable, ok := resolved[url]; ok {
			mb.SetMediaURL(durable)
			return nil
		}

		stagedID := strings.TrimPrefix(url, util.BlobScheme)
		staged, err := s.Staging.Get(ctx, stagedID)
		if err != nil {
			return fmt.Errorf("resolve %s on page %q (%s): %w", url, page.ID, tier, err)
		}
		if staged.DraftID != draftID {
			return fmt.Errorf("resolve %s on page %q (%s): %w", url, page.ID, tier, util.ErrStagedMediaOwner)
		}

		key := LessonMediaKey(draftID, string(mb.MediaKind()), util.SafeFilename(staged.Filename, now))
		durable, err := s.Storage.Upload(ctx, key, bytes.NewReader(staged.Data), int64(len(staged.Data)), staged.ContentType)
		monitoring.MediaUploadCounter.WithLabelValues(string(mb.MediaKind()), monitoring.Result(err)).Inc()
		if err != nil {
			return fmt.Errorf("upload %s: %w", key, err)
		}
		uploaded = append(uploaded, key)
		stagedIDs = append(stagedIDs, stagedID)
		resolved[url] = durable
		mb.SetMediaURL(durable)

		if vb, ok := mb.(*model.VideoBlock); ok && s.Probe != nil {
			if info, err := s.Probe(staged.Data, staged.Filename); err == nil {
				vb.Duration = info.Duration
			} else {
				logger.Log.Warn("Video probe failed", zap.String("key", key), zap.Error(err))
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("publish draft %s: %w", draftID, err)
	}

	lesson, err := s.writeLesson(ctx, draft, target, content, now)
	if err != nil {
		return nil, fmt.Errorf("publish draft %s: %w", draftID, err)
	}

	for _, id := range stagedIDs {
		if err := s.Staging.Delete(ctx, id); err != nil {
			logger.Log.Warn("Failed to drop staged media", zap.String("id", id), zap.Error(err))
		}
	}

	logger.Log.Info("Draft published",
		zap.String("draftId", draftID),
		zap.String("lessonId", lesson.ID),
		zap.Int("uploadedMedia", len(uploaded)))
	s.Hub.Publish(DraftTopic(draftID), "draft_published", map[string]string{"id": draftID, "lessonId": lesson.ID})
	s.Hub.Publish(TopicPaths, "lesson_published", lesson)
	return &PublishResult{Lesson: lesson, UploadedMedia: len(uploaded)}, nil
}

// writeLesson 在事务中创建或覆盖课程并更新草稿状态
func (s *PublishService) writeLesson(ctx context.Context, draft *model.Draft, target PublishTarget, content model.ContentVersions, now time.Time) (*model.Lesson, error) {
	lessonID := target.LessonID
	if lessonID == "" {
		lessonID = draft.PublishedLessonID
	}

	var lesson *model.Lesson
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		paths := s.PathRepo.WithTx(tx)

		existing := (*model.Lesson)(nil)
		if lessonID != "" {
			l, err := paths.FindLesson(ctx, lessonID)
			switch {
			case err == nil:
				existing = l
			case !errors.Is(err, util.ErrLessonNotFound):
				return err
			}
		}

		l := &model.Lesson{}
		if existing != nil {
			l = existing
		} else {
			l.ID = lessonID
			if l.ID == "" {
				l.ID = uuid.NewString()
			}
		}
		if existing == nil || existing.ModuleID != target.ModuleID {
			order, err := paths.NextLessonOrder(ctx, target.ModuleID)
			if err != nil {
				return err
			}
			l.Order = order
		}

		l.PathID = target.PathID
		l.ModuleID = target.ModuleID
		l.Title = draft.Title
		l.Description = draft.Description
		l.Duration = draft.Duration
		l.XPReward = draft.XPReward
		l.Difficulty = draft.Difficulty
		l.Tags = draft.Tags
		l.ContentVersions = datatypes.NewJSONType(content)
		l.SourceDraftID = draft.ID
		l.PublishedAt = &now

		var err error
		if existing != nil {
			err = paths.SaveLesson(ctx, l)
		} else {
			err = paths.CreateLesson(ctx, l)
		}
		if err != nil {
			return err
		}
		lesson = l
		return s.DraftRepo.WithTx(tx).MarkPublished(ctx, draft.ID, l.ID, now)
	})
	return lesson, err
}

// cleanup 发布失败时尽力删除已上传的对象
func (s *PublishService) cleanup(draftID string, keys []string) {
	if len(keys) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	for _, key := range keys {
		if err := s.Storage.Delete(ctx, key); err != nil {
			logger.Log.Warn("Failed to delete uploaded media after publish failure",
				zap.String("draftId", draftID), zap.String("key", key), zap.Error(err))
		}
	}
	logger.Log.Info("Cleaned up media after failed publish", zap.String("draftId", draftID), zap.Int("count", len(keys)))
}

// readLimited 读取不超过 limit 字节，超出返回 ErrMediaTooLarge
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, util.ErrMediaTooLarge
	}
	return data, nil
}

func detectMedia(data []byte, contentType string) (string, model.MediaKind, error) {
	if contentType == "" || contentType == util.MimeOctetStream {
		mime, _, err := util.SniffMimeType(bytes.NewReader(data))
		if err != nil {
			return "", "", err
		}
		contentType = mime
	}
	switch {
	case util.IsImage(contentType):
		return contentType, model.MediaImage, nil
	case util.IsVideo(contentType):
		return contentType, model.MediaVideo, nil
	}
	return "", "", fmt.Errorf("%w: %s", util.ErrUnsupportedMedia, contentType)
}

// StageMedia 暂存编辑器中的媒体并返回 blob:<id> 引用，发布时才上传
func (s *PublishService) StageMedia(ctx context.Context, draftID, filename, contentType string, r io.Reader) (string, error) {
	data, err := readLimited(r, s.MaxMediaBytes)
	if err != nil {
		return "", err
	}
	contentType, _, err = detectMedia(data, contentType)
	if err != nil {
		return "", err
	}

	m := &StagedMedia{
		ID:          uuid.NewString(),
		DraftID:     draftID,
		Filename:    filename,
		ContentType: contentType,
		Data:        data,
		CreatedAt:   s.Now(),
	}
	if err := s.Staging.Put(ctx, m); err != nil {
		return "", fmt.Errorf("stage media: %w", err)
	}
	return m.BlobURL(), nil
}

// UploadDraftMedia 直接上传到 lessons/{draftId}/{images|videos}/ 并返回持久 URL
func (s *PublishService) UploadDraftMedia(ctx context.Context, draftID, filename, contentType string, r io.Reader) (string, error) {
	data, err := readLimited(r, s.MaxMediaBytes)
	if err != nil {
		return "", err
	}
	contentType, kind, err := detectMedia(data, contentType)
	if err != nil {
		return "", err
	}

	key := LessonMediaKey(draftID, string(kind), util.SafeFilename(filename, s.Now()))
	url, err := s.Storage.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), contentType)
	monitoring.MediaUploadCounter.WithLabelValues(string(kind), monitoring.Result(err)).Inc()
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return url, nil
}
