package service

import (
	"aiedu_backend/internal/model"
	"aiedu_backend/internal/repository"
	"aiedu_backend/internal/util"
	"aiedu_backend/pkg/logger"
	"context"
	"errors"
	"fmt"

	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PathRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Difficulty  string `json:"difficulty"`
	CoverImage  string `json:"coverImage"`
	Order       *int   `json:"order"`
	IsPublished *bool  `json:"isPublished"`
}

type ModuleRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Order       *int   `json:"order"`
}

type LessonRequest struct {
	Title           string                 `json:"title" binding:"required"`
	Description     string                 `json:"description"`
	Order           *int                   `json:"order"`
	Duration        int                    `json:"duration"`
	XPReward        int                    `json:"xpReward"`
	Difficulty      string                 `json:"difficulty"`
	Tags            []string               `json:"tags"`
	ContentVersions *model.ContentVersions `json:"contentVersions"`
}

// DeleteResult 级联删除的统计
type DeleteResult struct {
	Modules  int64 `json:"modules"`
	Lessons  int64 `json:"lessons"`
	Progress int64 `json:"progress"`
}

// LearningPathService 管理学习路径 / 模块 / 课程树
type LearningPathService struct {
	DB           *gorm.DB
	Repo         *repository.LearningPathRepository
	ProgressRepo *repository.ProgressRepository
	Hub          *RealtimeHub
}

func NewLearningPathService(db *gorm.DB, repo *repository.LearningPathRepository, progressRepo *repository.ProgressRepository, hub *RealtimeHub) *LearningPathService {
	return &LearningPathService{
		DB:           db,
		Repo:         repo,
		ProgressRepo: progressRepo,
		Hub:          hub,
	}
}

func (s *LearningPathService) notify(event string, data interface{}) {
	s.Hub.Publish(TopicPaths, event, data)
}

// ---------- paths ----------

func (s *LearningPathService) ListPaths(ctx context.Context, publishedOnly bool) ([]model.LearningPath, error) {
	return s.Repo.ListPaths(ctx, publishedOnly)
}

// GetPathTree publishedOnly 为 true 时未发布的路径视为不存在
func (s *LearningPathService) GetPathTree(ctx context.Context, id string, publishedOnly bool) (*model.LearningPath, error) {
	path, err := s.Repo.FindPathTree(ctx, id)
	if err != nil {
		return nil, err
	}
	if publishedOnly && !path.IsPublished {
		return nil, util.ErrPathNotFound
	}
	return path, nil
}

func (s *LearningPathService) CreatePath(ctx context.Context, req PathRequest) (*model.LearningPath, error) {
	path := &model.LearningPath{
		Title:       req.Title,
		Slug:        slug.Make(req.Title),
		Description: req.Description,
		Category:    req.Category,
		Difficulty:  req.Difficulty,
		CoverImage:  req.CoverImage,
	}
	if req.Order != nil {
		path.Order = *req.Order
	}
	if req.IsPublished != nil {
		path.IsPublished = *req.IsPublished
	}
	if err := s.Repo.CreatePath(ctx, path); err != nil {
		return nil, err
	}
	s.notify("path_created", path)
	return path, nil
}

func (s *LearningPathService) UpdatePath(ctx context.Context, id string, req PathRequest) (*model.LearningPath, error) {
	path, err := s.Repo.FindPathByID(ctx, id)
	if err != nil {
		return nil, err
	}
	path.Title = req.Title
	path.Slug = slug.Make(req.Title)
	path.Description = req.Description
	path.Category = req.Category
	path.Difficulty = req.Difficulty
	path.CoverImage = req.CoverImage
	if req.Order != nil {
		path.Order = *req.Order
	}
	if req.IsPublished != nil {
		path.IsPublished = *req.IsPublished
	}
	if err := s.Repo.SavePath(ctx, path); err != nil {
		return nil, err
	}
	s.notify("path_updated", path)
	return path, nil
}

// DeleteLearningPath 在一个事务里删除路径、模块、课程以及这些课程的学习进度
func (s *LearningPathService) DeleteLearningPath(ctx context.Context, id string) (*DeleteResult, error) {
	var result DeleteResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.Repo.WithTx(tx)
		lessonIDs, err := repo.LessonIDsInPath(ctx, id)
		if err != nil {
			return err
		}
		if result.Progress, err = s.ProgressRepo.WithTx(tx).DeleteByLessonIDs(ctx, lessonIDs); err != nil {
			return err
		}
		result.Modules, result.Lessons, err = repo.DeletePathCascade(ctx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("delete learning path %s: %w", id, err)
	}

	logger.Log.Info("Learning path deleted",
		zap.String("pathId", id),
		zap.Int64("modules", result.Modules),
		zap.Int64("lessons", result.Lessons),
		zap.Int64("progress", result.Progress))
	s.notify("path_deleted", map[string]string{"id": id})
	return &result, nil
}

// ---------- modules ----------

func (s *LearningPathService) ListModules(ctx context.Context, pathID string) ([]model.PathModule, error) {
	if _, err := s.Repo.FindPathByID(ctx, pathID); err != nil {
		return nil, err
	}
	return s.Repo.ListModules(ctx, pathID)
}

func (s *LearningPathService) CreateModule(ctx context.Context, pathID string, req ModuleRequest) (*model.PathModule, error) {
	if _, err := s.Repo.FindPathByID(ctx, pathID); err != nil {
		return nil, err
	}
	m := &model.PathModule{
		PathID:      pathID,
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Order != nil {
		m.Order = *req.Order
	} else {
		order, err := s.Repo.NextModuleOrder(ctx, pathID)
		if err != nil {
			return nil, err
		}
		m.Order = order
	}
	if err := s.Repo.CreateModule(ctx, m); err != nil {
		return nil, err
	}
	s.notify("module_created", m)
	return m, nil
}

func (s *LearningPathService) UpdateModule(ctx context.Context, pathID, moduleID string, req ModuleRequest) (*model.PathModule, error) {
	m, err := s.Repo.FindModule(ctx, pathID, moduleID)
	if err != nil {
		return nil, err
	}
	m.Title = req.Title
	m.Description = req.Description
	if req.Order != nil {
		m.Order = *req.Order
	}
	if err := s.Repo.SaveModule(ctx, m); err != nil {
		return nil, err
	}
	s.notify("module_updated", m)
	return m, nil
}

func (s *LearningPathService) DeleteModule(ctx context.Context, pathID, moduleID string) (*DeleteResult, error) {
	var result DeleteResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.Repo.WithTx(tx)
		lessonIDs, err := repo.LessonIDsInModule(ctx, moduleID)
		if err != nil {
			return err
		}
		if result.Progress, err = s.ProgressRepo.WithTx(tx).DeleteByLessonIDs(ctx, lessonIDs); err != nil {
			return err
		}
		result.Lessons, err = repo.DeleteModuleCascade(ctx, pathID, moduleID)
		result.Modules = 1
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("delete module %s: %w", moduleID, err)
	}
	s.notify("module_deleted", map[string]string{"pathId": pathID, "id": moduleID})
	return &result, nil
}

// ---------- lessons ----------

func (s *LearningPathService) ListLessons(ctx context.Context, pathID, moduleID string) ([]model.Lesson, error) {
	if _, err := s.Repo.FindModule(ctx, pathID, moduleID); err != nil {
		return nil, err
	}
	return s.Repo.ListLessons(ctx, moduleID)
}

// GetLesson publishedOnly 为 true 时只返回已发布路径下的课程
func (s *LearningPathService) GetLesson(ctx context.Context, lessonID string, publishedOnly bool) (*model.Lesson, error) {
	lesson, err := s.Repo.FindLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if !publishedOnly {
		return lesson, nil
	}
	path, err := s.Repo.FindPathByID(ctx, lesson.PathID)
	if errors.Is(err, util.ErrPathNotFound) || (err == nil && !path.IsPublished) {
		return nil, util.ErrLessonNotFound
	}
	if err != nil {
		return nil, err
	}
	return lesson, nil
}

func applyLessonRequest(l *model.Lesson, req LessonRequest) {
	l.Title = req.Title
	l.Description = req.Description
	l.Duration = req.Duration
	l.XPReward = req.XPReward
	l.Difficulty = req.Difficulty
	l.Tags = req.Tags
	if req.Order != nil {
		l.Order = *req.Order
	}
	if req.ContentVersions != nil {
		l.ContentVersions = datatypes.NewJSONType(*req.ContentVersions)
	}
}

func (s *LearningPathService) CreateLesson(ctx context.Context, pathID, moduleID string, req LessonRequest) (*model.Lesson, error) {
	if _, err := s.Repo.FindModule(ctx, pathID, moduleID); err != nil {
		return nil, err
	}
	l := &model.Lesson{PathID: pathID, ModuleID: moduleID}
	applyLessonRequest(l, req)
	if req.Order == nil {
		order, err := s.Repo.NextLessonOrder(ctx, moduleID)
		if err != nil {
			return nil, err
		}
		l.Order = order
	}
	if err := s.Repo.CreateLesson(ctx, l); err != nil {
		return nil, err
	}
	s.notify("lesson_created", l)
	return l, nil
}

func (s *LearningPathService) UpdateLesson(ctx context.Context, lessonID string, req LessonRequest) (*model.Lesson, error) {
	l, err := s.Repo.FindLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	applyLessonRequest(l, req)
	if err := s.Repo.SaveLesson(ctx, l); err != nil {
		return nil, err
	}
	s.notify("lesson_updated", l)
	return l, nil
}

func (s *LearningPathService) DeleteLesson(ctx context.Context, lessonID string) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.ProgressRepo.WithTx(tx).DeleteByLessonIDs(ctx, []string{lessonID}); err != nil {
			return err
		}
		return s.Repo.WithTx(tx).DeleteLesson(ctx, lessonID)
	})
	if err != nil {
		return fmt.Errorf("delete lesson %s: %w", lessonID, err)
	}
	s.notify("lesson_deleted", map[string]string{"id": lessonID})
	return nil
}
