package service

import (
	"aiedu_backend/internal/repository"
	"aiedu_backend/pkg/logger"
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OrphanReport 悬空的模块和课程
type OrphanReport struct {
	ModuleIDs []string `json:"moduleIds"`
	LessonIDs []string `json:"lessonIds"`
}

type CleanResult struct {
	Modules  int64 `json:"modules"`
	Lessons  int64 `json:"lessons"`
	Progress int64 `json:"progress"`
}

// DatabaseCleaner 查找并删除父节点已不存在的模块和课程
type DatabaseCleaner struct {
	DB           *gorm.DB
	Repo         *repository.LearningPathRepository
	ProgressRepo *repository.ProgressRepository
}

func NewDatabaseCleaner(db *gorm.DB, repo *repository.LearningPathRepository, progressRepo *repository.ProgressRepository) *DatabaseCleaner {
	return &DatabaseCleaner{DB: db, Repo: repo, ProgressRepo: progressRepo}
}

func (c *DatabaseCleaner) FindOrphans(ctx context.Context) (*OrphanReport, error) {
	modules, err := c.Repo.FindOrphanModuleIDs(ctx)
	if err != nil {
		return nil, err
	}
	lessons, err := c.Repo.FindOrphanLessonIDs(ctx)
	if err != nil {
		return nil, err
	}
	return &OrphanReport{ModuleIDs: modules, LessonIDs: lessons}, nil
}

// Clean 先删除孤立模块，再删除因此变为孤立的课程
func (c *DatabaseCleaner) Clean(ctx context.Context) (*CleanResult, error) {
	var result CleanResult
	err := c.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := c.Repo.WithTx(tx)
		moduleIDs, err := repo.FindOrphanModuleIDs(ctx)
		if err != nil {
			return err
		}
		if result.Modules, err = repo.DeleteModulesByIDs(ctx, moduleIDs); err != nil {
			return err
		}

		lessonIDs, err := repo.FindOrphanLessonIDs(ctx)
		if err != nil {
			return err
		}
		if result.Progress, err = c.ProgressRepo.WithTx(tx).DeleteByLessonIDs(ctx, lessonIDs); err != nil {
			return err
		}
		result.Lessons, err = repo.DeleteLessonsByIDs(ctx, lessonIDs)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("clean database: %w", err)
	}

	logger.Log.Info("Database cleaned",
		zap.Int64("modules", result.Modules),
		zap.Int64("lessons", result.Lessons),
		zap.Int64("progress", result.Progress))
	return &result, nil
}
