package repository

import (
	"aiedu_backend/internal/model"
	"aiedu_backend/internal/util"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type DraftRepository struct {
	DB *gorm.DB
}

func NewDraftRepository(db *gorm.DB) *DraftRepository {
	return &DraftRepository{DB: db}
}

func (r *DraftRepository) WithTx(tx *gorm.DB) *DraftRepository {
	return &DraftRepository{DB: tx}
}

func (r *DraftRepository) FindByID(ctx context.Context, id string) (*model.Draft, error) {
	var d model.Draft
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&d).Error; err != nil {
		return nil, notFound(err, util.ErrDraftNotFound)
	}
	return &d, nil
}

func (r *DraftRepository) List(ctx context.Context, authorID string, status model.DraftStatus) ([]model.Draft, error) {
	var ds []model.Draft
	query := r.DB.WithContext(ctx).Model(&model.Draft{})
	if authorID != "" {
		query = query.Where("author_id = ?", authorID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Order("updated_at desc").Find(&ds).Error
	return ds, err
}

// Upsert 按 ID 插入或覆盖草稿，version 在存储中的值基础上加一。
// expectedVersion 为 0 时不做冲突检查（后写覆盖）；writeKey 与上次写入相同时视为重复提交，直接返回已存储的草稿。
func (r *DraftRepository) Upsert(ctx context.Context, d *model.Draft, expectedVersion int, writeKey string) (*model.Draft, error) {
	var saved model.Draft
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Draft
		err := tx.Where("id = ?", d.ID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if expectedVersion > 0 {
				return util.ErrVersionConflict
			}
			row := *d
			row.Version = 1
			row.LastWriteKey = writeKey
			if row.Status == "" {
				row.Status = model.DraftEditing
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			saved = row
			return nil
		case err != nil:
			return err
		}

		if writeKey != "" && existing.LastWriteKey == writeKey {
			saved = existing
			return nil
		}
		if expectedVersion > 0 && existing.Version != expectedVersion {
			return util.ErrVersionConflict
		}

		row := *d
		row.Version = existing.Version + 1
		row.CreatedAt = existing.CreatedAt
		row.LastWriteKey = writeKey
		// 作者以首次保存为准，其他编辑修改不改变归属
		if existing.AuthorID != "" {
			row.AuthorID = existing.AuthorID
		}
		if row.Status == "" {
			row.Status = existing.Status
		}
		if row.PublishedLessonID == "" {
			row.PublishedLessonID = existing.PublishedLessonID
			row.PublishedAt = existing.PublishedAt
		}
		if err := tx.Save(&row).Error; err != nil {
			return err
		}
		saved = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *DraftRepository) MarkPublished(ctx context.Context, id, lessonID string, at time.Time) error {
	res := r.DB.WithContext(ctx).Model(&model.Draft{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":              model.DraftPublished,
		"published_lesson_id": lessonID,
		"published_at":        at,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrDraftNotFound
	}
	return nil
}

func (r *DraftRepository) Delete(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&model.Draft{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrDraftNotFound
	}
	return nil
}

func (r *DraftRepository) Count(ctx context.Context, id string) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Draft{}).Where("id = ?", id).Count(&n).Error
	return n, err
}
