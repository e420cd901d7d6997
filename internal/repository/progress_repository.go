package repository

import (
	"aiedu_backend/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

func (r *ProgressRepository) WithTx(tx *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: tx}
}

// Find 不存在时返回 nil, nil
func (r *ProgressRepository) Find(ctx context.Context, userID, lessonID string) (*model.UserProgress, error) {
	var p model.UserProgress
	err := r.DB.WithContext(ctx).Where("id = ?", model.ProgressID(userID, lessonID)).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProgressRepository) Save(ctx context.Context, p *model.UserProgress) error {
	p.ID = model.ProgressID(p.UserID, p.LessonID)
	return r.DB.WithContext(ctx).Save(p).Error
}

func (r *ProgressRepository) ListByUser(ctx context.Context, userID, pathID string) ([]model.UserProgress, error) {
	var ps []model.UserProgress
	query := r.DB.WithContext(ctx).Where("user_id = ?", userID)
	if pathID != "" {
		query = query.Where("path_id = ?", pathID)
	}
	err := query.Order("updated_at desc").Find(&ps).Error
	return ps, err
}

func (r *ProgressRepository) CountCompleted(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.UserProgress{}).
		Where("user_id = ? AND completed = ?", userID, true).Count(&n).Error
	return n, err
}

func (r *ProgressRepository) DeleteByLessonIDs(ctx context.Context, lessonIDs []string) (int64, error) {
	if len(lessonIDs) == 0 {
		return 0, nil
	}
	res := r.DB.WithContext(ctx).Where("lesson_id IN ?", lessonIDs).Delete(&model.UserProgress{})
	return res.RowsAffected, res.Error
}
