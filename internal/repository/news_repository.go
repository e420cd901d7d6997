package repository

import (
	"aiedu_backend/internal/model"
	"aiedu_backend/internal/util"
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NewsRepository struct {
	DB *gorm.DB
}

func NewNewsRepository(db *gorm.DB) *NewsRepository {
	return &NewsRepository{DB: db}
}

// UpsertArticles 按 ID 插入或更新文章内容，保留点赞数
func (r *NewsRepository) UpsertArticles(ctx context.Context, articles []model.NewsArticle) error {
	if len(articles) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "link", "description", "author", "source", "category", "thumbnail",
			"published_at", "fetched_at", "updated_at",
		}),
	}).Create(&articles).Error
}

func (r *NewsRepository) List(ctx context.Context, limit int, category string) ([]model.NewsArticle, error) {
	var as []model.NewsArticle
	query := r.DB.WithContext(ctx).Model(&model.NewsArticle{})
	if category != "" {
		query = query.Where("category = ?", category)
	}
	err := query.Order("published_at desc").Limit(limit).Find(&as).Error
	return as, err
}

func (r *NewsRepository) FindByID(ctx context.Context, id string) (*model.NewsArticle, error) {
	var a model.NewsArticle
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, notFound(err, util.ErrArticleNotFound)
	}
	return &a, nil
}

// ToggleLike 在一个事务里切换点赞记录并同步计数
func (r *NewsRepository) ToggleLike(ctx context.Context, articleID, userID string) (liked bool, likes int, err error) {
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var article model.NewsArticle
		if err := tx.Where("id = ?", articleID).First(&article).Error; err != nil {
			return notFound(err, util.ErrArticleNotFound)
		}

		var existing model.NewsLike
		findErr := tx.Where("article_id = ? AND user_id = ?", articleID, userID).First(&existing).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			if err := tx.Create(&model.NewsLike{ArticleID: articleID, UserID: userID}).Error; err != nil {
				return err
			}
			if err := tx.Model(&model.NewsArticle{}).Where("id = ?", articleID).
				Update("likes", gorm.Expr("likes + 1")).Error; err != nil {
				return err
			}
			liked = true
		case findErr != nil:
			return findErr
		default:
			if err := tx.Where("article_id = ? AND user_id = ?", articleID, userID).Delete(&model.NewsLike{}).Error; err != nil {
				return err
			}
			if err := tx.Model(&model.NewsArticle{}).Where("id = ? AND likes > 0", articleID).
				Update("likes", gorm.Expr("likes - 1")).Error; err != nil {
				return err
			}
			liked = false
		}

		return tx.Model(&model.NewsArticle{}).Where("id = ?", articleID).Pluck("likes", &likes).Error
	})
	return liked, likes, err
}

func (r *NewsRepository) LikedBy(ctx context.Context, userID string, articleIDs []string) (map[string]bool, error) {
	out := make(map[string]bool)
	if userID == "" || len(articleIDs) == 0 {
		return out, nil
	}
	var ids []string
	err := r.DB.WithContext(ctx).Model(&model.NewsLike{}).
		Where("user_id = ? AND article_id IN ?", userID, articleIDs).Pluck("article_id", &ids).Error
	for _, id := range ids {
		out[id] = true
	}
	return out, err
}
