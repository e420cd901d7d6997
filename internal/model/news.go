package model

import "time"

// NewsArticle 对应 aiNews/{id}
// swagger:model NewsArticle
type NewsArticle struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	Title       string    `gorm:"size:512;not null" json:"title"`
	Link        string    `gorm:"size:1024" json:"link"`
	Description string    `gorm:"type:text" json:"description"`
	Author      string    `gorm:"size:255" json:"author"`
	Source      string    `gorm:"size:255;index" json:"source"`
	Category    string    `gorm:"size:100;index" json:"category"`
	Thumbnail   string    `gorm:"size:1024" json:"thumbnail"`
	PublishedAt time.Time `gorm:"index" json:"publishedAt"`
	Likes       int       `gorm:"default:0" json:"likes"`
	FetchedAt   time.Time `json:"fetchedAt"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (NewsArticle) TableName() string {
	return "ai_news"
}

type NewsLike struct {
	ArticleID string    `gorm:"primaryKey;size:64" json:"articleId"`
	UserID    string    `gorm:"primaryKey;size:128" json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

func (NewsLike) TableName() string {
	return "ai_news_likes"
}
