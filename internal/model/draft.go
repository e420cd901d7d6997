package model

import (
	"time"

	"gorm.io/datatypes"
)

type DraftStatus string

const (
	DraftEditing   DraftStatus = "draft"
	DraftPublished DraftStatus = "published"
)

// Draft 对应 drafts/{draftId}，尚未发布的课程
// swagger:model Draft
type Draft struct {
	ID                string                               `gorm:"primaryKey;size:64" json:"id"`
	Title             string                               `gorm:"size:255" json:"title"`
	Description       string                               `gorm:"type:text" json:"description"`
	AuthorID          string                               `gorm:"size:128;index" json:"authorId"`
	PathID            string                               `gorm:"size:64" json:"pathId,omitempty"`
	ModuleID          string                               `gorm:"size:64" json:"moduleId,omitempty"`
	Difficulty        string                               `gorm:"size:20" json:"difficulty"`
	Duration          int                                  `gorm:"default:0" json:"duration"`
	XPReward          int                                  `gorm:"default:0" json:"xpReward"`
	Tags              datatypes.JSONSlice[string]          `json:"tags"`
	ContentVersions   datatypes.JSONType[ContentVersions] `json:"contentVersions"`
	Version           int                                  `gorm:"default:0" json:"version"`
	Status            DraftStatus                          `gorm:"size:20;default:'draft'" json:"status"`
	PublishedLessonID string                               `gorm:"size:64" json:"publishedLessonId,omitempty"`
	PublishedAt       *time.Time                           `json:"publishedAt,omitempty"`
	LastWriteKey      string                               `gorm:"size:128" json:"-"`
	CreatedAt         time.Time                            `json:"createdAt"`
	UpdatedAt         time.Time                            `json:"updatedAt"`
}

func (Draft) TableName() string {
	return "drafts"
}

func (d *Draft) Content() ContentVersions {
	return d.ContentVersions.Data()
}

func (d *Draft) SetContent(cv ContentVersions) {
	d.ContentVersions = datatypes.NewJSONType(cv)
}
