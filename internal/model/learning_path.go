package model

import (
	"time"

	"gorm.io/datatypes"
)

const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// LearningPath 对应 learningPaths/{pathId}
// swagger:model LearningPath
type LearningPath struct {
	DocBase
	Title       string       `gorm:"size:255;not null" json:"title"`
	Slug        string       `gorm:"size:255;index" json:"slug"`
	Description string       `gorm:"type:text" json:"description"`
	Category    string       `gorm:"size:100" json:"category"`
	Difficulty  string       `gorm:"size:20" json:"difficulty"`
	CoverImage  string       `gorm:"size:512" json:"coverImage"`
	Order       int          `gorm:"default:0" json:"order"`
	IsPublished bool         `gorm:"default:false" json:"isPublished"`
	Modules     []PathModule `gorm:"foreignKey:PathID" json:"modules,omitempty"`
}

func (LearningPath) TableName() string {
	return "learning_paths"
}

// PathModule 对应 learningPaths/{pathId}/modules/{moduleId}
// swagger:model PathModule
type PathModule struct {
	DocBase
	PathID      string   `gorm:"size:64;index;not null" json:"pathId"`
	Title       string   `gorm:"size:255;not null" json:"title"`
	Description string   `gorm:"type:text" json:"description"`
	Order       int      `gorm:"default:0" json:"order"`
	Lessons     []Lesson `gorm:"foreignKey:ModuleID" json:"lessons,omitempty"`
}

func (PathModule) TableName() string {
	return "path_modules"
}

// Lesson 对应 learningPaths/{p}/modules/{m}/lessons/{lessonId}，即已发布的课程
// swagger:model Lesson
type Lesson struct {
	DocBase
	PathID          string                               `gorm:"size:64;index;not null" json:"pathId"`
	ModuleID        string                               `gorm:"size:64;index;not null" json:"moduleId"`
	Title           string                               `gorm:"size:255;not null" json:"title"`
	Description     string                               `gorm:"type:text" json:"description"`
	Order           int                                  `gorm:"default:0" json:"order"`
	Duration        int                                  `gorm:"default:0" json:"duration"` // 分钟
	XPReward        int                                  `gorm:"default:0" json:"xpReward"`
	Difficulty      string                               `gorm:"size:20" json:"difficulty"`
	Tags            datatypes.JSONSlice[string]          `json:"tags"`
	ContentVersions datatypes.JSONType[ContentVersions] `json:"contentVersions"`
	SourceDraftID   string                               `gorm:"size:64;index" json:"sourceDraftId,omitempty"`
	PublishedAt     *time.Time                           `json:"publishedAt,omitempty"`
}

func (Lesson) TableName() string {
	return "lessons"
}
