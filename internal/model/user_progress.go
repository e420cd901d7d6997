package model

import "time"

// UserProgress 对应 userProgress/{uid}_{lessonId}
// swagger:model UserProgress
type UserProgress struct {
	ID          string     `gorm:"primaryKey;size:200" json:"id"`
	UserID      string     `gorm:"size:128;index;not null" json:"userId"`
	LessonID    string     `gorm:"size:64;index;not null" json:"lessonId"`
	PathID      string     `gorm:"size:64;index" json:"pathId"`
	ModuleID    string     `gorm:"size:64" json:"moduleId"`
	Progress    int        `gorm:"default:0" json:"progress"` // 0-100
	Completed   bool       `gorm:"default:false" json:"completed"`
	Score       int        `gorm:"default:0" json:"score"`
	TimeSpent   int        `gorm:"default:0" json:"timeSpent"` // 秒
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (UserProgress) TableName() string {
	return "user_progress"
}

func ProgressID(userID, lessonID string) string {
	return userID + "_" + lessonID
}
