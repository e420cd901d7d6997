package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DocBase 文档型记录的公共字段，ID 沿用原 Firestore 文档 ID（字符串）
// swagger:model
type DocBase struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b *DocBase) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return
}

func GenerateUUID() string {
	return uuid.New().String()
}
