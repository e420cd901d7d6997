package model

import (
	"time"

	"gorm.io/datatypes"
)

type UserRole string

const (
	Student UserRole = "student"
	Editor  UserRole = "editor"
	Admin   UserRole = "admin"
)

func (r UserRole) Valid() bool {
	switch r {
	case Student, Editor, Admin:
		return true
	}
	return false
}

const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

// swagger:model User
type User struct {
	ID               string                      `gorm:"primaryKey;size:128" json:"uid"`
	Email            string                      `gorm:"size:191;uniqueIndex;not null" json:"email"`
	Password         string                      `gorm:"size:100" json:"-"`
	Provider         string                      `gorm:"size:20;default:'password'" json:"provider"`
	DisplayName      string                      `gorm:"size:100" json:"displayName"`
	PhotoURL         string                      `gorm:"size:512" json:"photoURL"`
	Bio              string                      `gorm:"type:text" json:"bio"`
	Role             UserRole                    `gorm:"size:20;default:'student'" json:"role"`
	XP               int                         `gorm:"default:0" json:"xp"`
	Level            int                         `gorm:"default:1" json:"level"`
	CurrentStreak    int                         `gorm:"default:0" json:"currentStreak"`
	LongestStreak    int                         `gorm:"default:0" json:"longestStreak"`
	LastActivityDate *time.Time                  `json:"lastActivityDate"`
	LessonsCompleted int                         `gorm:"default:0" json:"lessonsCompleted"`
	Badges           datatypes.JSONSlice[string] `json:"badges"`
	Disabled         bool                        `gorm:"default:false" json:"disabled"`
	LastLogin        *time.Time                  `json:"lastLogin"`
	CreatedAt        time.Time                   `json:"createdAt"`
	UpdatedAt        time.Time                   `json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) HasBadge(id string) bool {
	for _, b := range u.Badges {
		if b == id {
			return true
		}
	}
	return false
}

func (u *User) IsAdmin() bool {
	return u.Role == Admin
}
