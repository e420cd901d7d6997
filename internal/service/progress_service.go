package service

import (
	"aiedu_backend/internal/model"
	"aiedu_backend/internal/repository"
	"aiedu_backend/internal/util"
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type ProgressRequest struct {
	Progress  int  `json:"progress"`
	Completed bool `json:"completed"`
	Score     int  `json:"score"`
	TimeSpent int  `json:"timeSpent"`
}

type ProgressResult struct {
	Progress  *model.UserProgress `json:"progress"`
	XP        *XPResult           `json:"xp,omitempty"`
	Streak    *StreakResult       `json:"streak,omitempty"`
	NewBadges []model.Badge       `json:"newBadges,omitempty"`
}

type ProgressService struct {
	DB           *gorm.DB
	ProgressRepo *repository.ProgressRepository
	PathRepo     *repository.LearningPathRepository
	UserRepo     *repository.UserRepository
	Gamify       *GamificationService
	LessonXP     int
	Now          func() time.Time
}

func NewProgressService(db *gorm.DB, progressRepo *repository.ProgressRepository, pathRepo *repository.LearningPathRepository,
	userRepo *repository.UserRepository, gamify *GamificationService, lessonXP int) *ProgressService {
	if lessonXP <= 0 {
		lessonXP = 50
	}
	return &ProgressService{
		DB:           db,
		ProgressRepo: progressRepo,
		PathRepo:     pathRepo,
		UserRepo:     userRepo,
		Gamify:       gamify,
		LessonXP:     lessonXP,
		Now:          time.Now,
	}
}

// UpdateProgress 以 uid_lessonId 为键写入进度；首次完成时发放经验、更新连续天数并检查徽章
func (s *ProgressService) UpdateProgress(ctx context.Context, userID, lessonID string, req ProgressRequest) (*ProgressResult, error) {
	if req.Progress < 0 || req.Progress > 100 || req.TimeSpent < 0 {
		return nil, util.ErrInvalidProgress
	}

	lesson, err := s.PathRepo.FindLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	result := &ProgressResult{}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		progressRepo := s.ProgressRepo.WithTx(tx)
		users := s.UserRepo.WithTx(tx)

		p, err := progressRepo.Find(ctx, userID, lessonID)
		if err != nil {
			return err
		}
		if p == nil {
			p = &model.UserProgress{
				UserID:    userID,
				LessonID:  lessonID,
				StartedAt: now,
			}
		}
		wasCompleted := p.Completed

		p.PathID = lesson.PathID
		p.ModuleID = lesson.ModuleID
		if req.Progress > p.Progress {
			p.Progress = req.Progress
		}
		if req.Score > p.Score {
			p.Score = req.Score
		}
		p.TimeSpent += req.TimeSpent
		if req.Completed || p.Progress == 100 {
			p.Completed = true
			p.Progress = 100
		}
		if p.Completed && !wasCompleted {
			p.CompletedAt = &now
		}
		if err := progressRepo.Save(ctx, p); err != nil {
			return err
		}
		result.Progress = p

		if wasCompleted || !p.Completed {
			return nil
		}

		user, err := users.FindByID(ctx, userID)
		if err != nil {
			return err
		}
		if err := users.UpdateFields(ctx, userID, map[string]interface{}{
			"lessons_completed": user.LessonsCompleted + 1,
		}); err != nil {
			return err
		}

		xp := lesson.XPReward
		if xp <= 0 {
			xp = s.LessonXP
		}
		if result.XP, err = s.Gamify.awardXP(ctx, users, userID, xp); err != nil {
			return err
		}
		if result.Streak, err = s.Gamify.updateStreak(ctx, users, userID, now); err != nil {
			return err
		}
		if result.NewBadges, err = s.Gamify.checkBadges(ctx, users, userID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update progress: %w", err)
	}
	return result, nil
}

func (s *ProgressService) GetProgress(ctx context.Context, userID, lessonID string) (*model.UserProgress, error) {
	p, err := s.ProgressRepo.Find(ctx, userID, lessonID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return &model.UserProgress{
			ID:       model.ProgressID(userID, lessonID),
			UserID:   userID,
			LessonID: lessonID,
		}, nil
	}
	return p, nil
}

func (s *ProgressService) ListProgress(ctx context.Context, userID, pathID string) ([]model.UserProgress, error) {
	return s.ProgressRepo.ListByUser(ctx, userID, pathID)
}
