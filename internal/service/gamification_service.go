package service

import (
	"aiedu_backend/internal/model"
	"aiedu_backend/internal/repository"
	"aiedu_backend/pkg/logger"
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const xpPerLevel = 100

// LevelForXP 每 100 XP 升一级，起始等级为 1
func LevelForXP(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return xp/xpPerLevel + 1
}

type XPResult struct {
	XP        int  `json:"xp"`
	Level     int  `json:"level"`
	LeveledUp bool `json:"leveledUp"`
}

type StreakResult struct {
	CurrentStreak int  `json:"currentStreak"`
	LongestStreak int  `json:"longestStreak"`
	Changed       bool `json:"changed"`
}

type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"uid"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL,omitempty"`
	XP          int    `json:"xp"`
	Level       int    `json:"level"`
}

type GamificationService struct {
	DB       *gorm.DB
	UserRepo *repository.UserRepository
}

func NewGamificationService(db *gorm.DB, userRepo *repository.UserRepository) *GamificationService {
	return &GamificationService{DB: db, UserRepo: userRepo}
}

// AwardXP 增加经验并重新计算等级
func (s *GamificationService) AwardXP(ctx context.Context, userID string, amount int) (*XPResult, error) {
	var result XPResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := s.awardXP(ctx, s.UserRepo.WithTx(tx), userID, amount)
		if err != nil {
			return err
		}
		result = *r
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("award xp: %w", err)
	}
	return &result, nil
}

func (s *GamificationService) awardXP(ctx context.Context, users *repository.UserRepository, userID string, amount int) (*XPResult, error) {
	user, err := users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	xp := user.XP + amount
	if xp < 0 {
		xp = 0
	}
	level := LevelForXP(xp)
	if err := users.UpdateFields(ctx, userID, map[string]interface{}{"xp": xp, "level": level}); err != nil {
		return nil, err
	}
	return &XPResult{XP: xp, Level: level, LeveledUp: level > user.Level}, nil
}

// dayNumber 按 now 所在时区的日历日编号，避免夏令时影响天数差
func dayNumber(t time.Time, loc *time.Location) int64 {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}

// NextStreak 根据上次活跃日期计算新的连续天数：同一天不变，次日加一，间隔两天及以上重置为 1。
// 上次活跃日期晚于 now（时钟偏差或导入的数据）按同一天处理
func NextStreak(current int, last *time.Time, now time.Time) (int, bool) {
	if last == nil || last.IsZero() {
		return 1, true
	}
	diff := dayNumber(now, now.Location()) - dayNumber(*last, now.Location())
	switch {
	case diff <= 0:
		if current <= 0 {
			return 1, true
		}
		return current, false
	case diff == 1:
		return current + 1, true
	default:
		return 1, true
	}
}

func (s *GamificationService) UpdateUserStreak(ctx context.Context, userID string, now time.Time) (*StreakResult, error) {
	var result StreakResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := s.updateStreak(ctx, s.UserRepo.WithTx(tx), userID, now)
		if err != nil {
			return err
		}
		result = *r
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update streak: %w", err)
	}
	return &result, nil
}

func (s *GamificationService) updateStreak(ctx context.Context, users *repository.UserRepository, userID string, now time.Time) (*StreakResult, error) {
	user, err := users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	streak, changed := NextStreak(user.CurrentStreak, user.LastActivityDate, now)
	longest := user.LongestStreak
	if streak > longest {
		longest = streak
	}

	if err := users.UpdateFields(ctx, userID, map[string]interface{}{
		"current_streak":     streak,
		"longest_streak":     longest,
		"last_activity_date": now,
	}); err != nil {
		return nil, err
	}
	return &StreakResult{CurrentStreak: streak, LongestStreak: longest, Changed: changed}, nil
}

// earnedBadges 返回用户当前满足条件的全部徽章
func earnedBadges(u *model.User) []string {
	var ids []string
	add := func(ok bool, id string) {
		if ok {
			ids = append(ids, id)
		}
	}
	add(u.LessonsCompleted >= 1, model.BadgeFirstLesson)
	add(u.LessonsCompleted >= 5, model.BadgeFiveLessons)
	add(u.LessonsCompleted >= 25, model.BadgeTwentyFive)
	add(u.CurrentStreak >= 3, model.BadgeStreak3)
	add(u.CurrentStreak >= 7, model.BadgeStreak7)
	add(u.CurrentStreak >= 30, model.BadgeStreak30)
	add(u.Level >= 5, model.BadgeLevel5)
	add(u.Level >= 10, model.BadgeLevel10)
	add(u.XP >= 1000, model.BadgeXP1000)
	return ids
}

// CheckAndAwardBadges 只追加尚未拥有的徽章，重复调用不会产生重复项
func (s *GamificationService) CheckAndAwardBadges(ctx context.Context, userID string) ([]model.Badge, error) {
	var awarded []model.Badge
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := s.checkBadges(ctx, s.UserRepo.WithTx(tx), userID)
		if err != nil {
			return err
		}
		awarded = b
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("check badges: %w", err)
	}
	return awarded, nil
}

func (s *GamificationService) checkBadges(ctx context.Context, users *repository.UserRepository, userID string) ([]model.Badge, error) {
	user, err := users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	held := make(map[string]bool, len(user.Badges))
	badges := make([]string, 0, len(user.Badges))
	for _, id := range user.Badges {
		if held[id] {
			continue
		}
		held[id] = true
		badges = append(badges, id)
	}

	var awarded []model.Badge
	bonus := 0
	for _, id := range earnedBadges(user) {
		if held[id] {
			continue
		}
		held[id] = true
		badges = append(badges, id)
		if b, ok := model.FindBadge(id); ok {
			awarded = append(awarded, b)
			bonus += b.XPBonus
		}
	}

	if len(awarded) == 0 && len(badges) == len(user.Badges) {
		return nil, nil
	}

	xp := user.XP + bonus
	if err := users.UpdateFields(ctx, userID, map[string]interface{}{
		"badges": datatypes.JSONSlice[string](badges),
		"xp":     xp,
		"level":  LevelForXP(xp),
	}); err != nil {
		return nil, err
	}

	for _, b := range awarded {
		logger.Log.Info("Badge awarded", zap.String("userId", userID), zap.String("badge", b.ID))
	}
	return awarded, nil
}

func (s *GamificationService) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	users, err := s.UserRepo.FindTopByXP(ctx, limit)
	if err != nil {
		return nil, err
	}

	board := make([]LeaderboardEntry, len(users))
	for i, u := range users {
		board[i] = LeaderboardEntry{
			Rank:        i + 1,
			UserID:      u.ID,
			DisplayName: u.DisplayName,
			PhotoURL:    u.PhotoURL,
			XP:          u.XP,
			Level:       u.Level,
		}
	}
	return board, nil
}

func (s *GamificationService) Badges() []model.Badge {
	return model.BadgeCatalog
}
