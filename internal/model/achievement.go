package model

// Badge 徽章定义，用户只保存徽章 ID
type Badge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	XPBonus     int    `json:"xpBonus"`
}

const (
	BadgeFirstLesson = "first_lesson"
	BadgeFiveLessons = "five_lessons"
	BadgeTwentyFive  = "twenty_five_lessons"
	BadgeStreak3     = "streak_3"
	BadgeStreak7     = "streak_7"
	BadgeStreak30    = "streak_30"
	BadgeLevel5      = "level_5"
	BadgeLevel10     = "level_10"
	BadgeXP1000      = "xp_1000"
)

var BadgeCatalog = []Badge{
	{ID: BadgeFirstLesson, Name: "First Steps", Description: "Complete your first lesson", Icon: "🎯", XPBonus: 10},
	{ID: BadgeFiveLessons, Name: "Getting Serious", Description: "Complete 5 lessons", Icon: "📚", XPBonus: 25},
	{ID: BadgeTwentyFive, Name: "Scholar", Description: "Complete 25 lessons", Icon: "🎓", XPBonus: 100},
	{ID: BadgeStreak3, Name: "On a Roll", Description: "Learn 3 days in a row", Icon: "🔥", XPBonus: 15},
	{ID: BadgeStreak7, Name: "Week Warrior", Description: "Learn 7 days in a row", Icon: "⚡", XPBonus: 50},
	{ID: BadgeStreak30, Name: "Unstoppable", Description: "Learn 30 days in a row", Icon: "🏆", XPBonus: 200},
	{ID: BadgeLevel5, Name: "Rising Star", Description: "Reach level 5", Icon: "⭐", XPBonus: 0},
	{ID: BadgeLevel10, Name: "AI Expert", Description: "Reach level 10", Icon: "🤖", XPBonus: 0},
	{ID: BadgeXP1000, Name: "XP Hunter", Description: "Earn 1000 XP", Icon: "💎", XPBonus: 0},
}

func FindBadge(id string) (Badge, bool) {
	for _, b := range BadgeCatalog {
		if b.ID == id {
			return b, true
		}
	}
	return Badge{}, false
}
