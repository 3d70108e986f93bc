package models

import "time"

// AchievementType selects what drives an achievement's progress.
type AchievementType string

const (
	AchievementLessons    AchievementType = "aula"
	AchievementExercises  AchievementType = "exercicio"
	AchievementChallenges AchievementType = "desafio"
	AchievementMaterials  AchievementType = "material"
	AchievementCoins      AchievementType = "coins"
	AchievementPoints     AchievementType = "points"
)

// Achievement: static config (loaded from the catalog file)
type Achievement struct {
	ID           string          `gorm:"primaryKey;size:64" json:"id" yaml:"id"`
	Type         AchievementType `gorm:"type:varchar(16);not null;index" json:"achievement_type" yaml:"type"`
	Title        string          `gorm:"not null" json:"title" yaml:"title"`
	Description  string          `json:"description" yaml:"description"`
	Icon         string          `json:"icon" yaml:"icon"`
	Target       int64           `gorm:"not null" json:"target" yaml:"target"`
	RewardPoints int64           `gorm:"not null;default:0" json:"reward_points" yaml:"points"`
	RewardCoins  int64           `gorm:"not null;default:0" json:"reward_coins" yaml:"coins"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at" yaml:"-"`
}

// UserAchievement: per-user progress and claim state.
type UserAchievement struct {
	ID              string     `gorm:"primaryKey;size:36" json:"id"`
	UserID          string     `gorm:"not null;uniqueIndex:idx_user_achievement,priority:1" json:"user_id"`
	AchievementID   string     `gorm:"not null;uniqueIndex:idx_user_achievement,priority:2" json:"achievement_id"`
	CurrentProgress int64      `gorm:"not null;default:0" json:"current_progress"`
	Claimed         bool       `gorm:"not null;default:false" json:"claimed"`
	ClaimedAt       *time.Time `json:"claimed_at,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (t AchievementType) Valid() bool {
	switch t {
	case AchievementLessons, AchievementExercises, AchievementChallenges, AchievementMaterials,
		AchievementCoins, AchievementPoints:
		return true
	}
	return false
}

// ProgressStrategy is how an achievement's current progress is derived.
// It is one of CounterProgress or BalanceProgress.
type ProgressStrategy interface {
	isProgressStrategy()
}

// CounterProgress counts first-time completions of one content type.
type CounterProgress struct {
	Trigger ContentType
}

// BalanceProgress reads a live profile balance.
type BalanceProgress struct {
	Column string // "coins" or "points"
}

func (CounterProgress) isProgressStrategy() {}
func (BalanceProgress) isProgressStrategy() {}

// Strategy returns nil for an unknown type.
func (a Achievement) Strategy() ProgressStrategy {
	switch a.Type {
	case AchievementLessons, AchievementExercises, AchievementChallenges, AchievementMaterials:
		return CounterProgress{Trigger: ContentType(a.Type)}
	case AchievementCoins:
		return BalanceProgress{Column: "coins"}
	case AchievementPoints:
		return BalanceProgress{Column: "points"}
	}
	return nil
}

// Balance picks the strategy's column value from a profile.
func (b BalanceProgress) Balance(p Profile) int64 {
	if b.Column == "points" {
		return p.Points
	}
	return p.Coins
}
