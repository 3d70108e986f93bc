package models

import "time"

// RewardSource indicates what earned the reward
type RewardSource string

const (
	RewardSourceLesson      RewardSource = "aula"
	RewardSourceExercise    RewardSource = "exercicio"
	RewardSourceChallenge   RewardSource = "desafio"
	RewardSourceMaterial    RewardSource = "material"
	RewardSourceAchievement RewardSource = "achievement"
)

// RewardGrant is one credit to a profile. The unique (user, source, ref) key
// is what makes issuance exactly-once per completion or claim.
type RewardGrant struct {
	ID        string       `gorm:"primaryKey;size:36" json:"id"`
	UserID    string       `gorm:"not null;uniqueIndex:idx_reward_once,priority:1;index:idx_reward_feed,priority:1" json:"user_id"`
	Source    RewardSource `gorm:"type:varchar(16);not null;uniqueIndex:idx_reward_once,priority:2" json:"source"`
	SourceRef string       `gorm:"not null;uniqueIndex:idx_reward_once,priority:3" json:"source_ref"`
	Points    int64        `gorm:"not null;default:0" json:"points"`
	Coins     int64        `gorm:"not null;default:0" json:"coins"`
	CreatedAt time.Time    `gorm:"autoCreateTime;index:idx_reward_feed,priority:2" json:"created_at"`
}
