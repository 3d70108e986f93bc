package models

import "time"

// Profile is the per-user balance aggregate. Points and coins are only ever
// changed with relative SQL expressions, never written back from a read.
type Profile struct {
	UserID            string    `gorm:"primaryKey;size:64" json:"id"`
	DisplayName       string    `json:"display_name"`
	AvatarIcon        string    `json:"avatar_icon"`
	Points            int64     `gorm:"not null;default:0;index" json:"points"`
	Coins             int64     `gorm:"not null;default:0" json:"coins"`
	TutorialCompleted bool      `gorm:"not null;default:false" json:"tutorial_completed"`
	CreatedAt         time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
