package models

import (
	"time"

	"gorm.io/gorm"
)

// ProgressRecord is the per-user ledger entry for one content item.
// Created lazily on first attempt or first progress update, never deleted.
type ProgressRecord struct {
	ID                 string      `gorm:"primaryKey;size:36" json:"id"`
	UserID             string      `gorm:"not null;uniqueIndex:idx_progress_key,priority:1" json:"user_id"`
	ContentType        ContentType `gorm:"type:varchar(16);not null;uniqueIndex:idx_progress_key,priority:2" json:"content_type"`
	ContentID          int         `gorm:"not null;uniqueIndex:idx_progress_key,priority:3" json:"content_id"`
	Completed          bool        `gorm:"not null;default:false" json:"completed"`
	ProgressPercentage int         `gorm:"not null;default:0" json:"progress_percentage"`
	Attempts           int         `gorm:"not null;default:0" json:"attempts"`
	CompletedAt        *time.Time  `json:"completed_at,omitempty"`

	Timestamps
}

func (ProgressRecord) TableName() string { return "user_progress" }

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// SavedMaterial is a user's favorite flag on a material. Not gated by unlocks.
type SavedMaterial struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	UserID     string    `gorm:"not null;uniqueIndex:idx_saved_material,priority:1" json:"user_id"`
	MaterialID int       `gorm:"not null;uniqueIndex:idx_saved_material,priority:2" json:"material_id"`
	SavedAt    time.Time `gorm:"autoCreateTime" json:"saved_at"`
}

// AllModels lists every table the engine owns, in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&ContentItem{},
		&Achievement{},
		&StoreItem{},
		&Profile{},
		&ProgressRecord{},
		&UserAchievement{},
		&Purchase{},
		&RewardGrant{},
		&SavedMaterial{},
		&LessonNote{},
	}
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(AllModels()...)
}
