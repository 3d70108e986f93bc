package models

// LessonNote is a private note a user pins to a moment of a lesson video.
type LessonNote struct {
	ID               string `gorm:"primaryKey;size:36" json:"id"`
	UserID           string `gorm:"not null;index:idx_lesson_notes,priority:1" json:"user_id"`
	LessonID         int    `gorm:"not null;index:idx_lesson_notes,priority:2" json:"lesson_id"`
	Content          string `gorm:"type:text;not null" json:"content"`
	TimestampSeconds int    `gorm:"not null;default:0" json:"timestamp_seconds"`

	Timestamps
}
