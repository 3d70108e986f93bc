package models

import (
	"time"

	"gorm.io/datatypes"
)

// ContentType names the kind of curriculum item. Values match the stored column.
type ContentType string

const (
	ContentLesson    ContentType = "aula"
	ContentExercise  ContentType = "exercicio"
	ContentChallenge ContentType = "desafio"
	ContentMaterial  ContentType = "material"
)

func (t ContentType) Valid() bool {
	switch t {
	case ContentLesson, ContentExercise, ContentChallenge, ContentMaterial:
		return true
	}
	return false
}

// Gradable reports whether items of this type are completed by submitting an answer.
func (t ContentType) Gradable() bool {
	return t == ContentExercise || t == ContentChallenge
}

// ContentItem is catalog data: a lesson, exercise, challenge or material.
// Ids are ordinal within a type, so the primary key is (type, id).
type ContentItem struct {
	Type           ContentType `gorm:"primaryKey;type:varchar(16)" json:"type" yaml:"-"`
	ID             int         `gorm:"primaryKey;autoIncrement:false" json:"id" yaml:"id"`
	Title          string      `gorm:"not null" json:"title" yaml:"title"`
	Slug           string      `gorm:"index" json:"slug" yaml:"slug"`
	Description    string      `gorm:"type:text" json:"description" yaml:"description"`
	ParentLessonID *int        `gorm:"index" json:"parent_lesson_id,omitempty" yaml:"lesson_id"`
	RewardPoints   int64       `gorm:"not null;default:0" json:"reward_points" yaml:"points"`
	RewardCoins    int64       `gorm:"not null;default:0" json:"reward_coins" yaml:"coins"`

	// Keywords that must all appear in a passing submission.
	ValidationRule datatypes.JSONSlice[string] `json:"-" yaml:"required_keywords"`
	Hint           string                     `gorm:"type:text" json:"-" yaml:"hint"`

	VideoURL string `json:"video_url,omitempty" yaml:"video_url"`
	PDFURL   string `gorm:"column:pdf_url" json:"pdf_url,omitempty" yaml:"pdf_url"`
	Category string `json:"category,omitempty" yaml:"category"`

	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

func (ContentItem) TableName() string { return "content_items" }
