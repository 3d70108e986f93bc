package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"sqlquest/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxNoteLength = 5000

// NoteUpdate carries the fields of a note edit; nil leaves a field as is.
type NoteUpdate struct {
	Content          *string `json:"content"`
	TimestampSeconds *int    `json:"timestamp_seconds"`
}

func normalizeNote(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" || utf8.RuneCountInString(content) > maxNoteLength {
		return "", fmt.Errorf("note must be 1-%d characters: %w", maxNoteLength, ErrInvalidInput)
	}
	return content, nil
}

func checkTimestamp(seconds int) error {
	if seconds < 0 {
		return fmt.Errorf("timestamp %d: %w", seconds, ErrInvalidInput)
	}
	return nil
}

// ListNotes returns the caller's notes on a lesson in video order.
func (s *ProgressionService) ListNotes(ctx context.Context, userID string, lessonID int) ([]models.LessonNote, error) {
	notes := []models.LessonNote{}
	if userID == "" {
		return notes, nil
	}
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		Order("timestamp_seconds ASC, created_at ASC").
		Find(&notes).Error
	return notes, err
}

// CreateNote pins a note to the given second of an unlocked lesson.
func (s *ProgressionService) CreateNote(ctx context.Context, userID string, lessonID int, content string, timestampSeconds int) (*models.LessonNote, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	content, err := normalizeNote(content)
	if err != nil {
		return nil, err
	}
	if err := checkTimestamp(timestampSeconds); err != nil {
		return nil, err
	}
	item, err := s.getItem(ctx, models.ContentLesson, lessonID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUnlocked(ctx, userID, item); err != nil {
		return nil, err
	}

	note := models.LessonNote{
		ID:               uuid.NewString(),
		UserID:           userID,
		LessonID:         lessonID,
		Content:          content,
		TimestampSeconds: timestampSeconds,
	}
	if err := s.DB.WithContext(ctx).Create(&note).Error; err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}
	return &note, nil
}

// UpdateNote edits a note owned by userID. Someone else's note reads as not found.
func (s *ProgressionService) UpdateNote(ctx context.Context, userID, noteID string, upd NoteUpdate) (*models.LessonNote, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	fields := map[string]interface{}{}
	if upd.Content != nil {
		content, err := normalizeNote(*upd.Content)
		if err != nil {
			return nil, err
		}
		fields["content"] = content
	}
	if upd.TimestampSeconds != nil {
		if err := checkTimestamp(*upd.TimestampSeconds); err != nil {
			return nil, err
		}
		fields["timestamp_seconds"] = *upd.TimestampSeconds
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("nothing to update: %w", ErrInvalidInput)
	}

	var note models.LessonNote
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.LessonNote{}).
			Where("id = ? AND user_id = ?", noteID, userID).
			Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("note %s: %w", noteID, ErrNotFound)
		}
		return tx.Where("id = ? AND user_id = ?", noteID, userID).First(&note).Error
	})
	if err != nil {
		return nil, err
	}
	return &note, nil
}

func (s *ProgressionService) DeleteNote(ctx context.Context, userID, noteID string) error {
	if userID == "" {
		return ErrNotAuthenticated
	}
	res := s.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", noteID, userID).
		Delete(&models.LessonNote{})
	if res.Error != nil {
		return fmt.Errorf("delete note: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("note %s: %w", noteID, ErrNotFound)
	}
	return nil
}
