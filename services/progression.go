package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"sqlquest/logger"
	"sqlquest/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CompletionResult is returned by every command that may complete an item.
type CompletionResult struct {
	Success         bool                  `json:"success"`
	FirstCompletion bool                  `json:"first_completion"`
	Attempts        int                   `json:"attempts"`
	Hint            string                `json:"hint,omitempty"`
	PointsAwarded   int64                 `json:"points_awarded"`
	CoinsAwarded    int64                 `json:"coins_awarded"`
	Record          models.ProgressRecord `json:"progress"`
}

// ContentStatus is a catalog item annotated for one user.
type ContentStatus struct {
	models.ContentItem
	Unlocked           bool `json:"unlocked"`
	Completed          bool `json:"completed"`
	ProgressPercentage int  `json:"progress_percentage"`
	Attempts           int  `json:"attempts"`
	HasHint            bool `json:"has_hint"`
}

type ProgressionService struct {
	DB                *gorm.DB
	Log               *logger.Logger
	Policy            UnlockPolicy
	Validator         Validator
	Achievements      *AchievementService
	HintAfterAttempts int
}

func NewProgressionService(db *gorm.DB, log *logger.Logger, policy UnlockPolicy, validator Validator, achievements *AchievementService, hintAfter int) *ProgressionService {
	if hintAfter < 1 {
		hintAfter = 2
	}
	return &ProgressionService{
		DB:                db,
		Log:               log,
		Policy:            policy,
		Validator:         validator,
		Achievements:      achievements,
		HintAfterAttempts: hintAfter,
	}
}

func recordKey(tx *gorm.DB, userID string, t models.ContentType, id int) *gorm.DB {
	return tx.Model(&models.ProgressRecord{}).
		Where("user_id = ? AND content_type = ? AND content_id = ?", userID, t, id)
}

// ensureRecord creates the ledger row if absent (idempotent).
func ensureRecord(tx *gorm.DB, userID string, t models.ContentType, id int) error {
	rec := models.ProgressRecord{
		ID:          uuid.NewString(),
		UserID:      userID,
		ContentType: t,
		ContentID:   id,
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rec).Error
}

func loadRecord(tx *gorm.DB, userID string, t models.ContentType, id int) (*models.ProgressRecord, error) {
	var rec models.ProgressRecord
	err := tx.Where("user_id = ? AND content_type = ? AND content_id = ?", userID, t, id).First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *ProgressionService) getItem(ctx context.Context, t models.ContentType, id int) (*models.ContentItem, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("content type %q: %w", t, ErrInvalidInput)
	}
	var item models.ContentItem
	err := s.DB.WithContext(ctx).Where("type = ? AND id = ?", t, id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s %d: %w", t, id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetProgress returns every ledger row of the user. Anonymous callers get an empty list.
func (s *ProgressionService) GetProgress(ctx context.Context, userID string) ([]models.ProgressRecord, error) {
	records := []models.ProgressRecord{}
	if userID == "" {
		return records, nil
	}
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("content_type, content_id").
		Find(&records).Error
	return records, err
}

func (s *ProgressionService) Snapshot(ctx context.Context, userID string) (ProgressSnapshot, error) {
	records, err := s.GetProgress(ctx, userID)
	if err != nil {
		return ProgressSnapshot{}, err
	}
	return NewProgressSnapshot(records), nil
}

// ensureUnlocked reads the snapshot outside the write transaction. Unlocks never
// revert, so a stale read can only reject, never wrongly admit.
func (s *ProgressionService) ensureUnlocked(ctx context.Context, userID string, item *models.ContentItem) error {
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return err
	}
	if !s.Policy.IsUnlocked(*item, snap) {
		return fmt.Errorf("%s %d: %w", item.Type, item.ID, ErrLocked)
	}
	return nil
}

// ListContent returns all items of a type with the user's unlock and progress state.
func (s *ProgressionService) ListContent(ctx context.Context, userID string, t models.ContentType) ([]ContentStatus, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("content type %q: %w", t, ErrInvalidInput)
	}
	var items []models.ContentItem
	if err := s.DB.WithContext(ctx).Where("type = ?", t).Order("id").Find(&items).Error; err != nil {
		return nil, err
	}
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]ContentStatus, 0, len(items))
	for _, item := range items {
		st := ContentStatus{
			ContentItem: item,
			Unlocked:    s.Policy.IsUnlocked(item, snap),
			HasHint:     item.Hint != "",
		}
		if rec, ok := snap.Get(item.Type, item.ID); ok {
			st.Completed = rec.Completed
			st.ProgressPercentage = rec.ProgressPercentage
			st.Attempts = rec.Attempts
		}
		out = append(out, st)
	}
	return out, nil
}

// RecordAttempt bumps the attempt counter, creating the record on first touch.
func (s *ProgressionService) RecordAttempt(ctx context.Context, userID string, t models.ContentType, id int) (*models.ProgressRecord, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	if _, err := s.getItem(ctx, t, id); err != nil {
		return nil, err
	}

	var rec *models.ProgressRecord
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureRecord(tx, userID, t, id); err != nil {
			return err
		}
		if err := recordKey(tx, userID, t, id).Update("attempts", gorm.Expr("attempts + 1")).Error; err != nil {
			return err
		}
		var err error
		rec, err = loadRecord(tx, userID, t, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("record attempt: %w", err)
	}
	return rec, nil
}

// completeOnce performs the not-completed -> completed transition for one item
// and, only if this call made it, issues the item's reward and bumps the
// matching counter achievements. Must run inside tx.
func (s *ProgressionService) completeOnce(tx *gorm.DB, userID string, item *models.ContentItem, result *CompletionResult) error {
	now := time.Now().UTC()
	res := recordKey(tx, userID, item.Type, item.ID).
		Where("completed = ?", false).
		Updates(map[string]interface{}{
			"completed":           true,
			"completed_at":        now,
			"progress_percentage": 100,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return nil
	}
	result.FirstCompletion = true

	issued, err := issueReward(tx, userID, models.RewardSource(item.Type), strconv.Itoa(item.ID), item.RewardPoints, item.RewardCoins)
	if err != nil {
		return err
	}
	if issued != nil {
		result.PointsAwarded = issued.Points
		result.CoinsAwarded = issued.Coins
	}
	return s.Achievements.BumpCounterAchievements(tx, userID, item.Type)
}

func (s *ProgressionService) logCompletion(userID string, item *models.ContentItem, result *CompletionResult) {
	if !result.FirstCompletion {
		return
	}
	s.Log.Info("content completed",
		"user_id", userID,
		"type", item.Type,
		"content_id", item.ID,
		"points", result.PointsAwarded,
		"coins", result.CoinsAwarded,
	)
}

// RecordProgress raises a lesson's watched percentage. Reaching 100 completes
// the lesson and issues its reward exactly once.
func (s *ProgressionService) RecordProgress(ctx context.Context, userID string, lessonID int, percentage int) (*CompletionResult, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	if percentage < 0 || percentage > 100 {
		return nil, fmt.Errorf("percentage %d: %w", percentage, ErrInvalidInput)
	}
	item, err := s.getItem(ctx, models.ContentLesson, lessonID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUnlocked(ctx, userID, item); err != nil {
		return nil, err
	}

	result := &CompletionResult{Success: true}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureRecord(tx, userID, item.Type, item.ID); err != nil {
			return err
		}
		// never lower a stored percentage
		err := recordKey(tx, userID, item.Type, item.ID).
			Where("progress_percentage < ?", percentage).
			Update("progress_percentage", percentage).Error
		if err != nil {
			return err
		}
		if percentage == 100 {
			if err := s.completeOnce(tx, userID, item, result); err != nil {
				return err
			}
		}
		rec, err := loadRecord(tx, userID, item.Type, item.ID)
		if err != nil {
			return err
		}
		result.Record = *rec
		result.Attempts = rec.Attempts
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("record lesson progress: %w", err)
	}
	s.logCompletion(userID, item, result)
	return result, nil
}

// CompleteWithValidation grades a submission for an exercise or challenge.
// The attempt is always counted. A failed grade is reported in the result,
// not as an error.
func (s *ProgressionService) CompleteWithValidation(ctx context.Context, userID string, t models.ContentType, id int, answer string) (*CompletionResult, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	if !t.Gradable() {
		return nil, fmt.Errorf("content type %q is not gradable: %w", t, ErrInvalidInput)
	}
	item, err := s.getItem(ctx, t, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUnlocked(ctx, userID, item); err != nil {
		return nil, err
	}

	rec, err := s.RecordAttempt(ctx, userID, t, id)
	if err != nil {
		return nil, err
	}
	result := &CompletionResult{Attempts: rec.Attempts, Record: *rec}

	if !s.Validator.Validate(answer, item.ValidationRule) {
		if rec.Attempts >= s.HintAfterAttempts && item.Hint != "" {
			result.Hint = item.Hint
		}
		return result, nil
	}

	result.Success = true
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.completeOnce(tx, userID, item, result); err != nil {
			return err
		}
		rec, err := loadRecord(tx, userID, t, id)
		if err != nil {
			return err
		}
		result.Record = *rec
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("complete %s %d: %w", t, id, err)
	}
	s.logCompletion(userID, item, result)
	return result, nil
}

// MarkMaterialRead completes a material. Materials are never gated.
func (s *ProgressionService) MarkMaterialRead(ctx context.Context, userID string, materialID int) (*CompletionResult, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	item, err := s.getItem(ctx, models.ContentMaterial, materialID)
	if err != nil {
		return nil, err
	}

	result := &CompletionResult{Success: true}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureRecord(tx, userID, item.Type, item.ID); err != nil {
			return err
		}
		if err := s.completeOnce(tx, userID, item, result); err != nil {
			return err
		}
		rec, err := loadRecord(tx, userID, item.Type, item.ID)
		if err != nil {
			return err
		}
		result.Record = *rec
		result.Attempts = rec.Attempts
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("mark material read: %w", err)
	}
	s.logCompletion(userID, item, result)
	return result, nil
}
