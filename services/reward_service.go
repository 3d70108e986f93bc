package services

import (
	"context"
	"fmt"

	"sqlquest/logger"
	"sqlquest/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RewardIssued describes one credit that actually landed on a profile.
type RewardIssued struct {
	Points int64 `json:"points"`
	Coins  int64 `json:"coins"`
}

type RewardService struct {
	DB  *gorm.DB
	Log *logger.Logger
}

func NewRewardService(db *gorm.DB, log *logger.Logger) *RewardService {
	return &RewardService{DB: db, Log: log}
}

// ensureProfile creates the balance row on first touch (idempotent).
func ensureProfile(tx *gorm.DB, userID string) error {
	return tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Profile{UserID: userID}).Error
}

// issueReward credits points and coins at most once per (user, source, ref).
// It must run inside the transaction that performed the guarded transition;
// the grant insert and the balance update commit or roll back together.
func issueReward(tx *gorm.DB, userID string, source models.RewardSource, ref string, points, coins int64) (*RewardIssued, error) {
	if points < 0 || coins < 0 {
		return nil, fmt.Errorf("reward for %s/%s: %w", source, ref, ErrInvalidInput)
	}

	grant := models.RewardGrant{
		ID:        uuid.NewString(),
		UserID:    userID,
		Source:    source,
		SourceRef: ref,
		Points:    points,
		Coins:     coins,
	}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&grant)
	if res.Error != nil {
		return nil, fmt.Errorf("record reward grant: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}

	if err := ensureProfile(tx, userID); err != nil {
		return nil, fmt.Errorf("ensure profile: %w", err)
	}
	if points != 0 || coins != 0 {
		err := tx.Model(&models.Profile{}).
			Where("user_id = ?", userID).
			Updates(map[string]interface{}{
				"points": gorm.Expr("points + ?", points),
				"coins":  gorm.Expr("coins + ?", coins),
			}).Error
		if err != nil {
			return nil, fmt.Errorf("credit profile: %w", err)
		}
	}
	return &RewardIssued{Points: points, Coins: coins}, nil
}

// ListRewardGrants returns the newest grants first.
func (s *RewardService) ListRewardGrants(ctx context.Context, userID string, limit int) ([]models.RewardGrant, error) {
	if userID == "" {
		return []models.RewardGrant{}, nil
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	var grants []models.RewardGrant
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&grants).Error
	return grants, err
}
