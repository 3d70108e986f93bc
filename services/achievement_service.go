package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sqlquest/logger"
	"sqlquest/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AchievementView is one achievement as seen by a user.
type AchievementView struct {
	models.Achievement
	CurrentProgress int64      `json:"current_progress"`
	Claimed         bool       `json:"claimed"`
	ClaimedAt       *time.Time `json:"claimed_at,omitempty"`
	Claimable       bool       `json:"claimable"`
}

type ClaimResult struct {
	AchievementID string `json:"achievement_id"`
	PointsAwarded int64  `json:"points_awarded"`
	CoinsAwarded  int64  `json:"coins_awarded"`
}

type AchievementService struct {
	DB  *gorm.DB
	Log *logger.Logger
}

func NewAchievementService(db *gorm.DB, log *logger.Logger) *AchievementService {
	return &AchievementService{DB: db, Log: log}
}

// BumpCounterAchievements adds one to every unclaimed counter achievement
// driven by trigger. Called inside the completion transaction, once per
// first-time completion.
func (s *AchievementService) BumpCounterAchievements(tx *gorm.DB, userID string, trigger models.ContentType) error {
	var achievements []models.Achievement
	if err := tx.Where("type = ?", models.AchievementType(trigger)).Find(&achievements).Error; err != nil {
		return err
	}
	for _, a := range achievements {
		if _, ok := a.Strategy().(models.CounterProgress); !ok {
			continue
		}
		ua := models.UserAchievement{
			ID:              uuid.NewString(),
			UserID:          userID,
			AchievementID:   a.ID,
			CurrentProgress: 1,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "achievement_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"current_progress": gorm.Expr("user_achievements.current_progress + 1"),
			}),
			Where: clause.Where{Exprs: []clause.Expression{
				gorm.Expr("user_achievements.claimed = ?", false),
			}},
		}).Create(&ua).Error
		if err != nil {
			return fmt.Errorf("bump achievement %s: %w", a.ID, err)
		}
	}
	return nil
}

// GetAchievements lists every achievement with the user's progress.
// Balance achievements report the live balance.
func (s *AchievementService) GetAchievements(ctx context.Context, userID string) ([]AchievementView, error) {
	db := s.DB.WithContext(ctx)

	var achievements []models.Achievement
	if err := db.Order("type, target, id").Find(&achievements).Error; err != nil {
		return nil, err
	}

	byID := map[string]models.UserAchievement{}
	var profile models.Profile
	if userID != "" {
		var rows []models.UserAchievement
		if err := db.Where("user_id = ?", userID).Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, r := range rows {
			byID[r.AchievementID] = r
		}
		err := db.Where("user_id = ?", userID).First(&profile).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	views := make([]AchievementView, 0, len(achievements))
	for _, a := range achievements {
		ua := byID[a.ID]
		v := AchievementView{
			Achievement: a,
			Claimed:     ua.Claimed,
			ClaimedAt:   ua.ClaimedAt,
		}
		switch st := a.Strategy().(type) {
		case models.CounterProgress:
			v.CurrentProgress = ua.CurrentProgress
		case models.BalanceProgress:
			v.CurrentProgress = st.Balance(profile)
		}
		v.Claimable = userID != "" && !v.Claimed && v.CurrentProgress >= a.Target
		views = append(views, v)
	}
	return views, nil
}

// Claim marks an achievement claimed and credits its reward in one transaction.
// Counter eligibility is part of the claiming UPDATE, so two concurrent
// claims cannot both succeed. Balance eligibility is read under a row lock
// on the profile.
func (s *AchievementService) Claim(ctx context.Context, userID, achievementID string) (*ClaimResult, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}

	var a models.Achievement
	err := s.DB.WithContext(ctx).Where("id = ?", achievementID).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("achievement %s: %w", achievementID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	strategy := a.Strategy()
	if strategy == nil {
		return nil, fmt.Errorf("achievement %s has type %q: %w", a.ID, a.Type, ErrInvalidInput)
	}

	result := &ClaimResult{AchievementID: a.ID}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		placeholder := models.UserAchievement{ID: uuid.NewString(), UserID: userID, AchievementID: a.ID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&placeholder).Error; err != nil {
			return err
		}
		if err := ensureProfile(tx, userID); err != nil {
			return err
		}

		q := tx.Model(&models.UserAchievement{}).
			Where("user_id = ? AND achievement_id = ? AND claimed = ?", userID, a.ID, false)
		eligible := true
		switch st := strategy.(type) {
		case models.CounterProgress:
			q = q.Where("current_progress >= ?", a.Target)
		case models.BalanceProgress:
			// Hold the profile row until commit so a debit cannot slip
			// below the target between this check and the claim.
			var profile models.Profile
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("user_id = ?", userID).
				First(&profile).Error
			if err != nil {
				return err
			}
			eligible = st.Balance(profile) >= a.Target
		}
		var claimed int64
		if eligible {
			res := q.Updates(map[string]interface{}{"claimed": true, "claimed_at": time.Now().UTC()})
			if res.Error != nil {
				return res.Error
			}
			claimed = res.RowsAffected
		}
		if claimed == 0 {
			var ua models.UserAchievement
			if err := tx.Where("user_id = ? AND achievement_id = ?", userID, a.ID).First(&ua).Error; err != nil {
				return err
			}
			if ua.Claimed {
				return ErrAlreadyClaimed
			}
			return ErrNotEligible
		}

		issued, err := issueReward(tx, userID, models.RewardSourceAchievement, a.ID, a.RewardPoints, a.RewardCoins)
		if err != nil {
			return err
		}
		if issued != nil {
			result.PointsAwarded = issued.Points
			result.CoinsAwarded = issued.Coins
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("claim %s: %w", a.ID, err)
	}

	s.Log.Info("achievement claimed",
		"user_id", userID,
		"achievement_id", a.ID,
		"points", result.PointsAwarded,
		"coins", result.CoinsAwarded,
	)
	return result, nil
}

type completionCount struct {
	UserID      string
	ContentType models.ContentType
	Total       int64
}

// ReconcileCounters raises unclaimed counter progress to the number of
// completed ledger rows. It never lowers a counter. Returns rows changed.
func (s *AchievementService) ReconcileCounters(ctx context.Context) (int64, error) {
	db := s.DB.WithContext(ctx)

	var achievements []models.Achievement
	if err := db.Find(&achievements).Error; err != nil {
		return 0, err
	}
	byTrigger := map[models.ContentType][]models.Achievement{}
	for _, a := range achievements {
		if st, ok := a.Strategy().(models.CounterProgress); ok {
			byTrigger[st.Trigger] = append(byTrigger[st.Trigger], a)
		}
	}
	if len(byTrigger) == 0 {
		return 0, nil
	}

	var counts []completionCount
	err := db.Model(&models.ProgressRecord{}).
		Select("user_id, content_type, COUNT(*) AS total").
		Where("completed = ?", true).
		Group("user_id, content_type").
		Scan(&counts).Error
	if err != nil {
		return 0, err
	}

	var changed int64
	for _, c := range counts {
		for _, a := range byTrigger[c.ContentType] {
			err := db.Transaction(func(tx *gorm.DB) error {
				ua := models.UserAchievement{ID: uuid.NewString(), UserID: c.UserID, AchievementID: a.ID}
				if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&ua).Error; err != nil {
					return err
				}
				res := tx.Model(&models.UserAchievement{}).
					Where("user_id = ? AND achievement_id = ? AND claimed = ? AND current_progress < ?", c.UserID, a.ID, false, c.Total).
					Update("current_progress", c.Total)
				changed += res.RowsAffected
				return res.Error
			})
			if err != nil {
				return changed, fmt.Errorf("reconcile %s for %s: %w", a.ID, c.UserID, err)
			}
		}
	}
	return changed, nil
}
