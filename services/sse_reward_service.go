package services

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sqlquest/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// StreamUserRewardsSSE pushes newly issued reward grants to the client so it
// can show a toast right after a completion or claim.
func (s *RewardService) StreamUserRewardsSSE(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"status": OutcomeNotAuthenticated})
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	ctx := c.Context()
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()

		cursor, err := s.latestRewardCursor(ctx, userID)
		if err != nil {
			s.Log.Warn("reward stream init failed", "user_id", userID, "error", err)
		}

		w.WriteString(":\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		for {
			select {
			case <-ticker.C:
				grants, next, err := s.rewardsAfter(ctx, userID, cursor)
				if err != nil {
					s.Log.Warn("reward stream query failed", "user_id", userID, "error", err)
					continue
				}
				if len(grants) == 0 {
					w.WriteString(":\n\n")
				}
				for _, g := range grants {
					payload, _ := json.Marshal(g)
					fmt.Fprintf(w, "event: reward\ndata: %s\n\n", payload)
				}
				cursor = next
				if err := w.Flush(); err != nil {
					// client went away
					return
				}
			case <-ctx.Done():
				return
			}
		}
	})
	return nil
}

// rewardCursor is a keyset position in a user's grant feed. Grants sharing a
// created_at are ordered by id.
type rewardCursor struct {
	CreatedAt time.Time
	ID        string
}

func (s *RewardService) latestRewardCursor(ctx context.Context, userID string) (rewardCursor, error) {
	var latest models.RewardGrant
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		First(&latest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return rewardCursor{}, nil
	}
	if err != nil {
		return rewardCursor{}, err
	}
	return rewardCursor{CreatedAt: latest.CreatedAt, ID: latest.ID}, nil
}

// rewardsAfter returns the grants past cursor, oldest first, and the cursor
// to resume from.
func (s *RewardService) rewardsAfter(ctx context.Context, userID string, cursor rewardCursor) ([]models.RewardGrant, rewardCursor, error) {
	var grants []models.RewardGrant
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("(created_at > ? OR (created_at = ? AND id > ?))", cursor.CreatedAt, cursor.CreatedAt, cursor.ID).
		Order("created_at ASC, id ASC").
		Limit(100).
		Find(&grants).Error
	if err != nil {
		return nil, cursor, err
	}
	if n := len(grants); n > 0 {
		cursor = rewardCursor{CreatedAt: grants[n-1].CreatedAt, ID: grants[n-1].ID}
	}
	return grants, cursor, nil
}
