package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"sqlquest/logger"
	"sqlquest/models"

	"gorm.io/gorm"
)

const maxDisplayNameLength = 40

type ProfileService struct {
	DB          *gorm.DB
	Log         *logger.Logger
	DefaultIcon string
}

func NewProfileService(db *gorm.DB, log *logger.Logger, defaultIcon string) *ProfileService {
	return &ProfileService{DB: db, Log: log, DefaultIcon: defaultIcon}
}

func (s *ProfileService) withDefaults(p *models.Profile) *models.Profile {
	if p.AvatarIcon == "" {
		p.AvatarIcon = s.DefaultIcon
	}
	return p
}

// GetProfile never creates a row; absent profiles read as zero balances.
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	p := &models.Profile{UserID: userID}
	if userID == "" {
		return s.withDefaults(p), nil
	}
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(p).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return s.withDefaults(p), nil
}

func (s *ProfileService) EnsureProfile(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrNotAuthenticated
	}
	return ensureProfile(s.DB.WithContext(ctx), userID)
}

func (s *ProfileService) update(ctx context.Context, userID string, fields map[string]interface{}) (*models.Profile, error) {
	var p models.Profile
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureProfile(tx, userID); err != nil {
			return err
		}
		if err := tx.Model(&models.Profile{}).Where("user_id = ?", userID).Updates(fields).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", userID).First(&p).Error
	})
	if err != nil {
		return nil, err
	}
	return s.withDefaults(&p), nil
}

func (s *ProfileService) UpdateDisplayName(ctx context.Context, userID, name string) (*models.Profile, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	name, err := NormalizeDisplayName(name)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, userID, map[string]interface{}{"display_name": name})
}

// NormalizeDisplayName collapses whitespace and enforces the length bounds.
func NormalizeDisplayName(name string) (string, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" || utf8.RuneCountInString(name) > maxDisplayNameLength {
		return "", fmt.Errorf("display name must be 1-%d characters: %w", maxDisplayNameLength, ErrInvalidInput)
	}
	return name, nil
}

func (s *ProfileService) MarkTutorialCompleted(ctx context.Context, userID string) (*models.Profile, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	return s.update(ctx, userID, map[string]interface{}{"tutorial_completed": true})
}
