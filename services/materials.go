package services

import (
	"context"
	"fmt"

	"sqlquest/models"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"
)

// SaveMaterial flags a material as a favorite. Saving twice is a no-op.
func (s *ProgressionService) SaveMaterial(ctx context.Context, userID string, materialID int) error {
	if userID == "" {
		return ErrNotAuthenticated
	}
	if _, err := s.getItem(ctx, models.ContentMaterial, materialID); err != nil {
		return err
	}
	saved := models.SavedMaterial{ID: uuid.NewString(), UserID: userID, MaterialID: materialID}
	if err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&saved).Error; err != nil {
		return fmt.Errorf("save material: %w", err)
	}
	return nil
}

func (s *ProgressionService) UnsaveMaterial(ctx context.Context, userID string, materialID int) error {
	if userID == "" {
		return ErrNotAuthenticated
	}
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND material_id = ?", userID, materialID).
		Delete(&models.SavedMaterial{}).Error
	if err != nil {
		return fmt.Errorf("unsave material: %w", err)
	}
	return nil
}

// ListSavedMaterials returns the saved materials, most recently saved first.
func (s *ProgressionService) ListSavedMaterials(ctx context.Context, userID string) ([]models.ContentItem, error) {
	items := []models.ContentItem{}
	if userID == "" {
		return items, nil
	}
	err := s.DB.WithContext(ctx).
		Model(&models.ContentItem{}).
		Joins("JOIN saved_materials ON saved_materials.material_id = content_items.id AND content_items.type = ?", models.ContentMaterial).
		Where("saved_materials.user_id = ?", userID).
		Order("saved_materials.saved_at DESC, content_items.id").
		Find(&items).Error
	return items, err
}
