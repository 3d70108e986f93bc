package services

import (
	"context"
	"errors"
	"fmt"

	"sqlquest/logger"
	"sqlquest/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PurchaseResult struct {
	ItemID    string `json:"item_id"`
	PricePaid int64  `json:"price_paid"`
	CoinsLeft int64  `json:"coins_left"`
}

type StoreService struct {
	DB          *gorm.DB
	Log         *logger.Logger
	DefaultIcon string
}

func NewStoreService(db *gorm.DB, log *logger.Logger, defaultIcon string) *StoreService {
	return &StoreService{DB: db, Log: log, DefaultIcon: defaultIcon}
}

func (s *StoreService) ListItems(ctx context.Context) ([]models.StoreItem, error) {
	items := []models.StoreItem{}
	err := s.DB.WithContext(ctx).Order("price, id").Find(&items).Error
	return items, err
}

// GetPurchases returns the ids of items the user owns.
func (s *StoreService) GetPurchases(ctx context.Context, userID string) ([]string, error) {
	ids := []string{}
	if userID == "" {
		return ids, nil
	}
	err := s.DB.WithContext(ctx).
		Model(&models.Purchase{}).
		Where("user_id = ?", userID).
		Order("purchased_at").
		Pluck("item_id", &ids).Error
	return ids, err
}

// Purchase grants the item and debits its price, or does neither.
// Ownership is decided by the unique (user, item) insert and funds by the
// conditional debit, both inside one transaction.
func (s *StoreService) Purchase(ctx context.Context, userID, itemID string) (*PurchaseResult, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}

	var item models.StoreItem
	err := s.DB.WithContext(ctx).Where("id = ?", itemID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("store item %s: %w", itemID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	result := &PurchaseResult{ItemID: item.ID, PricePaid: item.Price}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureProfile(tx, userID); err != nil {
			return err
		}

		p := models.Purchase{
			ID:        uuid.NewString(),
			UserID:    userID,
			ItemID:    item.ID,
			PricePaid: item.Price,
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&p)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyOwned
		}

		res = tx.Model(&models.Profile{}).
			Where("user_id = ? AND coins >= ?", userID, item.Price).
			Update("coins", gorm.Expr("coins - ?", item.Price))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInsufficientFunds
		}

		var profile models.Profile
		if err := tx.Where("user_id = ?", userID).First(&profile).Error; err != nil {
			return err
		}
		result.CoinsLeft = profile.Coins
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("purchase %s: %w", itemID, err)
	}

	s.Log.Info("item purchased", "user_id", userID, "item_id", item.ID, "price", item.Price)
	return result, nil
}

// EquipIcon sets the avatar icon. The default icon is always allowed;
// any other icon must be owned.
func (s *StoreService) EquipIcon(ctx context.Context, userID, iconID string) (*models.Profile, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	if iconID == "" {
		return nil, fmt.Errorf("empty icon: %w", ErrInvalidInput)
	}

	var profile models.Profile
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureProfile(tx, userID); err != nil {
			return err
		}
		q := tx.Model(&models.Profile{}).Where("user_id = ?", userID)
		if iconID != s.DefaultIcon {
			q = q.Where("EXISTS (SELECT 1 FROM purchases WHERE purchases.user_id = ? AND purchases.item_id = ?)", userID, iconID)
		}
		res := q.Update("avatar_icon", iconID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotOwned
		}
		return tx.Where("user_id = ?", userID).First(&profile).Error
	})
	if err != nil {
		return nil, fmt.Errorf("equip icon %s: %w", iconID, err)
	}
	return &profile, nil
}
