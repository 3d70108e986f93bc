package services

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"sqlquest/logger"
	"sqlquest/models"

	"github.com/gosimple/slug"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Catalog is the authored content file. Every section is optional; an import
// only touches the rows it lists.
type Catalog struct {
	Lessons      []models.ContentItem `yaml:"lessons"`
	Exercises    []models.ContentItem `yaml:"exercises"`
	Challenges   []models.ContentItem `yaml:"challenges"`
	Materials    []models.ContentItem `yaml:"materials"`
	Achievements []models.Achievement `yaml:"achievements"`
	StoreItems   []models.StoreItem   `yaml:"store_items"`
}

type ImportStats struct {
	ContentItems int `json:"content_items"`
	Achievements int `json:"achievements"`
	StoreItems   int `json:"store_items"`
}

// ParseCatalog decodes and validates a YAML catalog. Unknown keys are rejected
// so typos in the authored file do not silently drop data.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode catalog: %v: %w", err, ErrInvalidInput)
	}
	if err := c.normalize(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) normalize() error {
	lessons := map[int]bool{}
	sections := []struct {
		t     models.ContentType
		items []models.ContentItem
	}{
		{models.ContentLesson, c.Lessons},
		{models.ContentExercise, c.Exercises},
		{models.ContentChallenge, c.Challenges},
		{models.ContentMaterial, c.Materials},
	}
	for _, sec := range sections {
		seen := map[int]bool{}
		for i := range sec.items {
			item := &sec.items[i]
			item.Type = sec.t
			if item.ID < 1 {
				return fmt.Errorf("%s #%d: id must be positive: %w", sec.t, i, ErrInvalidInput)
			}
			if seen[item.ID] {
				return fmt.Errorf("%s %d: duplicate id: %w", sec.t, item.ID, ErrInvalidInput)
			}
			seen[item.ID] = true
			if item.RewardPoints < 0 || item.RewardCoins < 0 {
				return fmt.Errorf("%s %d: negative reward: %w", sec.t, item.ID, ErrInvalidInput)
			}
			if item.Slug == "" {
				item.Slug = slug.Make(item.Title)
			}
			if sec.t == models.ContentLesson {
				lessons[item.ID] = true
			}
		}
	}

	for _, items := range [][]models.ContentItem{c.Exercises, c.Challenges} {
		for _, item := range items {
			if item.ParentLessonID == nil || len(c.Lessons) == 0 {
				continue
			}
			if !lessons[*item.ParentLessonID] {
				return fmt.Errorf("%s %d: unknown lesson %d: %w", item.Type, item.ID, *item.ParentLessonID, ErrInvalidInput)
			}
		}
	}

	for _, a := range c.Achievements {
		if a.ID == "" || !a.Type.Valid() {
			return fmt.Errorf("achievement %q: bad id or type %q: %w", a.ID, a.Type, ErrInvalidInput)
		}
		if a.Target < 1 || a.RewardPoints < 0 || a.RewardCoins < 0 {
			return fmt.Errorf("achievement %s: target must be positive and rewards non-negative: %w", a.ID, ErrInvalidInput)
		}
	}
	for _, it := range c.StoreItems {
		if it.ID == "" || it.Price < 0 {
			return fmt.Errorf("store item %q: bad id or price: %w", it.ID, ErrInvalidInput)
		}
	}
	return nil
}

func (c *Catalog) contentItems() []models.ContentItem {
	out := make([]models.ContentItem, 0, len(c.Lessons)+len(c.Exercises)+len(c.Challenges)+len(c.Materials))
	out = append(out, c.Lessons...)
	out = append(out, c.Exercises...)
	out = append(out, c.Challenges...)
	return append(out, c.Materials...)
}

type CatalogService struct {
	DB  *gorm.DB
	Log *logger.Logger
}

func NewCatalogService(db *gorm.DB, log *logger.Logger) *CatalogService {
	return &CatalogService{DB: db, Log: log}
}

// Import upserts every row of the catalog in one transaction.
func (s *CatalogService) Import(ctx context.Context, c *Catalog) (*ImportStats, error) {
	items := c.contentItems()
	stats := &ImportStats{
		ContentItems: len(items),
		Achievements: len(c.Achievements),
		StoreItems:   len(c.StoreItems),
	}
	upsert := clause.OnConflict{UpdateAll: true}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(items) > 0 {
			if err := tx.Clauses(upsert).CreateInBatches(&items, 200).Error; err != nil {
				return fmt.Errorf("upsert content: %w", err)
			}
		}
		if len(c.Achievements) > 0 {
			if err := tx.Clauses(upsert).Create(&c.Achievements).Error; err != nil {
				return fmt.Errorf("upsert achievements: %w", err)
			}
		}
		if len(c.StoreItems) > 0 {
			if err := tx.Clauses(upsert).Create(&c.StoreItems).Error; err != nil {
				return fmt.Errorf("upsert store items: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info("catalog imported",
		"content_items", stats.ContentItems,
		"achievements", stats.Achievements,
		"store_items", stats.StoreItems,
	)
	return stats, nil
}

func (s *CatalogService) ImportBytes(ctx context.Context, data []byte) (*ImportStats, error) {
	c, err := ParseCatalog(data)
	if err != nil {
		return nil, err
	}
	return s.Import(ctx, c)
}

func (s *CatalogService) ImportFile(ctx context.Context, path string) (*ImportStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return s.ImportBytes(ctx, data)
}
