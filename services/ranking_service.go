package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"sqlquest/logger"
	"sqlquest/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Redis layout:
//   - sorted set "ranking:points" holds userID -> points
//   - hash "ranking:info" holds userID -> RankedProfile JSON
const (
	keyRankingPoints = "ranking:points"
	keyRankingInfo   = "ranking:info"
)

type RankedProfile struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	AvatarIcon  string `json:"avatar_icon"`
	Points      int64  `json:"points"`
}

type RankingService struct {
	DB          *gorm.DB
	Redis       *redis.Client // nil disables the cache
	Log         *logger.Logger
	Limit       int
	TTL         time.Duration
	DefaultIcon string
}

func NewRankingService(db *gorm.DB, rdb *redis.Client, log *logger.Logger, limit int, ttl time.Duration, defaultIcon string) *RankingService {
	if limit < 1 {
		limit = 100
	}
	return &RankingService{DB: db, Redis: rdb, Log: log, Limit: limit, TTL: ttl, DefaultIcon: defaultIcon}
}

func (s *RankingService) clamp(limit int) int {
	if limit < 1 || limit > s.Limit {
		return s.Limit
	}
	return limit
}

// Top returns the best profiles by points. The cache is preferred; any cache
// miss or failure falls back to the database.
func (s *RankingService) Top(ctx context.Context, limit int) ([]RankedProfile, error) {
	limit = s.clamp(limit)
	if s.Redis != nil {
		entries, err := s.topFromCache(ctx, limit)
		if err == nil && len(entries) > 0 {
			return entries, nil
		}
		if err != nil {
			s.Log.Warn("ranking cache read failed, using database", "error", err)
		}
	}
	return s.topFromDB(ctx, limit)
}

func (s *RankingService) topFromDB(ctx context.Context, limit int) ([]RankedProfile, error) {
	var profiles []models.Profile
	err := s.DB.WithContext(ctx).
		Order("points DESC, created_at ASC, user_id ASC").
		Limit(limit).
		Find(&profiles).Error
	if err != nil {
		return nil, err
	}
	out := make([]RankedProfile, 0, len(profiles))
	for i, p := range profiles {
		icon := p.AvatarIcon
		if icon == "" {
			icon = s.DefaultIcon
		}
		out = append(out, RankedProfile{
			Rank:        i + 1,
			UserID:      p.UserID,
			DisplayName: p.DisplayName,
			AvatarIcon:  icon,
			Points:      p.Points,
		})
	}
	return out, nil
}

func (s *RankingService) topFromCache(ctx context.Context, limit int) ([]RankedProfile, error) {
	members, err := s.Redis.ZRevRangeWithScores(ctx, keyRankingPoints, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, nil
	}
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i], _ = m.Member.(string)
	}
	infos, err := s.Redis.HMGet(ctx, keyRankingInfo, ids...).Result()
	if err != nil {
		return nil, err
	}

	out := make([]RankedProfile, 0, len(members))
	for i, m := range members {
		entry := RankedProfile{UserID: ids[i]}
		if raw, ok := infos[i].(string); ok {
			if err := json.Unmarshal([]byte(raw), &entry); err != nil {
				return nil, fmt.Errorf("decode ranking entry %s: %w", ids[i], err)
			}
		}
		entry.Rank = i + 1
		entry.Points = int64(m.Score)
		out = append(out, entry)
	}
	return out, nil
}

// Refresh rebuilds the cached ranking from the database.
func (s *RankingService) Refresh(ctx context.Context) error {
	if s.Redis == nil {
		return nil
	}
	entries, err := s.topFromDB(ctx, s.Limit)
	if err != nil {
		return err
	}

	pipe := s.Redis.TxPipeline()
	pipe.Del(ctx, keyRankingPoints, keyRankingInfo)
	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode ranking entry: %w", err)
		}
		pipe.ZAdd(ctx, keyRankingPoints, redis.Z{Score: float64(e.Points), Member: e.UserID})
		pipe.HSet(ctx, keyRankingInfo, e.UserID, data)
	}
	if s.TTL > 0 {
		pipe.Expire(ctx, keyRankingPoints, s.TTL)
		pipe.Expire(ctx, keyRankingInfo, s.TTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("write ranking cache: %w", err)
	}
	s.Log.Debug("ranking cache refreshed", "entries", len(entries))
	return nil
}
