package services

import (
	"testing"

	"sqlquest/logger"
	"sqlquest/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection: the in-memory database lives on it, and concurrent
	// transactions queue behind each other.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, models.AutoMigrate(db))
	return db
}

type engine struct {
	db           *gorm.DB
	progress     *ProgressionService
	achievements *AchievementService
	store        *StoreService
	profiles     *ProfileService
	rewards      *RewardService
	catalog      *CatalogService
}

func newEngine(t *testing.T, policy UnlockPolicy) *engine {
	t.Helper()
	db := newTestDB(t)
	log := logger.Nop()
	if policy.FirstLessonID == 0 {
		policy.FirstLessonID = 1
	}
	achievements := NewAchievementService(db, log)
	return &engine{
		db:           db,
		progress:     NewProgressionService(db, log, policy, NewKeywordValidator(), achievements, 2),
		achievements: achievements,
		store:        NewStoreService(db, log, "default"),
		profiles:     NewProfileService(db, log, "default"),
		rewards:      NewRewardService(db, log),
		catalog:      NewCatalogService(db, log),
	}
}

func (e *engine) seed(t *testing.T, rows ...interface{}) {
	t.Helper()
	for _, r := range rows {
		require.NoError(t, e.db.Create(r).Error)
	}
}

func (e *engine) balance(t *testing.T, userID string) (points, coins int64) {
	t.Helper()
	var p models.Profile
	err := e.db.Where("user_id = ?", userID).First(&p).Error
	if err == gorm.ErrRecordNotFound {
		return 0, 0
	}
	require.NoError(t, err)
	return p.Points, p.Coins
}

func (e *engine) setCoins(t *testing.T, userID string, coins int64) {
	t.Helper()
	require.NoError(t, ensureProfile(e.db, userID))
	require.NoError(t, e.db.Model(&models.Profile{}).Where("user_id = ?", userID).Update("coins", coins).Error)
}

func lesson(id int, points, coins int64) *models.ContentItem {
	return &models.ContentItem{Type: models.ContentLesson, ID: id, Title: "Aula", RewardPoints: points, RewardCoins: coins}
}

func exercise(id int, parent *int, keywords ...string) *models.ContentItem {
	return &models.ContentItem{
		Type:           models.ContentExercise,
		ID:             id,
		Title:          "Exercicio",
		ParentLessonID: parent,
		RewardPoints:   20,
		RewardCoins:    5,
		ValidationRule: keywords,
		Hint:           "use SELECT",
	}
}
