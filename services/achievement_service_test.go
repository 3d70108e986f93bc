package services

import (
	"context"
	"testing"

	"sqlquest/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestClaim_CounterAchievement(t *testing.T) {
	e := newEngine(t, UnlockPolicy{})
	ctx := context.Background()
	e.seed(t,
		exercise(1, nil, "SELECT"),
		exercise(2, nil, "SELECT"),
		&models.Achievement{ID: "ex2", Type: models.AchievementExercises, Title: "Dois exercicios", Target: 2, RewardPoints: 50, RewardCoins: 10},
	)

	_, err := e.progress.CompleteWithValidation(ctx, "u1", models.ContentExercise, 1, "SELECT")
	require.NoError(t, err)

	_, err = e.achievements.Claim(ctx, "u1", "ex2")
	require.ErrorIs(t, err, ErrNotEligible)

	_, err = e.progress.CompleteWithValidation(ctx, "u1", models.ContentExercise, 2, "SELECT")
	require.NoError(t, err)
	// repeat completion must not count again
	_, err = e.progress.CompleteWithValidation(ctx, "u1", models.ContentExercise, 2, "SELECT")
	require.NoError(t, err)

	views, err := e.achievements.GetAchievements(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, int64(2), views[0].CurrentProgress)
	assert.True(t, views[0].Claimable)

	res, err := e.achievements.Claim(ctx, "u1", "ex2")
	require.NoError(t, err)
	assert.Equal(t, int64(50), res.PointsAwarded)
	assert.Equal(t, int64(10), res.CoinsAwarded)

	_, err = e.achievements.Claim(ctx, "u1", "ex2")
	assert.ErrorIs(t, err, ErrAlreadyClaimed)

	points, coins := e.balance(t, "u1")
	assert.Equal(t, int64(20+20+50), points)
	assert.Equal(t, int64(5+5+10), coins)

	views, err = e.achievements.GetAchievements(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, views[0].Claimed)
	assert.False(t, views[0].Claimable)
	assert.NotNil(t, views[0].ClaimedAt)
}

func TestClaim_Rejections(t *testing.T) {
	e := newEngine(t, UnlockPolicy{})
	ctx := context.Background()

	_, err := e.achievements.Claim(ctx, "", "x")
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = e.achievements.Claim(ctx, "u1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

// Balance achievements look at the balance at claim time, so coins spent
// before claiming count against the target.
func TestClaim_BalanceAchievementUsesLiveBalance(t *testing.T) {
	e := newEngine(t, UnlockPolicy{})
	ctx := context.Background()
	e.seed(t,
		&models.Achievement{ID: "rico", Type: models.AchievementCoins, Title: "Rico", Target: 50, RewardPoints: 5},
		&models.StoreItem{ID: "gato", Name: "Gato", Price: 60},
	)
	e.setCoins(t, "u1", 100)

	_, err := e.store.Purchase(ctx, "u1", "gato")
	require.NoError(t, err)

	views, err := e.achievements.GetAchievements(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(40), views[0].CurrentProgress)
	assert.False(t, views[0].Claimable)

	_, err = e.achievements.Claim(ctx, "u1", "rico")
	require.ErrorIs(t, err, ErrNotEligible)

	e.setCoins(t, "u1", 50)
	res, err := e.achievements.Claim(ctx, "u1", "rico")
	require.NoError(t, err)
	assert.Equal(t, int64(5), res.PointsAwarded)

	_, err = e.achievements.Claim(ctx, "u1", "rico")
	assert.ErrorIs(t, err, ErrAlreadyClaimed)
}

// A balance claim must hold the profile row so a concurrent debit queues
// behind it instead of committing between the check and the claim.
func TestClaim_BalanceAchievementLocksProfile(t *testing.T) {
	e := newEngine(t, UnlockPolicy{})
	ctx := context.Background()
	e.seed(t,
		exercise(1, nil, "SELECT"),
		&models.Achievement{ID: "rico", Type: models.AchievementCoins, Title: "Rico", Target: 50},
		&models.Achievement{ID: "ex1", Type: models.AchievementExercises, Title: "Um exercicio", Target: 1},
	)
	e.setCoins(t, "u1", 100)
	_, err := e.progress.CompleteWithValidation(ctx, "u1", models.ContentExercise, 1, "SELECT 1")
	require.NoError(t, err)

	var locked []string
	err = e.db.Callback().Query().After("gorm:query").Register("test:record_locks", func(d *gorm.DB) {
		if _, ok := d.Statement.Clauses["FOR"]; ok {
			locked = append(locked, d.Statement.Table)
		}
	})
	require.NoError(t, err)

	_, err = e.achievements.Claim(ctx, "u1", "ex1")
	require.NoError(t, err)
	assert.Empty(t, locked)

	_, err = e.achievements.Claim(ctx, "u1", "rico")
	require.NoError(t, err)
	assert.Equal(t, []string{"profiles"}, locked)
}

// Whatever order the claim and the purchase take, the claim only succeeds
// if the balance met the target when it ran.
func TestClaim_BalanceAchievementRacingPurchase(t *testing.T) {
	e := newEngine(t, UnlockPolicy{})
	ctx := context.Background()
	e.seed(t,
		&models.Achievement{ID: "rico", Type: models.AchievementCoins, Title: "Rico", Target: 50, RewardCoins: 1},
		&models.StoreItem{ID: "gato", Name: "Gato", Price: 60},
	)
	e.setCoins(t, "u1", 100)

	claimErr := make(chan error, 1)
	go func() {
		_, err := e.achievements.Claim(ctx, "u1", "rico")
		claimErr <- err
	}()
	_, purchaseErr := e.store.Purchase(ctx, "u1", "gato")
	require.NoError(t, purchaseErr)

	err := <-claimErr
	_, coins := e.balance(t, "u1")
	if err == nil {
		// claim ran first at 100 coins, then the purchase
		assert.Equal(t, int64(41), coins)
	} else {
		assert.ErrorIs(t, err, ErrNotEligible)
		assert.Equal(t, int64(40), coins)
	}
}

func TestBumpCounterAchievements_StopsAfterClaim(t *testing.T) {
	e := newEngine(t, UnlockPolicy{})
	e.seed(t, &models.Achievement{ID: "a1", Type: models.AchievementLessons, Title: "Primeira aula", Target: 1})

	require.NoError(t, e.achievements.BumpCounterAchievements(e.db, "u1", models.ContentLesson))
	_, err := e.achievements.Claim(context.Background(), "u1", "a1")
	require.NoError(t, err)
	require.NoError(t, e.achievements.BumpCounterAchievements(e.db, "u1", models.ContentLesson))

	var ua models.UserAchievement
	require.NoError(t, e.db.Where("user_id = ? AND achievement_id = ?", "u1", "a1").First(&ua).Error)
	assert.Equal(t, int64(1), ua.CurrentProgress)
	assert.True(t, ua.Claimed)
}

func TestReconcileCounters_RaisesButNeverLowers(t *testing.T) {
	e := newEngine(t, UnlockPolicy{})
	ctx := context.Background()
	e.seed(t,
		&models.Achievement{ID: "aulas3", Type: models.AchievementLessons, Title: "Tres aulas", Target: 3},
		&models.ProgressRecord{ID: "r1", UserID: "u1", ContentType: models.ContentLesson, ContentID: 1, Completed: true, ProgressPercentage: 100},
		&models.ProgressRecord{ID: "r2", UserID: "u1", ContentType: models.ContentLesson, ContentID: 2, Completed: true, ProgressPercentage: 100},
		&models.ProgressRecord{ID: "r3", UserID: "u2", ContentType: models.ContentLesson, ContentID: 1, Completed: true, ProgressPercentage: 100},
		&models.UserAchievement{ID: "ua2", UserID: "u2", AchievementID: "aulas3", CurrentProgress: 3},
	)

	changed, err := e.achievements.ReconcileCounters(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), changed)

	var u1, u2 models.UserAchievement
	require.NoError(t, e.db.Where("user_id = ? AND achievement_id = ?", "u1", "aulas3").First(&u1).Error)
	require.NoError(t, e.db.Where("user_id = ? AND achievement_id = ?", "u2", "aulas3").First(&u2).Error)
	assert.Equal(t, int64(2), u1.CurrentProgress)
	assert.Equal(t, int64(3), u2.CurrentProgress)

	changed, err = e.achievements.ReconcileCounters(ctx)
	require.NoError(t, err)
	assert.Zero(t, changed)
}

func TestAchievementStrategy(t *testing.T) {
	assert.Equal(t, models.CounterProgress{Trigger: models.ContentChallenge},
		models.Achievement{Type: models.AchievementChallenges}.Strategy())
	assert.Equal(t, models.BalanceProgress{Column: "points"},
		models.Achievement{Type: models.AchievementPoints}.Strategy())
	assert.Nil(t, models.Achievement{Type: "streak"}.Strategy())
}
