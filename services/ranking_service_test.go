package services

import (
	"context"
	"testing"
	"time"

	"sqlquest/logger"
	"sqlquest/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankingTop_FromDatabase(t *testing.T) {
	e := newEngine(t, UnlockPolicy{})
	e.seed(t,
		&models.Profile{UserID: "a", DisplayName: "Ana", Points: 30},
		&models.Profile{UserID: "b", DisplayName: "Bia", Points: 90, AvatarIcon: "coruja"},
		&models.Profile{UserID: "c", DisplayName: "Caio", Points: 60},
	)
	svc := NewRankingService(e.db, nil, logger.Nop(), 2, time.Minute, "default")

	top, err := svc.Top(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, RankedProfile{Rank: 1, UserID: "b", DisplayName: "Bia", AvatarIcon: "coruja", Points: 90}, top[0])
	assert.Equal(t, "c", top[1].UserID)
	assert.Equal(t, 2, top[1].Rank)

	top, err = svc.Top(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, top, 1)

	// no cache configured
	assert.NoError(t, svc.Refresh(context.Background()))
}
