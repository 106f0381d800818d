package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"video-consult/constant"
	"video-consult/entities"
	"video-consult/repository"
)

func TestPractitionerRouter_Pick(t *testing.T) {
	ctx := context.Background()

	t.Run("Skips practitioners without a login and disabled ones", func(t *testing.T) {
		db := setupTestDB(t)
		seedDirectory(t, db)
		router := NewPractitionerRouter(repository.NewRepo(db))

		got, err := router.Pick(ctx, "Nutrition")
		require.NoError(t, err)
		assert.Equal(t, "HP-001", got)
	})

	t.Run("Most recently modified wins", func(t *testing.T) {
		db := setupTestDB(t)
		seedDirectory(t, db)
		require.NoError(t, db.Create(&entities.HealthcarePractitioner{
			Name:             "HP-005",
			PractitionerName: "Dr. Fresh",
			UserID:           "other@clinic.test",
			Department:       "Nutrition",
			Status:           constant.PractitionerStatusActive,
			UpdatedAt:        baseTime.Add(-30 * time.Minute),
		}).Error)
		router := NewPractitionerRouter(repository.NewRepo(db))

		got, err := router.Pick(ctx, "Nutrition")
		require.NoError(t, err)
		assert.Equal(t, "HP-005", got)
	})

	t.Run("No candidate leaves the session unassigned", func(t *testing.T) {
		db := setupTestDB(t)
		seedDirectory(t, db)
		router := NewPractitionerRouter(repository.NewRepo(db))

		got, err := router.Pick(ctx, "Cardiothoracic Surgery")
		require.NoError(t, err)
		assert.Empty(t, got)

		got, err = router.Pick(ctx, "")
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
