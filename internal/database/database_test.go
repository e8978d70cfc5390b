package database_test

import (
	"testing"

	"github.com/ggorockee/dollcatch/internal/database"
	"github.com/ggorockee/dollcatch/internal/database/databasetest"
	"github.com/ggorockee/dollcatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMigrateCreatesDailyReviewIndex(t *testing.T) {
	db, _ := databasetest.New(t)

	assert.True(t, db.Migrator().HasIndex(&models.Review{}, "idx_reviews_daily"))
	assert.True(t, db.Migrator().HasTable("doll_shops"))
	assert.True(t, db.Migrator().HasTable("community"))
	assert.True(t, db.Migrator().HasTable("comment"))
}

func TestDailyIndexRejectsSecondLiveReview(t *testing.T) {
	db, _ := databasetest.New(t)

	r := models.Review{UserID: 1, ShopID: 1, ReviewDay: "2024-05-01", Content: "a", Rating: 5, MachineStrength: 3}
	require.NoError(t, db.Create(&r).Error)

	dup := models.Review{UserID: 1, ShopID: 1, ReviewDay: "2024-05-01", Content: "b", Rating: 4, MachineStrength: 3}
	err := db.Create(&dup).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	// soft-deleted rows are outside the partial index
	require.NoError(t, db.Model(&r).Update("is_deleted", true).Error)
	again := models.Review{UserID: 1, ShopID: 1, ReviewDay: "2024-05-01", Content: "c", Rating: 4, MachineStrength: 3}
	assert.NoError(t, db.Create(&again).Error)
}

func TestQueryCounter(t *testing.T) {
	db, counter := databasetest.New(t)
	counter.Reset()

	var n int64
	require.NoError(t, db.Model(&models.Shop{}).Count(&n).Error)
	require.NoError(t, db.Create(&models.Shop{ID: 7, BusinessName: "x", Address: "a b"}).Error)

	assert.EqualValues(t, 2, counter.Count())
	assert.Len(t, counter.Statements(), 2)

	counter.Reset()
	assert.Zero(t, counter.Count())
}

func TestPing(t *testing.T) {
	db, _ := databasetest.New(t)
	assert.NoError(t, db.Ping())
}

func TestOperationFromSQL(t *testing.T) {
	assert.Equal(t, "SELECT", database.OperationFromSQL(" select 1"))
	assert.Equal(t, "UPDATE", database.OperationFromSQL("UPDATE x SET"))
	assert.Equal(t, "RAW", database.OperationFromSQL("PRAGMA"))
}
