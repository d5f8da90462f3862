package database

import (
	"testing"

	"istas_backend/internal/config"
	"istas_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

func TestMigrateSeedsSeveritiesOnce(t *testing.T) {
	db, err := Open(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"}, gormlogger.Silent)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))

	var rows []model.Severity
	require.NoError(t, db.Order("id").Find(&rows).Error)
	require.Len(t, rows, 3)
	assert.Equal(t, "light", rows[0].Tier)
	assert.Equal(t, "Extremamente Prejudicial", rows[2].Name)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(&config.DatabaseConfig{Driver: "oracle"}, gormlogger.Silent)
	assert.Error(t, err)
}
