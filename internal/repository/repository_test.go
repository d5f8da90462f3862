package repository

import (
	"context"
	"testing"

	"istas_backend/internal/config"
	"istas_backend/internal/model"
	"istas_backend/pkg/database"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var ctx = context.Background()

// newTestDB returns a migrated in-memory sqlite database. A single
// connection keeps every query on the same memory database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"}, gormlogger.Silent)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func intPtr(v int) *int { return &v }

// sampleForm has two sections with two questions each; q1 and q3 point at
// risks R1 (high) and R2 (light).
func sampleForm() (*model.Form, []model.Risk) {
	risks := []model.Risk{
		{Code: "R1", Description: "Ritmo excessivo", Severity: &model.Severity{Tier: "high"}},
		{Code: "R2", Description: "Falta de apoio", Severity: &model.Severity{Tier: "light"}},
	}
	form := &model.Form{
		Code:     "ISTAS-21",
		Name:     "ISTAS21 BR",
		IsActive: true,
		Sections: []model.Section{
			{Code: "S2", Title: "Apoio", Order: intPtr(2), Questions: []model.Question{
				{Code: "q3", Text: "Recebe ajuda?", Order: 1, RiskCode: "R2"},
				{Code: "q4", Text: "Recebe feedback?", Order: 2},
			}},
			{Code: "S1", Title: "Exigências", Order: intPtr(1), Questions: []model.Question{
				{Code: "q2", Text: "Trabalha rápido?", Order: 2, RequiresObservation: true},
				{Code: "q1", Text: "Tem prazos?", Order: 1, RiskCode: "R1", Options: []string{"diário", "semanal"}},
			}},
		},
	}
	return form, risks
}
