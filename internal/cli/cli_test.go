package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"istas_backend/internal/config"
	"istas_backend/internal/scoring"
	"istas_backend/internal/service"
	"istas_backend/pkg/database"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

func TestRootCommandTree(t *testing.T) {
	root := NewRootCommand()

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "migrate", "seed", "report", "user"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}

	flag := root.PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
	assert.Equal(t, "configs", flag.DefValue)
}

func TestSeedRequiresFile(t *testing.T) {
	root := NewRootCommand()
	root.SetArgs([]string{"seed"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file")
}

func TestSeedCatalogIsIdempotent(t *testing.T) {
	db, err := database.Open(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"}, gormlogger.Silent)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	defer sqlDB.Close()
	require.NoError(t, database.Migrate(db))

	file := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
risks:
  - code: R1
    description: Ritmo intenso
    severity: medium
forms:
  - code: F1
    name: Formulário
    sections:
      - code: s1
        title: Seção
        questions:
          - code: q1
            text: Pergunta?
            risk: R1
`), 0o644))

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())

	require.NoError(t, seedCatalog(cmd, db, file))
	require.NoError(t, seedCatalog(cmd, db, file))
	assert.Contains(t, out.String(), "imported forms [F1]: 1 risks, 1 questions")

	var questions int64
	require.NoError(t, db.Table("questions").Where("deleted_at IS NULL").Count(&questions).Error)
	assert.Equal(t, int64(1), questions)
}

func TestPrintReport(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	report := &service.CompanyReport{
		CompanyName:       "Acme",
		FormName:          "ISTAS21 BR",
		Employees:         3,
		Evaluated:         2,
		AveragePercentYes: 45,
		RiskLevels: []service.RiskLevelCount{
			{Level: scoring.RiskModerate, Count: 1},
			{Level: scoring.RiskHigh, Count: 1},
		},
		Severity: scoring.Breakdown{High: 4, Medium: 1},
		TopRisks: []service.RiskFrequency{
			{Description: "Ritmo intenso", SeverityLabel: "Extremamente Prejudicial", Count: 2},
		},
		Rows: []service.ReportRow{
			{EmployeeName: "Carla", PercentYes: 70, RiskLevel: scoring.RiskHigh},
		},
		GeneratedAt: time.Now(),
	}

	var out bytes.Buffer
	printReport(&out, report)
	s := out.String()
	assert.Contains(t, s, "=== Acme / ISTAS21 BR ===")
	assert.Contains(t, s, "Employees evaluated: 2 of 3")
	assert.Contains(t, s, "Extremamente Prejudicial")
	assert.Contains(t, s, "Ritmo intenso")
	assert.Contains(t, s, "Carla")
	assert.Contains(t, s, "Alto")
}
