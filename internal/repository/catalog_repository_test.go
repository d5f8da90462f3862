package repository

import (
	"testing"

	"istas_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportAndLoadForm(t *testing.T) {
	repo := NewCatalogRepository(newTestDB(t))
	form, risks := sampleForm()
	require.NoError(t, repo.ImportForm(ctx, form, risks))

	got, err := repo.FindFormByID(ctx, form.ID)
	require.NoError(t, err)
	require.Len(t, got.Sections, 2)
	assert.Equal(t, "S1", got.Sections[0].Code)
	require.Len(t, got.Sections[0].Questions, 2)

	q1 := got.Sections[0].Questions[0]
	assert.Equal(t, "q1", q1.Code)
	assert.Equal(t, []string{"diário", "semanal"}, q1.Options)
	require.NotNil(t, q1.Risk)
	require.NotNil(t, q1.Risk.Severity)
	assert.Equal(t, "high", q1.Risk.Severity.Tier)

	q2 := got.Sections[0].Questions[1]
	assert.True(t, q2.RequiresObservation)
	assert.Nil(t, q2.Risk)
}

func TestReimportKeepsQuestionIDs(t *testing.T) {
	repo := NewCatalogRepository(newTestDB(t))
	form, risks := sampleForm()
	require.NoError(t, repo.ImportForm(ctx, form, risks))
	first, err := repo.FindFormByCode(ctx, "ISTAS-21")
	require.NoError(t, err)
	q1ID := first.Sections[0].Questions[0].ID

	// drop q4, rename q1
	form, risks = sampleForm()
	form.Sections[0].Questions = form.Sections[0].Questions[:1]
	form.Sections[1].Questions[1].Text = "Tem prazos curtos?"
	require.NoError(t, repo.ImportForm(ctx, form, risks))

	second, err := repo.FindFormByCode(ctx, "ISTAS-21")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, q1ID, second.Sections[0].Questions[0].ID)
	assert.Equal(t, "Tem prazos curtos?", second.Sections[0].Questions[0].Text)
	assert.Len(t, second.Sections[1].Questions, 1)
}

func TestImportUnknownRiskRollsBack(t *testing.T) {
	repo := NewCatalogRepository(newTestDB(t))
	form, risks := sampleForm()
	form.Sections[0].Questions[0].RiskCode = "NOPE"

	err := repo.ImportForm(ctx, form, risks)
	assert.ErrorIs(t, err, ErrUnknownRisk)

	forms, err := repo.ListForms(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, forms)
}

func TestImportUnknownSeverity(t *testing.T) {
	repo := NewCatalogRepository(newTestDB(t))
	form, risks := sampleForm()
	risks[0].Severity = &model.Severity{Tier: "catastrophic"}
	assert.ErrorIs(t, repo.ImportForm(ctx, form, risks), ErrUnknownSeverity)
}

func TestListFormsActiveOnly(t *testing.T) {
	repo := NewCatalogRepository(newTestDB(t))
	form, risks := sampleForm()
	require.NoError(t, repo.ImportForm(ctx, form, risks))
	inactive, _ := sampleForm()
	inactive.Code = "OLD"
	inactive.Name = "Antigo"
	inactive.IsActive = false
	require.NoError(t, repo.ImportForm(ctx, inactive, nil))

	all, err := repo.ListForms(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := repo.ListForms(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "ISTAS-21", active[0].Code)
}
