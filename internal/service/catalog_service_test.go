package service

import (
	"strings"
	"testing"
	"time"

	"istas_backend/internal/scoring"
	"istas_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCatalogRejectsBadDocuments(t *testing.T) {
	cases := map[string]string{
		"unknown field": "forms:\n  - code: F\n    name: F\n    colour: red\n",
		"no forms":      "risks: []\n",
		"bad severity":  "risks:\n  - code: R\n    description: d\n    severity: lethal\nforms:\n  - code: F\n    name: F\n    sections:\n      - code: s\n        title: S\n        questions:\n          - code: q\n            text: Q\n",
		"duplicate question": "forms:\n  - code: F\n    name: F\n    sections:\n      - code: s\n        title: S\n        questions:\n          - code: q\n            text: Q\n" +
			"      - code: t\n        title: T\n        questions:\n          - code: q\n            text: Q2\n",
		"empty section": "forms:\n  - code: F\n    name: F\n    sections:\n      - code: s\n        title: S\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCatalog(strings.NewReader(doc))
			assert.ErrorIs(t, err, util.ErrInvalidCatalog)
		})
	}
}

func TestImportSummary(t *testing.T) {
	f := newFixture(t)
	doc, err := ParseCatalog(strings.NewReader(catalogYAML))
	require.NoError(t, err)

	summary, err := f.catalog.Import(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"ISTAS-21"}, summary.Forms)
	assert.Equal(t, 3, summary.Risks)
	assert.Equal(t, 4, summary.Questions)
}

func TestGetFormConvertsCatalog(t *testing.T) {
	f := newFixture(t)

	form, err := f.catalog.GetForm(ctx, f.form.ID)
	require.NoError(t, err)
	assert.Equal(t, "ISTAS21 BR", form.Name)
	require.Len(t, form.Sections, 2)
	assert.Equal(t, "Exigências", form.Sections[0].Title)

	meta := form.Metadata()
	assert.Equal(t, 4, meta.QuestionCount())

	sev, ok := meta.SeverityOf(f.questionID(t, "q1"))
	require.True(t, ok)
	assert.Equal(t, scoring.SeverityHigh, sev)

	sev, ok = meta.SeverityOf(f.questionID(t, "q3"))
	require.True(t, ok)
	assert.Equal(t, scoring.SeverityMedium, sev)

	assert.Equal(t, []uint{f.questionID(t, "q4")}, scoring.UnresolvedQuestions(meta))

	q2, ok := meta.Question(f.questionID(t, "q2"))
	require.True(t, ok)
	assert.Equal(t, []string{"diário", "semanal", "mensal"}, q2.Options)
}

func TestGetFormUnknown(t *testing.T) {
	f := newFixture(t)
	_, err := f.catalog.GetForm(ctx, 999)
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestGetFormCacheInvalidatedByImport(t *testing.T) {
	f := newFixture(t)
	first, err := f.catalog.GetForm(ctx, f.form.ID)
	require.NoError(t, err)

	again, err := f.catalog.GetForm(ctx, f.form.ID)
	require.NoError(t, err)
	assert.Same(t, first, again)

	doc, err := ParseCatalog(strings.NewReader(strings.Replace(catalogYAML, "name: ISTAS21 BR", "name: ISTAS21 BR v2", 1)))
	require.NoError(t, err)
	_, err = f.catalog.Import(ctx, doc)
	require.NoError(t, err)

	fresh, err := f.catalog.GetForm(ctx, f.form.ID)
	require.NoError(t, err)
	assert.Equal(t, "ISTAS21 BR v2", fresh.Name)
}

func TestGetFormCacheExpires(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	f.catalog.now = func() time.Time { return now }

	first, err := f.catalog.GetForm(ctx, f.form.ID)
	require.NoError(t, err)

	now = now.Add(formCacheTTL + time.Second)
	second, err := f.catalog.GetForm(ctx, f.form.ID)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}
