package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"istas_backend/internal/config"
	"istas_backend/internal/model"
	"istas_backend/internal/repository"
	"istas_backend/pkg/database"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var ctx = context.Background()

const catalogYAML = `
risks:
  - code: R-RITMO
    description: Ritmo de trabalho excessivo
    severity: high
  - code: R-APOIO
    description: Falta de apoio social
    severity: Prejudicial
  - code: R-SEM
    description: Risco ainda sem classificação
forms:
  - code: ISTAS-21
    name: ISTAS21 BR
    sections:
      - code: apoio
        title: Apoio social
        order: 2
        questions:
          - code: q3
            text: Recebe ajuda dos colegas?
            risk: R-APOIO
            order: 1
          - code: q4
            text: Há conflitos frequentes?
            risk: R-SEM
            order: 2
      - code: exigencias
        title: Exigências
        order: 1
        questions:
          - code: q1
            text: Tem de trabalhar muito rápido?
            risk: R-RITMO
            order: 1
            requires_observation: true
          - code: q2
            text: Os prazos são curtos?
            risk: R-RITMO
            order: 2
            options: [diário, semanal, mensal]
`

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

type recordingPublisher struct {
	mu     sync.Mutex
	keys   []string
	events []interface{}
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, key string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.keys = append(p.keys, key)
	p.events = append(p.events, payload)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type fixture struct {
	db          *gorm.DB
	rdb         *redis.Client
	catalog     *CatalogService
	companies   *repository.CompanyRepository
	evaluations *repository.EvaluationRepository
	cache       *repository.SessionCacheRepository
	events      *recordingPublisher
	svc         *EvaluationService
	form        *model.Form
	company     model.Company
	employees   []model.Employee
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	f := &fixture{
		db:          db,
		rdb:         rdb,
		catalog:     NewCatalogService(repository.NewCatalogRepository(db)),
		companies:   repository.NewCompanyRepository(db),
		evaluations: repository.NewEvaluationRepository(db),
		cache:       repository.NewSessionCacheRepository(rdb, "istas:session", time.Hour),
		events:      &recordingPublisher{},
	}
	f.svc = NewEvaluationService(f.catalog, f.evaluations, f.companies, f.cache, f.events)

	doc, err := ParseCatalog(strings.NewReader(catalogYAML))
	require.NoError(t, err)
	_, err = f.catalog.Import(ctx, doc)
	require.NoError(t, err)
	f.form, err = f.catalog.Repo.FindFormByCode(ctx, "ISTAS-21")
	require.NoError(t, err)

	f.company = model.Company{TenantID: "acme", Name: "Acme Ltda"}
	require.NoError(t, f.companies.CreateCompany(ctx, &f.company))
	f.employees = []model.Employee{
		{TenantID: "acme", CompanyID: f.company.ID, Name: "Carla", Department: "Logística"},
		{TenantID: "acme", CompanyID: f.company.ID, Name: "Bruno", Department: "Vendas"},
		{TenantID: "acme", CompanyID: f.company.ID, Name: "Ana", Department: "Vendas"},
	}
	for i := range f.employees {
		require.NoError(t, f.companies.CreateEmployee(ctx, &f.employees[i]))
	}
	return f
}

// questionID maps a question code of the fixture form to its id.
func (f *fixture) questionID(t *testing.T, code string) uint {
	t.Helper()
	for _, s := range f.form.Sections {
		for _, q := range s.Questions {
			if q.Code == code {
				return q.ID
			}
		}
	}
	t.Fatalf("question %s not in fixture", code)
	return 0
}
