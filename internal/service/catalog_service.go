package service

import (
	"context"
	"errors"
	"istas_backend/internal/model"
	"istas_backend/internal/repository"
	"istas_backend/internal/scoring"
	"istas_backend/internal/session"
	"istas_backend/internal/util"
	"istas_backend/pkg/logger"
	"sync"
	"time"

	"go.uber.org/zap"
)

const formCacheTTL = 5 * time.Minute

type cachedForm struct {
	form     *session.Form
	loadedAt time.Time
}

type CatalogService struct {
	Repo *repository.CatalogRepository

	mu    sync.RWMutex
	forms map[uint]cachedForm
	now   func() time.Time
}

func NewCatalogService(repo *repository.CatalogRepository) *CatalogService {
	return &CatalogService{
		Repo:  repo,
		forms: make(map[uint]cachedForm),
		now:   time.Now,
	}
}

func (s *CatalogService) ListForms(ctx context.Context) ([]model.Form, error) {
	return s.Repo.ListForms(ctx, true)
}

// GetFormDefinition returns the full form as stored, for display.
func (s *CatalogService) GetFormDefinition(ctx context.Context, id uint) (*model.Form, error) {
	form, err := s.Repo.FindFormByID(ctx, id)
	if repository.IsNotFound(err) {
		return nil, util.ErrNotFound
	}
	return form, err
}

// GetForm returns the form in the shape the session works with. Forms are
// cached in memory for a few minutes; imports clear the cache.
func (s *CatalogService) GetForm(ctx context.Context, id uint) (*session.Form, error) {
	s.mu.RLock()
	cached, ok := s.forms[id]
	s.mu.RUnlock()
	if ok && s.now().Sub(cached.loadedAt) < formCacheTTL {
		return cached.form, nil
	}

	stored, err := s.GetFormDefinition(ctx, id)
	if err != nil {
		return nil, err
	}
	form := ToSessionForm(stored)

	if unresolved := scoring.UnresolvedQuestions(form.Metadata()); len(unresolved) > 0 {
		logger.Log.Warn("Questions without resolvable risk severity",
			zap.Uint("formId", form.ID),
			zap.Uints("questionIds", unresolved),
		)
	}

	s.mu.Lock()
	s.forms[id] = cachedForm{form: form, loadedAt: s.now()}
	s.mu.Unlock()
	return form, nil
}

type ImportSummary struct {
	Forms     []string `json:"forms"`
	Risks     int      `json:"risks"`
	Questions int      `json:"questions"`
}

// Import stores every form of a validated document. Each form is imported in
// its own transaction; the first failure stops the import.
func (s *CatalogService) Import(ctx context.Context, doc *CatalogDocument) (*ImportSummary, error) {
	if doc == nil {
		return nil, util.ErrInvalidCatalog
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	summary := &ImportSummary{Risks: len(doc.Risks)}
	risks := doc.riskModels()
	for i, f := range doc.Forms {
		form := f.model()
		// risks only need to be written once
		var formRisks []model.Risk
		if i == 0 {
			formRisks = risks
		}
		if err := s.Repo.ImportForm(ctx, form, formRisks); err != nil {
			if errors.Is(err, repository.ErrUnknownRisk) || errors.Is(err, repository.ErrUnknownSeverity) {
				return summary, errors.Join(util.ErrInvalidCatalog, err)
			}
			return summary, err
		}
		summary.Forms = append(summary.Forms, form.Code)
		for _, sec := range form.Sections {
			summary.Questions += len(sec.Questions)
		}
		logger.Log.Info("Form imported",
			zap.String("code", form.Code),
			zap.Uint("formId", form.ID),
		)
	}

	s.mu.Lock()
	s.forms = make(map[uint]cachedForm)
	s.mu.Unlock()
	return summary, nil
}

// ToSessionForm converts a stored form with preloaded sections, questions and
// risks.
func ToSessionForm(f *model.Form) *session.Form {
	form := &session.Form{ID: f.ID, Name: f.Name}
	seen := make(map[uint]bool)
	for _, sec := range f.Sections {
		section := session.Section{ID: sec.ID, Title: sec.Title, Order: sec.Order}
		for _, q := range sec.Questions {
			question := scoring.Question{
				ID:                  q.ID,
				Text:                q.Text,
				SectionID:           sec.ID,
				Order:               q.Order,
				RequiresObservation: q.RequiresObservation,
				Options:             append([]string(nil), q.Options...),
			}
			if q.RiskID != nil {
				question.RiskID = *q.RiskID
			}
			if q.Risk != nil && !seen[q.Risk.ID] {
				seen[q.Risk.ID] = true
				risk := scoring.Risk{ID: q.Risk.ID, Description: q.Risk.Description}
				if q.Risk.Severity != nil {
					if sev, ok := scoring.ParseSeverity(q.Risk.Severity.Tier); ok {
						risk.Severity = sev
					}
				}
				form.Risks = append(form.Risks, risk)
			}
			section.Questions = append(section.Questions, question)
		}
		form.Sections = append(form.Sections, section)
	}
	return form
}
