package service

import (
	"context"
	"istas_backend/internal/model"
	"istas_backend/internal/repository"
	"istas_backend/internal/scoring"
	"istas_backend/internal/session"
	"sort"
	"time"
)

// evaluationStore implements session.Store on top of EvaluationRepository.
type evaluationStore struct {
	repo *repository.EvaluationRepository
	now  func() time.Time
}

func newEvaluationStore(repo *repository.EvaluationRepository) *evaluationStore {
	return &evaluationStore{repo: repo, now: time.Now}
}

func (s *evaluationStore) LoadEvaluationHistory(ctx context.Context, sc session.Context, employeeID uint) ([]session.Evaluation, error) {
	rows, err := s.repo.ListByEmployee(ctx, sc.TenantID, employeeID, 0)
	if err != nil {
		return nil, err
	}
	out := make([]session.Evaluation, 0, len(rows))
	for i := range rows {
		out = append(out, fromModel(&rows[i]))
	}
	return out, nil
}

func (s *evaluationStore) SaveEvaluation(ctx context.Context, sc session.Context, ev session.Evaluation, opts session.SaveOptions) (session.Evaluation, error) {
	row := toModel(ev)
	row.TenantID = sc.TenantID
	row.IsComplete = opts.Complete
	if opts.Complete {
		at := s.now()
		row.CompletedAt = &at
	}
	if err := s.repo.Save(ctx, row); err != nil {
		return session.Evaluation{}, err
	}
	return fromModel(row), nil
}

func (s *evaluationStore) DeleteEvaluation(ctx context.Context, sc session.Context, evaluationID string) error {
	return s.repo.Delete(ctx, sc.TenantID, evaluationID)
}

func toModel(ev session.Evaluation) *model.Evaluation {
	row := &model.Evaluation{
		TenantID:             ev.TenantID,
		EmployeeID:           ev.EmployeeID,
		FormID:               ev.FormID,
		CreatedBy:            ev.CreatedBy,
		TotalYes:             ev.Result.TotalYes,
		TotalNo:              ev.Result.TotalNo,
		QuestionCount:        ev.Result.QuestionCount,
		SeverityLight:        ev.Result.Severity.Light,
		SeverityMedium:       ev.Result.Severity.Medium,
		SeverityHigh:         ev.Result.Severity.High,
		CompletionPercentage: ev.Result.CompletionPercentage,
		PercentYes:           ev.Result.PercentYes,
		RiskLevel:            string(ev.Result.RiskLevel),
		IsComplete:           ev.IsComplete,
		Notes:                ev.Notes,
		Version:              ev.Version,
	}
	row.ID = ev.ID
	row.CreatedAt = ev.CreatedAt

	ids := make([]uint, 0, len(ev.Answers))
	for id := range ev.Answers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		a := ev.Answers[id]
		row.Answers = append(row.Answers, model.EvaluationAnswer{
			QuestionID:  id,
			Response:    a.Response.Bool(),
			Observation: a.Observation,
			Options:     a.Options,
		})
	}
	return row
}

func fromModel(row *model.Evaluation) session.Evaluation {
	ev := session.Evaluation{
		ID:         row.ID,
		TenantID:   row.TenantID,
		EmployeeID: row.EmployeeID,
		FormID:     row.FormID,
		Answers:    make(scoring.Answers, len(row.Answers)),
		IsComplete: row.IsComplete,
		Notes:      row.Notes,
		Version:    row.Version,
		CreatedBy:  row.CreatedBy,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
		Result: scoring.Result{
			QuestionCount: row.QuestionCount,
			TotalYes:      row.TotalYes,
			TotalNo:       row.TotalNo,
			Severity: scoring.Breakdown{
				Light:  row.SeverityLight,
				Medium: row.SeverityMedium,
				High:   row.SeverityHigh,
			},
			CompletionPercentage: row.CompletionPercentage,
			PercentYes:           row.PercentYes,
			RiskLevel:            scoring.RiskLevel(row.RiskLevel),
		},
	}
	for _, a := range row.Answers {
		ev.Answers[a.QuestionID] = scoring.Answer{
			QuestionID:  a.QuestionID,
			Response:    scoring.ResponseOf(a.Response),
			Observation: a.Observation,
			Options:     append([]string(nil), a.Options...),
		}
	}
	ev.Result.Answered = ev.Answers.AnsweredCount()
	return ev
}
