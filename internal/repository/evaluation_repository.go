package repository

import (
	"context"
	"errors"
	"istas_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EvaluationRepository struct {
	DB *gorm.DB
}

func NewEvaluationRepository(db *gorm.DB) *EvaluationRepository {
	return &EvaluationRepository{DB: db}
}

// ListByEmployee returns the employee's evaluations, newest first, answers
// preloaded. formID 0 means every form.
func (r *EvaluationRepository) ListByEmployee(ctx context.Context, tenantID string, employeeID, formID uint) ([]model.Evaluation, error) {
	var evs []model.Evaluation
	query := r.DB.WithContext(ctx).
		Preload("Answers").
		Where("tenant_id = ? AND employee_id = ?", tenantID, employeeID)
	if formID > 0 {
		query = query.Where("form_id = ?", formID)
	}
	err := query.Order("updated_at desc, created_at desc").Find(&evs).Error
	return evs, err
}

func (r *EvaluationRepository) FindByID(ctx context.Context, tenantID, id string) (*model.Evaluation, error) {
	var ev model.Evaluation
	err := r.DB.WithContext(ctx).
		Preload("Answers").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&ev).Error
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// Save inserts a new evaluation (empty ID) or updates an existing one whose
// stored version equals ev.Version. Answers are replaced in the same
// transaction. On success ev carries the new id and version.
func (r *EvaluationRepository) Save(ctx context.Context, ev *model.Evaluation) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		answers := ev.Answers
		defer func() { ev.Answers = answers }()

		if ev.ID == "" {
			ev.Version = 1
			if err := tx.Omit(clause.Associations).Create(ev).Error; err != nil {
				return err
			}
		} else {
			expected := ev.Version
			now := time.Now()
			res := tx.Model(&model.Evaluation{}).
				Where("id = ? AND tenant_id = ? AND version = ?", ev.ID, ev.TenantID, expected).
				Updates(map[string]interface{}{
					"total_yes":             ev.TotalYes,
					"total_no":              ev.TotalNo,
					"question_count":        ev.QuestionCount,
					"severity_light":        ev.SeverityLight,
					"severity_medium":       ev.SeverityMedium,
					"severity_high":         ev.SeverityHigh,
					"completion_percentage": ev.CompletionPercentage,
					"percent_yes":           ev.PercentYes,
					"risk_level":            ev.RiskLevel,
					"is_complete":           ev.IsComplete,
					"completed_at":          ev.CompletedAt,
					"notes":                 ev.Notes,
					"version":               expected + 1,
					"updated_at":            now,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				var count int64
				if err := tx.Model(&model.Evaluation{}).
					Where("id = ? AND tenant_id = ?", ev.ID, ev.TenantID).
					Count(&count).Error; err != nil {
					return err
				}
				if count == 0 {
					return gorm.ErrRecordNotFound
				}
				return ErrVersionConflict
			}
			ev.Version = expected + 1
			ev.UpdatedAt = now

			if err := tx.Where("evaluation_id = ?", ev.ID).Delete(&model.EvaluationAnswer{}).Error; err != nil {
				return err
			}
		}

		if len(answers) == 0 {
			return nil
		}
		for i := range answers {
			answers[i].ID = 0
			answers[i].EvaluationID = ev.ID
		}
		return tx.Create(&answers).Error
	})
}

// Delete removes the evaluation and its answers. The evaluation row is
// soft-deleted, answers are removed for good.
func (r *EvaluationRepository) Delete(ctx context.Context, tenantID, id string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&model.Evaluation{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("evaluation_id = ?", id).Delete(&model.EvaluationAnswer{}).Error
	})
}

// LatestCompleted returns, per employee of the company, the most recent
// completed evaluation of the form.
func (r *EvaluationRepository) LatestCompleted(ctx context.Context, tenantID string, companyID, formID uint) ([]model.Evaluation, error) {
	var evs []model.Evaluation
	err := r.DB.WithContext(ctx).
		Preload("Answers").
		Joins("JOIN employees ON employees.id = evaluations.employee_id AND employees.deleted_at IS NULL").
		Where("evaluations.tenant_id = ? AND employees.company_id = ? AND evaluations.form_id = ? AND evaluations.is_complete = ?",
			tenantID, companyID, formID, true).
		Order("evaluations.employee_id asc, evaluations.completed_at desc, evaluations.updated_at desc").
		Find(&evs).Error
	if err != nil {
		return nil, err
	}

	latest := evs[:0]
	var last uint
	for i, ev := range evs {
		if i > 0 && ev.EmployeeID == last {
			continue
		}
		last = ev.EmployeeID
		latest = append(latest, ev)
	}
	return latest, nil
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
