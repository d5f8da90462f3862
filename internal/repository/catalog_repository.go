package repository

import (
	"context"
	"errors"
	"fmt"
	"istas_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CatalogRepository struct {
	DB *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{DB: db}
}

func (r *CatalogRepository) ListForms(ctx context.Context, activeOnly bool) ([]model.Form, error) {
	var forms []model.Form
	query := r.DB.WithContext(ctx).Model(&model.Form{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Order("name asc").Find(&forms).Error
	return forms, err
}

// FindFormByID loads a form with its sections, questions, risks and severities.
func (r *CatalogRepository) FindFormByID(ctx context.Context, id uint) (*model.Form, error) {
	var form model.Form
	err := r.DB.WithContext(ctx).
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order asc, id asc")
		}).
		Preload("Sections.Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order asc, id asc")
		}).
		Preload("Sections.Questions.Risk.Severity").
		First(&form, id).Error
	if err != nil {
		return nil, err
	}
	return &form, nil
}

func (r *CatalogRepository) FindFormByCode(ctx context.Context, code string) (*model.Form, error) {
	var form model.Form
	if err := r.DB.WithContext(ctx).Where("code = ?", code).First(&form).Error; err != nil {
		return nil, err
	}
	return r.FindFormByID(ctx, form.ID)
}

func (r *CatalogRepository) ListSeverities(ctx context.Context) ([]model.Severity, error) {
	var rows []model.Severity
	err := r.DB.WithContext(ctx).Order("id asc").Find(&rows).Error
	return rows, err
}

// ImportForm upserts risks by code and the form, its sections and questions
// by code. Question ids survive re-imports so stored answers stay valid;
// sections and questions missing from the document are soft-deleted.
// Risks carry their severity tier in Severity.Tier.
func (r *CatalogRepository) ImportForm(ctx context.Context, form *model.Form, risks []model.Risk) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		riskIDs := make(map[string]uint, len(risks))
		for i := range risks {
			if err := upsertRisk(tx, &risks[i]); err != nil {
				return err
			}
			riskIDs[risks[i].Code] = risks[i].ID
		}

		if err := upsertByCode(tx, form, "code = ?", []interface{}{form.Code},
			"name", "description", "is_active", "deleted_at"); err != nil {
			return err
		}

		var sectionIDs, questionIDs []uint
		for si := range form.Sections {
			s := &form.Sections[si]
			s.FormID = form.ID
			if err := upsertByCode(tx, s, "form_id = ? AND code = ?", []interface{}{form.ID, s.Code},
				"title", "display_order", "deleted_at"); err != nil {
				return err
			}
			sectionIDs = append(sectionIDs, s.ID)

			for qi := range s.Questions {
				q := &s.Questions[qi]
				q.FormID = form.ID
				q.SectionID = s.ID
				q.RiskID = nil
				if q.RiskCode != "" {
					id, err := resolveRisk(tx, riskIDs, q.RiskCode)
					if err != nil {
						return err
					}
					q.RiskID = &id
				}
				if err := upsertByCode(tx, q, "form_id = ? AND code = ?", []interface{}{form.ID, q.Code},
					"section_id", "text", "risk_id", "display_order", "requires_observation", "options", "deleted_at"); err != nil {
					return err
				}
				questionIDs = append(questionIDs, q.ID)
			}
		}

		if len(questionIDs) > 0 {
			if err := tx.Where("form_id = ? AND id NOT IN ?", form.ID, questionIDs).Delete(&model.Question{}).Error; err != nil {
				return err
			}
		}
		if len(sectionIDs) > 0 {
			if err := tx.Where("form_id = ? AND id NOT IN ?", form.ID, sectionIDs).Delete(&model.Section{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

type identified interface {
	*model.Form | *model.Section | *model.Question | *model.Risk
}

func idOf(v interface{}) *uint {
	switch m := v.(type) {
	case *model.Form:
		return &m.ID
	case *model.Section:
		return &m.ID
	case *model.Question:
		return &m.ID
	case *model.Risk:
		return &m.ID
	}
	panic(fmt.Sprintf("unsupported catalog row %T", v))
}

// upsertByCode finds a row (soft-deleted included) with the natural key and
// either restores and updates it or inserts a new one.
func upsertByCode[T identified](tx *gorm.DB, row T, where string, args []interface{}, columns ...string) error {
	*idOf(row) = 0
	var existing struct{ ID uint }
	err := tx.Unscoped().Model(row).Select("id").Where(where, args...).Take(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return tx.Omit(clause.Associations).Create(row).Error
	case err != nil:
		return err
	}
	*idOf(row) = existing.ID
	return tx.Unscoped().Model(row).Select(columns).Omit(clause.Associations).Updates(row).Error
}

func upsertRisk(tx *gorm.DB, risk *model.Risk) error {
	risk.SeverityID = nil
	if risk.Severity != nil && risk.Severity.Tier != "" {
		var sev model.Severity
		if err := tx.Where("tier = ?", risk.Severity.Tier).First(&sev).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrUnknownSeverity, risk.Severity.Tier)
			}
			return err
		}
		risk.SeverityID = &sev.ID
	}
	severity := risk.Severity
	risk.Severity = nil
	defer func() { risk.Severity = severity }()
	return upsertByCode(tx, risk, "code = ?", []interface{}{risk.Code}, "description", "severity_id", "deleted_at")
}

func resolveRisk(tx *gorm.DB, imported map[string]uint, code string) (uint, error) {
	if id, ok := imported[code]; ok {
		return id, nil
	}
	var risk model.Risk
	if err := tx.Where("code = ?", code).First(&risk).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("%w: %s", ErrUnknownRisk, code)
		}
		return 0, err
	}
	imported[code] = risk.ID
	return risk.ID, nil
}
