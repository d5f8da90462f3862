package service

import (
	"fmt"
	"io"
	"istas_backend/internal/model"
	"istas_backend/internal/scoring"
	"istas_backend/internal/util"

	"gopkg.in/yaml.v3"
)

// CatalogDocument is the YAML seed format for risks and forms.
type CatalogDocument struct {
	Risks []RiskDocument `yaml:"risks" validate:"dive"`
	Forms []FormDocument `yaml:"forms" validate:"required,min=1,dive"`
}

type RiskDocument struct {
	Code        string `yaml:"code" validate:"required,max=50"`
	Description string `yaml:"description" validate:"required"`
	Severity    string `yaml:"severity" validate:"omitempty,severity"`
}

type FormDocument struct {
	Code        string            `yaml:"code" validate:"required,max=50"`
	Name        string            `yaml:"name" validate:"required,max=255"`
	Description string            `yaml:"description"`
	Active      *bool             `yaml:"active"`
	Sections    []SectionDocument `yaml:"sections" validate:"required,min=1,dive"`
}

type SectionDocument struct {
	Code      string             `yaml:"code" validate:"required,max=50"`
	Title     string             `yaml:"title" validate:"required,max=255"`
	Order     *int               `yaml:"order"`
	Questions []QuestionDocument `yaml:"questions" validate:"required,min=1,dive"`
}

type QuestionDocument struct {
	Code                string   `yaml:"code" validate:"required,max=50"`
	Text                string   `yaml:"text" validate:"required"`
	Risk                string   `yaml:"risk"`
	Order               int      `yaml:"order"`
	RequiresObservation bool     `yaml:"requires_observation"`
	Options             []string `yaml:"options" validate:"dive,required"`
}

// ParseCatalog decodes and validates a seed document.
func ParseCatalog(r io.Reader) (*CatalogDocument, error) {
	var doc CatalogDocument
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrInvalidCatalog, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (d *CatalogDocument) Validate() error {
	if err := util.ValidateStruct(d); err != nil {
		return fmt.Errorf("%w: %v", util.ErrInvalidCatalog, err)
	}

	risks := make(map[string]bool, len(d.Risks))
	for _, r := range d.Risks {
		if risks[r.Code] {
			return fmt.Errorf("%w: duplicate risk %s", util.ErrInvalidCatalog, r.Code)
		}
		risks[r.Code] = true
	}

	forms := make(map[string]bool, len(d.Forms))
	for _, f := range d.Forms {
		if forms[f.Code] {
			return fmt.Errorf("%w: duplicate form %s", util.ErrInvalidCatalog, f.Code)
		}
		forms[f.Code] = true

		sections := make(map[string]bool)
		questions := make(map[string]bool)
		for _, s := range f.Sections {
			if sections[s.Code] {
				return fmt.Errorf("%w: form %s: duplicate section %s", util.ErrInvalidCatalog, f.Code, s.Code)
			}
			sections[s.Code] = true
			for _, q := range s.Questions {
				if questions[q.Code] {
					return fmt.Errorf("%w: form %s: duplicate question %s", util.ErrInvalidCatalog, f.Code, q.Code)
				}
				questions[q.Code] = true
			}
		}
	}
	return nil
}

func (d *CatalogDocument) riskModels() []model.Risk {
	out := make([]model.Risk, 0, len(d.Risks))
	for _, r := range d.Risks {
		risk := model.Risk{Code: r.Code, Description: r.Description}
		if sev, ok := scoring.ParseSeverity(r.Severity); ok {
			risk.Severity = &model.Severity{Tier: string(sev)}
		}
		out = append(out, risk)
	}
	return out
}

func (f *FormDocument) model() *model.Form {
	form := &model.Form{
		Code:        f.Code,
		Name:        f.Name,
		Description: f.Description,
		IsActive:    f.Active == nil || *f.Active,
	}
	for _, s := range f.Sections {
		section := model.Section{Code: s.Code, Title: s.Title, Order: s.Order}
		for _, q := range s.Questions {
			section.Questions = append(section.Questions, model.Question{
				Code:                q.Code,
				Text:                q.Text,
				RiskCode:            q.Risk,
				Order:               q.Order,
				RequiresObservation: q.RequiresObservation,
				Options:             q.Options,
			})
		}
		form.Sections = append(form.Sections, section)
	}
	return form
}
