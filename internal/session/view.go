package session

import (
	"time"

	"istas_backend/internal/scoring"
)

type SectionView struct {
	ID       uint   `json:"id"`
	Title    string `json:"title"`
	Answered int    `json:"answered"`
	Total    int    `json:"total"`
	Complete bool   `json:"complete"`
	Active   bool   `json:"active"`
}

type HistoryEntry struct {
	ID         string            `json:"id"`
	IsComplete bool              `json:"isComplete"`
	PercentYes float64           `json:"percentYes"`
	RiskLevel  scoring.RiskLevel `json:"riskLevel"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// View is what the UI renders for the current session.
type View struct {
	State                State           `json:"state"`
	EmployeeID           uint            `json:"employeeId"`
	FormID               uint            `json:"formId,omitempty"`
	FormName             string          `json:"formName,omitempty"`
	EvaluationID         string          `json:"evaluationId,omitempty"`
	Version              int             `json:"version,omitempty"`
	ReadOnly             bool            `json:"readOnly"`
	ActiveSectionID      uint            `json:"activeSectionId,omitempty"`
	Sections             []SectionView   `json:"sections"`
	Answers              scoring.Answers `json:"answers"`
	CompletionPercentage int             `json:"completionPercentage"`
	Notes                string          `json:"notes,omitempty"`
	Result               *scoring.Result `json:"result,omitempty"`
	History              []HistoryEntry  `json:"history,omitempty"`
}

func (s *Session) View() View {
	v := View{
		State:                s.state,
		EmployeeID:           s.employeeID,
		ReadOnly:             s.readOnly,
		Answers:              s.answers.Clone(),
		CompletionPercentage: scoring.CompletionPercentage(s.meta.Known(s.answers), s.meta.QuestionCount()),
		Notes:                s.notes,
		Sections:             make([]SectionView, 0, len(s.sections)),
	}
	if s.form != nil {
		v.FormID = s.form.ID
		v.FormName = s.form.Name
	}
	if s.current != nil {
		v.EvaluationID = s.current.ID
		v.Version = s.current.Version
	}
	if s.result != nil {
		r := *s.result
		v.Result = &r
	}
	for i, sec := range s.sections {
		sv := SectionView{ID: sec.ID, Title: sec.Title, Total: len(sec.Questions), Active: i == s.active}
		for _, q := range sec.Questions {
			if s.answers[q.ID].Response.Answered() {
				sv.Answered++
			}
		}
		sv.Complete = sv.Answered == sv.Total
		if sv.Active {
			v.ActiveSectionID = sec.ID
		}
		v.Sections = append(v.Sections, sv)
	}
	for _, ev := range s.history {
		v.History = append(v.History, HistoryEntry{
			ID:         ev.ID,
			IsComplete: ev.IsComplete,
			PercentYes: ev.Result.PercentYes,
			RiskLevel:  ev.Result.RiskLevel,
			CreatedAt:  ev.CreatedAt,
			UpdatedAt:  ev.UpdatedAt,
		})
	}
	return v
}

// ActiveSection returns the section being filled, if any.
func (s *Session) ActiveSection() (Section, bool) {
	if s.active < 0 || s.active >= len(s.sections) {
		return Section{}, false
	}
	return s.sections[s.active], true
}
