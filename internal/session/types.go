package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"istas_backend/internal/scoring"
)

type State string

const (
	StateSelecting          State = "selecting"
	StateInProgress         State = "in_progress"
	StateAwaitingCompletion State = "awaiting_completion"
	StateCompleted          State = "completed"
	StateHistoryView        State = "history_view"
)

func (s State) valid() bool {
	switch s {
	case StateSelecting, StateInProgress, StateAwaitingCompletion, StateCompleted, StateHistoryView:
		return true
	}
	return false
}

// Context identifies the tenant and user behind every data access.
type Context struct {
	TenantID string `json:"tenantId"`
	UserID   uint   `json:"userId"`
	Role     string `json:"role"`
}

type Section struct {
	ID        uint               `json:"id"`
	Title     string             `json:"title"`
	Order     *int               `json:"order,omitempty"`
	Questions []scoring.Question `json:"questions"`
}

// Form is a questionnaire definition as supplied by the catalog.
type Form struct {
	ID       uint           `json:"id"`
	Name     string         `json:"name"`
	Sections []Section      `json:"sections"`
	Risks    []scoring.Risk `json:"risks,omitempty"`
}

func (f *Form) Metadata() *scoring.Metadata {
	if f == nil {
		return scoring.NewMetadata(nil, nil)
	}
	var questions []scoring.Question
	for _, sec := range f.Sections {
		questions = append(questions, sec.Questions...)
	}
	return scoring.NewMetadata(questions, f.Risks)
}

// SortSections orders sections by their Order field. Sections without an
// order go last; ties keep their input order. Questions inside each section
// are ordered the same way by their display order.
func SortSections(sections []Section) []Section {
	out := make([]Section, len(sections))
	copy(out, sections)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Order, out[j].Order
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
	for i := range out {
		qs := append([]scoring.Question(nil), out[i].Questions...)
		sort.SliceStable(qs, func(a, b int) bool { return qs[a].Order < qs[b].Order })
		out[i].Questions = qs
	}
	return out
}

// Evaluation is the persisted form of a session's answers.
type Evaluation struct {
	ID         string          `json:"id"`
	TenantID   string          `json:"tenantId"`
	EmployeeID uint            `json:"employeeId"`
	FormID     uint            `json:"formId"`
	Answers    scoring.Answers `json:"answers"`
	Result     scoring.Result  `json:"result"`
	IsComplete bool            `json:"isComplete"`
	Notes      string          `json:"notes"`
	Version    int             `json:"version"`
	CreatedBy  uint            `json:"createdBy"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

func (e Evaluation) clone() Evaluation {
	c := e
	c.Answers = e.Answers.Clone()
	return c
}

type SaveOptions struct {
	Complete bool
}

// Store is the persistence adapter. Its errors are returned to callers
// unchanged; retries are the adapter's or the caller's business.
type Store interface {
	LoadEvaluationHistory(ctx context.Context, sc Context, employeeID uint) ([]Evaluation, error)
	SaveEvaluation(ctx context.Context, sc Context, ev Evaluation, opts SaveOptions) (Evaluation, error)
	DeleteEvaluation(ctx context.Context, sc Context, evaluationID string) error
}

var (
	ErrInvalidTransition = errors.New("transition not allowed in current state")
	ErrNoForm            = errors.New("no form selected")
	ErrUnknownQuestion   = errors.New("question does not belong to the form")
	ErrUnknownSection    = errors.New("section does not belong to the form")
	ErrUnknownOption     = errors.New("option is not offered by the question")
	ErrSectionOutOfRange = errors.New("no section in that direction")
	ErrNotInHistory      = errors.New("evaluation is not in the employee history")
	ErrFormMismatch      = errors.New("snapshot belongs to a different form")
	ErrInvalidSnapshot   = errors.New("invalid session snapshot")
	ErrMissingEmployee   = errors.New("no employee selected")
	ErrEmptyForm         = errors.New("form has no questions")
)

func invalidTransition(op string, from State) error {
	return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, op, from)
}

// IncompleteSubmissionError is returned by CompleteEvaluation while
// questions remain unanswered or required observations are missing.
type IncompleteSubmissionError struct {
	Missing             int    `json:"missing"`
	QuestionIDs         []uint `json:"questionIds"`
	MissingObservations []uint `json:"missingObservations,omitempty"`
}

func (e *IncompleteSubmissionError) Error() string {
	if len(e.MissingObservations) > 0 {
		return fmt.Sprintf("evaluation incomplete: %d unanswered question(s), %d missing observation(s)",
			e.Missing, len(e.MissingObservations))
	}
	return fmt.Sprintf("evaluation incomplete: %d unanswered question(s)", e.Missing)
}
