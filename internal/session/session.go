package session

import (
	"context"
	"fmt"
	"strings"

	"istas_backend/internal/scoring"
)

// Session holds the answer state of one analyst filling one employee's form.
// It is not safe for concurrent use; each session belongs to a single user.
type Session struct {
	sc    Context
	store Store

	state      State
	employeeID uint
	form       *Form
	sections   []Section
	meta       *scoring.Metadata
	answers    scoring.Answers
	active     int
	notes      string
	current    *Evaluation
	history    []Evaluation
	readOnly   bool
	result     *scoring.Result
}

func New(sc Context, store Store) *Session {
	return &Session{
		sc:      sc,
		store:   store,
		state:   StateSelecting,
		meta:    scoring.NewMetadata(nil, nil),
		answers: scoring.Answers{},
	}
}

func (s *Session) State() State { return s.state }

func (s *Session) Context() Context { return s.sc }

func (s *Session) EmployeeID() uint { return s.employeeID }

func (s *Session) Form() *Form { return s.form }

func (s *Session) Metadata() *scoring.Metadata { return s.meta }

// Answers returns a copy of the current answer map.
func (s *Session) Answers() scoring.Answers {
	return s.answers.Clone()
}

// SelectEmployee switches the employee being evaluated. Unsaved answers are
// discarded.
func (s *Session) SelectEmployee(employeeID uint) error {
	if employeeID == 0 {
		return ErrMissingEmployee
	}
	s.employeeID = employeeID
	s.history = nil
	s.reset()
	s.settle()
	return nil
}

// SelectForm loads a form definition, partitioned into ordered sections.
// Unsaved answers are discarded.
func (s *Session) SelectForm(form *Form) error {
	if form == nil {
		return ErrNoForm
	}
	s.load(form)
	s.history = nil
	s.reset()
	s.settle()
	return nil
}

func (s *Session) load(form *Form) {
	f := *form
	f.Sections = SortSections(form.Sections)
	s.form = &f
	s.sections = f.Sections
	s.meta = f.Metadata()
}

func (s *Session) reset() {
	s.answers = scoring.Answers{}
	s.active = 0
	s.notes = ""
	s.current = nil
	s.readOnly = false
	s.result = nil
}

// settle derives the filling state from the current selection and answers.
func (s *Session) settle() {
	switch {
	case s.employeeID == 0 || s.form == nil:
		s.state = StateSelecting
	case s.meta.QuestionCount() > 0 && len(scoring.MissingResponses(s.answers, s.meta)) == 0:
		s.state = StateAwaitingCompletion
	default:
		s.state = StateInProgress
	}
}

func (s *Session) editable() bool {
	return !s.readOnly && (s.state == StateInProgress || s.state == StateAwaitingCompletion)
}

func (s *Session) requireEditable(op string) error {
	if !s.editable() {
		return invalidTransition(op, s.state)
	}
	return nil
}

func (s *Session) question(id uint) (scoring.Question, error) {
	q, ok := s.meta.Question(id)
	if !ok {
		return q, fmt.Errorf("%w: %d", ErrUnknownQuestion, id)
	}
	return q, nil
}

func (s *Session) AnswerQuestion(questionID uint, r scoring.Response) error {
	if err := s.requireEditable("answer"); err != nil {
		return err
	}
	if _, err := s.question(questionID); err != nil {
		return err
	}
	ans := s.answers[questionID]
	ans.QuestionID = questionID
	ans.Response = r
	s.answers[questionID] = ans
	s.settle()
	return nil
}

// SetObservation records free text for a question. Blank text clears it.
func (s *Session) SetObservation(questionID uint, text string) error {
	if err := s.requireEditable("observation"); err != nil {
		return err
	}
	if _, err := s.question(questionID); err != nil {
		return err
	}
	ans := s.answers[questionID]
	ans.QuestionID = questionID
	if strings.TrimSpace(text) == "" {
		ans.Observation = nil
	} else {
		ans.Observation = &text
	}
	s.answers[questionID] = ans
	return nil
}

// SetOptions replaces the selected options of a multiple-choice question.
func (s *Session) SetOptions(questionID uint, options []string) error {
	if err := s.requireEditable("options"); err != nil {
		return err
	}
	q, err := s.question(questionID)
	if err != nil {
		return err
	}
	if len(q.Options) > 0 {
		offered := make(map[string]bool, len(q.Options))
		for _, o := range q.Options {
			offered[o] = true
		}
		for _, o := range options {
			if !offered[o] {
				return fmt.Errorf("%w: %q", ErrUnknownOption, o)
			}
		}
	}
	ans := s.answers[questionID]
	ans.QuestionID = questionID
	if len(options) == 0 {
		ans.Options = nil
	} else {
		ans.Options = append([]string(nil), options...)
	}
	s.answers[questionID] = ans
	return nil
}

func (s *Session) SetNotes(notes string) error {
	if err := s.requireEditable("notes"); err != nil {
		return err
	}
	s.notes = notes
	return nil
}

func (s *Session) requireSections(op string) error {
	if s.state == StateSelecting || s.form == nil {
		return invalidTransition(op, s.state)
	}
	return nil
}

// GoToSection moves to any section; it never requires the current section
// to be answered.
func (s *Session) GoToSection(sectionID uint) error {
	if err := s.requireSections("goto section"); err != nil {
		return err
	}
	for i, sec := range s.sections {
		if sec.ID == sectionID {
			s.active = i
			return nil
		}
	}
	return fmt.Errorf("%w: %d", ErrUnknownSection, sectionID)
}

func (s *Session) NextSection() error {
	if err := s.requireSections("next section"); err != nil {
		return err
	}
	if s.active+1 >= len(s.sections) {
		return ErrSectionOutOfRange
	}
	s.active++
	return nil
}

func (s *Session) PreviousSection() error {
	if err := s.requireSections("previous section"); err != nil {
		return err
	}
	if s.active == 0 {
		return ErrSectionOutOfRange
	}
	s.active--
	return nil
}

func (s *Session) draft(complete bool) Evaluation {
	ev := Evaluation{
		TenantID:   s.sc.TenantID,
		EmployeeID: s.employeeID,
		FormID:     s.form.ID,
		Answers:    s.answers.Clone(),
		Result:     scoring.Evaluate(s.answers, s.meta),
		IsComplete: complete,
		Notes:      s.notes,
		CreatedBy:  s.sc.UserID,
	}
	if s.current != nil {
		ev.ID = s.current.ID
		ev.Version = s.current.Version
		ev.CreatedAt = s.current.CreatedAt
		ev.CreatedBy = s.current.CreatedBy
	}
	return ev
}

// adopt makes a freshly persisted evaluation the session's backing record
// and keeps the history list in sync with it.
func (s *Session) adopt(saved Evaluation) {
	c := saved.clone()
	s.current = &c
	for i := range s.history {
		if s.history[i].ID == saved.ID {
			s.history[i] = saved.clone()
			return
		}
	}
	s.history = append([]Evaluation{saved.clone()}, s.history...)
}

// SaveProgress persists the current answers as a partial evaluation.
// Coverage is not required.
func (s *Session) SaveProgress(ctx context.Context) (Evaluation, error) {
	if err := s.requireEditable("save"); err != nil {
		return Evaluation{}, err
	}
	saved, err := s.store.SaveEvaluation(ctx, s.sc, s.draft(false), SaveOptions{Complete: false})
	if err != nil {
		return Evaluation{}, err
	}
	s.adopt(saved)
	return saved.clone(), nil
}

// CompleteEvaluation validates full coverage, persists the evaluation as
// complete and moves to the results. On any failure the state is unchanged.
func (s *Session) CompleteEvaluation(ctx context.Context) (Evaluation, error) {
	if err := s.requireEditable("complete"); err != nil {
		return Evaluation{}, err
	}
	if s.meta.QuestionCount() == 0 {
		return Evaluation{}, ErrEmptyForm
	}
	missing := scoring.MissingResponses(s.answers, s.meta)
	observations := scoring.MissingObservations(s.answers, s.meta)
	if len(missing) > 0 || len(observations) > 0 {
		return Evaluation{}, &IncompleteSubmissionError{
			Missing:             len(missing),
			QuestionIDs:         missing,
			MissingObservations: observations,
		}
	}

	ev := s.draft(true)
	saved, err := s.store.SaveEvaluation(ctx, s.sc, ev, SaveOptions{Complete: true})
	if err != nil {
		return Evaluation{}, err
	}
	s.adopt(saved)
	result := ev.Result
	s.result = &result
	s.state = StateCompleted
	return saved.clone(), nil
}

// StartNewEvaluation clears the answers for a fresh evaluation of the same
// employee and form.
func (s *Session) StartNewEvaluation() error {
	if s.state != StateCompleted && s.state != StateHistoryView {
		return invalidTransition("start new", s.state)
	}
	s.reset()
	s.settle()
	return nil
}

// ExitResults leaves the results view.
func (s *Session) ExitResults() error {
	if s.state != StateCompleted {
		return invalidTransition("exit results", s.state)
	}
	s.readOnly = true
	if len(s.history) > 0 {
		s.state = StateHistoryView
		return nil
	}
	s.reset()
	s.state = StateSelecting
	return nil
}

// OpenHistory loads the employee's evaluations of the selected form and
// switches to the read-only history view. Unsaved answers are discarded.
func (s *Session) OpenHistory(ctx context.Context) ([]Evaluation, error) {
	if s.employeeID == 0 || s.form == nil {
		return nil, invalidTransition("open history", s.state)
	}
	all, err := s.store.LoadEvaluationHistory(ctx, s.sc, s.employeeID)
	if err != nil {
		return nil, err
	}
	s.history = s.history[:0]
	for _, ev := range all {
		if ev.FormID == s.form.ID {
			s.history = append(s.history, ev.clone())
		}
	}
	s.reset()
	s.readOnly = true
	s.state = StateHistoryView
	return s.History(), nil
}

func (s *Session) History() []Evaluation {
	out := make([]Evaluation, len(s.history))
	for i, ev := range s.history {
		out[i] = ev.clone()
	}
	return out
}

func (s *Session) findHistory(id string) (Evaluation, bool) {
	for _, ev := range s.history {
		if ev.ID == id {
			return ev, true
		}
	}
	return Evaluation{}, false
}

// ViewEvaluation shows a past evaluation read-only.
func (s *Session) ViewEvaluation(evaluationID string) error {
	if s.state != StateHistoryView {
		return invalidTransition("view evaluation", s.state)
	}
	ev, ok := s.findHistory(evaluationID)
	if !ok {
		return ErrNotInHistory
	}
	s.show(ev)
	s.readOnly = true
	result := ev.Result
	s.result = &result
	return nil
}

// ReopenForEdit loads a past evaluation back into the filling flow.
func (s *Session) ReopenForEdit(evaluationID string) error {
	if s.state != StateHistoryView {
		return invalidTransition("reopen", s.state)
	}
	ev, ok := s.findHistory(evaluationID)
	if !ok {
		return ErrNotInHistory
	}
	s.show(ev)
	s.readOnly = false
	s.result = nil
	s.settle()
	return nil
}

func (s *Session) show(ev Evaluation) {
	c := ev.clone()
	s.current = &c
	s.answers = s.meta.Known(c.Answers)
	s.notes = c.Notes
	s.active = 0
}

// DeleteEvaluation removes a past evaluation through the store.
func (s *Session) DeleteEvaluation(ctx context.Context, evaluationID string) error {
	if s.state != StateHistoryView {
		return invalidTransition("delete evaluation", s.state)
	}
	if _, ok := s.findHistory(evaluationID); !ok {
		return ErrNotInHistory
	}
	if err := s.store.DeleteEvaluation(ctx, s.sc, evaluationID); err != nil {
		return err
	}
	kept := s.history[:0]
	for _, ev := range s.history {
		if ev.ID != evaluationID {
			kept = append(kept, ev)
		}
	}
	s.history = kept
	if s.current != nil && s.current.ID == evaluationID {
		s.reset()
		s.readOnly = true
	}
	return nil
}
