package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"istas_backend/internal/scoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	evaluations map[string]Evaluation
	saves       []SaveOptions
	seq         int
	failWith    error
}

func newMemStore() *memStore {
	return &memStore{evaluations: map[string]Evaluation{}}
}

func (m *memStore) LoadEvaluationHistory(_ context.Context, sc Context, employeeID uint) ([]Evaluation, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	var out []Evaluation
	for _, ev := range m.evaluations {
		if ev.EmployeeID == employeeID && ev.TenantID == sc.TenantID {
			out = append(out, ev.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memStore) SaveEvaluation(_ context.Context, _ Context, ev Evaluation, opts SaveOptions) (Evaluation, error) {
	if m.failWith != nil {
		return Evaluation{}, m.failWith
	}
	m.saves = append(m.saves, opts)
	if ev.ID == "" {
		m.seq++
		ev.ID = fmt.Sprintf("ev-%03d", m.seq)
		ev.CreatedAt = time.Date(2026, 1, m.seq, 0, 0, 0, 0, time.UTC)
	}
	ev.Version++
	ev.IsComplete = opts.Complete
	ev.UpdatedAt = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	m.evaluations[ev.ID] = ev.clone()
	return ev, nil
}

func (m *memStore) DeleteEvaluation(_ context.Context, _ Context, id string) error {
	if m.failWith != nil {
		return m.failWith
	}
	delete(m.evaluations, id)
	return nil
}

func intPtr(v int) *int { return &v }

// testForm builds a form with the given number of questions spread over
// three sections supplied out of order.
func testForm(questionCount int) *Form {
	sections := []Section{
		{ID: 30, Title: "Sem ordem"},
		{ID: 20, Title: "Segunda", Order: intPtr(2)},
		{ID: 10, Title: "Primeira", Order: intPtr(1)},
	}
	for i := 1; i <= questionCount; i++ {
		sec := &sections[i%3]
		sec.Questions = append(sec.Questions, scoring.Question{
			ID:        uint(i),
			Text:      fmt.Sprintf("Pergunta %d", i),
			RiskID:    uint(100 + i%3),
			SectionID: sec.ID,
			Order:     questionCount - i,
		})
	}
	return &Form{
		ID:       7,
		Name:     "ISTAS21-BR",
		Sections: sections,
		Risks: []scoring.Risk{
			{ID: 100, Severity: scoring.SeverityLight},
			{ID: 101, Severity: scoring.SeverityMedium},
			{ID: 102, Severity: scoring.SeverityHigh},
		},
	}
}

var sc = Context{TenantID: "acme", UserID: 3, Role: "analyst"}

func startedSession(t *testing.T, store Store, questions int) *Session {
	t.Helper()
	s := New(sc, store)
	require.NoError(t, s.SelectEmployee(42))
	require.Equal(t, StateSelecting, s.State())
	require.NoError(t, s.SelectForm(testForm(questions)))
	require.Equal(t, StateInProgress, s.State())
	return s
}

func answerAll(t *testing.T, s *Session, except ...uint) {
	t.Helper()
	skip := map[uint]bool{}
	for _, id := range except {
		skip[id] = true
	}
	for _, id := range s.Metadata().QuestionIDs() {
		if skip[id] {
			continue
		}
		r := scoring.No
		if id%2 == 1 {
			r = scoring.Yes
		}
		require.NoError(t, s.AnswerQuestion(id, r))
	}
}

func TestSelectFormOrdersSections(t *testing.T) {
	s := startedSession(t, newMemStore(), 6)

	v := s.View()
	require.Len(t, v.Sections, 3)
	assert.Equal(t, []uint{10, 20, 30}, []uint{v.Sections[0].ID, v.Sections[1].ID, v.Sections[2].ID})
	assert.Equal(t, uint(10), v.ActiveSectionID)

	sec, ok := s.ActiveSection()
	require.True(t, ok)
	require.Len(t, sec.Questions, 2)
	assert.Less(t, sec.Questions[0].Order, sec.Questions[1].Order)
}

func TestSortSectionsKeepsTiesStable(t *testing.T) {
	in := []Section{
		{ID: 1},
		{ID: 2, Order: intPtr(5)},
		{ID: 3, Order: intPtr(5)},
		{ID: 4},
		{ID: 5, Order: intPtr(0)},
	}
	out := SortSections(in)
	var ids []uint
	for _, sec := range out {
		ids = append(ids, sec.ID)
	}
	assert.Equal(t, []uint{5, 2, 3, 1, 4}, ids)
	assert.Equal(t, uint(1), in[0].ID, "input must not be reordered")
}

func TestAnsweringMovesBetweenProgressStates(t *testing.T) {
	s := startedSession(t, newMemStore(), 4)

	answerAll(t, s)
	assert.Equal(t, StateAwaitingCompletion, s.State())

	require.NoError(t, s.AnswerQuestion(2, scoring.Unanswered))
	assert.Equal(t, StateInProgress, s.State())

	err := s.AnswerQuestion(99, scoring.Yes)
	assert.ErrorIs(t, err, ErrUnknownQuestion)
}

func TestObservationAndOptionsAreIndependentOfResponse(t *testing.T) {
	form := testForm(3)
	form.Sections[2].Questions[0].Options = []string{"manhã", "tarde", "noite"}
	qid := form.Sections[2].Questions[0].ID

	s := New(sc, newMemStore())
	require.NoError(t, s.SelectEmployee(1))
	require.NoError(t, s.SelectForm(form))

	require.NoError(t, s.SetObservation(qid, "turnos alternados"))
	require.NoError(t, s.SetOptions(qid, []string{"manhã", "noite"}))

	ans := s.Answers()[qid]
	assert.Equal(t, scoring.Unanswered, ans.Response)
	require.NotNil(t, ans.Observation)
	assert.Equal(t, "turnos alternados", *ans.Observation)
	assert.Equal(t, []string{"manhã", "noite"}, ans.Options)

	assert.ErrorIs(t, s.SetOptions(qid, []string{"madrugada"}), ErrUnknownOption)

	require.NoError(t, s.SetObservation(qid, "   "))
	assert.Nil(t, s.Answers()[qid].Observation)
}

func TestNavigationIsUnrestricted(t *testing.T) {
	s := startedSession(t, newMemStore(), 6)

	assert.ErrorIs(t, s.PreviousSection(), ErrSectionOutOfRange)
	require.NoError(t, s.NextSection())
	require.NoError(t, s.NextSection())
	assert.Equal(t, uint(30), s.View().ActiveSectionID)
	assert.ErrorIs(t, s.NextSection(), ErrSectionOutOfRange)

	require.NoError(t, s.GoToSection(20))
	assert.Equal(t, uint(20), s.View().ActiveSectionID)
	assert.ErrorIs(t, s.GoToSection(999), ErrUnknownSection)

	fresh := New(sc, newMemStore())
	assert.ErrorIs(t, fresh.NextSection(), ErrInvalidTransition)
}

func TestCompleteRejectsMissingAnswers(t *testing.T) {
	store := newMemStore()
	s := startedSession(t, store, 20)
	answerAll(t, s, 4, 17)

	_, err := s.CompleteEvaluation(context.Background())

	var incomplete *IncompleteSubmissionError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, 2, incomplete.Missing)
	assert.Equal(t, []uint{4, 17}, incomplete.QuestionIDs)
	assert.Equal(t, StateInProgress, s.State())
	assert.Empty(t, store.saves)
}

func TestCompleteRejectsMissingRequiredObservation(t *testing.T) {
	form := testForm(3)
	form.Sections[1].Questions[0].RequiresObservation = true
	qid := form.Sections[1].Questions[0].ID

	s := New(sc, newMemStore())
	require.NoError(t, s.SelectEmployee(1))
	require.NoError(t, s.SelectForm(form))
	answerAll(t, s)
	require.NoError(t, s.AnswerQuestion(qid, scoring.Yes))

	_, err := s.CompleteEvaluation(context.Background())
	var incomplete *IncompleteSubmissionError
	require.ErrorAs(t, err, &incomplete)
	assert.Zero(t, incomplete.Missing)
	assert.Equal(t, []uint{qid}, incomplete.MissingObservations)

	require.NoError(t, s.SetObservation(qid, "relato do colaborador"))
	_, err = s.CompleteEvaluation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, s.State())
}

func TestCompleteRejectsFormWithoutQuestions(t *testing.T) {
	store := newMemStore()
	s := startedSession(t, store, 0)
	assert.Equal(t, StateInProgress, s.State())

	_, err := s.CompleteEvaluation(context.Background())

	require.ErrorIs(t, err, ErrEmptyForm)
	assert.Equal(t, StateInProgress, s.State())
	assert.Nil(t, s.result)
	assert.Empty(t, store.saves)
}

func TestCompleteFlow(t *testing.T) {
	store := newMemStore()
	s := startedSession(t, store, 4)
	answerAll(t, s)
	require.NoError(t, s.SetNotes("ambiente ruidoso"))

	ev, err := s.CompleteEvaluation(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateCompleted, s.State())
	assert.True(t, ev.IsComplete)
	assert.Equal(t, []SaveOptions{{Complete: true}}, store.saves)
	assert.Equal(t, "ambiente ruidoso", ev.Notes)

	v := s.View()
	require.NotNil(t, v.Result)
	assert.Equal(t, 2, v.Result.TotalYes)
	assert.Equal(t, 2, v.Result.TotalNo)
	assert.Equal(t, 50.0, v.Result.PercentYes)
	assert.Equal(t, scoring.RiskConsiderable, v.Result.RiskLevel)
	assert.Equal(t, 100, v.CompletionPercentage)

	require.NoError(t, s.ExitResults())
	assert.Equal(t, StateHistoryView, s.State())
	require.Len(t, s.History(), 1)

	require.NoError(t, s.StartNewEvaluation())
	assert.Equal(t, StateInProgress, s.State())
	assert.Empty(t, s.Answers())
	assert.Empty(t, s.View().EvaluationID)
}

func TestPersistenceFailureIsReturnedUntouched(t *testing.T) {
	store := newMemStore()
	s := startedSession(t, store, 2)
	answerAll(t, s)

	boom := errors.New("connection reset")
	store.failWith = boom

	_, err := s.CompleteEvaluation(context.Background())
	assert.Same(t, boom, err)
	assert.Equal(t, StateAwaitingCompletion, s.State())

	_, err = s.SaveProgress(context.Background())
	assert.Same(t, boom, err)
}

func TestPartialSaveRoundTrip(t *testing.T) {
	store := newMemStore()
	s := startedSession(t, store, 6)
	obs := "pressão por metas"
	require.NoError(t, s.AnswerQuestion(1, scoring.Yes))
	require.NoError(t, s.AnswerQuestion(2, scoring.No))
	require.NoError(t, s.SetObservation(1, obs))
	require.NoError(t, s.SetOptions(3, []string{"x"}))
	saved := s.Answers()

	ev, err := s.SaveProgress(context.Background())
	require.NoError(t, err)
	assert.False(t, ev.IsComplete)
	assert.Equal(t, StateInProgress, s.State())
	assert.Equal(t, 1, ev.Result.TotalYes)

	reloaded := New(sc, store)
	require.NoError(t, reloaded.SelectEmployee(42))
	require.NoError(t, reloaded.SelectForm(testForm(6)))
	history, err := reloaded.OpenHistory(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, StateHistoryView, reloaded.State())

	require.NoError(t, reloaded.ReopenForEdit(ev.ID))
	assert.Equal(t, StateInProgress, reloaded.State())
	assert.Equal(t, saved, reloaded.Answers())

	// a second save updates the same record
	require.NoError(t, reloaded.AnswerQuestion(4, scoring.Yes))
	again, err := reloaded.SaveProgress(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ev.ID, again.ID)
	assert.Equal(t, ev.Version+1, again.Version)
}

func TestHistoryViewIsReadOnly(t *testing.T) {
	store := newMemStore()
	s := startedSession(t, store, 2)
	answerAll(t, s)
	ev, err := s.CompleteEvaluation(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.ExitResults())

	require.NoError(t, s.ViewEvaluation(ev.ID))
	assert.True(t, s.View().ReadOnly)
	assert.ErrorIs(t, s.AnswerQuestion(1, scoring.No), ErrInvalidTransition)
	assert.ErrorIs(t, s.ViewEvaluation("missing"), ErrNotInHistory)
	require.NoError(t, s.GoToSection(20))

	require.NoError(t, s.ReopenForEdit(ev.ID))
	assert.False(t, s.View().ReadOnly)
	assert.Equal(t, StateAwaitingCompletion, s.State())
	require.NoError(t, s.AnswerQuestion(1, scoring.No))
}

func TestSwitchingEmployeeDiscardsAnswers(t *testing.T) {
	s := startedSession(t, newMemStore(), 3)
	require.NoError(t, s.AnswerQuestion(1, scoring.Yes))

	require.NoError(t, s.SelectEmployee(43))
	assert.Empty(t, s.Answers())
	assert.Equal(t, StateInProgress, s.State())

	require.NoError(t, s.AnswerQuestion(1, scoring.Yes))
	require.NoError(t, s.SelectForm(testForm(3)))
	assert.Empty(t, s.Answers())
}

func TestInvalidTransitions(t *testing.T) {
	s := New(sc, newMemStore())
	assert.ErrorIs(t, s.AnswerQuestion(1, scoring.Yes), ErrInvalidTransition)
	_, err := s.SaveProgress(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.ErrorIs(t, s.StartNewEvaluation(), ErrInvalidTransition)
	assert.ErrorIs(t, s.ExitResults(), ErrInvalidTransition)
	_, err = s.OpenHistory(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.ErrorIs(t, s.SelectEmployee(0), ErrMissingEmployee)
	assert.ErrorIs(t, s.SelectForm(nil), ErrNoForm)
}

func TestDeleteEvaluationFromHistory(t *testing.T) {
	store := newMemStore()
	s := startedSession(t, store, 2)
	answerAll(t, s)
	ev, err := s.CompleteEvaluation(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.ExitResults())

	require.NoError(t, s.DeleteEvaluation(context.Background(), ev.ID))
	assert.Empty(t, s.History())
	assert.Empty(t, store.evaluations)
	assert.Empty(t, s.Answers())
}

func TestSectionCompletionFlags(t *testing.T) {
	s := startedSession(t, newMemStore(), 6)
	sec, _ := s.ActiveSection()
	for _, q := range sec.Questions {
		require.NoError(t, s.AnswerQuestion(q.ID, scoring.No))
	}

	v := s.View()
	assert.True(t, v.Sections[0].Complete)
	assert.False(t, v.Sections[1].Complete)
	assert.Equal(t, 33, v.CompletionPercentage)
}

func TestSnapshotRestore(t *testing.T) {
	store := newMemStore()
	s := startedSession(t, store, 6)
	require.NoError(t, s.AnswerQuestion(1, scoring.Yes))
	require.NoError(t, s.NextSection())
	_, err := s.SaveProgress(context.Background())
	require.NoError(t, err)

	restored, err := Restore(sc, store, testForm(6), s.Snapshot())
	require.NoError(t, err)
	assert.Equal(t, s.View(), restored.View())

	_, err = Restore(sc, store, testForm(6), Snapshot{State: "bogus"})
	assert.ErrorIs(t, err, ErrInvalidSnapshot)

	other := testForm(6)
	other.ID = 8
	_, err = Restore(sc, store, other, s.Snapshot())
	assert.ErrorIs(t, err, ErrFormMismatch)
}
