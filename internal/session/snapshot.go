package session

import (
	"fmt"

	"istas_backend/internal/scoring"
)

// Snapshot is the serialisable state of a session. The form itself is not
// part of it; Restore takes the definition from the catalog again.
type Snapshot struct {
	State      State           `json:"state"`
	EmployeeID uint            `json:"employeeId"`
	FormID     uint            `json:"formId"`
	Active     int             `json:"active"`
	Answers    scoring.Answers `json:"answers"`
	Notes      string          `json:"notes,omitempty"`
	Current    *Evaluation     `json:"current,omitempty"`
	History    []Evaluation    `json:"history,omitempty"`
	ReadOnly   bool            `json:"readOnly"`
	Result     *scoring.Result `json:"result,omitempty"`
}

func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		State:      s.state,
		EmployeeID: s.employeeID,
		Active:     s.active,
		Answers:    s.answers.Clone(),
		Notes:      s.notes,
		History:    s.History(),
		ReadOnly:   s.readOnly,
	}
	if s.form != nil {
		snap.FormID = s.form.ID
	}
	if s.current != nil {
		c := s.current.clone()
		snap.Current = &c
	}
	if s.result != nil {
		r := *s.result
		snap.Result = &r
	}
	return snap
}

// Restore rebuilds a session from a snapshot. Answers to questions that
// are no longer in the form are dropped.
func Restore(sc Context, store Store, form *Form, snap Snapshot) (*Session, error) {
	if !snap.State.valid() {
		return nil, fmt.Errorf("%w: state %q", ErrInvalidSnapshot, snap.State)
	}
	s := New(sc, store)
	s.employeeID = snap.EmployeeID
	if snap.FormID != 0 {
		if form == nil || form.ID != snap.FormID {
			return nil, ErrFormMismatch
		}
		s.load(form)
	}
	s.answers = s.meta.Known(snap.Answers)
	s.notes = snap.Notes
	s.readOnly = snap.ReadOnly
	if snap.Current != nil {
		c := snap.Current.clone()
		s.current = &c
	}
	for _, ev := range snap.History {
		s.history = append(s.history, ev.clone())
	}
	if snap.Result != nil {
		r := *snap.Result
		s.result = &r
	}
	if snap.Active >= 0 && snap.Active < len(s.sections) {
		s.active = snap.Active
	}

	s.state = snap.State
	switch snap.State {
	case StateInProgress, StateAwaitingCompletion:
		// catalog edits may have changed coverage since the snapshot
		s.settle()
	case StateCompleted, StateHistoryView:
		if s.employeeID == 0 || s.form == nil {
			return nil, fmt.Errorf("%w: %s without selection", ErrInvalidSnapshot, snap.State)
		}
	}
	return s, nil
}
