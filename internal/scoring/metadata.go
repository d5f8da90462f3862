package scoring

import "sort"

type Question struct {
	ID                  uint     `json:"id"`
	Text                string   `json:"text"`
	RiskID              uint     `json:"riskId"`
	SectionID           uint     `json:"sectionId"`
	Order               int      `json:"order"`
	RequiresObservation bool     `json:"requiresObservation"`
	Options             []string `json:"options,omitempty"`
}

// Risk may carry an empty Severity when the catalog has none for it.
type Risk struct {
	ID          uint     `json:"id"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
}

// Metadata resolves question -> risk -> severity for one form.
// A nil *Metadata behaves as an empty form.
type Metadata struct {
	questions map[uint]Question
	risks     map[uint]Risk
	ids       []uint
}

func NewMetadata(questions []Question, risks []Risk) *Metadata {
	m := &Metadata{
		questions: make(map[uint]Question, len(questions)),
		risks:     make(map[uint]Risk, len(risks)),
	}
	for _, q := range questions {
		if _, dup := m.questions[q.ID]; dup {
			continue
		}
		m.questions[q.ID] = q
		m.ids = append(m.ids, q.ID)
	}
	for _, r := range risks {
		m.risks[r.ID] = r
	}
	sort.Slice(m.ids, func(i, j int) bool { return m.ids[i] < m.ids[j] })
	return m
}

func (m *Metadata) QuestionCount() int {
	if m == nil {
		return 0
	}
	return len(m.ids)
}

func (m *Metadata) Question(id uint) (Question, bool) {
	if m == nil {
		return Question{}, false
	}
	q, ok := m.questions[id]
	return q, ok
}

// QuestionIDs returns the form's question ids in ascending order.
func (m *Metadata) QuestionIDs() []uint {
	if m == nil {
		return nil
	}
	return append([]uint(nil), m.ids...)
}

func (m *Metadata) Risk(id uint) (Risk, bool) {
	if m == nil {
		return Risk{}, false
	}
	r, ok := m.risks[id]
	return r, ok
}

// SeverityOf resolves the severity tier of a question through its risk.
func (m *Metadata) SeverityOf(questionID uint) (Severity, bool) {
	q, ok := m.Question(questionID)
	if !ok {
		return "", false
	}
	r, ok := m.Risk(q.RiskID)
	if !ok || !r.Severity.Valid() {
		return "", false
	}
	return r.Severity, true
}

// Known returns a copy of answers without those whose question is not
// part of the form.
func (m *Metadata) Known(answers Answers) Answers {
	out := make(Answers, len(answers))
	for id, ans := range answers {
		if _, ok := m.Question(id); ok {
			out[id] = ans.clone()
		}
	}
	return out
}
