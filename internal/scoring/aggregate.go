package scoring

import (
	"math"
	"strings"
)

type Counts struct {
	Yes int `json:"totalYes"`
	No  int `json:"totalNo"`
}

// Result is the aggregate shown once an evaluation is completed. It is also
// computed for partial saves, where Answered may be lower than QuestionCount.
type Result struct {
	QuestionCount        int       `json:"questionCount"`
	Answered             int       `json:"answered"`
	TotalYes             int       `json:"totalYes"`
	TotalNo              int       `json:"totalNo"`
	Severity             Breakdown `json:"severity"`
	CompletionPercentage int       `json:"completionPercentage"`
	PercentYes           float64   `json:"percentYes"`
	RiskLevel            RiskLevel `json:"riskLevel"`
}

func (r Result) Complete() bool {
	return r.QuestionCount > 0 && r.TotalYes+r.TotalNo == r.QuestionCount
}

func CountYesNo(answers Answers) Counts {
	var c Counts
	for _, ans := range answers {
		switch ans.Response {
		case Yes:
			c.Yes++
		case No:
			c.No++
		}
	}
	return c
}

// SeverityBreakdown buckets "yes" answers by the severity of the question's
// risk. Questions whose risk or severity cannot be resolved are skipped.
func SeverityBreakdown(answers Answers, meta *Metadata) Breakdown {
	var b Breakdown
	for id, ans := range answers {
		if ans.Response != Yes {
			continue
		}
		if s, ok := meta.SeverityOf(id); ok {
			b.add(s)
		}
	}
	return b
}

func CompletionPercentage(answers Answers, totalQuestionCount int) int {
	if totalQuestionCount <= 0 {
		return 0
	}
	pct := int(math.Round(float64(answers.AnsweredCount()) / float64(totalQuestionCount) * 100))
	if pct > 100 {
		pct = 100
	}
	return pct
}

func PercentYes(totalYes, totalQuestions int) float64 {
	if totalQuestions <= 0 {
		return 0
	}
	return float64(totalYes) / float64(totalQuestions) * 100
}

// Evaluate computes the full aggregate for an answer map. Answers that do
// not belong to the form are ignored.
func Evaluate(answers Answers, meta *Metadata) Result {
	known := meta.Known(answers)
	counts := CountYesNo(known)
	total := meta.QuestionCount()
	pct := PercentYes(counts.Yes, total)
	return Result{
		QuestionCount:        total,
		Answered:             counts.Yes + counts.No,
		TotalYes:             counts.Yes,
		TotalNo:              counts.No,
		Severity:             SeverityBreakdown(known, meta),
		CompletionPercentage: CompletionPercentage(known, total),
		PercentYes:           pct,
		RiskLevel:            ClassifyRisk(pct),
	}
}

// MissingResponses lists, in ascending order, the form questions that have
// no yes/no response.
func MissingResponses(answers Answers, meta *Metadata) []uint {
	var missing []uint
	for _, id := range meta.QuestionIDs() {
		if !answers[id].Response.Answered() {
			missing = append(missing, id)
		}
	}
	return missing
}

// MissingObservations lists questions answered "yes" that require an
// observation but have none.
func MissingObservations(answers Answers, meta *Metadata) []uint {
	var missing []uint
	for _, id := range meta.QuestionIDs() {
		q, _ := meta.Question(id)
		ans := answers[id]
		if !q.RequiresObservation || ans.Response != Yes {
			continue
		}
		if ans.Observation == nil || strings.TrimSpace(*ans.Observation) == "" {
			missing = append(missing, id)
		}
	}
	return missing
}

// UnresolvedQuestions lists questions whose risk or severity is absent
// from the catalog.
func UnresolvedQuestions(meta *Metadata) []uint {
	var ids []uint
	for _, id := range meta.QuestionIDs() {
		if _, ok := meta.SeverityOf(id); !ok {
			ids = append(ids, id)
		}
	}
	return ids
}
