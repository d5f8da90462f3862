package scoring

import (
	"bytes"
	"fmt"
)

// Response is a tri-state questionnaire answer. The zero value is
// Unanswered, which is distinct from No.
type Response int8

const (
	Unanswered Response = iota
	No
	Yes
)

// ResponseOf converts a nullable boolean into a Response.
func ResponseOf(b *bool) Response {
	if b == nil {
		return Unanswered
	}
	if *b {
		return Yes
	}
	return No
}

func (r Response) Answered() bool {
	return r == Yes || r == No
}

// Bool returns nil for Unanswered.
func (r Response) Bool() *bool {
	switch r {
	case Yes:
		v := true
		return &v
	case No:
		v := false
		return &v
	default:
		return nil
	}
}

func (r Response) String() string {
	switch r {
	case Yes:
		return "sim"
	case No:
		return "nao"
	default:
		return "-"
	}
}

func (r Response) MarshalJSON() ([]byte, error) {
	switch r {
	case Yes:
		return []byte("true"), nil
	case No:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

func (r *Response) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true":
		*r = Yes
	case "false":
		*r = No
	case "null", "":
		*r = Unanswered
	default:
		return fmt.Errorf("invalid response %s: expected true, false or null", data)
	}
	return nil
}

// Answer holds everything recorded for one question. Observation and
// Options are independent of Response.
type Answer struct {
	QuestionID  uint     `json:"questionId"`
	Response    Response `json:"response"`
	Observation *string  `json:"observation,omitempty"`
	Options     []string `json:"options,omitempty"`
}

func (a Answer) clone() Answer {
	c := a
	if a.Observation != nil {
		obs := *a.Observation
		c.Observation = &obs
	}
	if a.Options != nil {
		c.Options = append([]string(nil), a.Options...)
	}
	return c
}

// Answers is the answer map of one evaluation, keyed by question id.
type Answers map[uint]Answer

func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for id, ans := range a {
		out[id] = ans.clone()
	}
	return out
}

// AnsweredCount counts answers with a non-null response.
func (a Answers) AnsweredCount() int {
	n := 0
	for _, ans := range a {
		if ans.Response.Answered() {
			n++
		}
	}
	return n
}
