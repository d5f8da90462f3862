package scoring

import "strings"

// Severity is one of the three ISTAS21-BR harm tiers.
type Severity string

const (
	SeverityLight  Severity = "light"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

var severityLabels = map[Severity]string{
	SeverityLight:  "Levemente Prejudicial",
	SeverityMedium: "Prejudicial",
	SeverityHigh:   "Extremamente Prejudicial",
}

var severityColors = map[Severity]string{
	SeverityLight:  "#facc15",
	SeverityMedium: "#f97316",
	SeverityHigh:   "#dc2626",
}

func (s Severity) Valid() bool {
	_, ok := severityLabels[s]
	return ok
}

func (s Severity) Label() string {
	return severityLabels[s]
}

func (s Severity) Color() string {
	return severityColors[s]
}

// ParseSeverity accepts either the tier code or its Portuguese label.
func ParseSeverity(v string) (Severity, bool) {
	v = strings.TrimSpace(v)
	if s := Severity(strings.ToLower(v)); s.Valid() {
		return s, true
	}
	for s, label := range severityLabels {
		if strings.EqualFold(label, v) {
			return s, true
		}
	}
	return "", false
}

// Breakdown counts "yes" answers per severity tier.
type Breakdown struct {
	Light  int `json:"light"`
	Medium int `json:"medium"`
	High   int `json:"high"`
}

func (b Breakdown) Total() int {
	return b.Light + b.Medium + b.High
}

func (b *Breakdown) add(s Severity) {
	switch s {
	case SeverityLight:
		b.Light++
	case SeverityMedium:
		b.Medium++
	case SeverityHigh:
		b.High++
	}
}
