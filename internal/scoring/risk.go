package scoring

// RiskLevel is the five-tier classification of a yes percentage.
type RiskLevel string

const (
	RiskLow          RiskLevel = "Baixo"
	RiskModerate     RiskLevel = "Moderado"
	RiskConsiderable RiskLevel = "Considerável"
	RiskHigh         RiskLevel = "Alto"
	RiskExtreme      RiskLevel = "Extremo"
)

// RiskLevels lists the tiers from lowest to highest.
var RiskLevels = []RiskLevel{RiskLow, RiskModerate, RiskConsiderable, RiskHigh, RiskExtreme}

// ClassifyRisk maps a 0-100 yes percentage to its tier. Each tier starts at
// its lower bound: exactly 20 is Moderado.
func ClassifyRisk(score float64) RiskLevel {
	switch {
	case score < 20:
		return RiskLow
	case score < 40:
		return RiskModerate
	case score < 60:
		return RiskConsiderable
	case score < 80:
		return RiskHigh
	default:
		return RiskExtreme
	}
}
