package analysis

import (
	"strings"

	"ingredientagent"
)

var skinTypeModifiers = map[ingredientagent.SkinType]map[string]float64{
	ingredientagent.SkinSensitive: {
		"fragrance":    0.3,
		"preservative": 0.2,
		"colorant":     0.15,
		"surfactant":   0.2,
	},
	ingredientagent.SkinDry: {
		"surfactant": 0.15,
		"alcohol":    0.2,
	},
	ingredientagent.SkinOily: {
		"emollient": 0.1,
		"oil":       0.1,
	},
}

// RiskScore is the baseline risk of rec raised by the skin-type modifier
// for its category, capped at 1.
func RiskScore(rec ingredientagent.IngredientRecord, skin ingredientagent.SkinType) float64 {
	modifier := skinTypeModifiers[skin][strings.ToLower(rec.Category)]
	return min(1.0, rec.BaselineRisk()+modifier)
}

func ClassifyRisk(score float64) ingredientagent.RiskLevel {
	switch {
	case score < 0.3:
		return ingredientagent.RiskLow
	case score < 0.6:
		return ingredientagent.RiskMedium
	default:
		return ingredientagent.RiskHigh
	}
}

// OverallRiskFromScores weights the riskiest ingredient at 70% and the
// mean at 30%. No scores means low risk.
func OverallRiskFromScores(scores []float64) ingredientagent.RiskLevel {
	if len(scores) == 0 {
		return ingredientagent.RiskLow
	}
	var highest, sum float64
	for _, s := range scores {
		highest = max(highest, s)
		sum += s
	}
	return ClassifyRisk(0.7*highest + 0.3*sum/float64(len(scores)))
}
