package analysis

import (
	"fmt"
	"strings"

	"ingredientagent"
)

const (
	noKnownConcerns   = "No known concerns"
	maxBeginnerDetail = 200
)

var alternativesByCategory = map[string][]string{
	"preservative": {"tocopherol (vitamin E)", "rosemary extract"},
	"fragrance":    {"fragrance-free alternatives", "natural essential oils"},
	"surfactant":   {"coco-glucoside", "decyl glucoside"},
	"colorant":     {"mineral pigments", "plant-based dyes"},
	"emulsifier":   {"lecithin", "cetearyl alcohol"},
	"cosmetics":    {"hypoallergenic alternatives"},
	"food":         {"organic alternatives"},
}

var beginnerRiskText = map[ingredientagent.RiskLevel]string{
	ingredientagent.RiskLow:    "This ingredient is generally considered safe.",
	ingredientagent.RiskMedium: "This ingredient has some concerns to be aware of.",
	ingredientagent.RiskHigh:   "This ingredient may pose risks for some users.",
}

// Assessments computes the structured per-ingredient view straight from
// the records. It also returns the allergen warnings and raw risk scores.
func Assessments(records []ingredientagent.IngredientRecord, profile ingredientagent.UserProfile) ([]ingredientagent.IngredientAssessment, []string, []float64) {
	assessments := make([]ingredientagent.IngredientAssessment, 0, len(records))
	warnings := []string{}
	scores := make([]float64, 0, len(records))

	for _, rec := range records {
		allergy, isAllergen := MatchAllergen(rec, profile.Allergies)

		score := RiskScore(rec, profile.SkinType)
		scores = append(scores, score)
		level := ClassifyRisk(score)
		if isAllergen {
			level = ingredientagent.RiskHigh
		}

		assessments = append(assessments, ingredientagent.IngredientAssessment{
			Name:            rec.Name,
			RiskLevel:       level,
			Rationale:       Rationale(rec, level, allergy, profile.Expertise),
			IsAllergenMatch: isAllergen,
			Alternatives:    Alternatives(rec, level),
		})

		if isAllergen {
			warnings = append(warnings, fmt.Sprintf("ALLERGEN WARNING: %s - matches your declared sensitivity: %s", rec.Name, allergy))
		}
	}
	return assessments, warnings, scores
}

// Rationale explains a risk level in the register of the expertise level.
// An empty allergy means no allergen match.
func Rationale(rec ingredientagent.IngredientRecord, level ingredientagent.RiskLevel, allergy string, expertise ingredientagent.ExpertiseLevel) string {
	beginner := expertise == ingredientagent.Beginner
	var parts []string

	if beginner {
		parts = append(parts, beginnerRiskText[level])
	} else {
		parts = append(parts, fmt.Sprintf("Risk classification: %s (safety rating: %d/10)", strings.ToUpper(string(level)), rec.SafetyRating))
	}

	if allergy != "" {
		if beginner {
			parts = append(parts, fmt.Sprintf("WARNING: This matches your %s sensitivity!", allergy))
		} else {
			parts = append(parts, fmt.Sprintf("Allergen alert: Cross-reactivity with declared sensitivity to %s.", allergy))
		}
	}

	if c := rec.Concerns; c != "" && c != noKnownConcerns {
		if beginner && len([]rune(c)) > maxBeginnerDetail {
			c = string([]rune(c)[:maxBeginnerDetail]) + "..."
		}
		parts = append(parts, c)
	}
	return strings.Join(parts, " ")
}

// Alternatives suggests substitutes for anything above low risk.
func Alternatives(rec ingredientagent.IngredientRecord, level ingredientagent.RiskLevel) []string {
	if level == ingredientagent.RiskLow {
		return []string{}
	}
	alts, ok := alternativesByCategory[strings.ToLower(rec.Category)]
	if !ok {
		return []string{}
	}
	return append([]string(nil), alts...)
}
