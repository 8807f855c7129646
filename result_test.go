package ingredientagent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewResult(t *testing.T) {
	records := []IngredientRecord{
		{Name: "Water", Purpose: "Solvent", SafetyRating: 10, Category: "Both", AllergyRiskFlag: AllergyRiskLow, Source: SourcePrimary},
		{Name: "Fragrance", Purpose: "Scent", SafetyRating: 3, Concerns: "Allergen", Category: "fragrance", AllergyRiskFlag: AllergyRiskHigh, Source: SourcePrimary},
	}
	report := &AnalysisReport{
		OverallRisk:        RiskHigh,
		AverageSafetyScore: 6,
		Summary:            "table",
		AllergenWarnings:   []string{"Fragrance matches your fragrance allergy"},
		Assessments: []IngredientAssessment{
			{Name: "water", RiskLevel: RiskLow},
			{Name: "Fragrance", RiskLevel: RiskHigh, IsAllergenMatch: true, Alternatives: []string{"Fragrance-free formulas"}},
		},
	}

	t.Run("approved", func(t *testing.T) {
		state := WorkflowState{
			SessionID:         "s1",
			ProductName:       "Cream",
			IngredientRecords: records,
			Report:            report,
			Verdict:           &CriticFeedback{Verdict: VerdictApproved},
			RoutingHistory:    []Stage{StageResearch, StageAnalysis, StageCritic},
		}
		res := NewResult(state, 1500*time.Millisecond)

		assert.True(t, res.Success)
		assert.Equal(t, "s1", res.SessionID)
		assert.Equal(t, "high", res.OverallRisk)
		assert.Equal(t, 6, res.AverageSafetyScore)
		assert.Equal(t, VerdictApproved, res.Verdict)
		assert.False(t, res.LowConfidence)
		assert.InDelta(t, 1.5, res.ExecutionTime, 1e-9)
		assert.Equal(t, state.RoutingHistory, res.RoutingHistory)
		assert.Len(t, res.Ingredients, 2)

		assert.Equal(t, IngredientDetail{
			Name:         "Water",
			Purpose:      "Solvent",
			SafetyScore:  10,
			RiskLevel:    RiskLow,
			Category:     "Both",
			AllergyRisk:  "low",
			Alternatives: []string{},
			Source:       "primary-db",
		}, res.Ingredients[0], "assessments match names case-insensitively")
		assert.True(t, res.Ingredients[1].IsAllergenMatch)
		assert.Equal(t, []string{"Fragrance-free formulas"}, res.Ingredients[1].Alternatives)
	})

	t.Run("escalated is low confidence", func(t *testing.T) {
		state := WorkflowState{
			IngredientRecords: records,
			Report:            report,
			Verdict:           &CriticFeedback{Verdict: VerdictEscalated, Feedback: "Max retries reached"},
		}
		res := NewResult(state, 0)
		assert.True(t, res.Success)
		assert.True(t, res.LowConfidence)
		assert.Equal(t, "Max retries reached", res.Feedback)
	})

	t.Run("error", func(t *testing.T) {
		res := NewResult(WorkflowState{ProductName: "Cream", Report: report, Error: "research stage: boom"}, 0)
		assert.False(t, res.Success)
		assert.Equal(t, "research stage: boom", res.Error)
		assert.Equal(t, "unknown", res.OverallRisk)
		assert.Empty(t, res.Ingredients)
		assert.NotNil(t, res.AllergenWarnings)
	})

	t.Run("no report", func(t *testing.T) {
		res := NewResult(WorkflowState{}, 0)
		assert.False(t, res.Success)
		assert.Equal(t, "analysis produced no report", res.Error)
	})
}
