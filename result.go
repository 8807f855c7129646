package ingredientagent

import (
	"strings"
	"time"
)

// IngredientDetail is the per-ingredient entry of a Result.
type IngredientDetail struct {
	Name            string    `json:"name"`
	Purpose         string    `json:"purpose"`
	SafetyScore     int       `json:"safety_score"`
	RiskLevel       RiskLevel `json:"risk_level"`
	Concerns        string    `json:"concerns"`
	Recommendation  string    `json:"recommendation"`
	Origin          string    `json:"origin"`
	Category        string    `json:"category"`
	AllergyRisk     string    `json:"allergy_risk"`
	IsAllergenMatch bool      `json:"is_allergen_match"`
	Alternatives    []string  `json:"alternatives"`
	Source          string    `json:"source"`
}

// Result is what the entrypoints hand back to callers.
type Result struct {
	Success            bool               `json:"success"`
	SessionID          string             `json:"session_id"`
	ProductName        string             `json:"product_name"`
	OverallRisk        string             `json:"overall_risk"`
	AverageSafetyScore int                `json:"average_safety_score"`
	Summary            string             `json:"summary"`
	AllergenWarnings   []string           `json:"allergen_warnings"`
	Ingredients        []IngredientDetail `json:"ingredients"`
	Verdict            Verdict            `json:"verdict,omitempty"`
	Feedback           string             `json:"feedback,omitempty"`
	LowConfidence      bool               `json:"low_confidence"`
	RoutingHistory     []Stage            `json:"routing_history"`
	ExecutionTime      float64            `json:"execution_time"`
	Error              string             `json:"error,omitempty"`
}

// NewResult flattens a terminal state. An errored state yields an empty,
// unsuccessful result; an escalated one is successful but low confidence.
func NewResult(state WorkflowState, elapsed time.Duration) Result {
	res := Result{
		SessionID:        state.SessionID,
		ProductName:      state.ProductName,
		OverallRisk:      "unknown",
		AllergenWarnings: []string{},
		Ingredients:      []IngredientDetail{},
		RoutingHistory:   state.RoutingHistory,
		ExecutionTime:    elapsed.Seconds(),
	}
	if state.Error != "" || state.Report == nil {
		res.Error = state.Error
		if res.Error == "" {
			res.Error = "analysis produced no report"
		}
		return res
	}

	report := state.Report
	res.Success = true
	res.OverallRisk = string(report.OverallRisk)
	res.AverageSafetyScore = report.AverageSafetyScore
	res.Summary = report.Summary
	res.AllergenWarnings = append(res.AllergenWarnings, report.AllergenWarnings...)
	if state.Verdict != nil {
		res.Verdict = state.Verdict.Verdict
		res.Feedback = state.Verdict.Feedback
		res.LowConfidence = state.Verdict.Verdict == VerdictEscalated
	}

	assessments := make(map[string]IngredientAssessment, len(report.Assessments))
	for _, a := range report.Assessments {
		assessments[strings.ToLower(a.Name)] = a
	}
	for _, rec := range state.IngredientRecords {
		a := assessments[strings.ToLower(rec.Name)]
		detail := IngredientDetail{
			Name:            rec.Name,
			Purpose:         rec.Purpose,
			SafetyScore:     rec.SafetyRating,
			RiskLevel:       a.RiskLevel,
			Concerns:        rec.Concerns,
			Recommendation:  rec.Recommendation,
			Origin:          rec.Origin,
			Category:        rec.Category,
			AllergyRisk:     string(rec.AllergyRiskFlag),
			IsAllergenMatch: a.IsAllergenMatch,
			Alternatives:    a.Alternatives,
			Source:          string(rec.Source),
		}
		if detail.Alternatives == nil {
			detail.Alternatives = []string{}
		}
		res.Ingredients = append(res.Ingredients, detail)
	}
	return res
}
