package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ingredientagent"
)

// Analyst turns researched records into a personalized report.
type Analyst struct {
	gen ingredientagent.TextGenerator
}

func NewAnalyst(gen ingredientagent.TextGenerator) *Analyst {
	return &Analyst{gen: gen}
}

// Run produces a fresh report for state. Only a missing generator is an
// error; generation failures degrade to the template report.
func (a *Analyst) Run(ctx context.Context, state ingredientagent.WorkflowState) (ingredientagent.Update, error) {
	if a.gen == nil {
		return ingredientagent.Update{}, fmt.Errorf("report generator: %w", ingredientagent.ErrNotConfigured)
	}
	report := a.Analyze(ctx, state)
	return ingredientagent.Update{Report: &report}, nil
}

// Analyze never fails.
func (a *Analyst) Analyze(ctx context.Context, state ingredientagent.WorkflowState) ingredientagent.AnalysisReport {
	start := time.Now()
	records := state.IngredientRecords
	profile := state.Profile

	var feedback string
	if state.Verdict != nil && state.Verdict.Verdict == ingredientagent.VerdictRejected {
		feedback = state.Verdict.Feedback
	}

	slog.Info("ANALYSIS: Generating report",
		"product", state.ProductName,
		"ingredients", len(records),
		"expertise", profile.Expertise,
		"retry", state.RetryCount,
	)

	degraded := false
	summary, err := a.gen.Generate(ctx, BuildPrompt(records, profile, feedback))
	if err == nil && strings.TrimSpace(summary) == "" {
		err = fmt.Errorf("empty report")
	}
	if err != nil {
		slog.Error("ANALYSIS: Report generation failed, using fallback", "error", err)
		summary = FallbackSummary(records, profile)
		degraded = true
	}

	assessments, warnings, scores := Assessments(records, profile)
	overall, avg := ParseOverallRisk(summary)
	if degraded {
		// the template table carries no skin-type adjustment
		overall = higherRisk(overall, OverallRiskFromScores(scores))
	}

	slog.Info("ANALYSIS: Report complete",
		"overall_risk", overall,
		"average_safety_score", avg,
		"allergen_warnings", len(warnings),
		"degraded", degraded,
		"duration", time.Since(start),
	)

	return ingredientagent.AnalysisReport{
		ProductName:        state.ProductName,
		OverallRisk:        overall,
		AverageSafetyScore: avg,
		Summary:            summary,
		Assessments:        assessments,
		AllergenWarnings:   warnings,
		ToneUsed:           profile.Expertise,
		Degraded:           degraded,
	}
}

func higherRisk(a, b ingredientagent.RiskLevel) ingredientagent.RiskLevel {
	rank := map[ingredientagent.RiskLevel]int{
		ingredientagent.RiskLow:    0,
		ingredientagent.RiskMedium: 1,
		ingredientagent.RiskHigh:   2,
	}
	if rank[b] > rank[a] {
		return b
	}
	return a
}
