package workflow

import (
	"fmt"

	"ingredientagent"
	"ingredientagent/agents/research"
)

// Route picks the next stage from state alone. The first matching rule
// wins; retry limits are the critic's concern, so a rejected verdict always
// routes back to analysis.
func Route(state ingredientagent.WorkflowState) ingredientagent.Stage {
	switch {
	case state.Error != "":
		return ingredientagent.StageEnd
	case len(state.IngredientRecords) < len(state.RawIngredientNames):
		return ingredientagent.StageResearch
	case state.Report == nil:
		return ingredientagent.StageAnalysis
	case state.Verdict == nil:
		return ingredientagent.StageCritic
	}

	switch state.Verdict.Verdict {
	case ingredientagent.VerdictApproved, ingredientagent.VerdictEscalated:
		return ingredientagent.StageEnd
	case ingredientagent.VerdictRejected:
		return ingredientagent.StageAnalysis
	default:
		return ingredientagent.StageEnd
	}
}

// Describe explains the routing decision for logs.
func Describe(state ingredientagent.WorkflowState, batchSize int) string {
	switch next := Route(state); next {
	case ingredientagent.StageResearch:
		n := len(state.RawIngredientNames)
		if workers := research.WorkerCount(n, batchSize); workers > 1 {
			return fmt.Sprintf("research %d ingredients with %d parallel workers", n, workers)
		}
		return fmt.Sprintf("research %d ingredients sequentially", n)

	case ingredientagent.StageAnalysis:
		if state.Verdict != nil {
			return fmt.Sprintf("regenerate report after rejection (retry %d): %s",
				state.RetryCount, state.Verdict.FailedGateNames())
		}
		return fmt.Sprintf("generate report for %d ingredients", len(state.IngredientRecords))

	case ingredientagent.StageCritic:
		return "validate report against quality gates"

	default:
		switch {
		case state.Error != "":
			return "end: " + state.Error
		case state.Verdict != nil:
			return "end: report " + string(state.Verdict.Verdict)
		}
		return "end"
	}
}
