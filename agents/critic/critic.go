package critic

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ingredientagent"
)

const DefaultMaxRetries = 2

// Critic validates the current report against the five quality gates.
type Critic struct {
	gen        ingredientagent.TextGenerator
	maxRetries int
}

// NewCritic builds a critic. A negative maxRetries falls back to the default.
func NewCritic(gen ingredientagent.TextGenerator, maxRetries int) *Critic {
	if maxRetries < 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Critic{gen: gen, maxRetries: maxRetries}
}

// Run reviews state.Report. A failing validator call never fails the
// stage: every gate passes and the error is reported in the feedback.
func (c *Critic) Run(ctx context.Context, state ingredientagent.WorkflowState) (ingredientagent.Update, error) {
	if c.gen == nil {
		return ingredientagent.Update{}, fmt.Errorf("validator: %w", ingredientagent.ErrNotConfigured)
	}
	if state.Report == nil {
		return ingredientagent.Update{}, fmt.Errorf("critic invoked without a report")
	}

	start := time.Now()
	slog.Info("CRITIC: Validating report", "attempt", state.RetryCount+1, "max_attempts", c.maxRetries+1)

	var parsed ingredientagent.CriticFeedback
	text, err := c.gen.Generate(ctx, BuildPrompt(state))
	if err != nil {
		slog.Error("CRITIC: Validation call failed, passing all gates", "error", err)
		parsed = approved(fmt.Sprintf("Validation error: %v", err))
	} else {
		parsed = ParseVerdict(text)
	}

	verdict, increment := Decide(parsed, state.RetryCount, c.maxRetries)
	if err != nil {
		verdict.Feedback = parsed.Feedback
	}

	slog.Info("CRITIC: Validation complete",
		"verdict", verdict.Verdict,
		"failed_gates", verdict.FailedGateNames(),
		"retry_count", state.RetryCount,
		"duration", time.Since(start),
	)

	return ingredientagent.Update{Verdict: &verdict, IncrementRetry: increment}, nil
}

// Decide applies the retry budget to parsed gate results. It reports
// whether the retry count should be incremented, which happens only on
// rejection.
func Decide(parsed ingredientagent.CriticFeedback, retryCount, maxRetries int) (ingredientagent.CriticFeedback, bool) {
	failed := parsed.GateResults.Failed()
	if len(parsed.GateResults) < len(ingredientagent.Gates) {
		// a partial map is completed with passing gates
		results := ingredientagent.AllPassingGates()
		for g, ok := range parsed.GateResults {
			results[g] = ok
		}
		parsed.GateResults = results
	}

	switch {
	case len(failed) == 0:
		return approved("All validation gates passed. Report meets quality standards."), false

	case retryCount >= maxRetries:
		return ingredientagent.CriticFeedback{
			Verdict:     ingredientagent.VerdictEscalated,
			GateResults: parsed.GateResults,
			FailedGates: failed,
			Feedback: fmt.Sprintf(
				"Report could not meet quality standards after %d attempts. Failed gates: %s. Results are provided with reduced confidence.",
				maxRetries+1, gateNames(failed),
			),
		}, false

	default:
		return ingredientagent.CriticFeedback{
			Verdict:     ingredientagent.VerdictRejected,
			GateResults: parsed.GateResults,
			FailedGates: failed,
			Feedback:    parsed.Feedback,
		}, true
	}
}
