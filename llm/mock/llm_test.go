package mock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ingredientagent"
	"ingredientagent/agents/analysis"
	"ingredientagent/agents/critic"
	"ingredientagent/tools"
)

func TestLLMClient_Generate(t *testing.T) {
	llm := NewLLMClient()
	ctx := context.Background()

	records := []ingredientagent.IngredientRecord{
		{Name: "Water", Purpose: "Solvent", SafetyRating: 10, Concerns: "None", Category: "Both"},
		{Name: "Fragrance", Purpose: "Scent", SafetyRating: 3, Concerns: "Allergen", Category: "fragrance"},
	}
	profile := ingredientagent.UserProfile{SkinType: ingredientagent.SkinNormal, Expertise: ingredientagent.Beginner}

	t.Run("analysis prompt yields a parseable table", func(t *testing.T) {
		out, err := llm.Generate(ctx, analysis.BuildPrompt(records, profile, ""))
		require.NoError(t, err)

		assert.Contains(t, out, "| Water | Solvent | 10 |")
		assert.Contains(t, out, "| Fragrance | Scent | 3 |")
		assert.Contains(t, out, "## Overall Verdict\nAVOID")

		risk, avg := analysis.ParseOverallRisk(out)
		assert.Equal(t, ingredientagent.RiskHigh, risk)
		assert.Equal(t, 6, avg, "integer mean of 10 and 3")
	})

	t.Run("validation prompt approves", func(t *testing.T) {
		state := ingredientagent.WorkflowState{
			RawIngredientNames: []string{"Water"},
			Report:             &ingredientagent.AnalysisReport{Summary: "| Water |"},
		}
		out, err := llm.Generate(ctx, critic.BuildPrompt(state))
		require.NoError(t, err)
		assert.Equal(t, ingredientagent.VerdictApproved, critic.ParseVerdict(out).Verdict)
	})

	t.Run("search prompt answers in key value form", func(t *testing.T) {
		rec, err := tools.NewIngredientSearch(llm, nil).Search(ctx, "Bakuchiol")
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, "Bakuchiol", rec.Name)
		assert.Equal(t, 5, rec.SafetyRating)
		assert.Equal(t, ingredientagent.SourceFallback, rec.Source)
	})

	t.Run("unknown prompt is empty", func(t *testing.T) {
		out, err := llm.Generate(ctx, "hello")
		require.NoError(t, err)
		assert.Empty(t, out)
	})
}
