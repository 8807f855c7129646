package critic

import (
	"fmt"
	"strings"

	"ingredientagent"
)

const validationPrompt = `You are a lenient quality validator for cosmetic and food ingredient safety analyses. Your job is to APPROVE analyses that meet basic quality standards.

IMPORTANT: Be lenient. Only REJECT if there are CRITICAL issues. Minor imperfections are acceptable.

ORIGINAL INGREDIENT LIST (%[1]d ingredients):
%[2]s

USER ALLERGIES:
%[3]s

USER EXPERTISE LEVEL:
%[4]s

ANALYSIS TO VALIDATE:
%[5]s

VALIDATION GATES:

1. COMPLETENESS CHECK - PASS if:
   - The analysis contains a table with rows for ingredients
   - Most ingredients from the list appear in the table
   - PASS this gate unless ingredients are completely missing

2. FORMAT CHECK - PASS if:
   - There is a markdown table (rows with | separators)
   - The table has columns for at least: Ingredient, Purpose, Safety Rating, Recommendation

3. ALLERGEN MATCH CHECK - PASS if:
   - User has no allergies: automatically PASS
   - User has allergies: ingredients matching them are flagged

4. CONSISTENCY CHECK - PASS if:
   - Safety ratings are numbers between 1-10
   - Recommendations are SAFE/CAUTION/AVOID type values and not contradicted by the concerns

5. TONE CHECK - PASS if:
   - The register suits a %[4]s reader

DECISION RULES:
- Default to APPROVE unless there are CRITICAL failures
- Only REJECT if: no table exists, majority of ingredients are missing, or a declared allergen is not flagged

Respond with EXACTLY one of:

APPROVE
All gates pass. The analysis meets quality standards.

OR

REJECT
Gate failures: [list]
Issues: [list critical issues only]
Required fixes: [list]

YOUR DECISION:`

// BuildPrompt renders the validation request for the current report.
func BuildPrompt(state ingredientagent.WorkflowState) string {
	allergies := "None declared"
	if len(state.Profile.Allergies) > 0 {
		allergies = strings.Join(state.Profile.Allergies, ", ")
	}

	var summary string
	if state.Report != nil {
		summary = state.Report.Summary
	}

	return fmt.Sprintf(validationPrompt,
		len(state.RawIngredientNames),
		strings.Join(state.RawIngredientNames, ", "),
		allergies,
		state.Profile.Expertise,
		summary,
	)
}
