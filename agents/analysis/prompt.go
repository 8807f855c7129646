package analysis

import (
	"fmt"
	"strings"

	"ingredientagent"
)

var toneInstructions = map[ingredientagent.ExpertiseLevel]string{
	ingredientagent.Beginner:     "Use simple, clear language. Avoid jargon. Focus on practical implications.",
	ingredientagent.Intermediate: "Use moderate technical detail. Explain key concepts briefly.",
	ingredientagent.Expert:       "Use technical terminology. Include chemical mechanisms and research references.",
}

const analysisPrompt = `You are an expert cosmetic and food safety analyst.
Analyze the following ingredients and provide a personalized safety report.

USER PROFILE:
- Skin Type: %[1]s
- Expertise Level: %[2]s
- Allergens/Ingredients to Avoid: %[3]s

INGREDIENTS TO ANALYZE:
%[4]s

INSTRUCTIONS:
1. %[5]s
2. For EVERY SINGLE ingredient, provide ALL of the following in a TABLE format:
   Ingredient, Purpose, Safety Rating (1-10, 10 being safest), Concerns,
   Recommendation (SAFE / USE WITH CAUTION / AVOID), Allergy Risk Flag (High/Low),
   Allergy Potential, Origin, Category, Regulatory Status (US FDA and EU).
3. Cross-reference ALL ingredients with the user's allergen/avoidance list: %[3]s
4. If any ingredient matches the user's list, mark it with "ALLERGEN WARNING" and recommend AVOID.
5. Adapt recommendations based on skin type (%[1]s).
6. Provide an overall verdict following these STRICT rules:
   - If ANY ingredient has recommendation "AVOID" the Overall Verdict MUST be "AVOID".
   - If ANY ingredient has "banned" or "prohibited" in Regulatory Status the Overall Verdict MUST be "AVOID".
   - Otherwise use "SAFE TO USE" or "USE WITH CAUTION" based on average safety.
7. Keep the analysis concise and actionable.
%[6]s
FORMAT YOUR RESPONSE EXACTLY AS FOLLOWS (in this exact order):

## Overall Verdict
[SAFE TO USE / USE WITH CAUTION / AVOID - with brief reasoning]

## Summary
[2-3 sentence executive summary of the analysis]

## Allergen/Ingredient Check
[List any ingredients that match the user's list, or "No allergen matches found"]

## Recommendations for %[1]s Skin
[Specific guidance based on skin type]

## Ingredient Analysis

` + tableHeader + `
| [Name] | [Purpose] | [1-10] | [Concerns] | [SAFE/CAUTION/AVOID] | [High/Low] | [Who may react] | [Origin] | [Category] | [FDA/EU Status] |
`

const tableHeader = `| Ingredient | Purpose | Safety Rating | Concerns | Recommendation | Allergy Risk | Allergy Potential | Origin | Category | Regulatory Status |
|------------|---------|---------------|----------|----------------|--------------|-------------------|--------|----------|-------------------|`

// BuildPrompt renders the analysis prompt. feedback is the critic's
// complaint about the previous attempt and may be empty.
func BuildPrompt(records []ingredientagent.IngredientRecord, profile ingredientagent.UserProfile, feedback string) string {
	tone, ok := toneInstructions[profile.Expertise]
	if !ok {
		tone = toneInstructions[ingredientagent.Beginner]
	}

	allergies := "None specified"
	if len(profile.Allergies) > 0 {
		allergies = strings.Join(profile.Allergies, ", ")
	}

	var retry string
	if feedback != "" {
		retry = fmt.Sprintf("\nA previous version of this report was rejected by quality review. Fix these issues:\n%s\n", feedback)
	}

	return fmt.Sprintf(analysisPrompt,
		titleCase(string(profile.SkinType)),
		titleCase(string(profile.Expertise)),
		allergies,
		ingredientSummary(records),
		tone,
		retry,
	)
}

func ingredientSummary(records []ingredientagent.IngredientRecord) string {
	var b strings.Builder
	for i, rec := range records {
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, rec.Name)
		fmt.Fprintf(&b, "   - Purpose: %s\n", rec.Purpose)
		fmt.Fprintf(&b, "   - Safety Rating: %d/10\n", rec.SafetyRating)
		fmt.Fprintf(&b, "   - Concerns: %s\n", rec.Concerns)
		fmt.Fprintf(&b, "   - Recommendation: %s\n", rec.Recommendation)
		fmt.Fprintf(&b, "   - Allergy Risk Flag: %s\n", titleCase(string(rec.AllergyRiskFlag)))
		fmt.Fprintf(&b, "   - Allergy Potential: %s\n", rec.AllergyPotential)
		fmt.Fprintf(&b, "   - Origin: %s\n", rec.Origin)
		fmt.Fprintf(&b, "   - Category: %s\n", rec.Category)
		fmt.Fprintf(&b, "   - Regulatory Status: %s\n", rec.RegulatoryStatus)
		fmt.Fprintf(&b, "   - Regulatory Bans: %s\n", rec.RegulatoryBans)
	}
	return b.String()
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
