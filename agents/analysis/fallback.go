package analysis

import (
	"fmt"
	"strings"

	"ingredientagent"
)

// FallbackSummary renders a template report from the records alone, used
// when report generation is unavailable. It keeps the ingredient table so
// downstream parsing and review still work.
func FallbackSummary(records []ingredientagent.IngredientRecord, profile ingredientagent.UserProfile) string {
	var lowRated int
	for _, rec := range records {
		if rec.SafetyRating <= 3 {
			lowRated++
		}
	}

	var b strings.Builder
	b.WriteString("## Overall Verdict\n")
	if lowRated > 0 {
		b.WriteString("USE WITH CAUTION - Some ingredients require attention.\n\n")
	} else {
		b.WriteString("SAFE TO USE - No major concerns identified.\n\n")
	}

	b.WriteString("## Ingredient Analysis\n\n")
	fmt.Fprintf(&b, "Analyzed %d ingredients.\n\n", len(records))
	if lowRated > 0 {
		fmt.Fprintf(&b, "**Warning:** %d ingredient(s) with lower safety ratings.\n\n", lowRated)
	}
	if len(profile.Allergies) > 0 {
		fmt.Fprintf(&b, "**Allergens to watch:** %s\n\n", strings.Join(profile.Allergies, ", "))
	}
	if matches := FindAllAllergenMatches(records, profile); len(matches) > 0 {
		pairs := make([]string, len(matches))
		for i, m := range matches {
			pairs[i] = fmt.Sprintf("%s (%s)", m.Ingredient, m.Allergy)
		}
		fmt.Fprintf(&b, "**Allergen matches:** %s\n\n", strings.Join(pairs, ", "))
	}

	b.WriteString(tableHeader)
	b.WriteString("\n")
	for _, rec := range records {
		recommendation := "SAFE"
		switch {
		case rec.SafetyRating <= 3:
			recommendation = "AVOID"
		case rec.SafetyRating <= 6:
			recommendation = "USE WITH CAUTION"
		}
		if allergy, ok := MatchAllergen(rec, profile.Allergies); ok {
			recommendation = fmt.Sprintf("AVOID (ALLERGEN WARNING: %s)", allergy)
		}
		fmt.Fprintf(&b, "| %s | %s | %d/10 | %s | %s | %s | %s | %s | %s | %s |\n",
			cell(rec.Name),
			cell(rec.Purpose),
			rec.SafetyRating,
			cell(rec.Concerns),
			recommendation,
			titleCase(string(rec.AllergyRiskFlag)),
			cell(rec.AllergyPotential),
			cell(rec.Origin),
			cell(rec.Category),
			cell(rec.RegulatoryStatus),
		)
	}
	return b.String()
}

// cell keeps free text from breaking the table layout.
func cell(s string) string {
	s = strings.NewReplacer("|", "/", "\n", " ").Replace(strings.TrimSpace(s))
	if s == "" {
		return "-"
	}
	return s
}
