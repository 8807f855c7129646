package mock

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

var (
	searchTarget = regexp.MustCompile(`Research the ingredient "([^"]+)"`)
	listedName   = regexp.MustCompile(`(?m)^\d+\. (.+)$`)
	listedField  = regexp.MustCompile(`(?m)^\s+- (Purpose|Safety Rating|Concerns|Recommendation|Category): (.*)$`)
)

// LLMClient answers each prompt kind with a deterministic canned response.
// It serves offline runs and demos; real models may not be so kind.
type LLMClient struct{}

func NewLLMClient() *LLMClient {
	return &LLMClient{}
}

func (m *LLMClient) Generate(ctx context.Context, prompt string) (string, error) {
	slog.Info("LLM_CLIENT: Invoked", "prompt_len", len(prompt))

	switch {
	case strings.Contains(prompt, "VALIDATION GATES"):
		slog.Info("LLM_CLIENT: Returning validation verdict")
		return "APPROVE\nAll gates pass. The analysis meets quality standards.", nil

	case searchTarget.MatchString(prompt):
		name := searchTarget.FindStringSubmatch(prompt)[1]
		slog.Info("LLM_CLIENT: Returning search result", "ingredient", name)
		return searchResponse(name), nil

	case strings.Contains(prompt, "INGREDIENTS TO ANALYZE"):
		slog.Info("LLM_CLIENT: Returning analysis report")
		return analysisResponse(prompt), nil
	}

	slog.Warn("LLM_CLIENT: Unrecognized prompt")
	return "", nil
}

func searchResponse(name string) string {
	return strings.Join([]string{
		"INGREDIENT_NAME: " + name,
		"PURPOSE: Unknown",
		"SAFETY_RATING: 5",
		"CONCERNS: Insufficient data",
		"RECOMMENDATION: Use with caution until more data is available",
		"ALLERGY_RISK_FLAG: Low",
		"ALLERGY_POTENTIAL: Unknown",
		"ORIGIN: Unknown",
		"CATEGORY: Both",
		"REGULATORY_STATUS: Not reviewed",
		"REGULATORY_BANS: No",
	}, "\n")
}

type listedIngredient struct {
	name   string
	fields map[string]string
}

// analysisResponse echoes the prompt's ingredient list back as a report.
func analysisResponse(prompt string) string {
	_, list, _ := strings.Cut(prompt, "INGREDIENTS TO ANALYZE:")
	list, _, _ = strings.Cut(list, "INSTRUCTIONS:")

	var items []listedIngredient
	for _, line := range strings.Split(list, "\n") {
		if m := listedName.FindStringSubmatch(line); m != nil {
			items = append(items, listedIngredient{name: strings.TrimSpace(m[1]), fields: map[string]string{}})
			continue
		}
		if m := listedField.FindStringSubmatch(line); m != nil && len(items) > 0 {
			items[len(items)-1].fields[m[1]] = strings.TrimSpace(m[2])
		}
	}

	verdict := "SAFE TO USE"
	var rows strings.Builder
	for _, it := range items {
		rating, err := strconv.Atoi(strings.TrimSuffix(it.fields["Safety Rating"], "/10"))
		if err != nil {
			rating = 5
		}
		rec := "SAFE"
		switch {
		case rating <= 3:
			rec, verdict = "AVOID", "AVOID"
		case rating <= 6:
			rec = "USE WITH CAUTION"
			if verdict != "AVOID" {
				verdict = "USE WITH CAUTION"
			}
		}
		fmt.Fprintf(&rows, "| %s | %s | %d | %s | %s | Low | - | - | %s | - |\n",
			it.name, it.fields["Purpose"], rating, it.fields["Concerns"], rec, it.fields["Category"])
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Overall Verdict\n%s\n\n", verdict)
	fmt.Fprintf(&b, "## Summary\nReviewed %d ingredients.\n\n", len(items))
	b.WriteString("## Ingredient Analysis\n\n")
	b.WriteString("| Ingredient | Purpose | Safety Rating | Concerns | Recommendation | Allergy Risk | Allergy Potential | Origin | Category | Regulatory Status |\n")
	b.WriteString("|---|---|---|---|---|---|---|---|---|---|\n")
	b.WriteString(rows.String())
	return b.String()
}
