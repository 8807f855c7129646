package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"ingredientagent"
)

const searchConfidence = 0.8

const searchPrompt = `Research the ingredient "%[1]s" used in food and/or cosmetics.

CRITICAL: You MUST use EXACTLY "%[1]s" as the INGREDIENT_NAME in your response.
Do NOT substitute, correct, translate, or use an alternative/scientific name.

Provide data in the structure below only. Do not give additional data.

INGREDIENT_NAME: %[1]s
PURPOSE: [what this ingredient does/its function]
SAFETY_RATING: [1-10 scale, 10 being safest]
CONCERNS: [safety concerns in simple language, no technical terms]
RECOMMENDATION: [usage recommendation]
ALLERGY_RISK_FLAG: [High or Low]
ALLERGY_POTENTIAL: [allergy risk for which types of skin/conditions]
ORIGIN: [natural, synthetic, or semi-synthetic]
CATEGORY: [Food, Cosmetics, or Both]
REGULATORY_STATUS: [US FDA and EU regulatory status]
REGULATORY_BANS: [Yes or No]

Be factual and cite current research.`

// IngredientSearch is the fallback research source: a text generator
// (ideally search-grounded) asked for a KEY: value safety profile.
type IngredientSearch struct {
	gen    ingredientagent.TextGenerator
	lookup *IngredientLookup
}

// NewIngredientSearch builds the fallback search. When lookup is non-nil,
// every parsed result is remembered there.
func NewIngredientSearch(gen ingredientagent.TextGenerator, lookup *IngredientLookup) *IngredientSearch {
	return &IngredientSearch{gen: gen, lookup: lookup}
}

func (t *IngredientSearch) Name() string  { return SearchToolName }
func (t *IngredientSearch) Title() string { return "Search ingredient safety data" }
func (t *IngredientSearch) Description() string {
	return "Researches an ingredient the knowledge base does not know and returns a parsed safety record."
}

func (t *IngredientSearch) InputSchema() *jsonschema.Schema  { return nameInputSchema() }
func (t *IngredientSearch) OutputSchema() *jsonschema.Schema { return resultSchema() }

func (t *IngredientSearch) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	name, err := nameFromInput(input)
	if err != nil {
		return nil, err
	}
	rec, err := t.Search(ctx, name)
	if err != nil {
		return nil, err
	}
	return EncodeResult(rec)
}

// Search asks the generator about name. An empty answer yields nil.
func (t *IngredientSearch) Search(ctx context.Context, name string) (*ingredientagent.IngredientRecord, error) {
	if t.gen == nil {
		return nil, fmt.Errorf("fallback search: %w", ingredientagent.ErrNotConfigured)
	}

	text, err := t.gen.Generate(ctx, fmt.Sprintf(searchPrompt, name))
	if err != nil {
		return nil, fmt.Errorf("fallback search for %q: %w", name, err)
	}
	if strings.TrimSpace(text) == "" {
		slog.Warn("RESEARCH: Fallback search returned nothing", "ingredient", name)
		return nil, nil
	}

	rec := ParseSearchResponse(name, text)
	if t.lookup != nil {
		t.lookup.Remember(rec)
	}
	slog.Info("RESEARCH: Fallback search succeeded", "ingredient", name, "safety_rating", rec.SafetyRating)
	return &rec, nil
}

// ParseSearchResponse reads KEY: value lines. Keys are matched upper-cased
// with spaces as underscores. The record is always named after the request.
func ParseSearchResponse(name, text string) ingredientagent.IngredientRecord {
	fields := make(map[string]string)
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(key)), " ", "_")
		fields[key] = strings.TrimSpace(value)
	}

	get := func(key, def string) string {
		if v, ok := fields[key]; ok {
			return v
		}
		return def
	}

	// "7/10" and "7" both read as 7
	ratingText, _, _ := strings.Cut(get("SAFETY_RATING", "5"), "/")
	rating, err := strconv.Atoi(strings.TrimSpace(ratingText))
	if err != nil {
		rating = 5
	}

	return ingredientagent.IngredientRecord{
		Name:             name,
		Purpose:          get("PURPOSE", "Unknown purpose"),
		SafetyRating:     ingredientagent.ClampRating(rating),
		Concerns:         get("CONCERNS", "No known concerns"),
		Recommendation:   get("RECOMMENDATION", "Use as directed"),
		AllergyRiskFlag:  ingredientagent.ParseAllergyRiskFlag(get("ALLERGY_RISK_FLAG", "Low")),
		AllergyPotential: get("ALLERGY_POTENTIAL", "Unknown"),
		Origin:           get("ORIGIN", "Unknown"),
		Category:         get("CATEGORY", "Unknown"),
		RegulatoryStatus: get("REGULATORY_STATUS", "Unknown"),
		RegulatoryBans:   get("REGULATORY_BANS", "No"),
		Source:           ingredientagent.SourceFallback,
		Confidence:       searchConfidence,
	}
}
