package analysis

import (
	"slices"
	"strings"

	"ingredientagent"
)

// allergenSynonyms maps an allergy family to related label terms.
var allergenSynonyms = map[string][]string{
	"milk":         {"dairy", "lactose", "casein", "whey", "lactalbumin"},
	"egg":          {"albumin", "lysozyme", "mayonnaise", "lecithin"},
	"peanut":       {"arachis", "groundnut", "peanut oil"},
	"tree nut":     {"almond", "cashew", "walnut", "hazelnut", "pistachio", "macadamia"},
	"soy":          {"soya", "soybean", "lecithin", "tofu"},
	"wheat":        {"gluten", "flour", "semolina", "durum", "spelt"},
	"fish":         {"cod", "salmon", "tuna", "anchovy", "fish oil"},
	"shellfish":    {"shrimp", "crab", "lobster", "prawn", "crustacean"},
	"sesame":       {"sesame oil", "tahini", "sesame seed"},
	"sulfite":      {"sulfur dioxide", "sodium sulfite", "metabisulfite"},
	"fragrance":    {"parfum", "perfume", "aroma", "essential oil"},
	"paraben":      {"methylparaben", "propylparaben", "butylparaben"},
	"formaldehyde": {"formalin", "dmdm hydantoin", "imidazolidinyl urea"},
}

// AllergenTerms expands a declared allergy into every term to search for.
// A declared term that is itself a synonym pulls in its whole family.
func AllergenTerms(allergy string) []string {
	allergy = strings.ToLower(strings.TrimSpace(allergy))
	if allergy == "" {
		return nil
	}
	terms := []string{allergy}
	for family, synonyms := range allergenSynonyms {
		if allergy == family || slices.Contains(synonyms, allergy) {
			terms = append(terms, family)
			terms = append(terms, synonyms...)
		}
	}
	slices.Sort(terms)
	return slices.Compact(terms)
}

// MatchAllergen returns the first declared allergy that rec matches.
func MatchAllergen(rec ingredientagent.IngredientRecord, allergies []string) (string, bool) {
	if len(allergies) == 0 {
		return "", false
	}

	text := strings.ToLower(strings.Join([]string{
		rec.Name,
		strings.Join(rec.Aliases, " "),
		rec.Category,
		rec.Concerns,
	}, " "))

	for _, allergy := range allergies {
		for _, term := range AllergenTerms(allergy) {
			if strings.Contains(text, term) {
				return allergy, true
			}
		}
	}
	return "", false
}

// AllergenMatch pairs an ingredient with the allergy it triggered.
type AllergenMatch struct {
	Ingredient string `json:"ingredient"`
	Allergy    string `json:"allergy"`
}

// FindAllAllergenMatches reports the first matching allergy of every
// ingredient that matches one.
func FindAllAllergenMatches(records []ingredientagent.IngredientRecord, profile ingredientagent.UserProfile) []AllergenMatch {
	matches := []AllergenMatch{}
	for _, rec := range records {
		if allergy, ok := MatchAllergen(rec, profile.Allergies); ok {
			matches = append(matches, AllergenMatch{Ingredient: rec.Name, Allergy: allergy})
		}
	}
	return matches
}
