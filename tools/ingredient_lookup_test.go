package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ingredientagent"
	"ingredientagent/tools/storage"
)

const testKnowledgeBase = `{
  "ingredients": [
    {"name": "Water", "purpose": "Solvent", "safety_rating": 10, "concerns": "No known concerns", "category": "Both", "aliases": ["Aqua"]},
    {"name": "Glycerin", "purpose": "Humectant", "safety_rating": 9, "concerns": "No known concerns", "category": "Cosmetics"},
    {"name": "Methylparaben", "purpose": "Preservative", "safety_rating": 4, "concerns": "Possible endocrine disruption", "category": "preservative"}
  ]
}`

func TestIngredientLookup_Lookup(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		expectFound bool
		expectConf  float64
		expectAlias string
	}{
		{name: "exact match", query: "Water", expectFound: true, expectConf: 1.0},
		{name: "case and spacing ignored", query: "  glycerin ", expectFound: true, expectConf: 1.0},
		{name: "alias match", query: "aqua", expectFound: true, expectConf: 0.95, expectAlias: "Water"},
		{name: "close spelling", query: "Methyl paraben", expectFound: true, expectAlias: "Methylparaben"},
		{name: "unknown ingredient", query: "Zirconium Tetrachlorohydrex", expectFound: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookup := NewIngredientLookup(storage.NewTestKnowledgeBase([]byte(testKnowledgeBase)))

			rec, err := lookup.Lookup(context.Background(), tt.query)
			require.NoError(t, err)

			if !tt.expectFound {
				assert.Nil(t, rec)
				return
			}
			require.NotNil(t, rec)
			assert.Equal(t, tt.query, rec.Name)
			assert.Equal(t, ingredientagent.SourcePrimary, rec.Source)
			if tt.expectConf > 0 {
				assert.InDelta(t, tt.expectConf, rec.Confidence, 0.001)
			} else {
				assert.GreaterOrEqual(t, rec.Confidence, minSimilarity)
				assert.Less(t, rec.Confidence, 1.0)
			}
			if tt.expectAlias != "" {
				assert.Contains(t, rec.Aliases, tt.expectAlias)
			}
		})
	}
}

func TestIngredientLookup_LoadsOnce(t *testing.T) {
	kb := storage.NewTestKnowledgeBase([]byte(testKnowledgeBase))
	lookup := NewIngredientLookup(kb)

	for _, name := range []string{"Water", "Glycerin", "Water"} {
		_, err := lookup.Lookup(context.Background(), name)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, kb.Loads())
}

func TestIngredientLookup_LoadError(t *testing.T) {
	lookup := NewIngredientLookup(storage.NewTestKnowledgeBaseWithError())

	_, err := lookup.Lookup(context.Background(), "Water")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read knowledge base")

	_, err = NewIngredientLookup(storage.NewTestKnowledgeBase([]byte(`not json`))).Lookup(context.Background(), "Water")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode knowledge base")
}

func TestIngredientLookup_Remember(t *testing.T) {
	lookup := NewIngredientLookup(storage.NewTestKnowledgeBase([]byte(testKnowledgeBase)))

	learned := ingredientagent.IngredientRecord{
		Name:         "Bakuchiol",
		Purpose:      "Antioxidant",
		SafetyRating: 8,
		Source:       ingredientagent.SourceFallback,
		Confidence:   0.8,
	}
	lookup.Remember(learned)

	rec, err := lookup.Lookup(context.Background(), "bakuchiol")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Antioxidant", rec.Purpose)
	assert.Equal(t, ingredientagent.SourcePrimary, rec.Source)
	assert.InDelta(t, 1.0, rec.Confidence, 0.001)

	// a second remember replaces rather than duplicates
	learned.SafetyRating = 7
	lookup.Remember(learned)
	rec, err = lookup.Lookup(context.Background(), "Bakuchiol")
	require.NoError(t, err)
	assert.Equal(t, 7, rec.SafetyRating)
}

func TestIngredientLookup_Run(t *testing.T) {
	lookup := NewIngredientLookup(storage.NewTestKnowledgeBase([]byte(testKnowledgeBase)))

	out, err := lookup.Run(context.Background(), map[string]any{"name": "Glycerin"})
	require.NoError(t, err)
	assert.Equal(t, true, out["found"])

	rec, err := DecodeResult(out)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Glycerin", rec.Name)
	assert.Equal(t, 9, rec.SafetyRating)

	out, err = lookup.Run(context.Background(), map[string]any{"name": "Unobtainium"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"found": false}, out)

	_, err = lookup.Run(context.Background(), map[string]any{})
	assert.Error(t, err)
}

func TestDiceSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, diceSimilarity("glycerin", "glycerin"), 0.001)
	assert.InDelta(t, 0.0, diceSimilarity("a", "glycerin"), 0.001)
	assert.Greater(t, diceSimilarity("glycerine", "glycerin"), 0.9)
	assert.Less(t, diceSimilarity("water", "glycerin"), minSimilarity)
}
