package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"ingredientagent"
	"ingredientagent/tools/storage"
)

const (
	exactMatchConfidence = 1.0
	aliasMatchConfidence = 0.95

	// below this similarity a name is treated as unknown to the knowledge base
	minSimilarity = 0.5
)

// KnowledgeBaseDoc is the on-disk layout of the ingredient knowledge base.
type KnowledgeBaseDoc struct {
	Ingredients []ingredientagent.IngredientRecord `json:"ingredients"`
}

// IngredientLookup answers primary lookups from the knowledge base. The
// document is loaded once on first use; a failed load is retried on the
// next call. Records learned from the fallback search are remembered.
type IngredientLookup struct {
	kb storage.KnowledgeBase

	mu      sync.RWMutex
	loaded  bool
	records []ingredientagent.IngredientRecord
}

func NewIngredientLookup(kb storage.KnowledgeBase) *IngredientLookup {
	return &IngredientLookup{kb: kb}
}

func (t *IngredientLookup) Name() string  { return LookupToolName }
func (t *IngredientLookup) Title() string { return "Look up ingredient safety data" }
func (t *IngredientLookup) Description() string {
	return "Returns the knowledge-base safety record that best matches an ingredient name, with a match confidence."
}

func (t *IngredientLookup) InputSchema() *jsonschema.Schema  { return nameInputSchema() }
func (t *IngredientLookup) OutputSchema() *jsonschema.Schema { return resultSchema() }

func (t *IngredientLookup) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	name, err := nameFromInput(input)
	if err != nil {
		return nil, err
	}
	rec, err := t.Lookup(ctx, name)
	if err != nil {
		return nil, err
	}
	return EncodeResult(rec)
}

// Lookup returns the best match for name, or nil when nothing is close
// enough. The returned record always carries the requested name; the
// knowledge-base name is kept as an alias when it differs.
func (t *IngredientLookup) Lookup(ctx context.Context, name string) (*ingredientagent.IngredientRecord, error) {
	if err := t.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	query := normalizeName(name)
	var (
		best      *ingredientagent.IngredientRecord
		bestScore float64
	)
	for i := range t.records {
		score := matchScore(query, t.records[i])
		if score > bestScore {
			best, bestScore = &t.records[i], score
		}
	}
	if best == nil || bestScore < minSimilarity {
		slog.Info("RESEARCH: No knowledge-base match", "ingredient", name)
		return nil, nil
	}

	rec := *best
	rec.Aliases = append([]string(nil), best.Aliases...)
	if !strings.EqualFold(rec.Name, name) {
		rec.Aliases = append(rec.Aliases, rec.Name)
	}
	rec.Name = name
	rec.SafetyRating = ingredientagent.ClampRating(rec.SafetyRating)
	rec.Source = ingredientagent.SourcePrimary
	rec.Confidence = bestScore
	return &rec, nil
}

// Remember stores rec so later lookups of the same name hit the knowledge
// base. An existing entry with the same normalized name is replaced.
func (t *IngredientLookup) Remember(rec ingredientagent.IngredientRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := normalizeName(rec.Name)
	for i := range t.records {
		if normalizeName(t.records[i].Name) == key {
			t.records[i] = rec
			return
		}
	}
	t.records = append(t.records, rec)
}

func (t *IngredientLookup) ensureLoaded(ctx context.Context) error {
	t.mu.RLock()
	loaded := t.loaded
	t.mu.RUnlock()
	if loaded {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.loaded {
		return nil
	}

	b, err := t.kb.Load(ctx)
	if err != nil {
		return fmt.Errorf("read knowledge base: %w", err)
	}
	var doc KnowledgeBaseDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("decode knowledge base: %w", err)
	}

	// keep anything remembered before the first successful load
	t.records = append(doc.Ingredients, t.records...)
	t.loaded = true
	slog.Info("RESEARCH: Knowledge base loaded", "records", len(doc.Ingredients))
	return nil
}

func matchScore(query string, rec ingredientagent.IngredientRecord) float64 {
	if normalizeName(rec.Name) == query {
		return exactMatchConfidence
	}
	for _, alias := range rec.Aliases {
		if normalizeName(alias) == query {
			return aliasMatchConfidence
		}
	}
	return diceSimilarity(query, normalizeName(rec.Name))
}

func normalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// diceSimilarity is the Sørensen-Dice coefficient over character bigrams.
func diceSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) < 2 || len(rb) < 2 {
		return 0
	}

	bigrams := make(map[string]int, len(ra)-1)
	for i := 0; i < len(ra)-1; i++ {
		bigrams[string(ra[i:i+2])]++
	}
	overlap := 0
	for i := 0; i < len(rb)-1; i++ {
		bg := string(rb[i : i+2])
		if bigrams[bg] > 0 {
			bigrams[bg]--
			overlap++
		}
	}
	return 2 * float64(overlap) / float64(len(ra)-1+len(rb)-1)
}
