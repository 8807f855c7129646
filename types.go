package ingredientagent

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// SlackClient delivers finished analyses to a channel.
type SlackClient interface {
	PostMessage(ctx context.Context, channel string, message string) error
	PostResult(ctx context.Context, channel string, res Result) error
}

// TextGenerator is the single free-text LLM call the analysis, critic and
// fallback research collaborators are built on.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type SkinType string

const (
	SkinNormal      SkinType = "normal"
	SkinDry         SkinType = "dry"
	SkinOily        SkinType = "oily"
	SkinCombination SkinType = "combination"
	SkinSensitive   SkinType = "sensitive"
)

// ParseSkinType accepts any casing and surrounding whitespace.
func ParseSkinType(s string) (SkinType, error) {
	switch st := SkinType(strings.ToLower(strings.TrimSpace(s))); st {
	case SkinNormal, SkinDry, SkinOily, SkinCombination, SkinSensitive:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSkinType, s)
}

type ExpertiseLevel string

const (
	Beginner     ExpertiseLevel = "beginner"
	Intermediate ExpertiseLevel = "intermediate"
	Expert       ExpertiseLevel = "expert"
)

func ParseExpertiseLevel(s string) (ExpertiseLevel, error) {
	switch el := ExpertiseLevel(strings.ToLower(strings.TrimSpace(s))); el {
	case Beginner, Intermediate, Expert:
		return el, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidExpertise, s)
}

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

type AllergyRiskFlag string

const (
	AllergyRiskHigh AllergyRiskFlag = "high"
	AllergyRiskLow  AllergyRiskFlag = "low"
)

// ParseAllergyRiskFlag maps anything other than "high" to low.
func ParseAllergyRiskFlag(s string) AllergyRiskFlag {
	if strings.EqualFold(strings.TrimSpace(s), string(AllergyRiskHigh)) {
		return AllergyRiskHigh
	}
	return AllergyRiskLow
}

type RecordSource string

const (
	SourcePrimary  RecordSource = "primary-db"
	SourceFallback RecordSource = "fallback-search"
	SourceUnknown  RecordSource = "unknown"
)

// UserProfile carries the personalization inputs for a single run.
type UserProfile struct {
	Allergies []string       `json:"allergies"`
	SkinType  SkinType       `json:"skin_type"`
	Expertise ExpertiseLevel `json:"expertise"`
}

// IngredientRecord is the research output for one input name.
type IngredientRecord struct {
	Name             string          `json:"name"`
	Purpose          string          `json:"purpose"`
	SafetyRating     int             `json:"safety_rating"`
	Concerns         string          `json:"concerns"`
	Recommendation   string          `json:"recommendation"`
	AllergyRiskFlag  AllergyRiskFlag `json:"allergy_risk_flag"`
	AllergyPotential string          `json:"allergy_potential"`
	Origin           string          `json:"origin"`
	Category         string          `json:"category"`
	RegulatoryStatus string          `json:"regulatory_status"`
	RegulatoryBans   string          `json:"regulatory_bans"`
	Source           RecordSource    `json:"source"`
	Confidence       float64         `json:"confidence"`
	Aliases          []string        `json:"aliases,omitempty"`
}

// BaselineRisk converts the 1..10 safety rating (10 safest) into a 0..0.9 risk score.
func (r IngredientRecord) BaselineRisk() float64 {
	return float64(10-ClampRating(r.SafetyRating)) / 10
}

// ClampRating forces a rating into 1..10.
func ClampRating(rating int) int {
	return max(1, min(10, rating))
}

// UnknownRecord is the placeholder substituted when no source knows name.
func UnknownRecord(name string) IngredientRecord {
	return IngredientRecord{
		Name:             name,
		Purpose:          "Unknown",
		SafetyRating:     5,
		Concerns:         "No safety data available for this ingredient.",
		Recommendation:   "Use with caution - ingredient not recognized.",
		AllergyRiskFlag:  AllergyRiskLow,
		AllergyPotential: "Unknown",
		Origin:           "Unknown",
		Category:         "Unknown",
		RegulatoryStatus: "Unknown",
		RegulatoryBans:   "Unknown",
		Source:           SourceUnknown,
		Confidence:       0,
	}
}

type IngredientAssessment struct {
	Name            string    `json:"name"`
	RiskLevel       RiskLevel `json:"risk_level"`
	Rationale       string    `json:"rationale"`
	IsAllergenMatch bool      `json:"is_allergen_match"`
	Alternatives    []string  `json:"alternatives"`
}

// AnalysisReport is produced fresh by every analysis invocation.
type AnalysisReport struct {
	ProductName        string                 `json:"product_name"`
	OverallRisk        RiskLevel              `json:"overall_risk"`
	AverageSafetyScore int                    `json:"average_safety_score"`
	Summary            string                 `json:"summary"`
	Assessments        []IngredientAssessment `json:"assessments"`
	AllergenWarnings   []string               `json:"allergen_warnings"`
	ToneUsed           ExpertiseLevel         `json:"tone_used"`
	Degraded           bool                   `json:"degraded,omitempty"`
}

type Verdict string

const (
	VerdictApproved  Verdict = "approved"
	VerdictRejected  Verdict = "rejected"
	VerdictEscalated Verdict = "escalated"
)

type Gate string

const (
	GateCompleteness  Gate = "Completeness"
	GateFormat        Gate = "Format"
	GateAllergenMatch Gate = "Allergen Match"
	GateConsistency   Gate = "Consistency"
	GateTone          Gate = "Tone"
)

// Gates lists the validation gates in evaluation order.
var Gates = []Gate{GateCompleteness, GateFormat, GateAllergenMatch, GateConsistency, GateTone}

// GateResults holds one boolean per gate.
type GateResults map[Gate]bool

// AllPassingGates returns a fresh result set with every gate passing.
func AllPassingGates() GateResults {
	gr := make(GateResults, len(Gates))
	for _, g := range Gates {
		gr[g] = true
	}
	return gr
}

// Failed lists the failing gates in evaluation order.
func (gr GateResults) Failed() []Gate {
	var failed []Gate
	for _, g := range Gates {
		if ok, present := gr[g]; present && !ok {
			failed = append(failed, g)
		}
	}
	return failed
}

// CriticFeedback is the critic's verdict on the current report.
type CriticFeedback struct {
	Verdict     Verdict     `json:"verdict"`
	GateResults GateResults `json:"gate_results"`
	FailedGates []Gate      `json:"failed_gates"`
	Feedback    string      `json:"feedback"`
}

// Consistent reports whether approved, all-gates-true and no-failed-gates agree.
func (f CriticFeedback) Consistent() bool {
	allTrue := len(f.GateResults) == len(Gates) && len(f.GateResults.Failed()) == 0
	approved := f.Verdict == VerdictApproved
	return approved == allTrue && approved == (len(f.FailedGates) == 0)
}

// FailedGateNames renders the failed gates for messages.
func (f CriticFeedback) FailedGateNames() string {
	names := make([]string, len(f.FailedGates))
	for i, g := range f.FailedGates {
		names[i] = string(g)
	}
	return strings.Join(names, ", ")
}
