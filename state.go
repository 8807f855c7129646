package ingredientagent

import (
	"slices"
	"strings"
	"time"
)

// Stage names a workflow node. StageEnd is a routing target only and never
// appears in the routing history.
type Stage string

const (
	StageResearch Stage = "research"
	StageAnalysis Stage = "analysis"
	StageCritic   Stage = "critic"
	StageEnd      Stage = "end"
)

// StageTimings accumulates elapsed time per stage.
type StageTimings struct {
	Research time.Duration `json:"research"`
	Analysis time.Duration `json:"analysis"`
	Critic   time.Duration `json:"critic"`
}

// Record overwrites the research timing and adds to analysis and critic
// timings, which accumulate across retries.
func (t StageTimings) Record(stage Stage, elapsed time.Duration) StageTimings {
	switch stage {
	case StageResearch:
		t.Research = elapsed
	case StageAnalysis:
		t.Analysis += elapsed
	case StageCritic:
		t.Critic += elapsed
	}
	return t
}

// AnalysisRequest is the caller-facing input of a run.
type AnalysisRequest struct {
	SessionID   string   `json:"session_id"`
	ProductName string   `json:"product_name"`
	Ingredients []string `json:"ingredients"`
	Allergies   []string `json:"allergies"`
	SkinType    string   `json:"skin_type"`
	Expertise   string   `json:"expertise"`
}

// WorkflowState is the record threaded through one analysis run. Stages
// never mutate it; they return an Update that Apply folds into a copy.
type WorkflowState struct {
	SessionID          string             `json:"session_id"`
	ProductName        string             `json:"product_name"`
	RawIngredientNames []string           `json:"raw_ingredient_names"`
	Profile            UserProfile        `json:"user_profile"`
	IngredientRecords  []IngredientRecord `json:"ingredient_records"`
	Report             *AnalysisReport    `json:"report,omitempty"`
	Verdict            *CriticFeedback    `json:"gate_verdict,omitempty"`
	RetryCount         int                `json:"retry_count"`
	RoutingHistory     []Stage            `json:"routing_history"`
	StageTimings       StageTimings       `json:"stage_timings"`
	Error              string             `json:"error,omitempty"`
}

// NewWorkflowState validates req and builds the initial state. On a
// validation error the returned state already carries it in Error.
func NewWorkflowState(req AnalysisRequest) (WorkflowState, error) {
	state := WorkflowState{
		SessionID:          req.SessionID,
		ProductName:        req.ProductName,
		RawIngredientNames: slices.Clone(req.Ingredients),
		IngredientRecords:  []IngredientRecord{},
		RoutingHistory:     []Stage{},
	}
	if state.ProductName == "" {
		state.ProductName = "Unknown Product"
	}

	skin, err := ParseSkinType(defaultString(req.SkinType, string(SkinNormal)))
	if err != nil {
		state.Error = err.Error()
		return state, err
	}
	expertise, err := ParseExpertiseLevel(defaultString(req.Expertise, string(Beginner)))
	if err != nil {
		state.Error = err.Error()
		return state, err
	}
	state.Profile = UserProfile{
		Allergies: normalizeAllergies(req.Allergies),
		SkinType:  skin,
		Expertise: expertise,
	}

	if len(state.RawIngredientNames) == 0 {
		state.Error = ErrNoIngredients.Error()
		return state, ErrNoIngredients
	}
	return state, nil
}

// Update is the partial result of a stage. Zero fields leave state unchanged.
type Update struct {
	IngredientRecords []IngredientRecord
	Report            *AnalysisReport
	Verdict           *CriticFeedback
	IncrementRetry    bool
}

// Apply returns a copy of s with u folded in. A new report always clears
// the previous verdict so a stale verdict is never read against it.
func (s WorkflowState) Apply(u Update) WorkflowState {
	next := s.clone()
	if u.IngredientRecords != nil {
		next.IngredientRecords = slices.Clone(u.IngredientRecords)
	}
	if u.Report != nil {
		report := *u.Report
		next.Report = &report
		next.Verdict = nil
	}
	if u.Verdict != nil {
		verdict := *u.Verdict
		next.Verdict = &verdict
	}
	if u.IncrementRetry {
		next.RetryCount++
	}
	return next
}

// Visit records one agent invocation in the routing history and timings.
func (s WorkflowState) Visit(stage Stage, elapsed time.Duration) WorkflowState {
	next := s.clone()
	next.RoutingHistory = append(next.RoutingHistory, stage)
	next.StageTimings = next.StageTimings.Record(stage, elapsed)
	return next
}

// WithError returns a copy of s carrying err. A nil err is a no-op.
func (s WorkflowState) WithError(err error) WorkflowState {
	if err == nil {
		return s
	}
	next := s.clone()
	next.Error = err.Error()
	return next
}

// Escalated reports whether the run ended in a degraded-but-usable state.
func (s WorkflowState) Escalated() bool {
	return s.Verdict != nil && s.Verdict.Verdict == VerdictEscalated
}

func (s WorkflowState) clone() WorkflowState {
	next := s
	next.RawIngredientNames = slices.Clone(s.RawIngredientNames)
	next.IngredientRecords = slices.Clone(s.IngredientRecords)
	next.RoutingHistory = slices.Clone(s.RoutingHistory)
	next.Profile.Allergies = slices.Clone(s.Profile.Allergies)
	return next
}

// ParseIngredientList splits free text on commas and newlines, dropping blanks.
func ParseIngredientList(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == '\n' })
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		if name := strings.TrimSpace(f); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func normalizeAllergies(allergies []string) []string {
	out := make([]string, 0, len(allergies))
	seen := make(map[string]bool, len(allergies))
	for _, a := range allergies {
		a = strings.TrimSpace(a)
		key := strings.ToLower(a)
		if a == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, a)
	}
	return out
}

func defaultString(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
