package critic

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"ingredientagent"
)

const (
	maxReasonLen  = 500
	maxSectionLen = 300
)

// gateMentions finds the textual mention of each gate.
var gateMentions = map[ingredientagent.Gate]string{
	ingredientagent.GateCompleteness:  `\bcompleteness\b`,
	ingredientagent.GateFormat:        `\bformat(?:ting)?\b`,
	ingredientagent.GateAllergenMatch: `\ballergens?\b`,
	ingredientagent.GateConsistency:   `\bconsistency\b`,
	ingredientagent.GateTone:          `\btone\b`,
}

var mentionPatterns = func() map[ingredientagent.Gate]*regexp.Regexp {
	out := make(map[ingredientagent.Gate]*regexp.Regexp, len(gateMentions))
	for gate, mention := range gateMentions {
		out[gate] = regexp.MustCompile(mention)
	}
	return out
}()

// Verdict language is judged per gate, over the text between one gate
// mention and the next within a clause.
var (
	explicitFailure = regexp.MustCompile(`\bfail|\bnot\b.*\bpass`)
	explicitPass    = regexp.MustCompile(`\bpass(?:es|ed)?\b`)
	failureAfter    = regexp.MustCompile(`missing|issue|incomplete|violation|\bnot\b.*\b(?:appropriate|match|correct)|wrong|problem|error|lacks`)
	failureBefore   = regexp.MustCompile(`\bnot\b|\blacks?\b|\bmissing\b`)
	negatedFailure  = regexp.MustCompile(`\b(?:no|without|zero)\s+(?:\w+\s+)?(?:issues?|problems?|errors?|violations?|failures?|missing)\b`)
)

// inferenceKeywords guess the failed gate from a bare reject reason,
// checked in gate order.
var inferenceKeywords = map[ingredientagent.Gate][]*regexp.Regexp{
	ingredientagent.GateCompleteness:  compileAll("missing ingredient", "not all ingredient", "incomplete", "doesn't cover"),
	ingredientagent.GateFormat:        compileAll("table", "format", "structure", "markdown", "column"),
	ingredientagent.GateAllergenMatch: compileAll("allergen", "allergy", "allergic"),
	ingredientagent.GateConsistency:   compileAll("consistency", "inconsistent", "score.*match", "rating.*concern", "mismatch"),
	ingredientagent.GateTone:          compileAll("tone", "language", "technical", "beginner", "expert", "complex", "simple"),
}

var (
	failedGateList  = regexp.MustCompile(`(?i)(?:gate failures?|failed gates?)\s*:?(.*)`)
	clauseSeparator = regexp.MustCompile(`[.;,!?]\s|\n`)
	rejectReason    = regexp.MustCompile(`(?is)REJECT[:\-\s]+(.*?)(?:\n\n|specific issues:|issues:|required fixes:|gate failures:|$)`)
	issuesSection   = regexp.MustCompile(`(?is)(?:specific )?issues:(.+?)(?:required fixes:|$)`)
	fixesSection    = regexp.MustCompile(`(?is)required fixes:(.+)$`)
	whitespace      = regexp.MustCompile(`\s+`)
)

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

// ParseVerdict classifies a validator response into gate results.
// Text starting with APPROVE, or text that never says REJECT, passes every
// gate. A REJECT fails each gate whose own stretch of text, up to the next
// gate mention, carries failure language. When none is named the gate is
// inferred from the stated reason and issue sections, defaulting to
// Completeness. The returned verdict is approved or rejected only; the
// retry budget is applied by Decide.
func ParseVerdict(text string) ingredientagent.CriticFeedback {
	trimmed := strings.TrimLeft(strings.TrimSpace(text), "*#> ")
	upper := strings.ToUpper(trimmed)

	if strings.HasPrefix(upper, "APPROVE") || !strings.Contains(upper, "REJECT") {
		return approved("All validation gates passed.")
	}

	results := ingredientagent.AllPassingGates()
	for gate := range failedGates(strings.ToLower(trimmed)) {
		results[gate] = false
	}

	reason := extractRejectReason(trimmed)
	issues := extractSection(issuesSection, trimmed)
	fixes := extractSection(fixesSection, trimmed)
	if len(results.Failed()) == 0 {
		results[inferGate(reason+" "+issues+" "+fixes)] = false
	}

	failed := results.Failed()
	return ingredientagent.CriticFeedback{
		Verdict:     ingredientagent.VerdictRejected,
		GateResults: results,
		FailedGates: failed,
		Feedback:    rejectFeedback(reason, issues, fixes, failed),
	}
}

type gateMention struct {
	gate       ingredientagent.Gate
	start, end int
}

// failedGates returns the gates the lowercased text reports as failing.
func failedGates(lower string) map[ingredientagent.Gate]bool {
	failed := make(map[ingredientagent.Gate]bool)
	for _, line := range strings.Split(lower, "\n") {
		// "Gate failures: Format, Tone" names every gate on the rest of the line
		if m := failedGateList.FindStringSubmatch(line); m != nil {
			for _, gm := range mentionsIn(m[1]) {
				failed[gm.gate] = true
			}
			continue
		}
		for _, clause := range clauseSeparator.Split(line, -1) {
			mentions := mentionsIn(clause)
			for i, gm := range mentions {
				beforeStart, afterEnd := 0, len(clause)
				if i > 0 {
					beforeStart = mentions[i-1].end
				}
				if i+1 < len(mentions) {
					afterEnd = mentions[i+1].start
				}
				if segmentFailed(clause[beforeStart:gm.start], clause[gm.start:afterEnd]) {
					failed[gm.gate] = true
				}
			}
		}
	}
	return failed
}

// segmentFailed judges one gate from the text leading up to its mention and
// the text that follows it. An explicit pass outranks incidental failure
// words; "no issues" style phrases never count as failure.
func segmentFailed(before, after string) bool {
	after = negatedFailure.ReplaceAllString(after, "")
	switch {
	case explicitFailure.MatchString(after):
		return true
	case explicitPass.MatchString(after):
		return false
	case failureAfter.MatchString(after):
		return true
	}
	return failureBefore.MatchString(negatedFailure.ReplaceAllString(before, ""))
}

func mentionsIn(text string) []gateMention {
	var out []gateMention
	for _, gate := range ingredientagent.Gates {
		for _, loc := range mentionPatterns[gate].FindAllStringIndex(text, -1) {
			out = append(out, gateMention{gate: gate, start: loc[0], end: loc[1]})
		}
	}
	slices.SortFunc(out, func(a, b gateMention) int { return cmp.Compare(a.start, b.start) })
	return out
}

func extractRejectReason(text string) string {
	m := rejectReason.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	reason := whitespace.ReplaceAllString(strings.TrimSpace(m[1]), " ")
	if len(reason) <= 5 {
		return ""
	}
	return truncate(reason, maxReasonLen)
}

func inferGate(reason string) ingredientagent.Gate {
	lower := strings.ToLower(reason)
	for _, gate := range ingredientagent.Gates {
		for _, re := range inferenceKeywords[gate] {
			if re.MatchString(lower) {
				return gate
			}
		}
	}
	return ingredientagent.GateCompleteness
}

func extractSection(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func rejectFeedback(reason, issues, fixes string, failed []ingredientagent.Gate) string {
	var parts []string
	if reason != "" {
		parts = append(parts, reason)
	}
	if issues != "" {
		parts = append(parts, "Issues: "+truncate(issues, maxSectionLen))
	}
	if fixes != "" {
		parts = append(parts, "Required fixes: "+truncate(fixes, maxSectionLen))
	}
	if len(parts) > 0 {
		return strings.Join(parts, " | ")
	}
	return fmt.Sprintf("Failed gates: %s. Please address these issues.", gateNames(failed))
}

func approved(feedback string) ingredientagent.CriticFeedback {
	return ingredientagent.CriticFeedback{
		Verdict:     ingredientagent.VerdictApproved,
		GateResults: ingredientagent.AllPassingGates(),
		FailedGates: []ingredientagent.Gate{},
		Feedback:    feedback,
	}
}

func gateNames(gates []ingredientagent.Gate) string {
	names := make([]string, len(gates))
	for i, g := range gates {
		names[i] = string(g)
	}
	return strings.Join(names, ", ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
