package analysis

import (
	"regexp"
	"strconv"
	"strings"

	"ingredientagent"
)

const neutralScore = 5

var ratingPattern = regexp.MustCompile(`(\d+)(?:/10)?`)

// ParseOverallRisk derives the overall risk and the integer mean safety
// rating from the ingredient table of a report. Any AVOID recommendation
// or banned/prohibited regulatory status makes the product high risk. A
// report with no parseable ratings is medium with a neutral score of 5.
func ParseOverallRisk(report string) (ingredientagent.RiskLevel, int) {
	var (
		inTable   bool
		hasAvoid  bool
		hasBanned bool
		ratings   []int
	)

	for _, line := range strings.Split(report, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.Contains(trimmed, "|") || strings.HasPrefix(trimmed, "|--") || strings.HasPrefix(trimmed, "| --") {
			continue
		}
		cells := tableCells(trimmed)
		if len(cells) < 5 {
			continue
		}
		if strings.Contains(cells[0], "Ingredient") || strings.Contains(cells[1], "Purpose") {
			inTable = true
			continue
		}
		if !inTable {
			continue
		}

		for _, cell := range cells {
			upper := strings.ToUpper(cell)
			if strings.Contains(upper, "AVOID") && !strings.Contains(upper, "USE WITH") {
				hasAvoid = true
				break
			}
		}

		last := strings.ToLower(cells[len(cells)-1])
		if strings.Contains(last, "banned") || strings.Contains(last, "prohibited") {
			hasBanned = true
		}

		if rating, ok := rowRating(cells); ok {
			ratings = append(ratings, rating)
		}
	}

	avg := neutralScore
	if len(ratings) > 0 {
		sum := 0
		for _, r := range ratings {
			sum += r
		}
		avg = sum / len(ratings)
	}

	switch {
	case hasAvoid || hasBanned:
		return ingredientagent.RiskHigh, avg
	case len(ratings) == 0:
		return ingredientagent.RiskMedium, neutralScore
	case avg <= 3:
		return ingredientagent.RiskHigh, avg
	case avg <= 6:
		return ingredientagent.RiskMedium, avg
	default:
		return ingredientagent.RiskLow, avg
	}
}

func tableCells(line string) []string {
	var cells []string
	for _, c := range strings.Split(line, "|") {
		if c = strings.TrimSpace(c); c != "" {
			cells = append(cells, c)
		}
	}
	return cells
}

// rowRating reads the Safety Rating column first, then scans the row left
// to right so names like "Vitamin B5" are not taken for a rating.
func rowRating(cells []string) (int, bool) {
	order := make([]string, 0, len(cells))
	if len(cells) > 2 {
		order = append(order, cells[2])
	}
	order = append(order, cells...)

	for _, cell := range order {
		m := ratingPattern.FindStringSubmatch(cell)
		if m == nil {
			continue
		}
		rating, err := strconv.Atoi(m[1])
		if err == nil && rating >= 1 && rating <= 10 {
			return rating, true
		}
	}
	return 0, false
}
