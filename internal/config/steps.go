package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Step is one rung of a "days:percent" ladder: after Days days, apply
// Percent. Used by both the reprice ladder and the offer discount tiers.
type Step struct {
	Days    int
	Percent float64
}

// ParseSteps parses the "days:pct,days:pct,..." grammar into a list sorted
// ascending by days. Malformed pairs are rejected; an empty string yields an
// empty list.
func ParseSteps(s string) ([]Step, error) {
	var steps []Step
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed step %q: want days:pct", pair)
		}
		days, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, fmt.Errorf("malformed step %q: %w", pair, err)
		}
		pct, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("malformed step %q: %w", pair, err)
		}
		steps = append(steps, Step{Days: days, Percent: pct})
	}
	sort.Slice(steps, func(i, j int) bool { return steps[i].Days < steps[j].Days })
	return steps, nil
}

// StepFor returns the latest step whose Days is <= daysActive, or false when
// no step applies yet. The steps must be sorted ascending, as ParseSteps
// guarantees.
func StepFor(steps []Step, daysActive int) (Step, bool) {
	var matched Step
	found := false
	for _, st := range steps {
		if daysActive >= st.Days {
			matched = st
			found = true
		}
	}
	return matched, found
}
