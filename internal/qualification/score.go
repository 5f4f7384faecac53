package qualification

import "strings"

var intentPoints = map[string]int{
	IntentOwnHome:    3,
	IntentInvestment: 2,
	IntentRental:     1,
}

var financingPoints = map[string]int{
	FinancingOwnCapital: 3,
	FinancingMixed:      2,
	FinancingNeeds:      1,
}

var timelinePoints = map[string]int{
	TimelineImmediate: 4,
	Timeline3Months:   3,
	Timeline6Months:   2,
	Timeline1YearPlus: 1,
}

// Score computes the weighted qualification score. It is total: unknown or
// missing values contribute zero, so the all-missing extraction scores 0.
func Score(e Extraction) int {
	score := 0
	if e.Intent != nil {
		score += intentPoints[*e.Intent]
	}
	if e.Financing != nil {
		score += financingPoints[*e.Financing]
	}
	if e.Timeline != nil {
		score += timelinePoints[*e.Timeline]
	}
	if e.BudgetUSD != nil && *e.BudgetUSD > 0 {
		score++
	}
	if e.Bedrooms != nil && *e.Bedrooms > 0 {
		score++
	}
	if e.LocationPref != nil && *e.LocationPref != "" {
		score++
	}
	return score
}

// Band maps a score to its temperature band.
func Band(score int) string {
	switch {
	case score >= 9:
		return BandHot
	case score >= 5:
		return BandWarm
	default:
		return BandCold
	}
}

// Merge folds a new extraction into known facts. Only non-nil incoming
// fields overwrite; nil never erases. Merging the same extraction twice is
// the same as merging it once.
func Merge(known, incoming Extraction) Extraction {
	if incoming.Name != nil {
		known.Name = incoming.Name
	}
	if incoming.Intent != nil {
		known.Intent = incoming.Intent
	}
	if incoming.Financing != nil {
		known.Financing = incoming.Financing
	}
	if incoming.Timeline != nil {
		known.Timeline = incoming.Timeline
	}
	if incoming.BudgetUSD != nil {
		known.BudgetUSD = incoming.BudgetUSD
	}
	if incoming.Bedrooms != nil {
		known.Bedrooms = incoming.Bedrooms
	}
	if incoming.LocationPref != nil {
		known.LocationPref = incoming.LocationPref
	}
	return known
}

// Snapshot summarizes what is known and what is still missing, for the
// prompt context.
type Snapshot struct {
	Known   []string
	Missing []string
}

// Summarize builds the known/missing field lists in a stable order.
func Summarize(e Extraction) Snapshot {
	var snap Snapshot

	field := func(label string, known bool) {
		if known {
			snap.Known = append(snap.Known, label)
		} else {
			snap.Missing = append(snap.Missing, label)
		}
	}

	field("name", e.Name != nil)
	field("intent", e.Intent != nil)
	field("financing", e.Financing != nil)
	field("timeline", e.Timeline != nil)
	field("budget_usd", e.BudgetUSD != nil)
	field("bedrooms", e.Bedrooms != nil)
	field("location_pref", e.LocationPref != nil)
	return snap
}

// MissingList renders the missing fields for the prompt, or "ninguno".
func (s Snapshot) MissingList() string {
	if len(s.Missing) == 0 {
		return "ninguno"
	}
	return strings.Join(s.Missing, ", ")
}
