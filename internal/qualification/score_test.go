package qualification

import "testing"

func strptr(s string) *string   { return &s }
func intptr(i int) *int         { return &i }
func f64ptr(f float64) *float64 { return &f }

func fullExtraction() Extraction {
	return Extraction{
		Name:         strptr("Ana"),
		Intent:       strptr(IntentOwnHome),
		Financing:    strptr(FinancingOwnCapital),
		Timeline:     strptr(TimelineImmediate),
		BudgetUSD:    f64ptr(150000),
		Bedrooms:     intptr(3),
		LocationPref: strptr("Palermo"),
	}
}

func TestScoreAllMissingIsCold(t *testing.T) {
	if got := Score(Extraction{}); got != 0 {
		t.Fatalf("Score(empty) = %d, want 0", got)
	}
	if Band(0) != BandCold {
		t.Fatalf("Band(0) = %s, want cold", Band(0))
	}
}

func TestScoreMaximum(t *testing.T) {
	// 3 + 3 + 4 + 1 + 1 + 1
	if got := Score(fullExtraction()); got != 13 {
		t.Fatalf("Score(full) = %d, want 13", got)
	}
}

func TestScoreTotalForUnknownValues(t *testing.T) {
	e := Extraction{
		Intent:    strptr("something_else"),
		Financing: strptr(""),
		Timeline:  strptr("mañana"),
	}
	if got := Score(e); got != 0 {
		t.Fatalf("Score(unknown values) = %d, want 0", got)
	}
}

func TestScoreMonotonicPerDimension(t *testing.T) {
	base := Extraction{}
	steps := []Extraction{
		{Intent: strptr(IntentRental)},
		{Intent: strptr(IntentInvestment)},
		{Intent: strptr(IntentOwnHome)},
	}
	prev := Score(base)
	for _, step := range steps {
		got := Score(step)
		if got < prev {
			t.Fatalf("intent score decreased: %d -> %d", prev, got)
		}
		prev = got
	}

	timelines := []string{Timeline1YearPlus, Timeline6Months, Timeline3Months, TimelineImmediate}
	prev = 0
	for _, tl := range timelines {
		got := Score(Extraction{Timeline: strptr(tl)})
		if got <= prev && tl != Timeline1YearPlus {
			t.Fatalf("timeline %s score %d not above previous %d", tl, got, prev)
		}
		prev = got
	}

	// Adding any presence bonus never lowers the score.
	withBudget := fullExtraction()
	without := fullExtraction()
	without.BudgetUSD = nil
	if Score(withBudget) < Score(without) {
		t.Fatalf("budget bonus lowered score")
	}
}

func TestBandThresholds(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{0, BandCold},
		{4, BandCold},
		{5, BandWarm},
		{8, BandWarm},
		{9, BandHot},
		{13, BandHot},
	}
	for _, tc := range cases {
		if got := Band(tc.score); got != tc.want {
			t.Errorf("Band(%d) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestMergeNonNilOverwriteOnly(t *testing.T) {
	known := Extraction{
		Name:      strptr("Ana"),
		Intent:    strptr(IntentInvestment),
		BudgetUSD: f64ptr(100000),
	}
	incoming := Extraction{
		Intent:   strptr(IntentOwnHome),
		Bedrooms: intptr(2),
	}

	merged := Merge(known, incoming)

	if merged.Name == nil || *merged.Name != "Ana" {
		t.Fatalf("nil incoming erased name: %+v", merged)
	}
	if merged.Intent == nil || *merged.Intent != IntentOwnHome {
		t.Fatalf("non-nil incoming did not overwrite intent: %+v", merged)
	}
	if merged.BudgetUSD == nil || *merged.BudgetUSD != 100000 {
		t.Fatalf("budget lost: %+v", merged)
	}
	if merged.Bedrooms == nil || *merged.Bedrooms != 2 {
		t.Fatalf("bedrooms not set: %+v", merged)
	}
}

func TestMergeIdempotent(t *testing.T) {
	known := Extraction{Name: strptr("Ana")}
	incoming := Extraction{
		Intent:    strptr(IntentOwnHome),
		Timeline:  strptr(Timeline3Months),
		BudgetUSD: f64ptr(90000),
	}

	once := Merge(known, incoming)
	twice := Merge(once, incoming)

	if Score(once) != Score(twice) {
		t.Fatalf("scores differ: %d vs %d", Score(once), Score(twice))
	}
	if *once.Intent != *twice.Intent || *once.Timeline != *twice.Timeline || *once.BudgetUSD != *twice.BudgetUSD {
		t.Fatalf("merge not idempotent: %+v vs %+v", once, twice)
	}
}

func TestSummarizeKnownMissing(t *testing.T) {
	e := Extraction{
		Name:   strptr("Ana"),
		Intent: strptr(IntentOwnHome),
	}
	snap := Summarize(e)

	if len(snap.Known) != 2 {
		t.Fatalf("known = %v", snap.Known)
	}
	if len(snap.Missing) != 5 {
		t.Fatalf("missing = %v", snap.Missing)
	}

	full := Summarize(fullExtraction())
	if len(full.Missing) != 0 {
		t.Fatalf("full extraction still missing %v", full.Missing)
	}
	if full.MissingList() != "ninguno" {
		t.Fatalf("MissingList = %q", full.MissingList())
	}
}
