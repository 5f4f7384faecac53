// Package qualification scores leads from conversationally extracted facts.
package qualification

import (
	"time"

	"github.com/google/uuid"
)

// Intent values.
const (
	IntentOwnHome    = "own_home"
	IntentInvestment = "investment"
	IntentRental     = "rental"
)

// Financing values.
const (
	FinancingOwnCapital = "own_capital"
	FinancingMixed      = "mixed"
	FinancingNeeds      = "needs_financing"
)

// Timeline values.
const (
	TimelineImmediate = "immediate"
	Timeline3Months   = "3_months"
	Timeline6Months   = "6_months"
	Timeline1YearPlus = "1_year_plus"
)

// Score bands.
const (
	BandHot  = "hot"
	BandWarm = "warm"
	BandCold = "cold"
)

// Extraction holds the facts pulled out of one lead exchange. Nil fields
// mean the exchange revealed nothing about that dimension.
type Extraction struct {
	Name         *string  `json:"name"`
	Intent       *string  `json:"intent"`
	Financing    *string  `json:"financing"`
	Timeline     *string  `json:"timeline"`
	BudgetUSD    *float64 `json:"budget_usd"`
	Bedrooms     *int     `json:"bedrooms"`
	LocationPref *string  `json:"location_pref"`
}

// Lead is a prospect tied to a project by phone.
type Lead struct {
	ID            uuid.UUID
	DeveloperID   uuid.UUID
	ProjectID     uuid.UUID
	Phone         string
	Qualification Extraction
	Score         int
	Band          string
	LastMessageAt *time.Time
	CreatedAt     time.Time
}

// DisplayName returns the lead's stated name or the phone as fallback.
func (l Lead) DisplayName() string {
	if l.Qualification.Name != nil && *l.Qualification.Name != "" {
		return *l.Qualification.Name
	}
	return l.Phone
}
