package model

// MarginTier names the resolution strategy that produced a margin value.
type MarginTier string

const (
	TierOverride   MarginTier = "override"   // curated table, verified from terminal
	TierSimilarity MarginTier = "similarity" // inferred from a sibling contract
	TierFormula    MarginTier = "formula"    // min_price_increment * price * dlong/dshort
	TierPercentage MarginTier = "percentage" // percent of lot notional
)

// MarginResult is a resolved per-lot margin requirement (ГО) in the
// account currency. PerLot is always positive.
type MarginResult struct {
	PerLot float64    `json:"per_lot"`
	Tier   MarginTier `json:"tier"`
}

// TierTrace records what a single tier did during resolution, for the
// diagnostics output.
type TierTrace struct {
	Tier  MarginTier `json:"tier"`
	Value float64    `json:"value"`
	Fired bool       `json:"fired"`
	Note  string     `json:"note"`
}
