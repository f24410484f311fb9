// Package risk is the leveraged-market policy gate: a second, optional
// authorization layer evaluated on top of the session policy for plans
// that trade leveraged markets. Every call is a pure evaluation against a
// state snapshot; the caller persists mutations only after the operation
// actually executed.
package risk

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// AssetClass is a coarse leverage-risk bucket.
type AssetClass string

const (
	ClassMajor   AssetClass = "major"
	ClassAltcoin AssetClass = "altcoin"
	ClassMeme    AssetClass = "meme"
)

// Limits is the configurable bounds table. It is threaded into every call
// rather than held in a package global, so distinct tenants or
// environments can run with distinct tables.
type Limits struct {
	MaxOpenInterest    float64                `yaml:"max_open_interest" json:"max_open_interest"`
	MaxLeverage        float64                `yaml:"max_leverage" json:"max_leverage"`
	MaxPositions       int                    `yaml:"max_positions" json:"max_positions"`
	MaxBondSpend       float64                `yaml:"max_bond_spend" json:"max_bond_spend"`
	MaxMarketCreations int                    `yaml:"max_market_creations" json:"max_market_creations"`
	ClassLeverageCaps  map[AssetClass]float64 `yaml:"class_leverage_caps" json:"class_leverage_caps"`
	ClassSymbols       map[AssetClass][]string `yaml:"class_symbols" json:"class_symbols"`
	// UnitScale converts settlement-asset base units to quote-currency
	// numbers when an operation is reconstructed from calldata.
	UnitScale float64 `yaml:"unit_scale" json:"unit_scale"`
}

// DefaultLimits returns the stock bounds table.
func DefaultLimits() Limits {
	return Limits{
		MaxOpenInterest:    100_000,
		MaxLeverage:        25,
		MaxPositions:       10,
		MaxBondSpend:       5_000,
		MaxMarketCreations: 3,
		ClassLeverageCaps: map[AssetClass]float64{
			ClassMajor:   50,
			ClassAltcoin: 20,
			ClassMeme:    10,
		},
		ClassSymbols: map[AssetClass][]string{
			ClassMajor: {"BTC", "ETH", "SOL"},
			ClassMeme:  {"DOGE", "SHIB", "PEPE", "WIF", "BONK"},
		},
		UnitScale: 1_000_000,
	}
}

// ClassifyAsset buckets a market symbol. Symbols are NFKC-normalized and
// upper-cased before lookup; anything not on an allow-list is altcoin.
func (l Limits) ClassifyAsset(symbol string) AssetClass {
	s := strings.ToUpper(strings.TrimSpace(norm.NFKC.String(symbol)))
	for class, symbols := range l.ClassSymbols {
		for _, sym := range symbols {
			if sym == s {
				return class
			}
		}
	}
	return ClassAltcoin
}

// classLeverageCap returns the per-class cap, or 0 when no cap is
// configured for the class.
func (l Limits) classLeverageCap(class AssetClass) float64 {
	if l.ClassLeverageCaps == nil {
		return 0
	}
	return l.ClassLeverageCaps[class]
}
