package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/blossom-labs/blossom/core/pkg/risk"
)

// LoadLimitsProfile reads a risk limits table from a YAML profile.
// Fields absent from the file keep their default values, so a profile only
// has to name what it changes.
func LoadLimitsProfile(path string) (risk.Limits, error) {
	limits := risk.DefaultLimits()

	raw, err := os.ReadFile(path)
	if err != nil {
		return limits, fmt.Errorf("config: read limits profile: %w", err)
	}
	if err := yaml.Unmarshal(raw, &limits); err != nil {
		return limits, fmt.Errorf("config: parse limits profile: %w", err)
	}

	if err := validateLimits(limits); err != nil {
		return limits, err
	}
	return limits, nil
}

func validateLimits(l risk.Limits) error {
	if l.MaxOpenInterest <= 0 {
		return fmt.Errorf("config: max_open_interest must be positive")
	}
	if l.MaxLeverage <= 0 {
		return fmt.Errorf("config: max_leverage must be positive")
	}
	if l.MaxPositions <= 0 {
		return fmt.Errorf("config: max_positions must be positive")
	}
	if l.MaxBondSpend < 0 {
		return fmt.Errorf("config: max_bond_spend must not be negative")
	}
	if l.MaxMarketCreations < 0 {
		return fmt.Errorf("config: max_market_creations must not be negative")
	}
	return nil
}
