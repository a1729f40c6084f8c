package calculation

import (
	"github.com/shopspring/decimal"

	"github.com/finsim/retirement-engine/internal/config"
)

// RMDCalculator computes required minimum distributions from pre-tax
// balances using the policy's Uniform Lifetime divisor table.
type RMDCalculator struct {
	policy *config.Policy
}

// NewRMDCalculator creates a calculator over the built-in current-year policy.
func NewRMDCalculator() *RMDCalculator {
	return &RMDCalculator{policy: config.DefaultPolicy()}
}

// NewRMDCalculatorWithPolicy creates a calculator over a loaded policy file.
func NewRMDCalculatorWithPolicy(policy *config.Policy) *RMDCalculator {
	return &RMDCalculator{policy: policy}
}

// Required returns the minimum distribution for the given age and pre-tax
// balance. Below the policy start age the requirement is zero. Ages past the
// end of the divisor table use the fallback divisor.
func (rc *RMDCalculator) Required(age int, preTaxBalance decimal.Decimal) decimal.Decimal {
	if age < rc.policy.RMDStartAge || preTaxBalance.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return preTaxBalance.Div(rc.Divisor(age))
}

// Divisor returns the life-expectancy divisor for an age at or past the RMD
// start age.
func (rc *RMDCalculator) Divisor(age int) decimal.Decimal {
	for _, entry := range rc.policy.RMDDivisors {
		if entry.Age == age {
			return entry.Divisor
		}
	}
	return rc.policy.RMDFallbackDivisor
}
