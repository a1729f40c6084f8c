package calculation

import (
	"github.com/shopspring/decimal"

	"github.com/finsim/retirement-engine/internal/config"
	"github.com/finsim/retirement-engine/internal/domain"
)

// HealthcareCalculator projects annual out-of-pocket medical costs during
// drawdown: Medicare premiums grown at medical inflation, an IRMAA surcharge
// when modified AGI crosses the filing threshold, and a probability-weighted
// long-term care cost over a configured age window.
type HealthcareCalculator struct {
	policy *config.Policy
}

// NewHealthcareCalculator creates a calculator over the built-in current-year
// policy.
func NewHealthcareCalculator() *HealthcareCalculator {
	return &HealthcareCalculator{policy: config.DefaultPolicy()}
}

// NewHealthcareCalculatorWithPolicy creates a calculator over a loaded policy
// file.
func NewHealthcareCalculatorWithPolicy(policy *config.Policy) *HealthcareCalculator {
	return &HealthcareCalculator{policy: policy}
}

// AnnualCost returns the medical cost for one drawdown year.
//
// age is the younger spouse's age that year; yearsRetired counts full years
// since retirement and drives the medical-inflation compounding; magi is the
// household's modified AGI for the IRMAA test; persons is the number of
// Medicare enrollees (spouses aged 65 or over).
func (hc *HealthcareCalculator) AnnualCost(h domain.Healthcare, age, yearsRetired, persons int, magi decimal.Decimal, married bool) decimal.Decimal {
	if persons < 0 {
		persons = 0
	}

	premium := h.MedicarePremiumMonthly
	if premium.IsZero() {
		premium = hc.policy.MedicareBasePremiumMonthly
	}

	monthly := premium
	filing := hc.policy.Filing(married)
	if magi.GreaterThan(filing.IRMAAThreshold) {
		monthly = monthly.Add(hc.policy.IRMAAMonthlySurcharge)
	}

	annual := monthly.Mul(twelve).Mul(decimal.NewFromInt(int64(persons)))

	if age >= h.LTCStartAge && age < h.LTCEndAge && h.LTCProbability.GreaterThan(decimal.Zero) {
		annual = annual.Add(h.LTCAnnualCost.Mul(h.LTCProbability))
	}

	if h.MedicalInflation.GreaterThan(decimal.Zero) && yearsRetired > 0 {
		growth := one.Add(h.MedicalInflation).Pow(decimal.NewFromInt(int64(yearsRetired)))
		annual = annual.Mul(growth)
	}

	return annual
}
